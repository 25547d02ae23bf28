package game

import (
	"os"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// noDRMImporter imports a game straight from a directory the user points
// at. It backs the --game-dir override and the "other" distribution.
type noDRMImporter struct{}

func (noDRMImporter) Platform() string { return ts.PlatformOther }

func (noDRMImporter) Construct(base *ImportBase, dist ts.GameDefPlatform) (*Data, error) {
	gameDir := base.Overrides.GameDir
	if gameDir == "" {
		return nil, errors.Errorf("importing %q without a store requires --game-dir", base.Identifier)
	}
	info, err := os.Stat(gameDir)
	if err != nil {
		return nil, errors.Wrapf(err, "checking game directory %s", gameDir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", gameDir)
	}
	return constructData(base, dist, gameDir)
}
