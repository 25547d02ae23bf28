package game

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// eaImporter locates EA App titles by probing the default install roots
// for a directory matching the ecosystem identifier. The EA App keeps its
// install metadata in the Windows registry, which tcli does not read, so
// detection is filesystem-based and --game-dir is the fallback.
type eaImporter struct{}

func (eaImporter) Platform() string { return ts.PlatformEA }

func (eaImporter) Construct(base *ImportBase, dist ts.GameDefPlatform) (*Data, error) {
	roots := []string{
		filepath.Join(os.Getenv("ProgramFiles"), "EA Games"),
		filepath.Join(os.Getenv("ProgramFiles(x86)"), "EA Games"),
		filepath.Join(os.Getenv("ProgramFiles"), "Origin Games"),
		filepath.Join(os.Getenv("ProgramFiles(x86)"), "Origin Games"),
	}

	for _, root := range roots {
		gameDir := filepath.Join(root, dist.Identifier)
		if info, err := os.Stat(gameDir); err == nil && info.IsDir() {
			return constructData(base, dist, gameDir)
		}
	}
	return nil, errors.Errorf("EA app title %q is not installed; pass --game-dir to import directly", dist.Identifier)
}
