package game

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// ImportOverrides let the user bypass store detection when importing.
type ImportOverrides struct {
	// GameDir points straight at the game install, skipping store lookup.
	GameDir string
	// ExePath names the executable to launch instead of the schema's
	// candidates.
	ExePath string
}

// ImportBase bundles everything an importer needs to locate one game.
type ImportBase struct {
	Identifier string
	Def        ts.GameDef
	Overrides  ImportOverrides
}

// NewImportBase looks the game up in the ecosystem schema.
func NewImportBase(schema *ts.EcosystemSchema, identifier string, overrides ImportOverrides) (*ImportBase, error) {
	def, ok := schema.Games[identifier]
	if !ok {
		return nil, errors.Errorf("game %q does not exist in the ecosystem schema", identifier)
	}
	return &ImportBase{Identifier: identifier, Def: def, Overrides: overrides}, nil
}

// An Importer locates a game install for one store distribution.
type Importer interface {
	// Platform returns the ecosystem platform label this importer serves.
	Platform() string
	// Construct resolves the game's install directory and executable.
	Construct(base *ImportBase, dist ts.GameDefPlatform) (*Data, error)
}

// importersFor returns the importers usable on the given OS, in
// preference order.
func importersFor(goos string) []Importer {
	importers := []Importer{steamImporter{}, noDRMImporter{}}
	if goos == "windows" {
		importers = append(importers, egsImporter{}, gamePassImporter{}, eaImporter{})
	}
	return importers
}

// SelectImporter picks the first importer matching one of the game's
// distributions. A game-dir override always selects the DRM-free
// importer, since no store lookup is needed.
func SelectImporter(base *ImportBase) (Importer, ts.GameDefPlatform, error) {
	if base.Overrides.GameDir != "" {
		return noDRMImporter{}, ts.GameDefPlatform{Platform: ts.PlatformOther}, nil
	}

	for _, imp := range importersFor(runtime.GOOS) {
		for _, dist := range base.Def.Distributions {
			if dist.Platform == imp.Platform() {
				return imp, dist, nil
			}
		}
	}
	return nil, ts.GameDefPlatform{}, errors.Errorf(
		"no importer available for %q on %s; pass --game-dir to import it directly",
		base.Identifier, runtime.GOOS)
}

// Import locates the game and returns its registry entry.
func Import(base *ImportBase) (*Data, error) {
	imp, dist, err := SelectImporter(base)
	if err != nil {
		return nil, err
	}
	return imp.Construct(base, dist)
}

// findGameExe locates the game executable inside gameDir, trying the
// schema's candidate names in order. An exe-path override wins outright.
func findGameExe(base *ImportBase, gameDir string) (string, error) {
	if base.Overrides.ExePath != "" {
		return base.Overrides.ExePath, nil
	}
	if base.Def.R2Modman == nil {
		return "", errors.Errorf("game %q has no launch metadata in the ecosystem schema", base.Identifier)
	}

	for _, name := range base.Def.R2Modman.ExeNames {
		candidate := filepath.Join(gameDir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", errors.Errorf("no known executable found in %s; pass --exe-path to set one", gameDir)
}

// constructData assembles the registry entry once the install dir is known.
func constructData(base *ImportBase, dist ts.GameDefPlatform, gameDir string) (*Data, error) {
	exePath, err := findGameExe(base, gameDir)
	if err != nil {
		return nil, err
	}

	dataDir := gameDir
	if base.Def.R2Modman != nil && base.Def.R2Modman.DataFolderName != "" {
		dataDir = filepath.Join(gameDir, base.Def.R2Modman.DataFolderName)
	}

	return &Data{
		EcosystemLabel:        base.Def.Label,
		Identifier:            base.Identifier,
		DisplayName:           base.Def.Meta.DisplayName,
		PossibleDistributions: base.Def.Distributions,
		ActiveDistribution: ActiveDistribution{
			Dist:    dist,
			GameDir: gameDir,
			DataDir: dataDir,
			ExePath: exePath,
		},
	}, nil
}
