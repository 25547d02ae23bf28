package game

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// egsImporter locates games through the Epic Games Launcher's manifest
// directory, where each installed title has a .item JSON file naming its
// install location.
type egsImporter struct{}

func (egsImporter) Platform() string { return ts.PlatformEGS }

// egsManifest is the subset of an Epic .item manifest tcli reads.
type egsManifest struct {
	AppName         string `json:"AppName"`
	DisplayName     string `json:"DisplayName"`
	InstallLocation string `json:"InstallLocation"`
}

func (egsImporter) Construct(base *ImportBase, dist ts.GameDefPlatform) (*Data, error) {
	manifestDir := filepath.Join(os.Getenv("ProgramData"), "Epic", "EpicGamesLauncher", "Data", "Manifests")
	entries, err := os.ReadDir(manifestDir)
	if err != nil {
		return nil, errors.Wrap(err, "reading epic games launcher manifests; pass --game-dir to import directly")
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".item") {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(manifestDir, entry.Name()))
		if err != nil {
			continue
		}
		var manifest egsManifest
		if err := json.Unmarshal(contents, &manifest); err != nil {
			continue
		}
		if strings.EqualFold(manifest.AppName, dist.Identifier) {
			return constructData(base, dist, manifest.InstallLocation)
		}
	}
	return nil, errors.Errorf("epic games store app %q is not installed", dist.Identifier)
}
