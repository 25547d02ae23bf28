package game

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// gamePassImporter locates PC Game Pass titles by scanning the drives'
// XboxGames directories for the GamingRoot marker and matching the
// package identifier against each game's MicrosoftGame.config.
type gamePassImporter struct{}

func (gamePassImporter) Platform() string { return ts.PlatformGamePass }

// microsoftGameConfig is the subset of MicrosoftGame.config tcli reads.
type microsoftGameConfig struct {
	Identity struct {
		Name string `xml:"Name,attr"`
	} `xml:"Identity"`
}

func (gamePassImporter) Construct(base *ImportBase, dist ts.GameDefPlatform) (*Data, error) {
	for _, root := range gamePassRoots() {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			contentDir := filepath.Join(root, entry.Name(), "Content")
			if matchGamePassConfig(contentDir, dist.Identifier) {
				return constructData(base, dist, contentDir)
			}
		}
	}
	return nil, errors.Errorf("game pass title %q is not installed; pass --game-dir to import directly", dist.Identifier)
}

// gamePassRoots returns every XboxGames directory found on fixed drives.
func gamePassRoots() []string {
	var roots []string
	for drive := 'A'; drive <= 'Z'; drive++ {
		root := string(drive) + `:\XboxGames`
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			roots = append(roots, root)
		}
	}
	return roots
}

func matchGamePassConfig(contentDir, identifier string) bool {
	contents, err := os.ReadFile(filepath.Join(contentDir, "MicrosoftGame.config"))
	if err != nil {
		return false
	}
	var config microsoftGameConfig
	if err := xml.Unmarshal(contents, &config); err != nil {
		return false
	}
	return strings.EqualFold(config.Identity.Name, identifier)
}
