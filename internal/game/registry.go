// Package game tracks imported game installations and launches them.
// Importers locate a game through its store platform (Steam, EGS, Game
// Pass, EA, or a DRM-free directory) and record it in the project's game
// registry.
package game

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// Data is one imported game in the project registry.
type Data struct {
	EcosystemLabel        string               `json:"ecosystem_label"`
	Identifier            string               `json:"identifier"`
	DisplayName           string               `json:"display_name"`
	ActiveDistribution    ActiveDistribution   `json:"active_distribution"`
	PossibleDistributions []ts.GameDefPlatform `json:"possible_distributions"`
}

// ActiveDistribution is the store install the project actually uses.
type ActiveDistribution struct {
	Dist    ts.GameDefPlatform `json:"dist"`
	GameDir string             `json:"game_dir"`
	DataDir string             `json:"data_dir"`
	ExePath string             `json:"exe_path"`
}

// ReadRegistry returns every imported game. A missing registry file is an
// empty registry.
func ReadRegistry(path string) ([]Data, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading game registry %s", path)
	}
	if len(contents) == 0 {
		return nil, nil
	}

	var registry []Data
	if err := json.Unmarshal(contents, &registry); err != nil {
		return nil, errors.Wrapf(err, "parsing game registry %s", path)
	}
	return registry, nil
}

// FindGame returns the registered game with the given identifier.
func FindGame(path, identifier string) (*Data, error) {
	registry, err := ReadRegistry(path)
	if err != nil {
		return nil, err
	}
	for i := range registry {
		if registry[i].Identifier == identifier {
			return &registry[i], nil
		}
	}
	return nil, nil
}

// WriteRegistry appends data to the registry, skipping exact duplicates.
func WriteRegistry(path string, data Data) error {
	registry, err := ReadRegistry(path)
	if err != nil {
		return err
	}

	for _, existing := range registry {
		if existing.Identifier == data.Identifier && existing.ActiveDistribution == data.ActiveDistribution {
			return nil
		}
	}
	registry = append(registry, data)

	out, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding game registry")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrapf(err, "writing game registry %s", path)
	}
	return nil
}

// SupportedPlatforms lists the store platforms importable on an OS.
func SupportedPlatforms(goos string) []string {
	platforms := []string{"Steam", "DRM Free"}
	if goos == "windows" {
		platforms = append(platforms, "Epic Games Store (EGS)", "PC Game Pass", "EA App")
	}
	return platforms
}
