// Package config resolves the tcli home directory, which holds the package
// cache, the package index, and the cached ecosystem schema.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// HomeDir returns the tcli home directory.
//
// Resolution:
//   - $TCLI_HOME if set (explicit override)
//   - $XDG_DATA_HOME/tcli if set (respects XDG on any platform)
//   - %AppData%/tcli on Windows
//   - ~/.local/share/tcli on macOS and Linux
func HomeDir() string {
	if dir := os.Getenv("TCLI_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tcli")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "tcli")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "tcli")
}

// IndexDir returns the directory holding the local package index.
func IndexDir() string {
	return filepath.Join(HomeDir(), "index")
}

// CacheDir returns the directory holding downloaded package archives.
func CacheDir() string {
	return filepath.Join(HomeDir(), "cache")
}

// EnsureHome creates the home, index, and cache directories if missing.
func EnsureHome() (string, error) {
	home := HomeDir()
	for _, dir := range []string{home, filepath.Join(home, "index"), filepath.Join(home, "cache")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	return home, nil
}
