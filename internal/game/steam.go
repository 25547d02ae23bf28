package game

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// steamImporter locates games through the Steam library metadata on disk:
// libraryfolders.vdf lists every library, and each library's
// appmanifest_<appid>.acf names the install directory under
// steamapps/common.
type steamImporter struct{}

func (steamImporter) Platform() string { return ts.PlatformSteam }

func (s steamImporter) Construct(base *ImportBase, dist ts.GameDefPlatform) (*Data, error) {
	steamDir, err := findSteamDir()
	if err != nil {
		return nil, err
	}

	gameDir, err := findSteamApp(steamDir, dist.Identifier)
	if err != nil {
		return nil, errors.Wrapf(err, "locating steam app %s", dist.Identifier)
	}
	return constructData(base, dist, gameDir)
}

// findSteamDir returns the root Steam directory for the current OS.
func findSteamDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "determining home directory")
	}

	var candidates []string
	switch runtime.GOOS {
	case "windows":
		candidates = []string{
			filepath.Join(os.Getenv("ProgramFiles(x86)"), "Steam"),
			filepath.Join(os.Getenv("ProgramFiles"), "Steam"),
		}
	case "darwin":
		candidates = []string{filepath.Join(home, "Library", "Application Support", "Steam")}
	default:
		candidates = []string{
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
		}
	}

	for _, dir := range candidates {
		if info, err := os.Stat(filepath.Join(dir, "steamapps")); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", errors.New("steam installation not found; pass --game-dir to import directly")
}

// findSteamApp resolves an app ID to its install directory, searching the
// main library and every additional library in libraryfolders.vdf.
func findSteamApp(steamDir, appID string) (string, error) {
	libraries := []string{steamDir}
	libraries = append(libraries, readLibraryFolders(filepath.Join(steamDir, "steamapps", "libraryfolders.vdf"))...)

	for _, library := range libraries {
		manifest := filepath.Join(library, "steamapps", "appmanifest_"+appID+".acf")
		installDir, err := readVDFField(manifest, "installdir")
		if err != nil {
			continue
		}
		gameDir := filepath.Join(library, "steamapps", "common", installDir)
		if info, err := os.Stat(gameDir); err == nil && info.IsDir() {
			return gameDir, nil
		}
	}
	return "", errors.Errorf("app %s is not installed in any steam library", appID)
}

// readLibraryFolders extracts the library paths from libraryfolders.vdf.
// Errors are swallowed: a missing or malformed file just means no extra
// libraries.
func readLibraryFolders(path string) []string {
	fields, err := readVDFFields(path, "path")
	if err != nil {
		return nil
	}
	return fields
}

// vdfPair matches a quoted key/value line in Valve's KeyValues format.
var vdfPair = regexp.MustCompile(`^"((?:[^"\\]|\\.)*)"\s+"((?:[^"\\]|\\.)*)"$`)

// readVDFFields scans a VDF file for every value stored under key. Nested
// structure is ignored; the format's flat key/value lines carry all the
// data tcli needs.
func readVDFFields(path, key string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var values []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := vdfPair.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil || !strings.EqualFold(m[1], key) {
			continue
		}
		value := strings.ReplaceAll(m[2], `\\`, `\`)
		values = append(values, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func readVDFField(path, key string) (string, error) {
	values, err := readVDFFields(path, key)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", errors.Errorf("field %q not found in %s", key, path)
	}
	return values[0], nil
}
