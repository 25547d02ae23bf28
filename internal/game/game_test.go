package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thunderstore/tcli/internal/ts"
)

func testSchema() *ts.EcosystemSchema {
	return &ts.EcosystemSchema{
		SchemaVersion: "0.1.0",
		Games: map[string]ts.GameDef{
			"riskofrain2": {
				Label: "riskofrain2",
				Meta:  ts.GameDefMeta{DisplayName: "Risk of Rain 2"},
				Distributions: []ts.GameDefPlatform{
					{Platform: ts.PlatformSteam, Identifier: "632360"},
				},
				R2Modman: &ts.GameDefR2MM{
					DataFolderName: "Risk of Rain 2_Data",
					ExeNames:       []string{"Risk of Rain 2.exe", "RiskofRain2.exe"},
				},
			},
		},
	}
}

func TestRegistryRoundTripAndDedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_registry.json")

	data := Data{
		EcosystemLabel: "riskofrain2",
		Identifier:     "riskofrain2",
		DisplayName:    "Risk of Rain 2",
		ActiveDistribution: ActiveDistribution{
			Dist:    ts.GameDefPlatform{Platform: ts.PlatformSteam, Identifier: "632360"},
			GameDir: "/games/ror2",
			DataDir: "/games/ror2/Risk of Rain 2_Data",
			ExePath: "/games/ror2/Risk of Rain 2.exe",
		},
	}

	if err := WriteRegistry(path, data); err != nil {
		t.Fatal(err)
	}
	// Writing the same entry again must not duplicate it.
	if err := WriteRegistry(path, data); err != nil {
		t.Fatal(err)
	}

	registry, err := ReadRegistry(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(registry) != 1 {
		t.Fatalf("registry has %d entries, want 1", len(registry))
	}

	found, err := FindGame(path, "riskofrain2")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.DisplayName != "Risk of Rain 2" {
		t.Errorf("FindGame = %+v, want Risk of Rain 2", found)
	}

	missing, err := FindGame(path, "valheim")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("FindGame for unregistered game = %+v, want nil", missing)
	}
}

func TestReadRegistry_Missing(t *testing.T) {
	registry, err := ReadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if registry != nil {
		t.Errorf("missing registry = %v, want empty", registry)
	}
}

func TestNewImportBase_UnknownGame(t *testing.T) {
	if _, err := NewImportBase(testSchema(), "valheim", ImportOverrides{}); err == nil {
		t.Fatal("NewImportBase accepted a game missing from the schema")
	}
}

func TestSelectImporter_GameDirOverride(t *testing.T) {
	base, err := NewImportBase(testSchema(), "riskofrain2", ImportOverrides{GameDir: "/games/ror2"})
	if err != nil {
		t.Fatal(err)
	}

	imp, dist, err := SelectImporter(base)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := imp.(noDRMImporter); !ok {
		t.Errorf("importer = %T, want noDRMImporter", imp)
	}
	if dist.Platform != ts.PlatformOther {
		t.Errorf("dist.Platform = %q, want %q", dist.Platform, ts.PlatformOther)
	}
}

func TestImport_GameDirOverride(t *testing.T) {
	gameDir := t.TempDir()
	exe := filepath.Join(gameDir, "RiskofRain2.exe")
	if err := os.WriteFile(exe, []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}

	base, err := NewImportBase(testSchema(), "riskofrain2", ImportOverrides{GameDir: gameDir})
	if err != nil {
		t.Fatal(err)
	}
	data, err := Import(base)
	if err != nil {
		t.Fatal(err)
	}

	if data.ActiveDistribution.GameDir != gameDir {
		t.Errorf("GameDir = %q, want %q", data.ActiveDistribution.GameDir, gameDir)
	}
	if data.ActiveDistribution.ExePath != exe {
		t.Errorf("ExePath = %q, want %q", data.ActiveDistribution.ExePath, exe)
	}
	wantData := filepath.Join(gameDir, "Risk of Rain 2_Data")
	if data.ActiveDistribution.DataDir != wantData {
		t.Errorf("DataDir = %q, want %q", data.ActiveDistribution.DataDir, wantData)
	}
}

func TestFindGameExe(t *testing.T) {
	gameDir := t.TempDir()
	// The second candidate exists; the first does not.
	exe := filepath.Join(gameDir, "RiskofRain2.exe")
	if err := os.WriteFile(exe, []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}

	base, err := NewImportBase(testSchema(), "riskofrain2", ImportOverrides{})
	if err != nil {
		t.Fatal(err)
	}

	got, err := findGameExe(base, gameDir)
	if err != nil {
		t.Fatal(err)
	}
	if got != exe {
		t.Errorf("findGameExe = %q, want %q", got, exe)
	}

	// An override wins even when it points outside gameDir.
	base.Overrides.ExePath = "/custom/launcher.exe"
	got, err = findGameExe(base, gameDir)
	if err != nil {
		t.Fatal(err)
	}
	if got != "/custom/launcher.exe" {
		t.Errorf("findGameExe with override = %q", got)
	}

	// No candidate present and no override is an error.
	base.Overrides.ExePath = ""
	if _, err := findGameExe(base, t.TempDir()); err == nil {
		t.Error("findGameExe found an executable in an empty directory")
	}
}

func TestReadVDFFields(t *testing.T) {
	dir := t.TempDir()
	vdf := filepath.Join(dir, "libraryfolders.vdf")
	contents := `"libraryfolders"
{
	"0"
	{
		"path"		"/home/user/.local/share/Steam"
		"label"		""
	}
	"1"
	{
		"path"		"/mnt/games/SteamLibrary"
	}
}
`
	if err := os.WriteFile(vdf, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := readVDFFields(vdf, "path")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/home/user/.local/share/Steam", "/mnt/games/SteamLibrary"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestReadVDFField_ACFInstallDir(t *testing.T) {
	dir := t.TempDir()
	acf := filepath.Join(dir, "appmanifest_632360.acf")
	contents := `"AppState"
{
	"appid"		"632360"
	"name"		"Risk of Rain 2"
	"installdir"		"Risk of Rain 2"
	"StateFlags"		"4"
}
`
	if err := os.WriteFile(acf, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readVDFField(acf, "installdir")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Risk of Rain 2" {
		t.Errorf("installdir = %q, want %q", got, "Risk of Rain 2")
	}

	if _, err := readVDFField(acf, "missing"); err == nil {
		t.Error("readVDFField found a value for an absent key")
	}
}

func TestFindSteamApp(t *testing.T) {
	steamDir := t.TempDir()
	library := t.TempDir()

	// The extra library from libraryfolders.vdf holds the install.
	steamApps := filepath.Join(steamDir, "steamapps")
	if err := os.MkdirAll(steamApps, 0o755); err != nil {
		t.Fatal(err)
	}
	vdf := `"libraryfolders"
{
	"0"
	{
		"path"		"` + library + `"
	}
}
`
	if err := os.WriteFile(filepath.Join(steamApps, "libraryfolders.vdf"), []byte(vdf), 0o644); err != nil {
		t.Fatal(err)
	}

	libApps := filepath.Join(library, "steamapps")
	gameDir := filepath.Join(libApps, "common", "Risk of Rain 2")
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		t.Fatal(err)
	}
	acf := `"AppState"
{
	"installdir"		"Risk of Rain 2"
}
`
	if err := os.WriteFile(filepath.Join(libApps, "appmanifest_632360.acf"), []byte(acf), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := findSteamApp(steamDir, "632360")
	if err != nil {
		t.Fatal(err)
	}
	if got != gameDir {
		t.Errorf("findSteamApp = %q, want %q", got, gameDir)
	}

	if _, err := findSteamApp(steamDir, "999999"); err == nil {
		t.Error("findSteamApp located an app that is not installed")
	}
}

func TestSupportedPlatforms(t *testing.T) {
	linux := SupportedPlatforms("linux")
	if len(linux) != 2 {
		t.Errorf("linux platforms = %v, want Steam and DRM Free", linux)
	}
	windows := SupportedPlatforms("windows")
	if len(windows) != 5 {
		t.Errorf("windows platforms = %v, want 5 entries", windows)
	}
}
