package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thunderstore/tcli/internal/project"
	"github.com/thunderstore/tcli/internal/ts"
)

// seedSchemaCache writes an ecosystem schema into a fresh tcli home so
// commands that need it stay off the network.
func seedSchemaCache(t *testing.T, games map[string]ts.GameDef) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("TCLI_HOME", home)

	schema := ts.EcosystemSchema{SchemaVersion: "0.1.15", Games: games}
	contents, err := json.Marshal(schema)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, "ecosystem_schema.json"), contents, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListInstalled_EmptyProject(t *testing.T) {
	dir := t.TempDir()
	if out, err := runCommand(t, "init", "--project", dir); err != nil {
		t.Fatalf("init failed: %v\n%s", err, out)
	}

	out, err := runCommand(t, "list", "installed-packages", "--project", dir)
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No packages installed") {
		t.Errorf("output = %q", out)
	}
}

func TestListInstalled_JSON(t *testing.T) {
	dir := t.TempDir()
	if out, err := runCommand(t, "init", "--project", dir); err != nil {
		t.Fatalf("init failed: %v\n%s", err, out)
	}

	out, err := runCommand(t, "list", "installed-packages", "--project", dir, "--json")
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if _, ok := result["packages"]; !ok {
		t.Errorf("JSON output missing packages field: %s", out)
	}
}

func TestListInstalled_NoProject(t *testing.T) {
	_, err := runCommand(t, "list", "installed-packages", "--project", t.TempDir())
	if err == nil {
		t.Fatal("list should fail without a project manifest")
	}
}

// makeRepositoryProject creates a project whose manifest points at the
// given repository URL.
func makeRepositoryProject(t *testing.T, repository string) string {
	t.Helper()
	dir := t.TempDir()
	if out, err := runCommand(t, "init", "--project", dir); err != nil {
		t.Fatalf("init failed: %v\n%s", err, out)
	}

	manifestPath := filepath.Join(dir, project.ManifestName)
	manifest, err := project.ReadManifest(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	manifest.Config.Repository = repository
	if err := manifest.Write(manifestPath); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestListPackages(t *testing.T) {
	listings := []ts.PackageListing{
		{FullName: "BepInEx-BepInExPack", Versions: []ts.PackageVersion{{VersionNumber: "5.4.2113"}}},
		{FullName: "Anon-ModA", Versions: []ts.PackageVersion{{VersionNumber: "1.0.0"}}},
	}
	var community string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/package/":
			community = ""
		case "/c/riskofrain2/api/v1/package/":
			community = "riskofrain2"
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(listings)
	}))
	defer server.Close()

	dir := makeRepositoryProject(t, server.URL)

	out, err := runCommand(t, "list", "packages", "--project", dir)
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "BepInEx-BepInExPack\t5.4.2113") || !strings.Contains(out, "Anon-ModA\t1.0.0") {
		t.Errorf("output = %q", out)
	}
	// Sorted output has Anon first.
	if strings.Index(out, "Anon-ModA") > strings.Index(out, "BepInEx") {
		t.Errorf("output = %q, want sorted listings", out)
	}

	if out, err = runCommand(t, "list", "packages", "riskofrain2", "--project", dir); err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if community != "riskofrain2" {
		t.Errorf("community = %q, want the community endpoint hit", community)
	}
}

func TestListSupportedGames_Pattern(t *testing.T) {
	seedSchemaCache(t, map[string]ts.GameDef{
		"riskofrain2": {
			Label: "riskofrain2",
			Meta:  ts.GameDefMeta{DisplayName: "Risk of Rain 2"},
		},
		"valheim": {
			Label: "valheim",
			Meta:  ts.GameDefMeta{DisplayName: "Valheim"},
		},
		"lethal-company": {
			Label: "lethal-company",
			Meta:  ts.GameDefMeta{DisplayName: "Lethal Company"},
		},
	})

	out, err := runCommand(t, "list", "supported-games", "risk*")
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "riskofrain2") {
		t.Errorf("output = %q, want riskofrain2 listed", out)
	}
	if strings.Contains(out, "valheim") || strings.Contains(out, "lethal-company") {
		t.Errorf("output = %q, want only the matching game", out)
	}

	// The display name matches too, case-insensitively.
	out, err = runCommand(t, "list", "supported-games", "lethal*")
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "lethal-company") {
		t.Errorf("output = %q, want lethal-company listed", out)
	}

	out, err = runCommand(t, "list", "supported-games", "doom*")
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No games match") {
		t.Errorf("output = %q, want a no-match notice", out)
	}
}

func TestListSupportedGames_NoPatternListsAll(t *testing.T) {
	seedSchemaCache(t, map[string]ts.GameDef{
		"riskofrain2": {Meta: ts.GameDefMeta{DisplayName: "Risk of Rain 2"}},
		"valheim":     {Meta: ts.GameDefMeta{DisplayName: "Valheim"}},
	})

	out, err := runCommand(t, "list", "supported-games")
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "riskofrain2") || !strings.Contains(out, "valheim") {
		t.Errorf("output = %q, want every game listed", out)
	}
}

func TestListSupportedPlatforms(t *testing.T) {
	out, err := runCommand(t, "list", "supported-platforms")
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Steam") || !strings.Contains(out, "DRM Free") {
		t.Errorf("output = %q", out)
	}
}
