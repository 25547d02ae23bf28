package project

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateAndOpen(t *testing.T) {
	dir := t.TempDir()

	proj, err := Create(dir, KindProfile, false, Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(proj.ManifestPath); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	if _, err := os.Stat(proj.StatePath); err != nil {
		t.Fatalf("statefile missing: %v", err)
	}

	// Creating again without overwrite refuses.
	if _, err := Create(dir, KindProfile, false, Overrides{}); err == nil {
		t.Error("second Create without overwrite succeeded")
	}
	if _, err := Create(dir, KindProfile, true, Overrides{}); err != nil {
		t.Errorf("Create with overwrite failed: %v", err)
	}

	back, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if back.BaseDir != proj.BaseDir {
		t.Errorf("Open BaseDir = %q, want %q", back.BaseDir, proj.BaseDir)
	}
}

func TestOpen_NoManifest(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("Open succeeded in a directory without a manifest")
	}
}

func TestCreate_DevScaffold(t *testing.T) {
	dir := t.TempDir()

	proj, err := Create(dir, KindDev, false, Overrides{Namespace: "Team", Name: "Mod", Version: "1.0.0"})
	if err != nil {
		t.Fatal(err)
	}

	manifest, err := proj.Manifest()
	if err != nil {
		t.Fatal(err)
	}
	if manifest.Package == nil || manifest.Package.Namespace != "Team" {
		t.Errorf("Package = %+v, want namespace Team", manifest.Package)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); err != nil {
		t.Errorf("README.md not scaffolded: %v", err)
	}
	if info, err := os.Stat(filepath.Join(dir, "dist")); err != nil || !info.IsDir() {
		t.Errorf("dist directory not scaffolded: %v", err)
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()

	proj, err := Create(dir, KindDev, false, Overrides{Namespace: "Team", Name: "Mod", Version: "1.2.3"})
	if err != nil {
		t.Fatal(err)
	}

	// The scaffold provides README.md and dist/; the icon is on the user.
	if err := os.WriteFile(filepath.Join(dir, "icon.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dist", "Mod.dll"), []byte("plugin"), 0o644); err != nil {
		t.Fatal(err)
	}

	archivePath, err := proj.Build(Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(archivePath) != "Team-Mod-1.2.3.zip" {
		t.Errorf("archive name = %s, want Team-Mod-1.2.3.zip", filepath.Base(archivePath))
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close() //nolint:errcheck

	want := map[string]bool{
		"manifest.json": false,
		"icon.png":      false,
		"README.md":     false,
		"Mod.dll":       false,
	}
	for _, file := range reader.File {
		if _, ok := want[file.Name]; ok {
			want[file.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("archive is missing %s", name)
		}
	}
}

func TestBuild_InvalidPackageTable(t *testing.T) {
	dir := t.TempDir()
	proj, err := Create(dir, KindDev, false, Overrides{})
	if err != nil {
		t.Fatal(err)
	}

	// The scaffold's placeholder version is valid; break it.
	if _, err := proj.Build(Overrides{Version: "not-a-version"}); err == nil {
		t.Fatal("Build accepted an invalid version number")
	}
}
