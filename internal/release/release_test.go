package release

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateVersion(t *testing.T) {
	valid := []string{"0.0.1", "1.2.3", "10.20.30"}
	for _, version := range valid {
		if err := ValidateVersion(version); err != nil {
			t.Errorf("ValidateVersion(%q) = %v, want nil", version, err)
		}
	}

	invalid := []string{"", "v1.2.3", "1.2", "1.2.3-rc1", "1.2.3.4", "one.two.three", " 1.2.3"}
	for _, version := range invalid {
		if err := ValidateVersion(version); err == nil {
			t.Errorf("ValidateVersion(%q) = nil, want error", version)
		}
	}
}

func TestAssetName(t *testing.T) {
	linux := Target{GOOS: "linux", GOARCH: "amd64", Triple: "x86_64-unknown-linux-gnu"}
	if got := AssetName("tcli", "1.2.3", linux); got != "tcli-1.2.3-x86_64-unknown-linux-gnu.tar.gz" {
		t.Errorf("AssetName linux = %q", got)
	}

	windows := Target{GOOS: "windows", GOARCH: "amd64", Triple: "x86_64-pc-windows-msvc"}
	if got := AssetName("tcli", "1.2.3", windows); got != "tcli-1.2.3-x86_64-pc-windows-msvc.zip" {
		t.Errorf("AssetName windows = %q", got)
	}
}

func TestArchive_Zip(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "tcli.exe")
	if err := os.WriteFile(binPath, []byte("windows binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	target := Target{GOOS: "windows", GOARCH: "amd64", Triple: "x86_64-pc-windows-msvc"}
	archivePath, err := Archive(binPath, dir, "tcli", "1.0.0", target)
	if err != nil {
		t.Fatal(err)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close() //nolint:errcheck

	if len(reader.File) != 1 || reader.File[0].Name != "tcli.exe" {
		t.Fatalf("zip entries = %v, want single tcli.exe", reader.File)
	}
	entry, err := reader.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	contents, err := io.ReadAll(entry)
	_ = entry.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != "windows binary" {
		t.Errorf("zip entry contents = %q", contents)
	}
}

func TestArchive_TarGz(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "tcli")
	if err := os.WriteFile(binPath, []byte("linux binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	target := Target{GOOS: "linux", GOARCH: "amd64", Triple: "x86_64-unknown-linux-gnu"}
	archivePath, err := Archive(binPath, dir, "tcli", "1.0.0", target)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close() //nolint:errcheck

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(gz)

	header, err := tr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if header.Name != "tcli" {
		t.Errorf("tar entry = %q, want tcli", header.Name)
	}
	if header.Mode&0o111 == 0 {
		t.Errorf("tar entry mode %o is not executable", header.Mode)
	}
	contents, err := io.ReadAll(tr)
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != "linux binary" {
		t.Errorf("tar entry contents = %q", contents)
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("tar has extra entries, err = %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigName)
	if err := os.WriteFile(path, []byte("owner: thunderstore\nrepo: tcli\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MainBranch != "main" {
		t.Errorf("MainBranch = %q, want main", cfg.MainBranch)
	}
	if cfg.Build.BinaryName != "tcli" || cfg.Build.Package != "./cmd/tcli" {
		t.Errorf("Build defaults = %+v", cfg.Build)
	}
	if len(cfg.Targets) != len(DefaultTargets()) {
		t.Errorf("Targets = %v, want defaults", cfg.Targets)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name     string
		contents string
	}{
		{"missing owner", "repo: tcli\n"},
		{"missing repo", "owner: thunderstore\n"},
		{"incomplete target", "owner: a\nrepo: b\ntargets:\n  - goos: linux\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".yaml")
			if err := os.WriteFile(path, []byte(tc.contents), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig accepted an invalid config")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("LoadConfig succeeded on a missing file")
	}
}
