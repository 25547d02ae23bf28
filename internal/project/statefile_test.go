package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thunderstore/tcli/internal/installer"
)

func TestOpenStateFile_CreatesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	state, err := OpenStateFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.State) != 0 {
		t.Errorf("new statefile has %d entries", len(state.State))
	}
	// The file now exists on disk.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("statefile was not created: %v", err)
	}
}

func TestStateFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	stagedPath := filepath.Join(dir, "plugin.dll")
	if err := os.WriteFile(stagedPath, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := OpenStateFile(path)
	if err != nil {
		t.Fatal(err)
	}

	staged, err := NewStagedFile(installer.TrackedFile{
		Action: installer.ActionCreate,
		Path:   stagedPath,
	})
	if err != nil {
		t.Fatal(err)
	}
	entry := state.Entry("A-Mod-1.0.0")
	entry.Staged = append(entry.Staged, staged)
	if err := state.Write(path); err != nil {
		t.Fatal(err)
	}

	back, err := OpenStateFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := back.State["A-Mod-1.0.0"]
	if !ok {
		t.Fatal("entry missing after round trip")
	}
	if len(got.Staged) != 1 || got.Staged[0].MD5 != staged.MD5 {
		t.Errorf("staged files = %+v", got.Staged)
	}
}

func TestStagedFile_SameAs(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.dll")
	if err := os.WriteFile(source, []byte("identical"), 0o644); err != nil {
		t.Fatal(err)
	}

	staged, err := NewStagedFile(installer.TrackedFile{Action: installer.ActionCreate, Path: source})
	if err != nil {
		t.Fatal(err)
	}

	same := filepath.Join(dir, "copy.dll")
	if err := os.WriteFile(same, []byte("identical"), 0o644); err != nil {
		t.Fatal(err)
	}
	different := filepath.Join(dir, "other.dll")
	if err := os.WriteFile(different, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}

	if ok, err := staged.SameAs(same); err != nil || !ok {
		t.Errorf("SameAs(identical copy) = %v, %v; want true", ok, err)
	}
	if ok, err := staged.SameAs(different); err != nil || ok {
		t.Errorf("SameAs(changed copy) = %v, %v; want false", ok, err)
	}
	if ok, err := staged.SameAs(filepath.Join(dir, "missing.dll")); err != nil || ok {
		t.Errorf("SameAs(missing file) = %v, %v; want false without error", ok, err)
	}
}
