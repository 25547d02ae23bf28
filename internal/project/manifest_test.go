package project

import (
	"path/filepath"
	"testing"

	"github.com/thunderstore/tcli/internal/ts"
)

func mustRef(t *testing.T, s string) ts.Reference {
	t.Helper()
	ref, err := ts.ParseReference(s)
	if err != nil {
		t.Fatalf("bad reference %q: %v", s, err)
	}
	return ref
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)

	manifest := DefaultDevManifest()
	manifest.Dependencies = []ts.Reference{
		mustRef(t, "BepInEx-BepInExPack-5.4.2113"),
	}
	if err := manifest.Write(path); err != nil {
		t.Fatal(err)
	}

	back, err := ReadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Config.SchemaVersion != manifest.Config.SchemaVersion {
		t.Errorf("SchemaVersion = %q, want %q", back.Config.SchemaVersion, manifest.Config.SchemaVersion)
	}
	if back.Package == nil || back.Package.Namespace != "AuthorName" {
		t.Errorf("Package table did not survive the round trip: %+v", back.Package)
	}
	if len(back.Dependencies) != 1 || back.Dependencies[0].String() != "BepInEx-BepInExPack-5.4.2113" {
		t.Errorf("Dependencies = %v", back.Dependencies)
	}
}

func TestAddDependencies(t *testing.T) {
	manifest := DefaultProfileManifest()

	manifest.AddDependencies([]ts.Reference{mustRef(t, "A-Mod-1.0.0")})
	manifest.AddDependencies([]ts.Reference{mustRef(t, "B-Mod-1.0.0")})

	// A lower version of an existing dependency is ignored, a higher one
	// replaces it.
	manifest.AddDependencies([]ts.Reference{mustRef(t, "A-Mod-0.5.0")})
	manifest.AddDependencies([]ts.Reference{mustRef(t, "B-Mod-2.0.0")})

	if len(manifest.Dependencies) != 2 {
		t.Fatalf("Dependencies = %v, want 2 entries", manifest.Dependencies)
	}
	if manifest.Dependencies[0].String() != "A-Mod-1.0.0" {
		t.Errorf("first dependency = %s, want A-Mod-1.0.0", manifest.Dependencies[0])
	}
	if manifest.Dependencies[1].String() != "B-Mod-2.0.0" {
		t.Errorf("second dependency = %s, want B-Mod-2.0.0", manifest.Dependencies[1])
	}
}

func TestAddDependencies_LooseReferences(t *testing.T) {
	manifest := DefaultProfileManifest()

	// A loose reference can be pinned later, re-adding it loose keeps
	// the pin, and a loose duplicate of a loose entry is a no-op.
	manifest.AddDependencies([]ts.Reference{mustRef(t, "BepInEx-BepInExPack")})
	manifest.AddDependencies([]ts.Reference{mustRef(t, "BepInEx-BepInExPack-5.4.2100")})
	manifest.AddDependencies([]ts.Reference{mustRef(t, "BepInEx-BepInExPack")})
	manifest.AddDependencies([]ts.Reference{mustRef(t, "Anon-ModA")})
	manifest.AddDependencies([]ts.Reference{mustRef(t, "Anon-ModA")})

	if len(manifest.Dependencies) != 2 {
		t.Fatalf("Dependencies = %v, want 2 entries", manifest.Dependencies)
	}
	if manifest.Dependencies[0].String() != "Anon-ModA" {
		t.Errorf("first dependency = %s, want Anon-ModA", manifest.Dependencies[0])
	}
	if manifest.Dependencies[1].String() != "BepInEx-BepInExPack-5.4.2100" {
		t.Errorf("second dependency = %s, want the pinned version kept", manifest.Dependencies[1])
	}
}

func TestRemoveDependencies(t *testing.T) {
	manifest := DefaultProfileManifest()
	manifest.AddDependencies([]ts.Reference{
		mustRef(t, "A-Mod-1.0.0"),
		mustRef(t, "B-Mod-1.0.0"),
	})

	// Removal matches by loose identity; the version is irrelevant.
	missing := manifest.RemoveDependencies([]ts.Reference{
		mustRef(t, "A-Mod"),
		mustRef(t, "C-Mod"),
	})

	if len(manifest.Dependencies) != 1 || manifest.Dependencies[0].LooseIdent() != "B-Mod" {
		t.Errorf("Dependencies = %v, want [B-Mod-1.0.0]", manifest.Dependencies)
	}
	if len(missing) != 1 || missing[0].LooseIdent() != "C-Mod" {
		t.Errorf("missing = %v, want [C-Mod]", missing)
	}
}

func TestRepositoryPrecedence(t *testing.T) {
	manifest := &Manifest{}
	if got := manifest.Repository(); got != ts.DefaultRepository {
		t.Errorf("empty manifest Repository() = %q, want default", got)
	}

	manifest.Config.Repository = "https://config.example"
	if got := manifest.Repository(); got != "https://config.example" {
		t.Errorf("Repository() = %q, want config value", got)
	}

	manifest.Publish = &PublishTable{Repository: "https://publish.example"}
	if got := manifest.Repository(); got != "https://publish.example" {
		t.Errorf("Repository() = %q, want publish value", got)
	}
}

func TestOverridesApply(t *testing.T) {
	manifest := DefaultDevManifest()
	err := manifest.Apply(Overrides{
		Namespace: "RealTeam",
		Version:   "1.2.3",
		OutDir:    "./out",
	})
	if err != nil {
		t.Fatal(err)
	}
	if manifest.Package.Namespace != "RealTeam" {
		t.Errorf("Namespace = %q, want RealTeam", manifest.Package.Namespace)
	}
	if manifest.Package.Name != "PackageName" {
		t.Errorf("Name = %q, want untouched default", manifest.Package.Name)
	}
	if manifest.Package.VersionNumber != "1.2.3" {
		t.Errorf("VersionNumber = %q, want 1.2.3", manifest.Package.VersionNumber)
	}
	if manifest.Build.OutDir != "./out" {
		t.Errorf("OutDir = %q, want ./out", manifest.Build.OutDir)
	}
}

func TestOverridesApply_ProfileHasNoPackageTable(t *testing.T) {
	manifest := DefaultProfileManifest()
	if err := manifest.Apply(Overrides{Namespace: "X"}); err == nil {
		t.Fatal("Apply succeeded on a manifest without a [package] table")
	}
}
