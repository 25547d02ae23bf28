package resolver

import (
	"testing"

	"github.com/thunderstore/tcli/internal/ts"
)

// fakeSource is an in-memory PackageSource for tests.
type fakeSource struct {
	entries map[string]ts.IndexEntry
}

func newFakeSource(t *testing.T, packages map[string][]string) *fakeSource {
	t.Helper()
	source := &fakeSource{entries: make(map[string]ts.IndexEntry)}
	for full, deps := range packages {
		ref := mustRef(t, full)
		entry := ts.IndexEntry{
			Namespace: ref.Namespace,
			Name:      ref.Name,
			Version:   ref.Version,
		}
		for _, dep := range deps {
			entry.Dependencies = append(entry.Dependencies, mustRef(t, dep))
		}
		source.entries[full] = entry
	}
	return source
}

func (f *fakeSource) Get(ref ts.Reference) (ts.IndexEntry, bool) {
	entry, ok := f.entries[ref.String()]
	return entry, ok
}

func (f *fakeSource) Latest(looseIdent string) (ts.IndexEntry, bool) {
	var best ts.IndexEntry
	found := false
	for _, entry := range f.entries {
		if entry.Reference().LooseIdent() != looseIdent {
			continue
		}
		if !found || entry.Version.GreaterThan(best.Version) {
			best = entry
			found = true
		}
	}
	return best, found
}

func mustRef(t *testing.T, s string) ts.Reference {
	t.Helper()
	ref, err := ts.ParseReference(s)
	if err != nil {
		t.Fatalf("bad reference %q: %v", s, err)
	}
	return ref
}

func refStrings(refs []ts.Reference) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.String())
	}
	return out
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}

func TestResolve_DependenciesPrecedeDependents(t *testing.T) {
	source := newFakeSource(t, map[string][]string{
		"A-Loader-1.0.0": nil,
		"B-Mod-1.0.0":    {"A-Loader-1.0.0"},
		"C-Addon-1.0.0":  {"B-Mod-1.0.0"},
	})

	graph, err := Resolve(source, []ts.Reference{mustRef(t, "C-Addon-1.0.0")})
	if err != nil {
		t.Fatal(err)
	}

	order := refStrings(graph.Digest())
	if len(order) != 3 {
		t.Fatalf("digest has %d entries, want 3: %v", len(order), order)
	}
	loader := indexOf(order, "A-Loader-1.0.0")
	mod := indexOf(order, "B-Mod-1.0.0")
	addon := indexOf(order, "C-Addon-1.0.0")
	if loader > mod || mod > addon {
		t.Errorf("install order %v does not place dependencies first", order)
	}
}

func TestResolve_LooseRootPinsLatest(t *testing.T) {
	source := newFakeSource(t, map[string][]string{
		"A-Loader-1.0.0": nil,
		"A-Loader-2.0.0": nil,
	})

	graph, err := Resolve(source, []ts.Reference{mustRef(t, "A-Loader")})
	if err != nil {
		t.Fatal(err)
	}

	order := refStrings(graph.Digest())
	if len(order) != 1 || order[0] != "A-Loader-2.0.0" {
		t.Errorf("digest = %v, want [A-Loader-2.0.0]", order)
	}
}

func TestResolve_VersionsUnifyUpward(t *testing.T) {
	// Two packages want different versions of the same loader; the
	// higher one wins for both.
	source := newFakeSource(t, map[string][]string{
		"A-Loader-1.0.0": nil,
		"A-Loader-1.5.0": nil,
		"B-Mod-1.0.0":    {"A-Loader-1.0.0"},
		"C-Mod-1.0.0":    {"A-Loader-1.5.0"},
	})

	graph, err := Resolve(source, []ts.Reference{
		mustRef(t, "B-Mod-1.0.0"),
		mustRef(t, "C-Mod-1.0.0"),
	})
	if err != nil {
		t.Fatal(err)
	}

	order := refStrings(graph.Digest())
	if indexOf(order, "A-Loader-1.5.0") < 0 {
		t.Errorf("digest %v is missing the unified loader version", order)
	}
	if indexOf(order, "A-Loader-1.0.0") >= 0 {
		t.Errorf("digest %v still contains the displaced loader version", order)
	}
}

func TestResolve_MissingPackage(t *testing.T) {
	source := newFakeSource(t, map[string][]string{})
	if _, err := Resolve(source, []ts.Reference{mustRef(t, "A-Missing-1.0.0")}); err == nil {
		t.Fatal("Resolve succeeded for a package absent from the index")
	}
}

func TestResolve_CyclicDependenciesTerminate(t *testing.T) {
	source := newFakeSource(t, map[string][]string{
		"A-One-1.0.0": {"B-Two-1.0.0"},
		"B-Two-1.0.0": {"A-One-1.0.0"},
	})

	graph, err := Resolve(source, []ts.Reference{mustRef(t, "A-One-1.0.0")})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(graph.Digest()); got != 2 {
		t.Errorf("digest has %d entries, want 2", got)
	}
}

func TestDeltaTo(t *testing.T) {
	source := newFakeSource(t, map[string][]string{
		"A-Loader-1.0.0": nil,
		"A-Loader-2.0.0": nil,
		"B-Mod-1.0.0":    {"A-Loader-1.0.0"},
		"C-Mod-1.0.0":    {"A-Loader-2.0.0"},
	})

	before, err := Resolve(source, []ts.Reference{mustRef(t, "B-Mod-1.0.0")})
	if err != nil {
		t.Fatal(err)
	}
	after, err := Resolve(source, []ts.Reference{mustRef(t, "C-Mod-1.0.0")})
	if err != nil {
		t.Fatal(err)
	}

	delta := before.DeltaTo(after)

	del := refStrings(delta.Del)
	add := refStrings(delta.Add)
	if indexOf(del, "B-Mod-1.0.0") < 0 {
		t.Errorf("Del = %v, missing B-Mod-1.0.0", del)
	}
	// Loader upgrade shows up as remove-old plus add-new.
	if indexOf(del, "A-Loader-1.0.0") < 0 {
		t.Errorf("Del = %v, missing displaced A-Loader-1.0.0", del)
	}
	if indexOf(add, "A-Loader-2.0.0") < 0 || indexOf(add, "C-Mod-1.0.0") < 0 {
		t.Errorf("Add = %v, want A-Loader-2.0.0 and C-Mod-1.0.0", add)
	}
}

func TestDeltaTo_NoChanges(t *testing.T) {
	source := newFakeSource(t, map[string][]string{
		"A-Loader-1.0.0": nil,
		"B-Mod-1.0.0":    {"A-Loader-1.0.0"},
	})

	graph, err := Resolve(source, []ts.Reference{mustRef(t, "B-Mod-1.0.0")})
	if err != nil {
		t.Fatal(err)
	}

	delta := graph.DeltaTo(graph)
	if len(delta.Add) != 0 || len(delta.Del) != 0 {
		t.Errorf("identical graphs produced delta %+v", delta)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	source := newFakeSource(t, map[string][]string{
		"A-Loader-1.0.0": nil,
		"B-Mod-1.0.0":    {"A-Loader-1.0.0"},
	})

	graph, err := Resolve(source, []ts.Reference{mustRef(t, "B-Mod-1.0.0")})
	if err != nil {
		t.Fatal(err)
	}

	serialized := graph.Serialize()
	rebuilt, err := FromSerialized(serialized)
	if err != nil {
		t.Fatal(err)
	}

	wantOrder := refStrings(graph.Digest())
	gotOrder := refStrings(rebuilt.Digest())
	if len(wantOrder) != len(gotOrder) {
		t.Fatalf("rebuilt digest %v, want %v", gotOrder, wantOrder)
	}
	for i := range wantOrder {
		if wantOrder[i] != gotOrder[i] {
			t.Errorf("rebuilt digest %v, want %v", gotOrder, wantOrder)
			break
		}
	}

	// Serialization of the same graph is stable.
	again := graph.Serialize()
	if len(again.Nodes) != len(serialized.Nodes) || len(again.Edges) != len(serialized.Edges) {
		t.Error("repeated Serialize produced a different shape")
	}
	for i := range serialized.Nodes {
		if serialized.Nodes[i].String() != again.Nodes[i].String() {
			t.Error("repeated Serialize reordered nodes")
			break
		}
	}
}
