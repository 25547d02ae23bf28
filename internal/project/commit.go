package project

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/thunderstore/tcli/internal/installer"
	"github.com/thunderstore/tcli/internal/resolver"
	"github.com/thunderstore/tcli/internal/ts"
)

// ErrLockfileModified means the lockfile no longer matches its graph
// hash, so committing would clobber a hand edit.
var ErrLockfileModified = errors.New("the lockfile was modified outside tcli; delete it or restore it before committing")

// maxConcurrentFetches caps parallel package downloads during a commit.
const maxConcurrentFetches = 4

// CommitSummary reports what a commit changed.
type CommitSummary struct {
	Added   []ts.Reference
	Removed []ts.Reference
}

// Changed reports whether the commit did anything at all.
func (s *CommitSummary) Changed() bool {
	return len(s.Added) > 0 || len(s.Removed) > 0
}

// Commit reconciles the project's installed state with its manifest:
// resolve the manifest dependencies against the package index, diff the
// result against the lockfile graph, uninstall what fell out, install
// what came in, then pin the new graph.
func (p *Project) Commit(ctx context.Context, source resolver.PackageSource, fetcher Fetcher) (*CommitSummary, error) {
	manifest, err := p.Manifest()
	if err != nil {
		return nil, err
	}

	lock, err := p.LockFile()
	if err != nil {
		return nil, err
	}
	if lock.Modified() {
		return nil, ErrLockfileModified
	}

	current, err := lock.Graph()
	if err != nil {
		return nil, err
	}
	target, err := resolver.Resolve(source, manifest.Dependencies)
	if err != nil {
		return nil, err
	}

	delta := current.DeltaTo(target)
	summary := &CommitSummary{Added: delta.Add, Removed: delta.Del}
	if !summary.Changed() {
		return summary, nil
	}

	state, err := p.StateFile()
	if err != nil {
		return nil, err
	}

	// Dependents leave before their dependencies: removal runs in
	// reverse digest order.
	for i := len(delta.Del) - 1; i >= 0; i-- {
		if err := p.uninstallPackage(ctx, fetcher, state, delta.Del[i]); err != nil {
			return nil, err
		}
		if err := state.Write(p.StatePath); err != nil {
			return nil, err
		}
	}

	dirs, err := fetchAll(ctx, fetcher, delta.Add)
	if err != nil {
		return nil, err
	}

	// Installs run sequentially in digest order so dependencies are in
	// place before anything that needs them.
	for _, ref := range delta.Add {
		deps := packageDeps(source, ref)
		if err := p.installPackage(ctx, state, ref, dirs[ref.String()], deps); err != nil {
			return nil, err
		}
		if err := state.Write(p.StatePath); err != nil {
			return nil, err
		}
	}

	lock.SetGraph(target)
	if err := lock.Commit(); err != nil {
		return nil, err
	}
	return summary, nil
}

// fetchAll downloads every package in refs concurrently and returns the
// unpacked directory per full reference.
func fetchAll(ctx context.Context, fetcher Fetcher, refs []ts.Reference) (map[string]string, error) {
	dirs := make(map[string]string, len(refs))
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentFetches)
	for _, ref := range refs {
		eg.Go(func() error {
			dir, err := fetcher.Fetch(ctx, ref)
			if err != nil {
				return err
			}
			mu.Lock()
			dirs[ref.String()] = dir
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return dirs, nil
}

// packageDeps returns a package's direct dependencies from the index,
// or nil when the index has no entry (tolerated for lockfile-only refs).
func packageDeps(source resolver.PackageSource, ref ts.Reference) []ts.Reference {
	entry, ok := source.Get(ref)
	if !ok {
		return nil
	}
	return entry.Dependencies
}

// installPackage runs the package's runner and records the staged files.
func (p *Project) installPackage(ctx context.Context, state *StateFile, ref ts.Reference, packageDir string, deps []ts.Reference) error {
	runner, err := selectRunner(ctx, ref, packageDir)
	if err != nil {
		return err
	}

	payload := installer.InstallPayload{
		Package:     ref,
		PackageDeps: deps,
		PackageDir:  packageDir,
		StateDir:    p.StateDir,
		StagingDir:  p.StagingDir,
	}
	tracked, err := runner.Install(ctx, payload)
	if err != nil {
		return errors.Wrapf(err, "installing %s", ref)
	}

	entry := state.Entry(ref.String())
	entry.Staged = entry.Staged[:0]
	for _, file := range tracked {
		staged, err := NewStagedFile(file)
		if err != nil {
			return errors.Wrapf(err, "recording staged file for %s", ref)
		}
		entry.Staged = append(entry.Staged, staged)
	}
	return nil
}

// uninstallPackage undoes a previous install: linked game-directory
// copies still matching our checksum are removed, then the runner tears
// down the staged files.
func (p *Project) uninstallPackage(ctx context.Context, fetcher Fetcher, state *StateFile, ref ts.Reference) error {
	entry, ok := state.State[ref.String()]
	if !ok {
		return nil
	}

	var tracked []installer.TrackedFile
	for i := range entry.Staged {
		staged := &entry.Staged[i]
		for _, dest := range staged.Dest {
			same, err := staged.SameAs(dest)
			if err != nil {
				return err
			}
			if same {
				if err := removeFile(dest); err != nil {
					return err
				}
			}
		}
		tracked = append(tracked, staged.Action)
	}

	packageDir, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "fetching %s for uninstall", ref)
	}
	runner, err := selectRunner(ctx, ref, packageDir)
	if err != nil {
		return err
	}

	payload := installer.UninstallPayload{
		Package:      ref,
		PackageDir:   packageDir,
		StateDir:     p.StateDir,
		StagingDir:   p.StagingDir,
		TrackedFiles: tracked,
	}
	if err := runner.Uninstall(ctx, payload); err != nil {
		return errors.Wrapf(err, "uninstalling %s", ref)
	}

	delete(state.State, ref.String())
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", path)
	}
	return nil
}
