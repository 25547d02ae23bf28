package project

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/game"
	"github.com/thunderstore/tcli/internal/ts"
)

// stateDirName is the hidden directory holding project-local state.
const stateDirName = ".tcli"

// Kind selects what a new project is for.
type Kind int

// Project kinds.
const (
	// KindProfile is a mod profile: dependencies only, nothing to build.
	KindProfile Kind = iota
	// KindDev is a mod-development project with package and build tables.
	KindDev
)

// Project is an opened tcli project directory.
type Project struct {
	BaseDir      string
	StateDir     string
	StagingDir   string
	ManifestPath string
	LockPath     string
	StatePath    string
	RegistryPath string
}

// paths builds a Project's path set from its base directory.
func paths(baseDir string) *Project {
	return &Project{
		BaseDir:      baseDir,
		StateDir:     filepath.Join(baseDir, stateDirName, "project_state"),
		StagingDir:   filepath.Join(baseDir, stateDirName, "staging"),
		ManifestPath: filepath.Join(baseDir, ManifestName),
		LockPath:     filepath.Join(baseDir, LockName),
		StatePath:    filepath.Join(baseDir, stateDirName, "state.json"),
		RegistryPath: filepath.Join(baseDir, stateDirName, "game_registry.json"),
	}
}

// Open opens an existing project directory. PID files for games that are
// no longer running are cleaned up on the way in.
func Open(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", dir)
	}

	p := paths(abs)
	if _, err := os.Stat(p.ManifestPath); err != nil {
		return nil, errors.Errorf("no project manifest at %s; run 'tcli init' first", p.ManifestPath)
	}

	p.reapStalePIDFiles()
	return p, nil
}

// Create scaffolds a new project in dir. With overwrite false, an existing
// manifest is an error.
func Create(dir string, kind Kind, overwrite bool, overrides Overrides) (*Project, error) {
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		return nil, errors.Errorf("the path %s is a file, not a directory", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", dir)
	}
	p := paths(abs)

	if !overwrite {
		if _, err := os.Stat(p.ManifestPath); err == nil {
			return nil, errors.Errorf("a project already exists at %s", p.ManifestPath)
		}
	}

	var manifest *Manifest
	switch kind {
	case KindDev:
		manifest = DefaultDevManifest()
		if err := manifest.Apply(overrides); err != nil {
			return nil, err
		}
	default:
		manifest = DefaultProfileManifest()
	}

	if err := manifest.Write(p.ManifestPath); err != nil {
		return nil, err
	}

	for _, sub := range []string{p.StateDir, p.StagingDir} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating %s", sub)
		}
	}
	if _, err := OpenStateFile(p.StatePath); err != nil {
		return nil, err
	}

	if kind == KindDev {
		if err := p.scaffoldDevFiles(manifest); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// scaffoldDevFiles writes the README and dist directory a fresh dev
// project starts from. Existing files are left alone.
func (p *Project) scaffoldDevFiles(manifest *Manifest) error {
	readmePath := filepath.Join(p.BaseDir, "README.md")
	if _, err := os.Stat(readmePath); os.IsNotExist(err) {
		pkg := manifest.Package
		readme := "# " + pkg.Namespace + "-" + pkg.Name + "\n\n" + pkg.Description + "\n"
		if err := os.WriteFile(readmePath, []byte(readme), 0o644); err != nil {
			return errors.Wrap(err, "writing README.md")
		}
	}

	distDir := filepath.Join(p.BaseDir, "dist")
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return errors.Wrap(err, "creating dist directory")
	}
	return nil
}

// Manifest reads the project manifest.
func (p *Project) Manifest() (*Manifest, error) {
	return ReadManifest(p.ManifestPath)
}

// LockFile reads the project lockfile.
func (p *Project) LockFile() (*LockFile, error) {
	return OpenLockFile(p.LockPath)
}

// StateFile reads the project statefile.
func (p *Project) StateFile() (*StateFile, error) {
	return OpenStateFile(p.StatePath)
}

// AddPackages merges refs into the manifest's dependency list and writes
// the manifest back. The change is not installed until Commit runs.
func (p *Project) AddPackages(refs []ts.Reference) error {
	manifest, err := p.Manifest()
	if err != nil {
		return err
	}
	manifest.AddDependencies(refs)
	return manifest.Write(p.ManifestPath)
}

// RemovePackages drops refs from the manifest's dependency list and
// writes the manifest back. Returns the refs that were not present.
func (p *Project) RemovePackages(refs []ts.Reference) ([]ts.Reference, error) {
	manifest, err := p.Manifest()
	if err != nil {
		return nil, err
	}
	missing := manifest.RemoveDependencies(refs)
	return missing, manifest.Write(p.ManifestPath)
}

// RegisterGame records imported game data in the project's game registry.
func (p *Project) RegisterGame(data game.Data) error {
	return game.WriteRegistry(p.RegistryPath, data)
}

// pidPath returns the PID file path for a game identifier.
func (p *Project) pidPath(ident string) string {
	return filepath.Join(p.BaseDir, stateDirName, ident+".pid")
}

// reapStalePIDFiles removes PID files whose process is gone.
func (p *Project) reapStalePIDFiles() {
	entries, err := os.ReadDir(filepath.Join(p.BaseDir, stateDirName))
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pid") {
			continue
		}
		path := filepath.Join(p.BaseDir, stateDirName, entry.Name())
		contents, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
		if err != nil || !game.ProcessRunning(pid) {
			_ = os.Remove(path)
		}
	}
}
