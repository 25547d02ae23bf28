package project

import (
	"crypto/md5" //nolint:gosec // tamper tell for hand-edited lockfiles, not a security boundary
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/resolver"
)

// LockName is the project lockfile filename.
const LockName = "Thunderstore.lock"

// lockVersion is the current lockfile format version.
const lockVersion = 1

// LockFile pins the fully resolved dependency graph of a project.
type LockFile struct {
	path string

	Version      int                 `json:"version"`
	GraphHash    string              `json:"graph_hash"`
	PackageGraph resolver.Serialized `json:"package_graph"`
}

// OpenLockFile reads the lockfile at path, or returns an empty one bound
// to that path when none exists yet.
func OpenLockFile(path string) (*LockFile, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LockFile{path: path, Version: lockVersion}, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	lock := &LockFile{path: path}
	if err := json.Unmarshal(contents, lock); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return lock, nil
}

// Graph rebuilds the dependency graph pinned by the lockfile.
func (l *LockFile) Graph() (*resolver.Graph, error) {
	return resolver.FromSerialized(l.PackageGraph)
}

// SetGraph replaces the pinned graph and recomputes the graph hash.
func (l *LockFile) SetGraph(g *resolver.Graph) {
	l.PackageGraph = g.Serialize()
	l.GraphHash = hashGraph(l.PackageGraph)
}

// Modified reports whether the stored graph no longer matches its hash,
// which happens when the lockfile was edited by hand.
func (l *LockFile) Modified() bool {
	if l.GraphHash == "" && len(l.PackageGraph.Nodes) == 0 {
		return false
	}
	return l.GraphHash != hashGraph(l.PackageGraph)
}

// Commit writes the lockfile back to disk.
func (l *LockFile) Commit() error {
	l.Version = lockVersion
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding lockfile")
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", l.path)
	}
	return nil
}

func hashGraph(s resolver.Serialized) string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
