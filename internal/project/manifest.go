// Package project manages tcli projects: the Thunderstore.toml manifest,
// the lockfile, installed-package state, package builds, and game runs.
package project

import (
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// ManifestName is the project manifest filename.
const ManifestName = "Thunderstore.toml"

// Manifest is the parsed Thunderstore.toml.
type Manifest struct {
	Config       ConfigTable    `toml:"config"`
	Package      *PackageTable  `toml:"package,omitempty"`
	Build        *BuildTable    `toml:"build,omitempty"`
	Publish      *PublishTable  `toml:"publish,omitempty"`
	Dependencies []ts.Reference `toml:"dependencies"`
}

// ConfigTable holds project-wide settings.
type ConfigTable struct {
	SchemaVersion string `toml:"schemaVersion"`
	Repository    string `toml:"repository,omitempty"`
}

// PackageTable describes the package a dev project builds.
type PackageTable struct {
	Namespace           string `toml:"namespace"`
	Name                string `toml:"name"`
	VersionNumber       string `toml:"versionNumber"`
	Description         string `toml:"description"`
	WebsiteURL          string `toml:"websiteUrl"`
	ContainsNsfwContent bool   `toml:"containsNsfwContent"`
}

// BuildTable controls how the package archive is assembled.
type BuildTable struct {
	Icon   string      `toml:"icon"`
	Readme string      `toml:"readme"`
	OutDir string      `toml:"outdir"`
	Copy   []CopyEntry `toml:"copy"`
}

// CopyEntry maps a source tree into a target path inside the archive.
type CopyEntry struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

// PublishTable names where a built package is submitted.
type PublishTable struct {
	Repository  string   `toml:"repository,omitempty"`
	Communities []string `toml:"communities"`
	Categories  []string `toml:"categories"`
}

// manifestSchemaVersion is written into new manifests.
const manifestSchemaVersion = "0.0.1"

// DefaultDevManifest returns the scaffold manifest for a mod-development
// project.
func DefaultDevManifest() *Manifest {
	return &Manifest{
		Config: ConfigTable{SchemaVersion: manifestSchemaVersion},
		Package: &PackageTable{
			Namespace:     "AuthorName",
			Name:          "PackageName",
			VersionNumber: "0.0.1",
			Description:   "Example mod description",
			WebsiteURL:    "https://thunderstore.io",
		},
		Build: &BuildTable{
			Icon:   "./icon.png",
			Readme: "./README.md",
			OutDir: "./build",
			Copy:   []CopyEntry{{Source: "./dist", Target: ""}},
		},
		Publish: &PublishTable{
			Repository:  ts.DefaultRepository,
			Communities: []string{"riskofrain2"},
		},
	}
}

// DefaultProfileManifest returns the scaffold manifest for a mod profile.
func DefaultProfileManifest() *Manifest {
	return &Manifest{
		Config: ConfigTable{
			SchemaVersion: manifestSchemaVersion,
			Repository:    ts.DefaultRepository,
		},
	}
}

// ReadManifest parses a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("no project manifest at %s", path)
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	var manifest Manifest
	if err := toml.Unmarshal(contents, &manifest); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &manifest, nil
}

// Write serializes the manifest to path.
func (m *Manifest) Write(path string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encoding manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// Repository returns the repository to talk to, preferring the publish
// table over the config table, then the default instance.
func (m *Manifest) Repository() string {
	if m.Publish != nil && m.Publish.Repository != "" {
		return m.Publish.Repository
	}
	if m.Config.Repository != "" {
		return m.Config.Repository
	}
	return ts.DefaultRepository
}

// AddDependencies merges refs into the dependency list. A duplicate loose
// identity keeps whichever version is higher; an unversioned reference
// ranks below any pinned one.
func (m *Manifest) AddDependencies(refs []ts.Reference) {
	byIdent := make(map[string]int, len(m.Dependencies))
	for i, dep := range m.Dependencies {
		byIdent[dep.LooseIdent()] = i
	}

	for _, ref := range refs {
		idx, ok := byIdent[ref.LooseIdent()]
		switch {
		case !ok:
			byIdent[ref.LooseIdent()] = len(m.Dependencies)
			m.Dependencies = append(m.Dependencies, ref)
		case supersedes(m.Dependencies[idx], ref):
			m.Dependencies[idx] = ref
		}
	}

	sort.Slice(m.Dependencies, func(a, b int) bool {
		return m.Dependencies[a].String() < m.Dependencies[b].String()
	})
}

// supersedes reports whether candidate should replace current in the
// dependency list. References may be loose, so the versions need nil
// checks before comparing.
func supersedes(current, candidate ts.Reference) bool {
	if candidate.Version == nil {
		return false
	}
	if current.Version == nil {
		return true
	}
	return current.Version.LessThan(candidate.Version)
}

// RemoveDependencies drops refs from the dependency list, matching by
// loose identity. Returns the references that were not present.
func (m *Manifest) RemoveDependencies(refs []ts.Reference) []ts.Reference {
	var missing []ts.Reference
	for _, ref := range refs {
		found := false
		for i, dep := range m.Dependencies {
			if dep.LooseIdent() == ref.LooseIdent() {
				m.Dependencies = append(m.Dependencies[:i], m.Dependencies[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, ref)
		}
	}
	return missing
}

// Overrides are command-line overrides applied on top of a manifest.
type Overrides struct {
	Namespace  string
	Name       string
	Version    string
	OutDir     string
	Repository string
}

// Apply writes the non-empty overrides into the manifest.
func (m *Manifest) Apply(o Overrides) error {
	if o.Namespace != "" || o.Name != "" || o.Version != "" {
		if m.Package == nil {
			return errors.New("project manifest has no [package] table to override")
		}
		if o.Namespace != "" {
			m.Package.Namespace = o.Namespace
		}
		if o.Name != "" {
			m.Package.Name = o.Name
		}
		if o.Version != "" {
			m.Package.VersionNumber = o.Version
		}
	}
	if o.OutDir != "" {
		if m.Build == nil {
			return errors.New("project manifest has no [build] table to override")
		}
		m.Build.OutDir = o.OutDir
	}
	if o.Repository != "" {
		if m.Publish == nil {
			m.Publish = &PublishTable{}
		}
		m.Publish.Repository = o.Repository
	}
	return nil
}
