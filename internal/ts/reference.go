// Package ts implements the Thunderstore remote API: package listings,
// the experimental package index, the usermedia upload flow used for
// publishing, and the ecosystem schema.
package ts

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Reference identifies a package as namespace-name-version, for example
// "bbepis-BepInExPack-5.4.2113". A reference without a version is "loose"
// and identifies every version of a package.
type Reference struct {
	Namespace string
	Name      string
	Version   *semver.Version
}

// NewReference builds a versioned reference from its parts.
func NewReference(namespace, name, version string) (Reference, error) {
	ver, err := semver.StrictNewVersion(version)
	if err != nil {
		return Reference{}, fmt.Errorf("invalid version %q: %w", version, err)
	}
	return Reference{Namespace: namespace, Name: name, Version: ver}, nil
}

// ParseReference parses "namespace-name" or "namespace-name-1.2.3".
// Namespaces never contain dashes; package names may, so the version is
// split off from the right before the namespace is split off from the left.
func ParseReference(s string) (Reference, error) {
	rest, version := splitVersion(s)

	namespace, name, ok := strings.Cut(rest, "-")
	if !ok || namespace == "" || name == "" {
		return Reference{}, fmt.Errorf("invalid package reference %q: want namespace-name[-version]", s)
	}

	ref := Reference{Namespace: namespace, Name: name}
	if version != "" {
		ver, err := semver.StrictNewVersion(version)
		if err != nil {
			return Reference{}, fmt.Errorf("invalid package reference %q: bad version: %w", s, err)
		}
		ref.Version = ver
	}
	return ref, nil
}

// splitVersion peels a trailing "-X.Y.Z" off s if present.
func splitVersion(s string) (rest, version string) {
	idx := strings.LastIndex(s, "-")
	if idx < 0 {
		return s, ""
	}
	tail := s[idx+1:]
	if _, err := semver.StrictNewVersion(tail); err != nil {
		return s, ""
	}
	return s[:idx], tail
}

// IsLoose reports whether the reference has no version.
func (r Reference) IsLoose() bool {
	return r.Version == nil
}

// Loose returns the reference with the version stripped.
func (r Reference) Loose() Reference {
	return Reference{Namespace: r.Namespace, Name: r.Name}
}

// LooseIdent returns the versionless "namespace-name" identity string.
func (r Reference) LooseIdent() string {
	return r.Namespace + "-" + r.Name
}

// WithVersion returns a copy of the reference pinned to the given version.
func (r Reference) WithVersion(ver *semver.Version) Reference {
	return Reference{Namespace: r.Namespace, Name: r.Name, Version: ver}
}

// String returns the full reference, including the version when present.
func (r Reference) String() string {
	if r.Version == nil {
		return r.LooseIdent()
	}
	return r.LooseIdent() + "-" + r.Version.String()
}

// MarshalText serializes the reference as its string form. References are
// stored as plain strings in manifests, lockfiles, and the remote index.
func (r Reference) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a reference from its string form.
func (r *Reference) UnmarshalText(text []byte) error {
	parsed, err := ParseReference(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
