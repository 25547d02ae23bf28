package project

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// packageManifestV1 is the manifest.json embedded in a built archive,
// matching the Thunderstore package format.
type packageManifestV1 struct {
	Namespace     string   `json:"namespace"`
	Name          string   `json:"name"`
	VersionNumber string   `json:"version_number"`
	Description   string   `json:"description"`
	WebsiteURL    string   `json:"website_url"`
	Dependencies  []string `json:"dependencies"`
}

// Build assembles the project into a Thunderstore package archive and
// returns the archive path. Overrides are applied on top of the manifest
// before the archive name is derived.
func (p *Project) Build(overrides Overrides) (string, error) {
	manifest, err := p.Manifest()
	if err != nil {
		return "", err
	}
	if err := manifest.Apply(overrides); err != nil {
		return "", err
	}

	pkg := manifest.Package
	if pkg == nil {
		return "", errors.New("project manifest is missing the [package] table")
	}
	build := manifest.Build
	if build == nil {
		return "", errors.New("project manifest is missing the [build] table")
	}
	if _, err := ts.NewReference(pkg.Namespace, pkg.Name, pkg.VersionNumber); err != nil {
		return "", errors.Wrap(err, "package table does not form a valid reference")
	}

	outDir := filepath.Join(p.BaseDir, filepath.FromSlash(build.OutDir))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating output directory %s", outDir)
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("%s-%s-%s.zip", pkg.Namespace, pkg.Name, pkg.VersionNumber))
	out, err := os.Create(outPath)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", outPath)
	}
	defer out.Close() //nolint:errcheck

	archive := zip.NewWriter(out)

	for _, entry := range build.Copy {
		source := filepath.Join(p.BaseDir, filepath.FromSlash(entry.Source))
		if err := addTree(archive, source, entry.Target); err != nil {
			return "", err
		}
	}

	deps := make([]string, 0, len(manifest.Dependencies))
	for _, dep := range manifest.Dependencies {
		deps = append(deps, dep.String())
	}
	pkgManifest := packageManifestV1{
		Namespace:     pkg.Namespace,
		Name:          pkg.Name,
		VersionNumber: pkg.VersionNumber,
		Description:   pkg.Description,
		WebsiteURL:    pkg.WebsiteURL,
		Dependencies:  deps,
	}
	if err := addJSON(archive, "manifest.json", pkgManifest); err != nil {
		return "", err
	}

	if err := addFile(archive, filepath.Join(p.BaseDir, filepath.FromSlash(build.Icon)), "icon.png"); err != nil {
		return "", err
	}
	if err := addFile(archive, filepath.Join(p.BaseDir, filepath.FromSlash(build.Readme)), "README.md"); err != nil {
		return "", err
	}

	if err := archive.Close(); err != nil {
		return "", errors.Wrap(err, "finishing archive")
	}
	return outPath, out.Close()
}

// addTree copies a file or directory tree into the archive under target.
func addTree(archive *zip.Writer, source, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return errors.Wrapf(err, "build copy source %s is not accessible", source)
	}

	if !info.IsDir() {
		return addFile(archive, source, path.Join(target, filepath.Base(source)))
	}

	return filepath.WalkDir(source, func(walked string, entry fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", source)
		}

		rel, err := filepath.Rel(source, walked)
		if err != nil {
			return errors.Wrapf(err, "relativizing %s", walked)
		}
		if rel == "." {
			return nil
		}

		inner := path.Join(target, filepath.ToSlash(rel))
		if entry.IsDir() {
			_, err := archive.Create(inner + "/")
			return errors.Wrapf(err, "adding directory %s", inner)
		}
		return addFile(archive, walked, inner)
	})
}

func addFile(archive *zip.Writer, source, name string) error {
	file, err := os.Open(source)
	if err != nil {
		return errors.Wrapf(err, "opening %s", source)
	}
	defer file.Close() //nolint:errcheck

	writer, err := archive.Create(name)
	if err != nil {
		return errors.Wrapf(err, "adding %s to archive", name)
	}
	if _, err := io.Copy(writer, file); err != nil {
		return errors.Wrapf(err, "writing %s to archive", name)
	}
	return nil
}

func addJSON(archive *zip.Writer, name string, v any) error {
	writer, err := archive.Create(name)
	if err != nil {
		return errors.Wrapf(err, "adding %s to archive", name)
	}
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return errors.Wrapf(enc.Encode(v), "writing %s to archive", name)
}
