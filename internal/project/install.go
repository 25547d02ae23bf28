package project

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/installer"
	"github.com/thunderstore/tcli/internal/ts"
)

// A Runner installs a package into the project and undoes that install.
// Packages shipping their own installer executable get a subprocess
// runner speaking the installer protocol; everything else gets the
// builtin staging runner.
type Runner interface {
	Install(ctx context.Context, payload installer.InstallPayload) ([]installer.TrackedFile, error)
	Uninstall(ctx context.Context, payload installer.UninstallPayload) error
}

// selectRunner picks the runner for an unpacked package directory.
func selectRunner(ctx context.Context, ref ts.Reference, packageDir string) (Runner, error) {
	if _, err := os.Stat(filepath.Join(packageDir, installer.ManifestName)); err != nil {
		return builtinRunner{}, nil
	}

	inst, err := installer.Open(ref, packageDir)
	if err != nil {
		return nil, err
	}
	if err := inst.CheckProtocol(ctx); err != nil {
		return nil, err
	}
	return inst, nil
}

// builtinRunner stages package files by copying them into the project's
// staging tree, preserving their layout. Top-level package metadata is
// not part of the mod payload and stays out of staging.
type builtinRunner struct{}

// Package metadata files the builtin runner never stages.
var builtinSkip = map[string]bool{
	"manifest.json": true,
	"icon.png":      true,
	"README.md":     true,
	"CHANGELOG.md":  true,
	"LICENSE":       true,
}

func (builtinRunner) Install(_ context.Context, payload installer.InstallPayload) ([]installer.TrackedFile, error) {
	root := filepath.Join(payload.StagingDir, payload.Package.LooseIdent())
	var tracked []installer.TrackedFile

	err := filepath.WalkDir(payload.PackageDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(payload.PackageDir, path)
		if err != nil {
			return err
		}
		if rel == "." || d.IsDir() {
			return nil
		}
		if filepath.Dir(rel) == "." && builtinSkip[d.Name()] {
			return nil
		}

		dest := filepath.Join(root, rel)
		if err := copyFile(path, dest); err != nil {
			return err
		}
		tracked = append(tracked, installer.TrackedFile{
			Action: installer.ActionCreate,
			Path:   dest,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "staging %s", payload.Package)
	}
	return tracked, nil
}

func (builtinRunner) Uninstall(_ context.Context, payload installer.UninstallPayload) error {
	for _, file := range payload.TrackedFiles {
		if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", file.Path)
		}
	}
	// Prune the package's now-empty staging subtree.
	root := filepath.Join(payload.StagingDir, payload.Package.LooseIdent())
	if err := os.RemoveAll(root); err != nil {
		return errors.Wrapf(err, "removing staging tree for %s", payload.Package)
	}
	return nil
}

// copyFile copies src to dest, creating parent directories as needed.
func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(dest))
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer in.Close() //nolint:errcheck

	info, err := in.Stat()
	if err != nil {
		return errors.Wrapf(err, "inspecting %s", src)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()|0o200)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dest)
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return errors.Wrapf(copyErr, "copying %s", src)
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, "finishing %s", dest)
	}
	return nil
}
