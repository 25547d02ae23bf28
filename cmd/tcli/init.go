package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/output"
	"github.com/thunderstore/tcli/internal/project"
)

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	var (
		asPackage bool
		overwrite bool
		overrides project.Overrides
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new project",
		Long: `Create a new tcli project in the project directory.

By default init creates a profile project, which manages an installed mod
set. With --package it creates a package-development project with build
and publish configuration, a README, and a dist directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, asPackage, overwrite, overrides)
		},
	}

	cmd.Flags().BoolVar(&asPackage, "package", false, "Create a package-development project")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing project manifest")
	cmd.Flags().StringVar(&overrides.Namespace, "namespace", "", "Package namespace (with --package)")
	cmd.Flags().StringVar(&overrides.Name, "name", "", "Package name (with --package)")
	cmd.Flags().StringVar(&overrides.Version, "version-number", "", "Package version (with --package)")

	return cmd
}

// runInit executes the init command.
func runInit(cmd *cobra.Command, asPackage, overwrite bool, overrides project.Overrides) error {
	printer := newPrinter(cmd)

	kind := project.KindProfile
	if asPackage {
		kind = project.KindDev
	}

	dir := projectDir(cmd)
	if !overwrite {
		if _, err := os.Stat(filepath.Join(dir, project.ManifestName)); err == nil {
			exitErr := output.NewConflictError("a project already exists here; pass --overwrite to replace it")
			printer.Error(exitErr)
			return exitErr
		}
	}

	proj, err := project.Create(dir, kind, overwrite, overrides)
	if err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return exitErr
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"project":  proj.BaseDir,
			"manifest": proj.ManifestPath,
		})
	}
	printer.Println("Created project at " + proj.BaseDir)
	return nil
}
