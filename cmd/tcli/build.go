package main

import (
	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/output"
	"github.com/thunderstore/tcli/internal/project"
)

// newBuildCmd creates the build command.
func newBuildCmd() *cobra.Command {
	var overrides project.Overrides

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the project into a package archive",
		Long: `Build the project into a Thunderstore package archive.

The manifest's [build] table names the icon, readme, and file copies that
go into the archive. The result lands in the configured output directory
as <namespace>-<name>-<version>.zip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := runBuild(cmd, overrides)
			return err
		},
	}

	addBuildOverrideFlags(cmd, &overrides)
	return cmd
}

// addBuildOverrideFlags registers the manifest override flags shared by
// build and publish.
func addBuildOverrideFlags(cmd *cobra.Command, overrides *project.Overrides) {
	cmd.Flags().StringVar(&overrides.Namespace, "namespace", "", "Override the package namespace")
	cmd.Flags().StringVar(&overrides.Name, "name", "", "Override the package name")
	cmd.Flags().StringVar(&overrides.Version, "version-number", "", "Override the package version")
	cmd.Flags().StringVar(&overrides.OutDir, "output", "", "Override the output directory")
}

// runBuild executes the build command and returns the archive path.
func runBuild(cmd *cobra.Command, overrides project.Overrides) (string, error) {
	printer := newPrinter(cmd)

	proj, err := openProject(cmd)
	if err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return "", exitErr
	}

	archivePath, err := proj.Build(overrides)
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("building package archive", err)
		printer.Error(exitErr)
		return "", exitErr
	}

	if printer.IsJSON() {
		return archivePath, printer.Success(map[string]any{"archive": archivePath})
	}
	printer.Println("Built " + archivePath)
	return archivePath, nil
}
