package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/output"
	"github.com/thunderstore/tcli/internal/project"
	"github.com/thunderstore/tcli/internal/ts"
)

// newPublishCmd creates the publish command.
func newPublishCmd() *cobra.Command {
	var (
		file      string
		token     string
		overrides project.Overrides
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a package archive to Thunderstore",
		Long: `Publish a package archive to the configured Thunderstore repository.

Without --file the project is built first and the fresh archive is
published. Publishing needs an API token, from --token or the
` + tokenEnvVar + ` environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, file, token, overrides)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Publish an existing archive instead of building")
	cmd.Flags().StringVar(&token, "token", "", "Thunderstore API token")
	addBuildOverrideFlags(cmd, &overrides)

	return cmd
}

// runPublish executes the publish command.
func runPublish(cmd *cobra.Command, file, token string, overrides project.Overrides) error {
	printer := newPrinter(cmd)

	token = resolveToken(token)
	if token == "" {
		err := output.NewUserError("publishing requires an API token; pass --token or set " + tokenEnvVar)
		printer.Error(err)
		return err
	}

	proj, err := openProject(cmd)
	if err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return exitErr
	}
	manifest, err := proj.Manifest()
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("reading project manifest", err)
		printer.Error(exitErr)
		return exitErr
	}
	if manifest.Package == nil || manifest.Publish == nil {
		exitErr := output.NewUserError("publishing needs a package project; run 'tcli init --package' first")
		printer.Error(exitErr)
		return exitErr
	}

	archivePath := file
	if archivePath == "" {
		archivePath, err = runBuild(cmd, overrides)
		if err != nil {
			return err
		}
	} else if _, err := os.Stat(archivePath); err != nil {
		exitErr := output.NewUserError("archive " + archivePath + " does not exist")
		printer.Error(exitErr)
		return exitErr
	}

	client := repositoryClient(cmd, token)
	meta := ts.SubmissionMetadata{
		AuthorName:     manifest.Package.Namespace,
		Communities:    manifest.Publish.Communities,
		Categories:     manifest.Publish.Categories,
		HasNSFWContent: manifest.Package.ContainsNsfwContent,
	}
	if err := client.PublishArchive(cmd.Context(), archivePath, meta); err != nil {
		exitErr := output.NewSystemErrorWithCause("publishing "+archivePath, err)
		printer.Error(exitErr)
		return exitErr
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"archive":    archivePath,
			"repository": manifest.Repository(),
		})
	}
	printer.Println("Published " + archivePath + " to " + manifest.Repository())
	return nil
}
