package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/git"
	"github.com/thunderstore/tcli/internal/output"
	"github.com/thunderstore/tcli/internal/release"
)

// githubTokenEnvVar authenticates the GitHub release API calls.
const githubTokenEnvVar = "GITHUB_TOKEN"

// newReleaseCmd creates the release command.
func newReleaseCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "release <version>",
		Short: "Build and publish a tcli release",
		Long: `Build and publish a tcli release.

The version must be plain MAJOR.MINOR.PATCH and the current branch must
be the configured main branch. A draft prerelease is created on GitHub
for tag v<version>, then each configured target is cross-compiled,
packaged (zip on windows, tar.gz elsewhere), and uploaded as a release
asset. Configuration comes from release.yaml at the repository root and
the token from ` + githubTokenEnvVar + `.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, args[0], configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the release config (default: release.yaml at the repo root)")
	return cmd
}

// runRelease executes the release command.
func runRelease(cmd *cobra.Command, version, configPath string) error {
	printer := newPrinter(cmd)

	if err := release.ValidateVersion(version); err != nil {
		printer.Error(err)
		return err
	}

	if !git.IsRepo() {
		err := output.NewUserError("releases run from a git repository")
		printer.Error(err)
		return err
	}
	repoRoot, err := git.RepoRoot()
	if err != nil {
		printer.Error(err)
		return err
	}

	if configPath == "" {
		configPath = filepath.Join(repoRoot, release.ConfigName)
	}
	cfg, err := release.LoadConfig(configPath)
	if err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return exitErr
	}

	token := os.Getenv(githubTokenEnvVar)
	if token == "" {
		err := output.NewUserError("releasing requires " + githubTokenEnvVar + " to be set")
		printer.Error(err)
		return err
	}

	pipeline := release.NewPipeline(cfg, release.NewGitHub(token), printer, repoRoot)
	if err := pipeline.Run(cmd.Context(), version); err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"version": version,
			"tag":     "v" + version,
			"targets": len(cfg.Targets),
		})
	}
	return nil
}
