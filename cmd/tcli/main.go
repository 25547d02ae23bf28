// Package main provides the entry point for the tcli CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/config"
	"github.com/thunderstore/tcli/internal/envfile"
	"github.com/thunderstore/tcli/internal/output"
)

// Build info set via ldflags at build time.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	flag := cmd.Flags().Lookup("json")
	if flag == nil {
		// Walk up to root to find the persistent flag
		flag = cmd.Root().PersistentFlags().Lookup("json")
	}
	return flag != nil && flag.Value.String() == "true"
}

// useColor resolves the --color persistent flag against the output's TTY
// status.
func useColor(cmd *cobra.Command) bool {
	mode := "auto"
	if flag := cmd.Root().PersistentFlags().Lookup("color"); flag != nil {
		mode = flag.Value.String()
	}
	return output.ResolveColorMode(mode, output.IsTTY(cmd.OutOrStdout()))
}

// newPrinter builds the printer every command writes through.
func newPrinter(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the tcli CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tcli",
		Short: "A mod manager for Thunderstore",
		Long: `tcli - manage Thunderstore mods from the command line.

tcli works on a project directory holding a Thunderstore.toml manifest:
  - Profile projects install and run modded games
  - Package projects additionally build and publish mods

Declared dependencies resolve against the Thunderstore package index and
pin into Thunderstore.lock, so a project reproduces the same mod set on
every machine.

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// If --json flag is set but no subcommand, output JSON error
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'tcli --help' for usage")
				printer.Error(err)
				return err
			}
			// Otherwise show help
			return cmd.Help()
		},
	}

	// Load .env.local (then .env) for tokens that can't be exported to env.
	// Environment variables always take precedence over file values.
	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		loadEnvFiles()
		return nil
	}

	// Persistent flags available to all subcommands
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("color", "auto", "Color output: auto, always, never")
	cmd.PersistentFlags().String("project", ".", "Path to the project directory")

	// Configure lipgloss for TTY detection
	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// projectDir reads the --project persistent flag.
func projectDir(cmd *cobra.Command) string {
	if flag := cmd.Root().PersistentFlags().Lookup("project"); flag != nil {
		return flag.Value.String()
	}
	return "."
}

// loadEnvFiles loads env files in priority order. First match for each
// variable wins; environment variables already set always take precedence.
//
// Resolution order:
//  1. $CWD/.env.local (per-project override, gitignored)
//  2. $CWD/.env       (per-project)
//  3. $TCLI_HOME/env  (global fallback)
func loadEnvFiles() {
	_ = envfile.Load(".env.local")
	_ = envfile.Load(".env")

	if dir := config.HomeDir(); dir != "" {
		_ = envfile.Load(filepath.Join(dir, "env"))
	}
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "project", Title: "Project Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "package", Title: "Package Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "game", Title: "Game Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "admin", Title: "Admin Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	// Project commands: init, add, remove, list
	addGroupedCommand(cmd, newInitCmd(), "project")
	addGroupedCommand(cmd, newAddCmd(), "project")
	addGroupedCommand(cmd, newRemoveCmd(), "project")
	addGroupedCommand(cmd, newListCmd(), "project")

	// Package commands: build, publish
	addGroupedCommand(cmd, newBuildCmd(), "package")
	addGroupedCommand(cmd, newPublishCmd(), "package")

	// Game commands: import-game, run, stop
	addGroupedCommand(cmd, newImportGameCmd(), "game")
	addGroupedCommand(cmd, newRunCmd(), "game")
	addGroupedCommand(cmd, newStopCmd(), "game")

	// Admin commands: update-schema, serve, release
	addGroupedCommand(cmd, newUpdateSchemaCmd(), "admin")
	addGroupedCommand(cmd, newServeCmd(), "admin")
	addGroupedCommand(cmd, newReleaseCmd(), "admin")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
