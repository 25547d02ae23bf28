package main

import (
	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/config"
	"github.com/thunderstore/tcli/internal/game"
	"github.com/thunderstore/tcli/internal/index"
	"github.com/thunderstore/tcli/internal/output"
)

// newUpdateSchemaCmd creates the update-schema command.
func newUpdateSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-schema",
		Short: "Refresh the ecosystem schema and package index",
		Long: `Refresh the cached ecosystem schema and the local package index.

Both refresh on their own when stale; this forces it, for example after
a new game or package version goes live.`,
		Args: cobra.NoArgs,
		RunE: runUpdateSchema,
	}
}

// runUpdateSchema executes the update-schema command.
func runUpdateSchema(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	home, err := config.EnsureHome()
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("creating tcli home directory", err)
		printer.Error(exitErr)
		return exitErr
	}

	client := repositoryClient(cmd, "")
	schema, err := game.SyncSchema(cmd.Context(), client, home)
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("syncing ecosystem schema", err)
		printer.Error(exitErr)
		return exitErr
	}

	if err := index.Sync(cmd.Context(), client, config.IndexDir()); err != nil {
		exitErr := output.NewSystemErrorWithCause("syncing package index", err)
		printer.Error(exitErr)
		return exitErr
	}

	idx, err := index.Open(config.IndexDir())
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("opening package index", err)
		printer.Error(exitErr)
		return exitErr
	}
	defer idx.Close() //nolint:errcheck

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"schema_version": schema.SchemaVersion,
			"games":          len(schema.Games),
			"packages":       idx.Len(),
		})
	}
	printer.Println("Synced ecosystem schema (" + schema.SchemaVersion + ")")
	printer.Print("Synced package index (%d packages)\n", idx.Len())
	return nil
}
