package main

import (
	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/config"
	"github.com/thunderstore/tcli/internal/game"
	"github.com/thunderstore/tcli/internal/output"
)

// newImportGameCmd creates the import-game command.
func newImportGameCmd() *cobra.Command {
	var overrides game.ImportOverrides

	cmd := &cobra.Command{
		Use:   "import-game <game>",
		Short: "Import a game installation into the project",
		Long: `Locate a game installation and register it with the project.

The game identifier comes from the Thunderstore ecosystem schema (for
example "valheim" or "lethal-company"). tcli searches the game's store
distributions in order; --game-dir skips detection and imports a
directory straight away.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportGame(cmd, args[0], overrides)
		},
	}

	cmd.Flags().StringVar(&overrides.GameDir, "game-dir", "", "Import this directory instead of detecting a store install")
	cmd.Flags().StringVar(&overrides.ExePath, "exe-path", "", "Launch this executable instead of the schema's candidates")

	return cmd
}

// runImportGame executes the import-game command.
func runImportGame(cmd *cobra.Command, ident string, overrides game.ImportOverrides) error {
	printer := newPrinter(cmd)

	proj, err := openProject(cmd)
	if err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return exitErr
	}

	home, err := config.EnsureHome()
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("creating tcli home directory", err)
		printer.Error(exitErr)
		return exitErr
	}

	schema, err := game.Schema(cmd.Context(), repositoryClient(cmd, ""), home)
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("loading ecosystem schema", err)
		printer.Error(exitErr)
		return exitErr
	}

	base, err := game.NewImportBase(schema, ident, overrides)
	if err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return exitErr
	}

	data, err := game.Import(base)
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("importing "+ident, err)
		printer.Error(exitErr)
		return exitErr
	}

	if err := proj.RegisterGame(*data); err != nil {
		exitErr := output.NewSystemErrorWithCause("registering "+ident, err)
		printer.Error(exitErr)
		return exitErr
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"identifier": data.Identifier,
			"platform":   data.ActiveDistribution.Dist.Platform,
			"game_dir":   data.ActiveDistribution.GameDir,
			"exe_path":   data.ActiveDistribution.ExePath,
		})
	}
	printer.Println("Imported " + data.DisplayName + " from " + data.ActiveDistribution.GameDir)
	return nil
}
