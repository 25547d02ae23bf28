package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/config"
	"github.com/thunderstore/tcli/internal/index"
	"github.com/thunderstore/tcli/internal/output"
	"github.com/thunderstore/tcli/internal/project"
)

// newRunCmd creates the run command.
func newRunCmd() *cobra.Command {
	var opts project.RunOptions

	cmd := &cobra.Command{
		Use:   "run <game> [-- args...]",
		Short: "Launch an imported game with mods",
		Long: `Launch an imported game with the project's mods.

Pending manifest changes are installed first, staged mod files are linked
into the game directory, and the game starts through its mod loader.
Arguments after -- pass through to the game executable. With --vanilla
the game launches unmodded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Args = args[1:]
			return runRun(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Vanilla, "vanilla", false, "Launch without mods")
	return cmd
}

// runRun executes the run command.
func runRun(cmd *cobra.Command, ident string, opts project.RunOptions) error {
	printer := newPrinter(cmd)

	proj, err := openProject(cmd)
	if err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return exitErr
	}

	if !opts.Vanilla {
		if err := commitProject(cmd, proj); err != nil {
			printer.Error(err)
			return err
		}
	}

	// The loader installer is normally a cache hit by now; when it is
	// not, an already-synced index still size-checks the download.
	var sizes project.SizeSource
	if idx, err := index.Open(config.IndexDir()); err == nil {
		defer idx.Close() //nolint:errcheck
		sizes = idx
	}

	pid, err := proj.StartGame(cmd.Context(), newCache(repositoryClient(cmd, ""), sizes), ident, opts)
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("starting "+ident, err)
		printer.Error(exitErr)
		return exitErr
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{"game": ident, "pid": pid})
	}
	printer.Println("Started " + ident + " (PID " + strconv.Itoa(pid) + ")")
	return nil
}
