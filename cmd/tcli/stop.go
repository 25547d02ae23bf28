package main

import (
	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/output"
)

// newStopCmd creates the stop command.
func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <game>",
		Short: "Stop a running game",
		Long:  `Stop a game previously started with 'tcli run'.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, args[0])
		},
	}
}

// runStop executes the stop command.
func runStop(cmd *cobra.Command, ident string) error {
	printer := newPrinter(cmd)

	proj, err := openProject(cmd)
	if err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return exitErr
	}

	if err := proj.StopGame(ident); err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return exitErr
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{"game": ident, "stopped": true})
	}
	printer.Println("Stopped " + ident)
	return nil
}
