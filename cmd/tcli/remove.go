package main

import (
	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/output"
)

// newRemoveCmd creates the remove command.
func newRemoveCmd() *cobra.Command {
	var noInstall bool

	cmd := &cobra.Command{
		Use:   "remove <package>...",
		Short: "Remove packages from the project",
		Long: `Remove packages from the project's dependency list and uninstall them.

Only directly declared dependencies can be removed; transitive
dependencies drop out on their own once nothing needs them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args, noInstall)
		},
	}

	cmd.Flags().BoolVar(&noInstall, "no-install", false, "Update the manifest without uninstalling")
	return cmd
}

// runRemove executes the remove command.
func runRemove(cmd *cobra.Command, args []string, noInstall bool) error {
	printer := newPrinter(cmd)

	refs, err := parseRefArgs(args)
	if err != nil {
		printer.Error(err)
		return err
	}

	proj, err := openProject(cmd)
	if err != nil {
		exitErr := output.NewUserError(err.Error())
		printer.Error(exitErr)
		return exitErr
	}

	missing, err := proj.RemovePackages(refs)
	if err != nil {
		exitErr := output.NewSystemErrorWithCause("updating project manifest", err)
		printer.Error(exitErr)
		return exitErr
	}
	for _, ref := range missing {
		printer.Warn("%s is not a declared dependency", ref.LooseIdent())
	}

	if noInstall {
		if printer.IsJSON() {
			return printer.Success(map[string]any{
				"removed": refStrings(refs),
				"missing": refStrings(missing),
			})
		}
		for _, ref := range refs {
			printer.Println("Removed " + ref.LooseIdent())
		}
		return nil
	}

	if err := commitProject(cmd, proj); err != nil {
		printer.Error(err)
		return err
	}
	return nil
}
