package main

import (
	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/output"
)

// newAddCmd creates the add command.
func newAddCmd() *cobra.Command {
	var noInstall bool

	cmd := &cobra.Command{
		Use:   "add <package>...",
		Short: "Add packages to the project",
		Long: `Add packages to the project's dependency list and install them.

References take the form namespace-name or namespace-name-version. A
loose reference resolves to the latest indexed version. With --no-install
the manifest is updated but nothing is installed until the next install
run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, args, noInstall)
		},
	}

	cmd.Flags().BoolVar(&noInstall, "no-install", false, "Update the manifest without installing")
	return cmd
}

// runAdd executes the add command.
func runAdd(cmd *cobra.Command, args []string, noInstall bool) error {
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
	if err := proj.AddPackages(refs); err != nil {
		exitErr := output.NewSystemErrorWithCause("updating project manifest", err)
		printer.Error(exitErr)
		return exitErr
	}

	if noInstall {
		if printer.IsJSON() {
			return printer.Success(map[string]any{"added": refStrings(refs)})
		}
		for _, ref := range refs {
			printer.Println("Added " + ref.String())
		}
		return nil
	}

	if err := commitProject(cmd, proj); err != nil {
		printer.Error(err)
		return err
	}
	return nil
}
