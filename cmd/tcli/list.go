package main

import (
	"path"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/config"
	"github.com/thunderstore/tcli/internal/game"
	"github.com/thunderstore/tcli/internal/output"
	"github.com/thunderstore/tcli/internal/ts"
)

// newListCmd creates the list command and its subcommands.
func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List packages, games, and platforms",
	}

	cmd.AddCommand(newListInstalledCmd())
	cmd.AddCommand(newListImportedCmd())
	cmd.AddCommand(newListPackagesCmd())
	cmd.AddCommand(newListSupportedGamesCmd())
	cmd.AddCommand(newListPlatformsCmd())

	return cmd
}

// newListPackagesCmd lists packages on the remote repository, optionally
// scoped to a single community.
func newListPackagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "packages [community]",
		Short: "List packages on the remote repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)
			client := repositoryClient(cmd, "")

			var (
				listings []ts.PackageListing
				err      error
			)
			if len(args) == 1 {
				listings, err = client.CommunityPackageList(cmd.Context(), args[0])
			} else {
				listings, err = client.PackageList(cmd.Context())
			}
			if err != nil {
				exitErr := output.NewSystemErrorWithCause("listing packages", err)
				printer.Error(exitErr)
				return exitErr
			}

			sort.Slice(listings, func(a, b int) bool {
				return listings[a].FullName < listings[b].FullName
			})

			if printer.IsJSON() {
				names := make([]string, 0, len(listings))
				for _, listing := range listings {
					names = append(names, listing.FullName)
				}
				return printer.Success(map[string]any{"packages": names})
			}
			if len(listings) == 0 {
				printer.Println("No packages listed")
				return nil
			}
			for _, listing := range listings {
				line := listing.FullName
				if len(listing.Versions) > 0 {
					line += "\t" + listing.Versions[0].VersionNumber
				}
				printer.Println(line)
			}
			return nil
		},
	}
}

// newListInstalledCmd lists the lockfile-pinned packages.
func newListInstalledCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "installed-packages",
		Short: "List installed packages in install order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)

			proj, err := openProject(cmd)
			if err != nil {
				exitErr := output.NewUserError(err.Error())
				printer.Error(exitErr)
				return exitErr
			}
			refs, err := proj.InstalledPackages()
			if err != nil {
				exitErr := output.NewSystemErrorWithCause("reading lockfile", err)
				printer.Error(exitErr)
				return exitErr
			}

			if printer.IsJSON() {
				return printer.Success(map[string]any{"packages": refStrings(refs)})
			}
			if len(refs) == 0 {
				printer.Println("No packages installed")
				return nil
			}
			for _, ref := range refs {
				printer.Println(ref.String())
			}
			return nil
		},
	}
}

// newListImportedCmd lists games in the project's game registry.
func newListImportedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "imported-games",
		Short: "List games imported into the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)

			proj, err := openProject(cmd)
			if err != nil {
				exitErr := output.NewUserError(err.Error())
				printer.Error(exitErr)
				return exitErr
			}
			registry, err := game.ReadRegistry(proj.RegistryPath)
			if err != nil {
				exitErr := output.NewSystemErrorWithCause("reading game registry", err)
				printer.Error(exitErr)
				return exitErr
			}

			if printer.IsJSON() {
				return printer.Success(map[string]any{"games": registry})
			}
			if len(registry) == 0 {
				printer.Println("No games imported")
				return nil
			}
			for _, data := range registry {
				printer.Println(data.Identifier + "\t" + data.DisplayName + "\t" + data.ActiveDistribution.GameDir)
			}
			return nil
		},
	}
}

// newListSupportedGamesCmd lists games in the ecosystem schema, with an
// optional wildcard pattern matched against identifier and display name.
func newListSupportedGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supported-games [pattern]",
		Short: "List games Thunderstore supports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)

			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
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

			idents := make([]string, 0, len(schema.Games))
			for ident := range schema.Games {
				if matchesGame(pattern, ident, schema.Games[ident].Meta.DisplayName) {
					idents = append(idents, ident)
				}
			}
			sort.Strings(idents)

			if printer.IsJSON() {
				games := make([]map[string]string, 0, len(idents))
				for _, ident := range idents {
					games = append(games, map[string]string{
						"identifier":   ident,
						"display_name": schema.Games[ident].Meta.DisplayName,
					})
				}
				return printer.Success(map[string]any{"games": games})
			}
			if len(idents) == 0 {
				printer.Println("No games match " + pattern)
				return nil
			}
			for _, ident := range idents {
				printer.Println(ident + "\t" + schema.Games[ident].Meta.DisplayName)
			}
			return nil
		},
	}
}

// matchesGame matches a shell-style wildcard pattern (case-insensitive)
// against a game's identifier or display name.
func matchesGame(pattern, ident, displayName string) bool {
	pattern = strings.ToLower(pattern)
	if ok, err := path.Match(pattern, strings.ToLower(ident)); err == nil && ok {
		return true
	}
	ok, _ := path.Match(pattern, strings.ToLower(displayName))
	return ok
}

// newListPlatformsCmd lists the store platforms importable on this OS.
func newListPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supported-platforms",
		Short: "List store platforms importable on this OS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)

			platforms := game.SupportedPlatforms(runtime.GOOS)
			if printer.IsJSON() {
				return printer.Success(map[string]any{"platforms": platforms})
			}
			for _, platform := range platforms {
				printer.Println(platform)
			}
			return nil
		},
	}
}
