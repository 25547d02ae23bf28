package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/thunderstore/tcli/internal/config"
	"github.com/thunderstore/tcli/internal/index"
	"github.com/thunderstore/tcli/internal/output"
	"github.com/thunderstore/tcli/internal/project"
	"github.com/thunderstore/tcli/internal/ts"
)

// tokenEnvVar supplies the Thunderstore API token when no --token flag is
// given.
const tokenEnvVar = "TCLI_AUTH_TOKEN"

// openProject opens the project named by the --project flag.
func openProject(cmd *cobra.Command) (*project.Project, error) {
	return project.Open(projectDir(cmd))
}

// repositoryClient builds a Thunderstore client for the project's
// repository, or the default repository when no project is available.
func repositoryClient(cmd *cobra.Command, token string) *ts.Client {
	repository := ts.DefaultRepository
	if proj, err := openProject(cmd); err == nil {
		if manifest, err := proj.Manifest(); err == nil {
			repository = manifest.Repository()
		}
	}

	var opts []ts.Option
	if token != "" {
		opts = append(opts, ts.WithToken(token))
	}
	return ts.NewClient(repository, opts...)
}

// resolveToken returns the explicit token, falling back to the
// environment.
func resolveToken(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(tokenEnvVar)
}

// openSyncedIndex ensures the local package index is present and fresh,
// then opens it. The caller must Close the returned index.
func openSyncedIndex(ctx context.Context, client *ts.Client, printer *output.Printer) (*index.Index, error) {
	if _, err := config.EnsureHome(); err != nil {
		return nil, output.NewSystemErrorWithCause("creating tcli home directory", err)
	}

	dir := config.IndexDir()
	stale, err := index.RequiresUpdate(ctx, client, dir)
	if err != nil {
		// Offline with an existing index is fine; a fresh sync can wait.
		stale = false
	}
	if stale {
		if !printer.IsJSON() {
			printer.Println("Syncing package index...")
		}
		if err := index.Sync(ctx, client, dir); err != nil {
			return nil, output.NewSystemErrorWithCause("syncing package index", err)
		}
	}

	idx, err := index.Open(dir)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("opening package index", err)
	}
	return idx, nil
}

// newCache builds the package cache under the tcli home directory.
// Downloads are size-checked against sizes when an index is available.
func newCache(client *ts.Client, sizes project.SizeSource) *project.Cache {
	return project.NewCache(client, nil, config.CacheDir(), sizes)
}

// commitProject reconciles installed packages with the manifest and
// reports the changes through the printer.
func commitProject(cmd *cobra.Command, proj *project.Project) error {
	printer := newPrinter(cmd)
	client := repositoryClient(cmd, "")

	idx, err := openSyncedIndex(cmd.Context(), client, printer)
	if err != nil {
		return err
	}
	defer idx.Close() //nolint:errcheck

	summary, err := proj.Commit(cmd.Context(), idx, newCache(client, idx))
	if err != nil {
		if err == project.ErrLockfileModified {
			return output.NewConflictError(err.Error())
		}
		return output.NewSystemErrorWithCause("committing project changes", err)
	}

	if printer.IsJSON() {
		return printer.Success(map[string]any{
			"added":   refStrings(summary.Added),
			"removed": refStrings(summary.Removed),
		})
	}
	for _, ref := range summary.Removed {
		printer.Println("Removed " + ref.String())
	}
	for _, ref := range summary.Added {
		printer.Println("Installed " + ref.String())
	}
	if !summary.Changed() {
		printer.Println("Already up to date")
	}
	return nil
}

// refStrings flattens references for JSON output.
func refStrings(refs []ts.Reference) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.String())
	}
	return out
}

// parseRefArgs parses positional package reference arguments.
func parseRefArgs(args []string) ([]ts.Reference, error) {
	refs := make([]ts.Reference, 0, len(args))
	for _, arg := range args {
		ref, err := ts.ParseReference(arg)
		if err != nil {
			return nil, output.NewUserError(err.Error())
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
