package release

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/thunderstore/tcli/internal/git"
	"github.com/thunderstore/tcli/internal/output"
)

// versionPattern gates release versions to three numeric parts.
var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ValidateVersion checks that version is a plain MAJOR.MINOR.PATCH.
// Prerelease suffixes and leading "v" are rejected; the tag gets its "v"
// from the pipeline.
func ValidateVersion(version string) error {
	if !versionPattern.MatchString(version) {
		return output.NewUserError("version must be MAJOR.MINOR.PATCH (e.g. 0.3.1), got " + version)
	}
	return nil
}

// Pipeline executes one release end to end.
type Pipeline struct {
	cfg     *Config
	gh      *GitHub
	printer *output.Printer
	repoDir string
}

// NewPipeline wires a pipeline from its parts. repoDir is the repository
// root the build runs in.
func NewPipeline(cfg *Config, gh *GitHub, printer *output.Printer, repoDir string) *Pipeline {
	return &Pipeline{cfg: cfg, gh: gh, printer: printer, repoDir: repoDir}
}

// Run performs the release: version gate, clean-tree and main-branch
// guards, a check that any tag already on HEAD matches the version,
// draft prerelease creation, then one build-package-upload per target
// in parallel. A failed target fails the run; the draft release is left
// behind for manual cleanup.
func (p *Pipeline) Run(ctx context.Context, version string) error {
	if err := ValidateVersion(version); err != nil {
		return err
	}

	if git.HasUncommittedChanges() {
		return output.NewUserError("the working tree has uncommitted changes; commit or stash them before releasing")
	}

	sha, err := git.HEAD()
	if err != nil {
		return err
	}
	if err := p.guardBranch(sha); err != nil {
		return err
	}

	tag := "v" + version
	headTag, err := git.TagAtHEAD()
	if err != nil {
		return err
	}
	if headTag != "" && headTag != tag {
		return output.NewUserError("HEAD is already tagged " + headTag + ", which does not match " + tag)
	}

	release, err := p.gh.CreateDraftPrerelease(ctx, p.cfg.Owner, p.cfg.Repo, tag, sha)
	if err != nil {
		return output.NewSystemErrorWithCause("creating draft release failed", err)
	}
	p.progress("Created draft prerelease " + tag)

	outDir := p.cfg.Build.OutDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(p.repoDir, outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return output.NewSystemErrorWithCause("creating release output directory", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, target := range p.cfg.Targets {
		eg.Go(func() error {
			return p.releaseTarget(ctx, release, version, outDir, target)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	p.progress("Release " + tag + " assets uploaded; publish the draft when ready")
	return nil
}

// guardBranch refuses to release a commit that is not on the main
// branch. A detached HEAD (a checked-out tag) passes when the main
// branch contains the commit.
func (p *Pipeline) guardBranch(sha string) error {
	branch, err := git.CurrentBranch()
	if err != nil {
		return err
	}
	if branch == p.cfg.MainBranch {
		return nil
	}
	if branch == "HEAD" {
		branches, err := git.BranchesContaining(sha)
		if err != nil {
			return err
		}
		if slices.Contains(branches, p.cfg.MainBranch) {
			return nil
		}
		return output.NewUserError("releases run from " + p.cfg.MainBranch + " only; the checked-out commit is not on it")
	}
	return output.NewUserError("releases run from " + p.cfg.MainBranch + " only, current branch is " + branch)
}

// progress emits a human-mode status line. JSON mode stays quiet so the
// command's final document is the only stdout output.
func (p *Pipeline) progress(msg string) {
	if p.printer.IsJSON() {
		return
	}
	p.printer.Println(p.printer.Styles().Success.Render(msg))
}

// releaseTarget builds, packages, and uploads one platform.
func (p *Pipeline) releaseTarget(ctx context.Context, release *Release, version, outDir string, target Target) error {
	binPath, err := p.build(ctx, version, outDir, target)
	if err != nil {
		return err
	}

	archivePath, err := Archive(binPath, outDir, p.cfg.Build.BinaryName, version, target)
	if err != nil {
		return output.NewSystemErrorWithCause("packaging "+target.Triple+" failed", err)
	}

	name := filepath.Base(archivePath)
	if err := p.gh.UploadAsset(ctx, p.cfg.Owner, p.cfg.Repo, release.ID, name, archivePath); err != nil {
		return output.NewSystemErrorWithCause("uploading "+name+" failed", err)
	}
	p.progress("Uploaded " + name)
	return nil
}

// build cross-compiles the binary for one target and returns its path.
func (p *Pipeline) build(ctx context.Context, version, outDir string, target Target) (string, error) {
	binName := p.cfg.Build.BinaryName + "-" + target.GOOS + "-" + target.GOARCH
	if target.GOOS == "windows" {
		binName += ".exe"
	}
	binPath := filepath.Join(outDir, binName)

	args := []string{"build", "-trimpath"}
	if p.cfg.Build.Ldflags != "" {
		args = append(args, "-ldflags", strings.ReplaceAll(p.cfg.Build.Ldflags, "{version}", version))
	}
	args = append(args, "-o", binPath, p.cfg.Build.Package)

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = p.repoDir
	cmd.Env = append(os.Environ(),
		"GOOS="+target.GOOS,
		"GOARCH="+target.GOARCH,
		"CGO_ENABLED=0",
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return "", output.NewSystemError("building " + target.Triple + " failed: " + msg)
	}
	return binPath, nil
}
