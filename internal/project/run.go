package project

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/game"
	"github.com/thunderstore/tcli/internal/installer"
	"github.com/thunderstore/tcli/internal/ts"
)

// RunOptions control how a game is launched.
type RunOptions struct {
	// Vanilla launches the game without linking staged mods.
	Vanilla bool
	// Args are passed through to the game executable.
	Args []string
}

// StartGame launches a registered game. Staged mod files are linked into
// the game directory first, then the game is started through the mod
// loader's installer when one is installed, otherwise directly. The PID
// of the launched process is recorded so StopGame can find it.
func (p *Project) StartGame(ctx context.Context, fetcher Fetcher, ident string, opts RunOptions) (int, error) {
	data, err := game.FindGame(p.RegistryPath, ident)
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, errors.Errorf("game %q has not been imported; run 'tcli import-game %s' first", ident, ident)
	}

	if pid, ok := p.runningPID(ident); ok {
		return 0, errors.Errorf("game %q is already running with PID %d", ident, pid)
	}

	if !opts.Vanilla {
		if err := p.linkStagedFiles(data.ActiveDistribution.GameDir); err != nil {
			return 0, err
		}
	}

	pid, err := p.launch(ctx, fetcher, data, opts)
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(p.pidPath(ident), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return 0, errors.Wrap(err, "recording game PID")
	}
	return pid, nil
}

// StopGame kills a game previously started by StartGame.
func (p *Project) StopGame(ident string) error {
	pid, ok := p.runningPID(ident)
	if !ok {
		return errors.Errorf("game %q is not running", ident)
	}
	if err := game.KillProcess(pid); err != nil {
		return err
	}
	if err := os.Remove(p.pidPath(ident)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing PID file")
	}
	return nil
}

// runningPID reads the game's PID file and verifies the process is alive.
func (p *Project) runningPID(ident string) (int, bool) {
	contents, err := os.ReadFile(p.pidPath(ident))
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || !game.ProcessRunning(pid) {
		return 0, false
	}
	return pid, true
}

// linkStagedFiles copies staged mod files into the game directory,
// recording each destination in the statefile. Destinations already
// holding an identical copy are skipped.
func (p *Project) linkStagedFiles(gameDir string) error {
	state, err := p.StateFile()
	if err != nil {
		return err
	}

	for _, entry := range state.State {
		for i := range entry.Staged {
			staged := &entry.Staged[i]

			rel, err := filepath.Rel(p.StagingDir, staged.Action.Path)
			if err != nil || strings.HasPrefix(rel, "..") {
				// Files staged outside the staging tree are the
				// installer's own business; nothing to link.
				continue
			}
			// The first path element is the package's staging root,
			// not part of the in-game layout.
			parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
			if len(parts) < 2 {
				continue
			}
			dest := filepath.Join(gameDir, filepath.FromSlash(parts[1]))

			same, err := staged.SameAs(dest)
			if err != nil {
				return err
			}
			if !same {
				if err := copyFile(staged.Action.Path, dest); err != nil {
					return err
				}
			}
			staged.addDest(dest)
		}
	}
	return state.Write(p.StatePath)
}

// launch starts the game, preferring a mod loader installer when one is
// installed and protocol-capable.
func (p *Project) launch(ctx context.Context, fetcher Fetcher, data *game.Data, opts RunOptions) (int, error) {
	if !opts.Vanilla {
		if inst, err := p.findLoaderInstaller(ctx, fetcher); err != nil {
			return 0, err
		} else if inst != nil {
			return inst.StartGame(ctx, installer.StartGamePayload{
				ModsEnabled:  true,
				ProjectState: p.StateDir,
				GameDir:      data.ActiveDistribution.GameDir,
				GameExe:      data.ActiveDistribution.ExePath,
				Args:         opts.Args,
			})
		}
	}

	cmd := exec.Command(data.ActiveDistribution.ExePath, opts.Args...)
	cmd.Dir = data.ActiveDistribution.GameDir
	if err := cmd.Start(); err != nil {
		return 0, errors.Wrapf(err, "launching %s", data.ActiveDistribution.ExePath)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return 0, errors.Wrap(err, "detaching from game process")
	}
	return pid, nil
}

// findLoaderInstaller returns the first installed package shipping an
// installer executable, or nil when every package used the builtin runner.
func (p *Project) findLoaderInstaller(ctx context.Context, fetcher Fetcher) (*installer.Installer, error) {
	refs, err := p.InstalledPackages()
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		dir, err := fetcher.Fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(filepath.Join(dir, installer.ManifestName)); err != nil {
			continue
		}
		inst, err := installer.Open(ref, dir)
		if err != nil {
			return nil, err
		}
		if err := inst.CheckProtocol(ctx); err != nil {
			return nil, err
		}
		return inst, nil
	}
	return nil, nil
}

// InstalledPackages returns the pinned packages in install order.
func (p *Project) InstalledPackages() ([]ts.Reference, error) {
	lock, err := p.LockFile()
	if err != nil {
		return nil, err
	}
	graph, err := lock.Graph()
	if err != nil {
		return nil, err
	}
	return graph.Digest(), nil
}

// addDest records a linked destination once.
func (s *StagedFile) addDest(dest string) {
	for _, existing := range s.Dest {
		if existing == dest {
			return
		}
	}
	s.Dest = append(s.Dest, dest)
}
