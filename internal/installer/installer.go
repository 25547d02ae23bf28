package installer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// ManifestName is the installer manifest file inside an installer package.
const ManifestName = "installer.json"

// Manifest declares the installer executables a package ships, one per
// supported OS/architecture pair.
type Manifest struct {
	InstallerVersion int      `json:"installer_version"`
	Matrix           []Target `json:"matrix"`
}

// Target is one OS/architecture entry of the installer matrix.
type Target struct {
	TargetOS     string `json:"target_os"`
	Architecture string `json:"architecture"`
	Executable   string `json:"executable"`
}

// Installer is a ready-to-run installer executable unpacked from a package.
type Installer struct {
	ident ts.Reference
	exe   string
}

// Open loads the installer manifest from an unpacked installer package and
// selects the executable for the running OS and architecture.
func Open(ident ts.Reference, packageDir string) (*Installer, error) {
	contents, err := os.ReadFile(filepath.Join(packageDir, ManifestName))
	if err != nil {
		return nil, errors.Wrapf(err, "installer %s has no readable manifest", ident)
	}

	var manifest Manifest
	if err := json.Unmarshal(contents, &manifest); err != nil {
		return nil, errors.Wrapf(err, "parsing installer manifest for %s", ident)
	}

	for _, target := range manifest.Matrix {
		if !strings.EqualFold(target.TargetOS, runtime.GOOS) || !strings.EqualFold(target.Architecture, runtime.GOARCH) {
			continue
		}
		exe := filepath.Join(packageDir, target.Executable)
		if _, err := os.Stat(exe); err != nil {
			return nil, errors.Wrapf(err, "installer executable %s is missing", exe)
		}
		return &Installer{ident: ident, exe: exe}, nil
	}

	return nil, errors.Errorf("installer %s supports no executable for %s/%s", ident, runtime.GOOS, runtime.GOARCH)
}

// Identifier returns the installer package's reference.
func (i *Installer) Identifier() ts.Reference {
	return i.ident
}

// CheckProtocol queries the installer's version and verifies it speaks a
// compatible protocol major.
func (i *Installer) CheckProtocol(ctx context.Context) error {
	var version VersionResponse
	if err := i.call(ctx, request{Type: requestVersion}, requestVersion, &version); err != nil {
		return err
	}
	if version.Protocol == nil || version.Protocol.Major() != ProtocolVersion.Major() {
		return errors.Errorf("installer %s speaks protocol %s, tcli requires %s",
			i.ident, version.Protocol, ProtocolVersion)
	}
	return nil
}

// Install runs the installer for a package and returns the files it tracked.
func (i *Installer) Install(ctx context.Context, payload InstallPayload) ([]TrackedFile, error) {
	var resp InstallResponse
	req := request{Type: requestPackageInstall, Payload: payload}
	if err := i.call(ctx, req, requestPackageInstall, &resp); err != nil {
		return nil, err
	}
	return resp.TrackedFiles, nil
}

// Uninstall runs the installer to remove a previously installed package.
func (i *Installer) Uninstall(ctx context.Context, payload UninstallPayload) error {
	var resp UninstallResponse
	req := request{Type: requestPackageUninstall, Payload: payload}
	return i.call(ctx, req, requestPackageUninstall, &resp)
}

// StartGame launches the game through the mod loader and returns its PID.
func (i *Installer) StartGame(ctx context.Context, payload StartGamePayload) (int, error) {
	var resp StartGameResponse
	req := request{Type: requestStartGame, Payload: payload}
	if err := i.call(ctx, req, requestStartGame, &resp); err != nil {
		return 0, err
	}
	return resp.PID, nil
}

// call executes the installer with the request JSON as its only argument
// and decodes the JSON response from stdout.
func (i *Installer) call(ctx context.Context, req request, wantType string, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "encoding installer request")
	}

	cmd := exec.CommandContext(ctx, i.exe, string(payload))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return errors.Errorf("installer %s failed: %s", i.ident, msg)
	}

	return decodeResponse(bytes.TrimSpace(stdout.Bytes()), wantType, out)
}
