// Package installer drives package installer executables over the tcli
// installer protocol: a single JSON request passed as an argument, a
// single JSON response on stdout.
package installer

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// ProtocolVersion is the protocol this tcli speaks. Installers must match
// on the major version.
var ProtocolVersion = semver.MustParse("1.0.0")

// FileAction is what an installer did to a tracked file.
type FileAction string

// Tracked file actions.
const (
	ActionCreate FileAction = "Create"
	ActionRemove FileAction = "Remove"
	ActionModify FileAction = "Modify"
)

// TrackedFile is a file the installer touched on behalf of a package.
type TrackedFile struct {
	Action  FileAction `json:"action"`
	Path    string     `json:"path"`
	Context string     `json:"context,omitempty"`
}

// Request type tags.
const (
	requestVersion          = "Version"
	requestPackageInstall   = "PackageInstall"
	requestPackageUninstall = "PackageUninstall"
	requestStartGame        = "StartGame"
)

// request is the envelope sent to installer executables.
type request struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// InstallPayload asks the installer to install a package into the
// project's state and staging trees.
type InstallPayload struct {
	IsModLoader bool           `json:"is_modloader"`
	Package     ts.Reference   `json:"package"`
	PackageDeps []ts.Reference `json:"package_deps"`
	PackageDir  string         `json:"package_dir"`
	StateDir    string         `json:"state_dir"`
	StagingDir  string         `json:"staging_dir"`
}

// UninstallPayload asks the installer to undo a previous install,
// given the files it reported back then.
type UninstallPayload struct {
	IsModLoader  bool           `json:"is_modloader"`
	Package      ts.Reference   `json:"package"`
	PackageDeps  []ts.Reference `json:"package_deps"`
	PackageDir   string         `json:"package_dir"`
	StateDir     string         `json:"state_dir"`
	StagingDir   string         `json:"staging_dir"`
	TrackedFiles []TrackedFile  `json:"tracked_files"`
}

// StartGamePayload asks the mod loader's installer to launch the game.
type StartGamePayload struct {
	ModsEnabled  bool     `json:"mods_enabled"`
	ProjectState string   `json:"project_state"`
	GameDir      string   `json:"game_dir"`
	GameExe      string   `json:"game_exe"`
	Args         []string `json:"args"`
}

// response is the envelope read back from installer executables.
type response struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// VersionResponse identifies the installer and its protocol level.
type VersionResponse struct {
	Author     string          `json:"author"`
	Identifier ts.Reference    `json:"identifier"`
	Protocol   *semver.Version `json:"protocol"`
}

// InstallResponse reports the files an install produced.
type InstallResponse struct {
	TrackedFiles    []TrackedFile `json:"tracked_files"`
	PostHookContext string        `json:"post_hook_context,omitempty"`
}

// UninstallResponse reports uninstall completion.
type UninstallResponse struct {
	PostHookContext string `json:"post_hook_context,omitempty"`
}

// StartGameResponse reports the PID of the launched game.
type StartGameResponse struct {
	PID int `json:"pid"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// decodeResponse unpacks an installer response envelope into out,
// surfacing protocol-level Error responses as Go errors.
func decodeResponse(raw []byte, wantType string, out any) error {
	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return errors.Wrap(err, "parsing installer response")
	}

	if envelope.Type == "Error" {
		var e errorResponse
		_ = json.Unmarshal(envelope.Payload, &e)
		return errors.Errorf("installer returned an error: %s", e.Message)
	}
	if envelope.Type != wantType {
		return errors.Errorf("installer responded with %q, expected %q", envelope.Type, wantType)
	}
	if err := json.Unmarshal(envelope.Payload, out); err != nil {
		return errors.Wrap(err, "parsing installer response payload")
	}
	return nil
}
