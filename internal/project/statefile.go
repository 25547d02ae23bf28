package project

import (
	"crypto/md5" //nolint:gosec // change detection between staged copies, not integrity
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/installer"
)

// StagedFile is a file placed in the staging tree, plus every destination
// it has been copied to inside a game directory. The checksum detects
// whether a destination copy is still ours before it gets overwritten or
// removed.
type StagedFile struct {
	Action installer.TrackedFile `json:"action"`
	Dest   []string              `json:"dest"`
	MD5    string                `json:"md5"`
}

// NewStagedFile records a staged file with its current checksum.
func NewStagedFile(action installer.TrackedFile) (StagedFile, error) {
	sum, err := fileMD5(action.Path)
	if err != nil {
		return StagedFile{}, err
	}
	return StagedFile{Action: action, MD5: sum}, nil
}

// SameAs reports whether other exists and has the staged file's checksum.
func (s *StagedFile) SameAs(other string) (bool, error) {
	info, err := os.Stat(other)
	if err != nil || info.IsDir() {
		return false, nil
	}
	sum, err := fileMD5(other)
	if err != nil {
		return false, err
	}
	return s.MD5 == sum, nil
}

// StateEntry is the install state of one package.
type StateEntry struct {
	Staged []StagedFile `json:"staged"`
}

// StateFile tracks every installed package's files, keyed by full
// package reference.
type StateFile struct {
	State map[string]*StateEntry `json:"state"`
}

// OpenStateFile reads the statefile at path, creating an empty one on
// disk when none exists.
func OpenStateFile(path string) (*StateFile, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			state := &StateFile{State: make(map[string]*StateEntry)}
			if err := state.Write(path); err != nil {
				return nil, err
			}
			return state, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	var state StateFile
	if err := json.Unmarshal(contents, &state); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if state.State == nil {
		state.State = make(map[string]*StateEntry)
	}
	return &state, nil
}

// Entry returns the state entry for a package, creating it if needed.
func (s *StateFile) Entry(fullRef string) *StateEntry {
	entry, ok := s.State[fullRef]
	if !ok {
		entry = &StateEntry{}
		s.State[fullRef] = entry
	}
	return entry
}

// Write serializes the statefile to path.
func (s *StateFile) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding statefile")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func fileMD5(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close() //nolint:errcheck

	hash := md5.New() //nolint:gosec
	if _, err := io.Copy(hash, file); err != nil {
		return "", errors.Wrapf(err, "hashing %s", path)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
