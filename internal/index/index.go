// Package index maintains the local copy of the Thunderstore package index.
//
// The index lives in three files under <home>/index:
//   - header.json: metadata, currently just the remote update time.
//   - index.ndjson: the raw newline-delimited JSON dump, byte-for-byte as
//     served by the repository.
//   - lookup.json: full package reference -> byte range within index.ndjson.
//
// Lookups read single entries back out of the dump by offset, so the full
// index is never held in memory as parsed objects.
package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

const (
	headerFile = "header.json"
	dataFile   = "index.ndjson"
	lookupFile = "lookup.json"
)

// ErrNotSynced is returned when the index has never been downloaded.
var ErrNotSynced = errors.New("package index has not been synced")

type header struct {
	UpdateTime time.Time `json:"update_time"`
}

// span is a byte range within the index dump, end exclusive.
type span struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Index is an opened package index, ready for lookups.
type Index struct {
	file  *os.File
	exact map[string]span   // full reference -> byte range
	loose map[string][]span // namespace-name -> byte ranges of all versions
}

// RequiresUpdate reports whether the local index is older than the remote
// one. A missing local index always requires an update.
func RequiresUpdate(ctx context.Context, client *ts.Client, dir string) (bool, error) {
	contents, err := os.ReadFile(filepath.Join(dir, headerFile))
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, errors.Wrap(err, "reading index header")
	}

	var h header
	if err := json.Unmarshal(contents, &h); err != nil {
		// A mangled header is treated as absent.
		return true, nil
	}

	remote, err := client.IndexUpdatedAt(ctx)
	if err != nil {
		return false, err
	}
	return h.UpdateTime.Before(remote), nil
}

// Sync downloads the remote index into dir, replacing any previous copy.
// The dump is written verbatim; the lookup table is rebuilt as lines stream in.
func Sync(ctx context.Context, client *ts.Client, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating index directory")
	}

	tmpPath := filepath.Join(dir, dataFile+".tmp")
	out, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrap(err, "creating index file")
	}
	defer out.Close() //nolint:errcheck

	lookup := make(map[string]span)
	var offset int64

	err = client.StreamIndex(ctx, func(line []byte, entry ts.IndexEntry) error {
		n, err := out.Write(append(line, '\n'))
		if err != nil {
			return errors.Wrap(err, "writing index line")
		}

		lookup[entry.Reference().String()] = span{Start: offset, End: offset + int64(len(line))}
		offset += int64(n)
		return nil
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "flushing index file")
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, dataFile)); err != nil {
		return errors.Wrap(err, "replacing index file")
	}

	if err := writeJSON(filepath.Join(dir, lookupFile), lookup); err != nil {
		return err
	}

	updateTime, err := client.IndexUpdatedAt(ctx)
	if err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, headerFile), header{UpdateTime: updateTime})
}

// Open loads the lookup table and opens the dump for reads.
// The caller owns the returned Index and must Close it.
func Open(dir string) (*Index, error) {
	contents, err := os.ReadFile(filepath.Join(dir, lookupFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotSynced
		}
		return nil, errors.Wrap(err, "reading index lookup table")
	}

	exact := make(map[string]span)
	if err := json.Unmarshal(contents, &exact); err != nil {
		return nil, errors.Wrap(err, "parsing index lookup table")
	}

	loose := make(map[string][]span)
	for key, sp := range exact {
		ref, err := ts.ParseReference(key)
		if err != nil {
			continue
		}
		loose[ref.LooseIdent()] = append(loose[ref.LooseIdent()], sp)
	}

	file, err := os.Open(filepath.Join(dir, dataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotSynced
		}
		return nil, errors.Wrap(err, "opening index file")
	}

	return &Index{file: file, exact: exact, loose: loose}, nil
}

// Close releases the underlying index file.
func (i *Index) Close() error {
	return i.file.Close()
}

// Len returns the number of package versions in the index.
func (i *Index) Len() int {
	return len(i.exact)
}

// Get returns the entry matching a full versioned reference.
func (i *Index) Get(ref ts.Reference) (ts.IndexEntry, bool) {
	sp, ok := i.exact[ref.String()]
	if !ok {
		return ts.IndexEntry{}, false
	}
	entry, err := i.readEntry(sp)
	if err != nil {
		return ts.IndexEntry{}, false
	}
	return entry, true
}

// GetVersions returns every indexed version of a loosely referenced package.
func (i *Index) GetVersions(looseIdent string) []ts.IndexEntry {
	spans := i.loose[looseIdent]
	entries := make([]ts.IndexEntry, 0, len(spans))
	for _, sp := range spans {
		entry, err := i.readEntry(sp)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Latest returns the highest indexed version of a loosely referenced package.
func (i *Index) Latest(looseIdent string) (ts.IndexEntry, bool) {
	var best ts.IndexEntry
	found := false
	for _, entry := range i.GetVersions(looseIdent) {
		if !found || entry.Version.GreaterThan(best.Version) {
			best = entry
			found = true
		}
	}
	return best, found
}

func (i *Index) readEntry(sp span) (ts.IndexEntry, error) {
	buf := make([]byte, sp.End-sp.Start)
	if _, err := i.file.ReadAt(buf, sp.Start); err != nil {
		return ts.IndexEntry{}, errors.Wrap(err, "reading index entry")
	}

	var entry ts.IndexEntry
	if err := json.Unmarshal(buf, &entry); err != nil {
		return ts.IndexEntry{}, errors.Wrap(err, "parsing index entry")
	}
	return entry, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", filepath.Base(path))
	}
	return nil
}
