package ts

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// IndexEntry is one line of the experimental package index: a single
// package version with its resolved dependency list.
type IndexEntry struct {
	Namespace    string          `json:"namespace"`
	Name         string          `json:"name"`
	Version      *semver.Version `json:"version_number"`
	FileFormat   string          `json:"file_format,omitempty"`
	FileSize     int64           `json:"file_size"`
	Dependencies []Reference     `json:"dependencies"`
}

// Reference returns the entry's own versioned package reference.
func (e IndexEntry) Reference() Reference {
	return Reference{Namespace: e.Namespace, Name: e.Name, Version: e.Version}
}

// IndexLineFunc receives one raw index line (without the trailing newline)
// and its parsed form. Returning an error stops the stream.
type IndexLineFunc func(line []byte, entry IndexEntry) error

// StreamIndex downloads the package index and calls fn once per entry.
// The index is served as gzip-compressed newline-delimited JSON; lines are
// handed to fn undecoded so callers can persist them verbatim.
func (c *Client) StreamIndex(ctx context.Context, fn IndexLineFunc) error {
	resp, err := c.get(ctx, c.baseURL+"/api/experimental/package-index/")
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return errors.Wrap(err, "opening gzip stream")
	}
	defer gz.Close() //nolint:errcheck

	scanner := bufio.NewScanner(gz)
	// Index lines are small JSON objects, but dependency lists can get long.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry IndexEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return errors.Wrap(err, "parsing index entry")
		}
		if err := fn(line, entry); err != nil {
			return err
		}
	}
	return errors.Wrap(scanner.Err(), "reading index stream")
}

// IndexUpdatedAt reports when the remote package index was last rebuilt,
// taken from the Last-Modified header of a HEAD request.
func (c *Client) IndexUpdatedAt(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/api/experimental/package-index/", nil)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "building request")
	}

	resp, err := c.do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close() //nolint:errcheck

	lastModified := resp.Header.Get("Last-Modified")
	if lastModified == "" {
		// No header means no caching signal; treat as freshly updated.
		return time.Now().UTC(), nil
	}

	t, err := http.ParseTime(lastModified)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parsing Last-Modified header")
	}
	return t.UTC(), nil
}
