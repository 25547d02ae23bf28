package project

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

// Fetcher resolves a versioned reference to a local directory holding the
// unpacked package.
type Fetcher interface {
	Fetch(ctx context.Context, ref ts.Reference) (string, error)
}

// SizeSource reports the expected archive size for a reference.
// Satisfied by *index.Index; nil skips size checks.
type SizeSource interface {
	Get(ref ts.Reference) (ts.IndexEntry, bool)
}

// Cache downloads package archives and keeps them unpacked under the tcli
// home cache, one directory per full reference.
type Cache struct {
	client *ts.Client
	http   ts.HTTPDoer
	dir    string
	sizes  SizeSource
}

// NewCache creates a Cache rooted at dir, downloading through client.
// Downloads are checked against the sizes the index reports when a
// SizeSource is given.
func NewCache(client *ts.Client, doer ts.HTTPDoer, dir string, sizes SizeSource) *Cache {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Cache{client: client, http: doer, dir: dir, sizes: sizes}
}

// Fetch returns the unpacked directory for ref, downloading and
// extracting the archive on a cache miss.
func (c *Cache) Fetch(ctx context.Context, ref ts.Reference) (string, error) {
	if ref.IsLoose() {
		return "", errors.Errorf("cannot fetch loose reference %s", ref)
	}

	dest := filepath.Join(c.dir, ref.String())
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return dest, nil
	}

	archivePath := dest + ".zip"
	if err := c.download(ctx, ref, archivePath); err != nil {
		return "", err
	}
	defer os.Remove(archivePath) //nolint:errcheck

	tmp := dest + ".extract"
	if err := extractZip(archivePath, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return "", errors.Wrapf(err, "extracting %s", ref)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.RemoveAll(tmp)
		return "", errors.Wrapf(err, "placing %s into cache", ref)
	}
	return dest, nil
}

func (c *Cache) download(ctx context.Context, ref ts.Reference, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(err, "creating cache directory")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.client.DownloadURL(ref), nil)
	if err != nil {
		return errors.Wrap(err, "building download request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "downloading %s", ref)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("downloading %s failed with status %d", ref, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "creating archive file")
	}
	defer out.Close() //nolint:errcheck

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return errors.Wrapf(err, "writing %s", dest)
	}
	if err := out.Close(); err != nil {
		return err
	}

	if c.sizes != nil {
		if entry, ok := c.sizes.Get(ref); ok && entry.FileSize > 0 && written != entry.FileSize {
			_ = os.Remove(dest)
			return errors.Errorf("downloaded archive for %s is %d bytes, the index expects %d", ref, written, entry.FileSize)
		}
	}
	return nil
}

// extractZip unpacks archive into dir, refusing entries that escape it.
func extractZip(archive, dir string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer reader.Close() //nolint:errcheck

	for _, file := range reader.File {
		name := filepath.FromSlash(file.Name)
		if strings.Contains(name, "..") {
			return errors.Errorf("archive entry %q escapes the extraction root", file.Name)
		}
		target := filepath.Join(dir, name)

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "creating %s", target)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", filepath.Dir(target))
		}

		src, err := file.Open()
		if err != nil {
			return errors.Wrapf(err, "opening archive entry %s", file.Name)
		}

		dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode().Perm()|0o200)
		if err != nil {
			_ = src.Close()
			return errors.Wrapf(err, "creating %s", target)
		}

		_, copyErr := io.Copy(dst, src)
		_ = src.Close()
		closeErr := dst.Close()
		if copyErr != nil {
			return errors.Wrapf(copyErr, "extracting %s", file.Name)
		}
		if closeErr != nil {
			return errors.Wrapf(closeErr, "finishing %s", target)
		}
	}
	return nil
}
