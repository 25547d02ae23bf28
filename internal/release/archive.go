package release

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// AssetName returns the archive filename for a release build:
// tcli-<version>-<triple>.zip for windows targets, .tar.gz otherwise.
func AssetName(binaryName, version string, target Target) string {
	name := binaryName + "-" + version + "-" + target.Triple
	if target.GOOS == "windows" {
		return name + ".zip"
	}
	return name + ".tar.gz"
}

// Archive packages a built binary into the target's archive format and
// returns the archive path. The binary sits at the archive root under its
// plain name (with .exe on windows).
func Archive(binPath, outDir, binaryName, version string, target Target) (string, error) {
	entryName := binaryName
	if target.GOOS == "windows" {
		entryName += ".exe"
	}

	archivePath := filepath.Join(outDir, AssetName(binaryName, version, target))
	var err error
	if target.GOOS == "windows" {
		err = writeZip(archivePath, binPath, entryName)
	} else {
		err = writeTarGz(archivePath, binPath, entryName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "packaging %s", archivePath)
	}
	return archivePath, nil
}

func writeZip(archivePath, binPath, entryName string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close() //nolint:errcheck

	zw := zip.NewWriter(out)
	in, err := os.Open(binPath)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = entryName
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func writeTarGz(archivePath, binPath, entryName string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close() //nolint:errcheck

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	in, err := os.Open(binPath)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = entryName
	header.Mode = 0o755

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	if _, err := io.Copy(tw, in); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return out.Close()
}
