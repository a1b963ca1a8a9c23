package sketch

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const chunkSize = 2048

// BuildArchive zips every regular file below rootDir into rootDir+".zip".
// Entry names are slash-separated paths relative to rootDir. Directories
// without files contribute nothing.
func BuildArchive(rootDir string) (string, error) {
	rootDir = filepath.Clean(rootDir)
	target := rootDir + ".zip"

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("%w: create archive %s: %v", ErrIO, target, err)
	}

	entries, err := writeEntries(out, rootDir)
	closeErr := out.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("%w: close archive %s: %v", ErrIO, target, closeErr)
	}
	if err == nil && entries == 0 {
		err = fmt.Errorf("%w: %s contains no files", ErrPackaging, rootDir)
	}
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}

	slog.Debug("Sketch archive built", "path", target, "entries", entries)
	return target, nil
}

func writeEntries(w io.Writer, rootDir string) (int, error) {
	zw := zip.NewWriter(w)
	buf := make([]byte, chunkSize)
	entries := 0

	walkErr := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: walk %s: %v", ErrIO, path, err)
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return fmt.Errorf("%w: relative path for %s: %v", ErrIO, path, err)
		}

		if err := addEntry(zw, path, filepath.ToSlash(rel), buf); err != nil {
			return err
		}
		entries++
		return nil
	})
	if walkErr != nil {
		_ = zw.Close()
		return entries, walkErr
	}

	if err := zw.Close(); err != nil {
		return entries, fmt.Errorf("%w: finalize archive: %v", ErrIO, err)
	}
	return entries, nil
}

func addEntry(zw *zip.Writer, path, name string, buf []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("%w: header for %s: %v", ErrIO, path, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("%w: add entry %s: %v", ErrIO, name, err)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer src.Close()

	if _, err := io.CopyBuffer(dst, src, buf); err != nil {
		return fmt.Errorf("%w: write entry %s: %v", ErrIO, name, err)
	}
	return nil
}
