package sketch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

// CopyTree recursively copies src into dst. A file is skipped when either its
// base name or its slash-separated path relative to src is in exclude.
func CopyTree(src, dst string, exclude map[string]struct{}) error {
	return copyTree(src, dst, "", exclude)
}

func copyTree(src, dst, rel string, exclude map[string]struct{}) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrIO, src, err)
	}

	if !info.IsDir() {
		if excluded(rel, exclude) {
			return nil
		}
		return copyFile(src, dst, info.Mode().Perm())
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", ErrIO, dst, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("%w: read directory %s: %v", ErrIO, src, err)
	}
	if len(entries) == 0 {
		slog.Debug("Template directory is empty", "path", src)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if err := copyTree(filepath.Join(src, name), filepath.Join(dst, name), path.Join(rel, name), exclude); err != nil {
			return err
		}
	}
	return nil
}

func excluded(rel string, exclude map[string]struct{}) bool {
	if _, ok := exclude[rel]; ok {
		return true
	}
	_, ok := exclude[path.Base(rel)]
	return ok
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIO, src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: copy %s: %v", ErrIO, src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, dst, err)
	}
	return nil
}
