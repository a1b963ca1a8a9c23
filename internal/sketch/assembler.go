package sketch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

type Job struct {
	TemplateRoot string
	ScratchDir   string
	Vars         map[string]string
	// ArchiveBaseName overrides the manifest zipfilename when set.
	ArchiveBaseName string
}

type Archive struct {
	Path     string
	FileName string
	Size     int64
}

type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble renders the manifest templates, copies the remaining files and
// zips the result next to job.ScratchDir. The scratch directory is removed
// before returning, whatever the outcome.
func (a *Assembler) Assemble(ctx context.Context, job Job) (*Archive, error) {
	manifest, err := ParseManifest(job.TemplateRoot)
	if err != nil {
		return nil, err
	}

	scratch := filepath.Clean(job.ScratchDir)
	if err := os.RemoveAll(scratch); err != nil {
		return nil, fmt.Errorf("%w: clear %s: %v", ErrScratchDir, scratch, err)
	}
	if err := os.RemoveAll(scratch + ".zip"); err != nil {
		return nil, fmt.Errorf("%w: clear %s.zip: %v", ErrScratchDir, scratch, err)
	}
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrScratchDir, scratch, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			slog.Warn("Failed to remove scratch directory", "path", scratch, "error", err)
		}
	}()

	exclude := map[string]struct{}{ManifestName: {}}
	for _, t := range manifest.Templates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := filepath.Join(job.TemplateRoot, filepath.FromSlash(t))
		dst := filepath.Join(scratch, filepath.FromSlash(t))
		if err := Render(src, dst, job.Vars); err != nil {
			return nil, err
		}
		exclude[t] = struct{}{}
	}

	if err := CopyTree(job.TemplateRoot, scratch, exclude); err != nil {
		return nil, err
	}

	path, err := BuildArchive(scratch)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat archive %s: %v", ErrIO, path, err)
	}

	fileName := manifest.ArchiveName()
	if job.ArchiveBaseName != "" {
		fileName = job.ArchiveBaseName + ".zip"
	}

	slog.Info("Sketch assembled",
		"template_root", job.TemplateRoot,
		"archive", path,
		"templates", len(manifest.Templates),
		"size", info.Size())

	return &Archive{Path: path, FileName: fileName, Size: info.Size()}, nil
}
