package handler

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
	"github.com/EternisAI/sketch-provisioner/internal/sketch"
	"github.com/gin-gonic/gin"
)

const (
	maxUploadSize    = 100 * 1024 * 1024
	maxEntrySize     = 32 * 1024 * 1024
	maxExtractedSize = 256 * 1024 * 1024
)

var (
	errUnsafeEntry = errors.New("unsafe path in zip")
	errTooLarge    = errors.New("zip expands beyond the size limit")
)

// extractLimits bound what an upload may expand to on disk. The compressed
// size says little about that.
type extractLimits struct {
	entry int64
	total int64
}

// SketchAdminHandler installs and removes sketch template trees.
type SketchAdminHandler struct {
	templatesRoot string
	limits        extractLimits
}

func NewSketchAdminHandler(templatesRoot string) *SketchAdminHandler {
	return &SketchAdminHandler{
		templatesRoot: templatesRoot,
		limits:        extractLimits{entry: maxEntrySize, total: maxExtractedSize},
	}
}

// Upload replaces the variant's template tree with the contents of the
// uploaded zip. The tree must carry a valid sketch.properties; the previous
// tree is kept when it does not.
func (h *SketchAdminHandler) Upload(c *gin.Context) {
	variant := c.Param("variant")
	if !validVariant(variant) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sketch name"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		slog.Error("Failed to read file from form", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	if filepath.Ext(header.Filename) != ".zip" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .zip files are allowed"})
		return
	}

	if err := os.MkdirAll(h.templatesRoot, 0755); err != nil {
		slog.Error("Failed to create templates root", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process upload"})
		return
	}

	tmpFile, err := os.CreateTemp("", "sketch-*.zip")
	if err != nil {
		slog.Error("Failed to create temp file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process upload"})
		return
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, file); err != nil {
		slog.Error("Failed to save uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	// staged next to the live tree so the final rename stays on one filesystem
	staging, err := os.MkdirTemp(h.templatesRoot, ".upload-"+variant+"-")
	if err != nil {
		slog.Error("Failed to create staging directory", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process upload"})
		return
	}
	defer os.RemoveAll(staging)

	files, err := unzipTree(tmpFile.Name(), staging, h.limits)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, errUnsafeEntry) || errors.Is(err, zip.ErrFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Failed to unzip sketch", "error", err, "sketch", variant)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unzip"})
		return
	}

	if _, err := sketch.ParseManifest(staging); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := os.Chmod(staging, 0755); err != nil {
		slog.Warn("Failed to set sketch directory permissions", "error", err)
	}

	target := filepath.Join(h.templatesRoot, variant)
	if err := swapTree(h.templatesRoot, staging, target); err != nil {
		slog.Error("Failed to install sketch", "error", err, "sketch", variant)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to install sketch"})
		return
	}

	slog.Info("Sketch installed", "sketch", variant, "file_count", len(files))
	c.JSON(http.StatusOK, dto.UploadSketchResponse{Sketch: variant, Files: files})
}

func (h *SketchAdminHandler) Delete(c *gin.Context) {
	variant := c.Param("variant")
	if !validVariant(variant) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sketch name"})
		return
	}

	target := filepath.Join(h.templatesRoot, variant)
	if _, err := os.Stat(target); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sketch not found"})
		return
	}
	if err := os.RemoveAll(target); err != nil {
		slog.Error("Failed to delete sketch", "error", err, "sketch", variant)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete sketch"})
		return
	}

	slog.Info("Sketch deleted", "sketch", variant)
	c.JSON(http.StatusOK, dto.DeleteResponse{Message: fmt.Sprintf("Deleted sketch %s", variant)})
}

func validVariant(v string) bool {
	return v != "" && !strings.HasPrefix(v, ".") && filepath.IsLocal(v) && filepath.Base(v) == v
}

// swapTree moves staging to target. A live tree is renamed aside first and
// put back when the install rename fails, so target is never left deleted.
func swapTree(root, staging, target string) error {
	if _, err := os.Lstat(target); os.IsNotExist(err) {
		return os.Rename(staging, target)
	} else if err != nil {
		return err
	}

	holder, err := os.MkdirTemp(root, ".old-"+filepath.Base(target)+"-")
	if err != nil {
		return err
	}
	previous := filepath.Join(holder, "tree")
	if err := os.Rename(target, previous); err != nil {
		os.Remove(holder)
		return err
	}

	if err := os.Rename(staging, target); err != nil {
		if rerr := os.Rename(previous, target); rerr != nil {
			slog.Error("Failed to restore previous sketch", "error", rerr, "kept_at", previous)
			return err
		}
		os.Remove(holder)
		return err
	}

	if err := os.RemoveAll(holder); err != nil {
		slog.Warn("Failed to remove replaced sketch", "error", err, "path", holder)
	}
	return nil
}

// unzipTree extracts regular files and directories and returns the
// slash-separated paths of the extracted files.
func unzipTree(zipPath, destDir string, limits extractLimits) ([]string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		if errors.Is(err, zip.ErrInsecurePath) {
			if reader != nil {
				reader.Close()
			}
			return nil, fmt.Errorf("%w: %v", errUnsafeEntry, err)
		}
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer reader.Close()

	var extracted []string
	remaining := limits.total
	for _, file := range reader.File {
		if !filepath.IsLocal(file.Name) {
			return nil, fmt.Errorf("%w: %s", errUnsafeEntry, file.Name)
		}
		filePath := filepath.Join(destDir, filepath.FromSlash(file.Name))

		mode := file.Mode()
		if mode.IsDir() {
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", filePath, err)
			}
			continue
		}
		if !mode.IsRegular() {
			return nil, fmt.Errorf("%w: %s is not a regular file", errUnsafeEntry, file.Name)
		}

		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create parent directory for %s: %w", filePath, err)
		}
		limit := min(limits.entry, remaining)
		if file.UncompressedSize64 > uint64(limit) {
			return nil, fmt.Errorf("%w: %s", errTooLarge, file.Name)
		}
		written, err := extractFile(file, filePath, limit)
		if err != nil {
			return nil, err
		}
		remaining -= written
		extracted = append(extracted, filepath.ToSlash(filepath.Clean(file.Name)))
	}
	return extracted, nil
}

// extractFile writes at most limit bytes. The declared size in the zip
// header is not trusted.
func extractFile(file *zip.File, filePath string, limit int64) (int64, error) {
	src, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open file in zip %s: %w", file.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode().Perm()|0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file %s: %w", filePath, err)
	}
	written, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err != nil {
		dst.Close()
		return 0, fmt.Errorf("failed to extract file %s: %w", filePath, err)
	}
	if written > limit {
		dst.Close()
		return 0, fmt.Errorf("%w: %s", errTooLarge, file.Name)
	}
	return written, dst.Close()
}
