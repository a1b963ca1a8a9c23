// Package archives manages assembled sketch archives once they leave the
// provisioning pipeline: local retention and optional publication to S3.
package archives

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	S3            S3Config      `mapstructure:"s3"`
}

// Janitor deletes archives older than the retention period.
type Janitor struct {
	dir       string
	retention time.Duration
	now       func() time.Time
}

func NewJanitor(dir string, retention time.Duration) *Janitor {
	if retention <= 0 {
		retention = time.Hour
	}
	return &Janitor{
		dir:       dir,
		retention: retention,
		now:       time.Now,
	}
}

// Sweep removes expired zip files and returns how many it removed.
// Scratch directories are left to the assembler.
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read archives directory: %w", err)
	}

	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove expired archive", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// StartCleanup sweeps every interval until ctx is done.
func (j *Janitor) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.Sweep()
			if err != nil {
				slog.Warn("Archive sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("Removed expired archives", "removed", n)
			}
		}
	}
}
