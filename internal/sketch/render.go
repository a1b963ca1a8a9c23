package sketch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Render copies src to dst replacing each ${key} with vars[key]. Values are
// inserted as-is and never scanned again; unknown placeholders are kept.
func Render(src, dst string, vars map[string]string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: read template %s: %v", ErrIO, src, err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: stat template %s: %v", ErrIO, src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: create directory for %s: %v", ErrIO, dst, err)
	}

	rendered := newReplacer(vars).Replace(string(content))
	if err := os.WriteFile(dst, []byte(rendered), info.Mode().Perm()); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, dst, err)
	}
	return nil
}

func newReplacer(vars map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "${"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...)
}
