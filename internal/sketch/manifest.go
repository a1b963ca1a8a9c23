package sketch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magiconair/properties"
)

const (
	ManifestName       = "sketch.properties"
	defaultArchiveName = "sketch"
)

type Manifest struct {
	Templates   []string
	ZipFileName string
}

// ParseManifest reads templateRoot/sketch.properties and checks that every
// listed template is a local path to an existing file under templateRoot.
func ParseManifest(templateRoot string) (*Manifest, error) {
	path := filepath.Join(templateRoot, ManifestName)

	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrIO, path, err)
	}

	raw, ok := props.Get("templates")
	if !ok {
		return nil, fmt.Errorf("%w: %s has no templates entry", ErrManifest, path)
	}

	m := &Manifest{
		ZipFileName: strings.TrimSpace(props.GetString("zipfilename", "")),
	}

	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(t)) {
			return nil, fmt.Errorf("%w: template %q escapes the sketch directory", ErrManifest, t)
		}
		info, err := os.Stat(filepath.Join(templateRoot, filepath.FromSlash(t)))
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: template %q not found", ErrManifest, t)
		}
		m.Templates = append(m.Templates, filepath.ToSlash(filepath.Clean(t)))
	}

	return m, nil
}

// ArchiveName is the download file name, falling back to "sketch.zip".
func (m *Manifest) ArchiveName() string {
	if m.ZipFileName == "" {
		return defaultArchiveName + ".zip"
	}
	return m.ZipFileName + ".zip"
}
