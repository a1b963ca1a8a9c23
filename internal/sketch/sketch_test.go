package sketch

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	out := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(b)
	}
	return out
}

func keys(m map[string]string) []string {
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	dst := filepath.Join(dir, "out", "out.txt")
	writeFile(t, src, "token=${deviceId}")

	err := Render(src, dst, map[string]string{"owner": "alice", "deviceId": "x1y2z3"})
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "token=x1y2z3", string(got))
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	dst := filepath.Join(dir, "out.txt")
	writeFile(t, src, "${owner} ${missing} $owner {owner}")

	require.NoError(t, Render(src, dst, map[string]string{"owner": "alice"}))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "alice ${missing} $owner {owner}", string(got))
}

func TestRenderDoesNotSubstituteRecursively(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	dst := filepath.Join(dir, "out.txt")
	writeFile(t, src, "${a}|${b}")

	require.NoError(t, Render(src, dst, map[string]string{"a": "${b}", "b": "B"}))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "${b}|B", string(got))
}

func TestRenderIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	writeFile(t, src, "${owner}/${deviceId}/${host}/${owner}")
	vars := Context{Owner: "alice", DeviceID: "abc", Host: "example.org"}.Vars()

	var outputs []string
	for i := 0; i < 5; i++ {
		dst := filepath.Join(dir, "out.txt")
		require.NoError(t, Render(src, dst, vars))
		b, err := os.ReadFile(dst)
		require.NoError(t, err)
		outputs = append(outputs, string(b))
	}
	for _, o := range outputs {
		assert.Equal(t, "alice/abc/example.org/alice", o)
	}
}

func TestRenderMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Render(filepath.Join(dir, "nope"), filepath.Join(dir, "out"), nil)
	assert.ErrorIs(t, err, ErrIO)
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")
	writeFile(t, filepath.Join(src, "main.ino"), "raw")
	writeFile(t, filepath.Join(src, "keep.txt"), "keep")
	writeFile(t, filepath.Join(src, "lib", "helper.h"), "helper")
	writeFile(t, filepath.Join(src, "lib", "nested", "conf.h"), "conf")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0755))

	err := CopyTree(src, dst, map[string]struct{}{"main.ino": {}, "lib/nested/conf.h": {}})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dst, "main.ino"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dst, "lib", "nested", "conf.h"))
	assert.True(t, os.IsNotExist(err))

	b, err := os.ReadFile(filepath.Join(dst, "lib", "helper.h"))
	require.NoError(t, err)
	assert.Equal(t, "helper", string(b))

	b, err = os.ReadFile(filepath.Join(dst, "keep.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(b))

	info, err := os.Stat(filepath.Join(dst, "empty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCopyTreeMissingSource(t *testing.T) {
	err := CopyTree(filepath.Join(t.TempDir(), "missing"), t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrIO)
}

func TestBuildArchiveRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")
	files := map[string]string{
		"main.ino":            "void setup() {}",
		"lib/helper.h":        "#pragma once",
		"lib/deep/nested.txt": "deep",
	}
	for name, content := range files {
		writeFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "also-empty"), 0755))

	path, err := BuildArchive(root)
	require.NoError(t, err)
	assert.Equal(t, root+".zip", path)

	assert.Equal(t, files, readZip(t, path))
}

func TestBuildArchiveLargeFileIsStreamed(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")
	big := make([]byte, chunkSize*5+17)
	for i := range big {
		big[i] = byte(i % 251)
	}
	writeFile(t, filepath.Join(root, "blob.bin"), string(big))

	path, err := BuildArchive(root)
	require.NoError(t, err)
	assert.Equal(t, string(big), readZip(t, path)["blob.bin"])
}

func TestBuildArchiveEmptyTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	_, err := BuildArchive(root)
	assert.ErrorIs(t, err, ErrPackaging)

	_, statErr := os.Stat(root + ".zip")
	assert.True(t, os.IsNotExist(statErr))
}

func TestParseManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "templates=main.ino, src/config.h ,\nzipfilename=pi_sketch\n")
	writeFile(t, filepath.Join(root, "main.ino"), "")
	writeFile(t, filepath.Join(root, "src", "config.h"), "")

	m, err := ParseManifest(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.ino", "src/config.h"}, m.Templates)
	assert.Equal(t, "pi_sketch", m.ZipFileName)
	assert.Equal(t, "pi_sketch.zip", m.ArchiveName())
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		files    []string
		wantErr  error
	}{
		{name: "missing templates key", manifest: "zipfilename=x\n", wantErr: ErrManifest},
		{name: "template does not exist", manifest: "templates=gone.ino\n", wantErr: ErrManifest},
		{name: "template escapes root", manifest: "templates=../outside.ino\n", wantErr: ErrManifest},
		{name: "template is a directory", manifest: "templates=lib\n", files: []string{"lib/a.h"}, wantErr: ErrManifest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, ManifestName), tt.manifest)
			for _, f := range tt.files {
				writeFile(t, filepath.Join(root, filepath.FromSlash(f)), "")
			}
			_, err := ParseManifest(root)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseManifestMissingFile(t *testing.T) {
	_, err := ParseManifest(t.TempDir())
	assert.ErrorIs(t, err, ErrIO)
}

func TestManifestDefaultArchiveName(t *testing.T) {
	m := &Manifest{}
	assert.Equal(t, "sketch.zip", m.ArchiveName())
}

func newTemplateTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "raspberrypi")
	writeFile(t, filepath.Join(root, ManifestName), "templates=main.ino\nzipfilename=sketch\n")
	writeFile(t, filepath.Join(root, "main.ino"), "owner=${owner}\ntoken=${deviceId}\n")
	writeFile(t, filepath.Join(root, "lib", "helper.h"), "int helper(); // ${deviceId}\n")
	return root
}

func TestAssemble(t *testing.T) {
	root := newTemplateTree(t)
	scratch := filepath.Join(t.TempDir(), "raspberrypi-x1y2z3")

	archive, err := NewAssembler().Assemble(context.Background(), Job{
		TemplateRoot: root,
		ScratchDir:   scratch,
		Vars:         map[string]string{"owner": "alice", "deviceId": "x1y2z3"},
	})
	require.NoError(t, err)

	assert.Equal(t, scratch+".zip", archive.Path)
	assert.Equal(t, "sketch.zip", archive.FileName)
	assert.Greater(t, archive.Size, int64(0))

	entries := readZip(t, archive.Path)
	assert.Equal(t, []string{"lib/helper.h", "main.ino"}, keys(entries))
	assert.Equal(t, "owner=alice\ntoken=x1y2z3\n", entries["main.ino"])
	// static files are copied verbatim, not rendered
	assert.Equal(t, "int helper(); // ${deviceId}\n", entries["lib/helper.h"])

	_, err = os.Stat(scratch)
	assert.True(t, os.IsNotExist(err), "scratch directory must be removed")
}

func TestAssembleNeverShipsRawTemplatesOrManifest(t *testing.T) {
	root := filepath.Join(t.TempDir(), "variant")
	writeFile(t, filepath.Join(root, ManifestName), "templates=main.ino,src/config.h\nzipfilename=bundle\n")
	writeFile(t, filepath.Join(root, "main.ino"), "id=${deviceId}")
	writeFile(t, filepath.Join(root, "src", "config.h"), "#define HOST \"${host}\"")
	writeFile(t, filepath.Join(root, "src", "static.h"), "static")

	vars := Context{DeviceID: "dev1", Host: "iot.example.org"}.Vars()
	archive, err := NewAssembler().Assemble(context.Background(), Job{
		TemplateRoot:    root,
		ScratchDir:      filepath.Join(t.TempDir(), "work"),
		Vars:            vars,
		ArchiveBaseName: "custom",
	})
	require.NoError(t, err)
	assert.Equal(t, "custom.zip", archive.FileName)

	entries := readZip(t, archive.Path)
	assert.NotContains(t, entries, ManifestName)
	assert.Equal(t, "id=dev1", entries["main.ino"])
	assert.Equal(t, "#define HOST \"iot.example.org\"", entries["src/config.h"])
	assert.Equal(t, "static", entries["src/static.h"])
}

func TestAssembleClearsStaleOutput(t *testing.T) {
	root := newTemplateTree(t)
	scratch := filepath.Join(t.TempDir(), "work")
	writeFile(t, filepath.Join(scratch, "stale.txt"), "old")
	writeFile(t, scratch+".zip", "not a zip")

	archive, err := NewAssembler().Assemble(context.Background(), Job{
		TemplateRoot: root,
		ScratchDir:   scratch,
		Vars:         map[string]string{},
	})
	require.NoError(t, err)
	assert.NotContains(t, readZip(t, archive.Path), "stale.txt")
}

func TestAssembleRemovesScratchOnFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "variant")
	writeFile(t, filepath.Join(root, ManifestName), "templates=\n")
	scratch := filepath.Join(t.TempDir(), "work")

	_, err := NewAssembler().Assemble(context.Background(), Job{TemplateRoot: root, ScratchDir: scratch})
	assert.ErrorIs(t, err, ErrPackaging)

	_, statErr := os.Stat(scratch)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAssembleScratchDirUnavailable(t *testing.T) {
	root := newTemplateTree(t)
	blocker := filepath.Join(t.TempDir(), "file")
	writeFile(t, blocker, "x")

	_, err := NewAssembler().Assemble(context.Background(), Job{
		TemplateRoot: root,
		ScratchDir:   filepath.Join(blocker, "work"),
	})
	assert.ErrorIs(t, err, ErrScratchDir)
}
