package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeSample(t *testing.T) (string, string) {
	t.Helper()

	doc := map[string]any{
		"journals": []any{map[string]any{"date": "2024-01-02"}},
		"notes":    []any{},
		"trades":   []any{},
	}

	path := filepath.Join(t.TempDir(), "tv-backup.json")
	require.NoError(t, WriteJSON(doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return path, string(data)
}

func TestWriteJSONIndentation(t *testing.T) {
	_, content := writeSample(t)

	assert.True(t, strings.HasPrefix(content, "{\n  \"journals\""))
	assert.Contains(t, content, "\n  \"notes\": [],")
	assert.True(t, strings.HasSuffix(content, "}\n"))
}

func TestWriteJSONStableOutput(t *testing.T) {
	path1, content1 := writeSample(t)
	_, content2 := writeSample(t)
	assert.Equal(t, content1, content2)

	// A rewrite to the same path replaces the file.
	require.NoError(t, WriteJSON(map[string]any{"journals": []any{}}, path1))
	data, err := os.ReadFile(path1)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"journals\": []\n}\n", string(data))
}

func TestWriteJSONBadPath(t *testing.T) {
	err := WriteJSON(map[string]any{}, filepath.Join(t.TempDir(), "missing", "out.json"))
	assert.Error(t, err)
}

func TestZipSingleEntry(t *testing.T) {
	path, content := writeSample(t)

	dst, err := Zip(path)
	require.NoError(t, err)
	assert.Equal(t, path+".zip", dst)

	// The uncompressed file is gone.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	zr, err := zip.OpenReader(dst)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	assert.Equal(t, filepath.Base(path), zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	extracted, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(extracted))
}

func TestZipMissingSource(t *testing.T) {
	_, err := Zip(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestXZRoundTrip(t *testing.T) {
	path, content := writeSample(t)

	dst, err := XZ(path)
	require.NoError(t, err)
	assert.Equal(t, path+".xz", dst)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	xr, err := xz.NewReader(f)
	require.NoError(t, err)

	decompressed, err := io.ReadAll(xr)
	require.NoError(t, err)
	assert.Equal(t, content, string(decompressed))
}

func TestRestore(t *testing.T) {
	path, content := writeSample(t)
	base := filepath.Base(path)

	dst, err := Zip(path)
	require.NoError(t, err)

	outDir := filepath.Join(t.TempDir(), "restored")
	require.NoError(t, Restore(dst, outDir))

	data, err := os.ReadFile(filepath.Join(outDir, base))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}
