package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

func outputs() []models.Output {
	return []models.Output{
		{Name: "a.pdf", MediaType: models.MediaTypePDF, Data: []byte("first")},
		{Name: "b.pdf", MediaType: models.MediaTypePDF, Data: []byte("second")},
		{Name: "a.pdf", MediaType: models.MediaTypePDF, Data: []byte("third")},
	}
}

func TestDirExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := DirExporter{Dir: dir}.Export(context.Background(), outputs())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "a (1).pdf"),
	}, paths)

	for i, want := range []string{"first", "second", "third"} {
		got, err := os.ReadFile(paths[i])
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "temp files are cleaned up")
}

func TestDirExporter_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	paths, err := DirExporter{Dir: dir}.Export(context.Background(), []models.Output{{Name: "../../evil.pdf", Data: []byte("x")}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "evil.pdf")}, paths)
}

func TestZipExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	paths, err := ZipExporter{Path: path}.Export(context.Background(), outputs())
	require.NoError(t, err)
	assert.Equal(t, []string{path}, paths)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names, contents []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		contents = append(contents, string(b))
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "a (1).pdf"}, names)
	assert.Equal(t, []string{"first", "second", "third"}, contents)
}

func TestBundle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Bundle(ctx, outputs())
	assert.ErrorIs(t, err, context.Canceled)
}
