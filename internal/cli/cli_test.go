package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
	"github.com/Lllllllleong/pdfsuite/internal/testpdf"
)

// fixture writes a PDF with n pages labelled label into dir.
func fixture(t *testing.T, dir, name, label string, n int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, testpdf.Build(testpdf.Pages(label, 300, n)...), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = Execute(context.Background(), append([]string{"--log-format", "text"}, args...), &out, &errOut)
	return out.String(), errOut.String(), err
}

func pageCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := pdfdoc.Load(data, pdfdoc.Options{})
	require.NoError(t, err)
	return doc.PageCount()
}

func TestVersion(t *testing.T) {
	original := version
	version = "test-1.2.3"
	defer func() { version = original }()

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "pdfsuite version test-1.2.3")
}

func TestMerge(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	a := fixture(t, in, "a.pdf", "A", 2)
	b := fixture(t, in, "b.pdf", "B", 3)

	stdout, stderr, err := execute(t, "merge", a, b, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "merged.pdf")
	assert.Contains(t, stderr, "Finalizing")
	assert.Equal(t, 5, pageCount(t, filepath.Join(out, "merged.pdf")))
}

func TestMerge_NeedsTwoFiles(t *testing.T) {
	in := t.TempDir()
	a := fixture(t, in, "a.pdf", "A", 2)

	_, _, err := execute(t, "merge", a)
	require.Error(t, err)
}

func TestSplit(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := fixture(t, in, "r.pdf", "R", 5)

	_, _, err := execute(t, "split", src, "--ranges", "1-2,3-", "--out", out)
	require.NoError(t, err)
	assert.Equal(t, 2, pageCount(t, filepath.Join(out, "r_pages_1-2.pdf")))
	assert.Equal(t, 3, pageCount(t, filepath.Join(out, "r_pages_3-5.pdf")))
}

func TestSplit_EveryPageIntoZip(t *testing.T) {
	in := t.TempDir()
	src := fixture(t, in, "r.pdf", "R", 3)
	archive := filepath.Join(t.TempDir(), "pages.zip")

	stdout, _, err := execute(t, "split", src, "--zip", archive, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 results bundled")

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"r_page_1.pdf", "r_page_2.pdf", "r_page_3.pdf"}, names)
}

func TestRemove_WouldEmpty(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := fixture(t, in, "r.pdf", "R", 2)

	_, _, err := execute(t, "remove", src, "--pages", "1-", "--out", out)
	var empty *models.WouldEmptyDocumentError
	require.ErrorAs(t, err, &empty)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOrganize(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := fixture(t, in, "r.pdf", "R", 3)

	_, _, err := execute(t, "organize", src, "--order", "3,1:90,1", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "r_organized.pdf"))
	require.NoError(t, err)
	doc, err := pdfdoc.Load(data, pdfdoc.Options{})
	require.NoError(t, err)
	require.Equal(t, 3, doc.PageCount())
	var widths []float64
	var rotations []int
	for _, nr := range doc.Pages() {
		p, err := doc.Page(nr)
		require.NoError(t, err)
		widths = append(widths, p.Width)
		rotations = append(rotations, p.Rotation)
	}
	assert.Equal(t, []float64{302, 300, 300}, widths)
	assert.Equal(t, []int{0, 90, 0}, rotations)
}

func TestWatermark_RejectsUnknownPosition(t *testing.T) {
	in := t.TempDir()
	src := fixture(t, in, "r.pdf", "R", 1)

	_, _, err := execute(t, "watermark", src, "--text", "DRAFT", "--position", "middle")
	assert.ErrorIs(t, err, models.ErrUnknownPosition)
}

func TestRejectsNonPDF(t *testing.T) {
	in := t.TempDir()
	path := filepath.Join(in, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, _, err := execute(t, "compress", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected input")
}

func TestInfo_JSON(t *testing.T) {
	in := t.TempDir()
	src := fixture(t, in, "r.pdf", "R", 2)

	stdout, _, err := execute(t, "info", src, "--json")
	require.NoError(t, err)

	var info models.DocumentInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "r.pdf", info.Name)
	assert.Equal(t, 2, info.PageCount)
	require.Len(t, info.Pages, 2)
	assert.Equal(t, 301.0, info.Pages[1].Width)
}

func TestText(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := fixture(t, in, "r.pdf", "R", 2)

	_, _, err := execute(t, "text", src, "--out", out)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(out, "r.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "R1")
	assert.Contains(t, string(data), "R2")
}

func TestBadConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[log]\nnope = 1\n"), 0o600))

	_, _, err := execute(t, "--config", cfg, "info", "x.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestParseOrder(t *testing.T) {
	entries, err := parseOrder("3, 1:90 ,1")
	require.NoError(t, err)
	assert.Equal(t, []models.OrganizeEntry{{Page: 3}, {Page: 1, Rotation: 90}, {Page: 1}}, entries)

	_, err = parseOrder("x")
	assert.ErrorIs(t, err, models.ErrInvalidRange)
	_, err = parseOrder("1:ninety")
	assert.ErrorIs(t, err, models.ErrInvalidRotation)
}

func TestParseNotes(t *testing.T) {
	got, err := parseNotes([]string{"2,72,700,Hello, world"}, 10, models.Black)
	require.NoError(t, err)
	assert.Equal(t, []models.Annotation{{Page: 2, X: 72, Y: 700, Text: "Hello, world", FontSize: 10}}, got)

	_, err = parseNotes([]string{"2,72"}, 10, models.Black)
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := parseColor("#ff0080")
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.R)
	assert.Equal(t, 0.0, c.G)
	assert.InDelta(t, 0.502, c.B, 0.001)

	for _, bad := range []string{"red", "#fff", "#gg0000"} {
		_, err := parseColor(bad)
		assert.Error(t, err, bad)
	}
}
