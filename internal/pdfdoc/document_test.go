package pdfdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/testpdf"
)

func load(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := Load(data, Options{})
	require.NoError(t, err)
	return doc
}

func widths(t *testing.T, doc *Document) []float64 {
	t.Helper()
	out := make([]float64, 0, doc.PageCount())
	for _, nr := range doc.Pages() {
		p, err := doc.Page(nr)
		require.NoError(t, err)
		out = append(out, p.Width)
	}
	return out
}

func TestLoad(t *testing.T) {
	doc := load(t, testpdf.Build(testpdf.Pages("A", 300, 3)...))
	assert.Equal(t, 3, doc.PageCount())
	assert.Equal(t, []int{1, 2, 3}, doc.Pages())
	assert.Equal(t, []float64{300, 301, 302}, widths(t, doc))
}

func TestLoad_Garbage(t *testing.T) {
	_, err := Load(testpdf.Garbage(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestDocument_PageOutOfRange(t *testing.T) {
	doc := load(t, testpdf.Build(testpdf.Pages("A", 300, 2)...))
	_, err := doc.Page(3)
	assert.ErrorIs(t, err, models.ErrPageOutOfRange)
	_, err = doc.Page(0)
	assert.ErrorIs(t, err, models.ErrPageOutOfRange)
}

func TestDocument_Rotation(t *testing.T) {
	doc := load(t, testpdf.Build(testpdf.Page{Width: 200, Height: 300, Rotate: -90}))
	p, err := doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, 270, p.Rotation)
}

func TestDocument_Info(t *testing.T) {
	doc := load(t, testpdf.BuildDoc(testpdf.Doc{
		Title:  "Quarterly",
		Author: "Finance",
		Pages:  testpdf.Pages("A", 400, 2),
	}))
	info, err := doc.Info()
	require.NoError(t, err)
	assert.Equal(t, 2, info.PageCount)
	assert.Equal(t, "Quarterly", info.Title)
	assert.Equal(t, "Finance", info.Author)
	assert.False(t, info.Encrypted)
	require.Len(t, info.Pages, 2)
	assert.Equal(t, 401.0, info.Pages[1].Width)
	assert.Equal(t, 500.0, info.Pages[1].Height)
}

func TestDocument_Content(t *testing.T) {
	doc := load(t, testpdf.Build(testpdf.Pages("Hello", 300, 1)...))
	content, err := doc.Content(1)
	require.NoError(t, err)
	assert.Contains(t, string(content), "(Hello1) Tj")
}

func TestDocument_Save(t *testing.T) {
	src := testpdf.Build(testpdf.Pages("A", 300, 4)...)
	doc := load(t, src)
	assert.Equal(t, len(src), doc.SourceSize())

	out, err := doc.Save()
	require.NoError(t, err)
	again := load(t, out)
	assert.Equal(t, []float64{300, 301, 302, 303}, widths(t, again))
}

func TestParseFont(t *testing.T) {
	f, err := ParseFont("")
	require.NoError(t, err)
	assert.Equal(t, Helvetica, f)

	f, err = ParseFont("times-bold")
	require.NoError(t, err)
	assert.Equal(t, TimesBold, f)
	assert.Equal(t, "Times-Bold", f.String())

	_, err = ParseFont("Comic Sans")
	assert.ErrorIs(t, err, models.ErrUnsupportedFont)
}

func TestFont_TextWidth(t *testing.T) {
	narrow := Helvetica.TextWidth("iiii", 12)
	wide := Helvetica.TextWidth("WWWW", 12)
	assert.Greater(t, narrow, 0.0)
	assert.Greater(t, wide, narrow)
	assert.InDelta(t, 2*Helvetica.TextWidth("WWWW", 6), wide, 0.001)

	// Courier is monospaced.
	assert.InDelta(t, Courier.TextWidth("iiii", 10), Courier.TextWidth("WWWW", 10), 0.001)
}

func TestWinAnsiRoundTrip(t *testing.T) {
	assert.Equal(t, "Café €5", DecodeWinAnsi(encodeWinAnsi("Café €5")))
	assert.Equal(t, "?", DecodeWinAnsi(encodeWinAnsi("漢")))
}
