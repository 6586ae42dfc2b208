package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/testpdf"
)

func TestWatermarkPlacement(t *testing.T) {
	const w, h, tw, size = 600.0, 800.0, 100.0, 20.0
	tests := []struct {
		pos  models.Position
		x, y float64
	}{
		{models.PositionCenter, 250, 390},
		{models.PositionTopLeft, 50, 730},
		{models.PositionTopRight, 450, 730},
		{models.PositionBottomLeft, 50, 50},
		{models.PositionBottomRight, 450, 50},
		{models.PositionBottomCenter, 250, 50},
	}
	for _, tt := range tests {
		t.Run(string(tt.pos), func(t *testing.T) {
			x, y, rot, err := watermarkPlacement(tt.pos, w, h, tw, size, 45)
			require.NoError(t, err)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
			assert.Zero(t, rot)
		})
	}

	t.Run("diagonal", func(t *testing.T) {
		x, y, rot, err := watermarkPlacement(models.PositionDiagonal, w, h, tw, size, 45)
		require.NoError(t, err)
		assert.Equal(t, 45.0, rot)
		// The middle of the rotated text lands on the middle of the page.
		rad := math.Pi / 4
		midX := x + 50*math.Cos(rad) - 10*math.Sin(rad)
		midY := y + 50*math.Sin(rad) + 10*math.Cos(rad)
		assert.InDelta(t, 300, midX, 1e-9)
		assert.InDelta(t, 400, midY, 1e-9)
	})

	_, _, _, err := watermarkPlacement("middle", w, h, tw, size, 0)
	assert.ErrorIs(t, err, models.ErrUnknownPosition)
}

func TestWatermark(t *testing.T) {
	tk := newToolkit()
	src := upload("r.pdf", testpdf.Pages("P", 300, 2)...)

	out, err := tk.Watermark(context.Background(), src, models.WatermarkOptions{Text: "CONFIDENTIAL", Position: models.PositionDiagonal})
	require.NoError(t, err)
	assert.Equal(t, "r_watermarked.pdf", out.Name)
	assert.Equal(t, []float64{300, 301}, pageWidths(t, out))
	for nr := 1; nr <= 2; nr++ {
		c := content(t, out, nr)
		assert.Contains(t, c, hexText("CONFIDENTIAL"))
		assert.Contains(t, c, "48.00 Tf")
	}
}

func TestWatermark_Validation(t *testing.T) {
	tk := newToolkit()
	src := upload("r.pdf", testpdf.Pages("P", 300, 1)...)

	_, err := tk.Watermark(context.Background(), src, models.WatermarkOptions{})
	assert.ErrorIs(t, err, models.ErrEmptyText)
	_, err = tk.Watermark(context.Background(), src, models.WatermarkOptions{Text: "x", Font: "Papyrus"})
	assert.ErrorIs(t, err, models.ErrUnsupportedFont)
	_, err = tk.Watermark(context.Background(), src, models.WatermarkOptions{Text: "x", Position: "nowhere"})
	assert.ErrorIs(t, err, models.ErrUnknownPosition)
	assert.Equal(t, models.Idle(), tk.Pipeline().State())
}

func TestAnnotate(t *testing.T) {
	tk := newToolkit()
	src := upload("r.pdf", testpdf.Pages("P", 300, 3)...)

	out, err := tk.Annotate(context.Background(), src, []models.Annotation{
		{Page: 3, X: 10, Y: 10, Text: "late"},
		{Page: 1, X: 20, Y: 30, Text: "first", FontSize: 9},
		{Page: 1, X: 20, Y: 50, Text: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, "r_annotated.pdf", out.Name)
	assert.Equal(t, []float64{300, 301, 302}, pageWidths(t, out))

	first := content(t, out, 1)
	assert.Contains(t, first, hexText("first"))
	assert.Contains(t, first, hexText("second"))
	assert.Contains(t, first, "9.00 Tf")
	assert.NotContains(t, content(t, out, 2), "Tm")
	assert.Contains(t, content(t, out, 3), hexText("late"))
}

func TestAnnotate_Validation(t *testing.T) {
	tk := newToolkit()
	src := upload("r.pdf", testpdf.Pages("P", 300, 2)...)

	_, err := tk.Annotate(context.Background(), src, nil)
	assert.ErrorIs(t, err, models.ErrEmptySelection)
	_, err = tk.Annotate(context.Background(), src, []models.Annotation{{Page: 3, Text: "x"}})
	assert.ErrorIs(t, err, models.ErrPageOutOfRange)
	_, err = tk.Annotate(context.Background(), src, []models.Annotation{{Page: 1}})
	assert.ErrorIs(t, err, models.ErrEmptyText)
}

func TestFormatPageNumber(t *testing.T) {
	tests := []struct {
		format models.NumberFormat
		want   string
	}{
		{models.NumberFormatPlain, "4"},
		{models.NumberFormatOfN, "Page 4 of 9"},
		{models.NumberFormatDashed, "- 4 -"},
	}
	for _, tt := range tests {
		got, err := formatPageNumber(tt.format, 4, 9)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := formatPageNumber("roman", 1, 1)
	assert.ErrorIs(t, err, models.ErrUnknownFormat)
}

func TestNumberPlacement(t *testing.T) {
	x, y, err := numberPlacement(models.PositionBottomCenter, 600, 800, 20)
	require.NoError(t, err)
	assert.Equal(t, 290.0, x)
	assert.Equal(t, 30.0, y)

	x, y, err = numberPlacement(models.PositionTopRight, 600, 800, 20)
	require.NoError(t, err)
	assert.Equal(t, 530.0, x)
	assert.Equal(t, 760.0, y)

	_, _, err = numberPlacement(models.PositionDiagonal, 600, 800, 20)
	assert.ErrorIs(t, err, models.ErrUnknownPosition)
}

func TestNumberPages(t *testing.T) {
	tk := newToolkit()
	src := upload("r.pdf", testpdf.Pages("P", 300, 2)...)

	out, err := tk.NumberPages(context.Background(), src, models.PageNumberOptions{
		Format:      models.NumberFormatOfN,
		StartNumber: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "r_numbered.pdf", out.Name)
	assert.Contains(t, content(t, out, 1), hexText("Page 3 of 4"))
	assert.Contains(t, content(t, out, 2), hexText("Page 4 of 4"))
}

func TestNumberPages_Validation(t *testing.T) {
	tk := newToolkit()
	src := upload("r.pdf", testpdf.Pages("P", 300, 1)...)

	_, err := tk.NumberPages(context.Background(), src, models.PageNumberOptions{Format: "roman"})
	assert.ErrorIs(t, err, models.ErrUnknownFormat)
	_, err = tk.NumberPages(context.Background(), src, models.PageNumberOptions{Position: models.PositionCenter})
	assert.ErrorIs(t, err, models.ErrUnknownPosition)
	_, err = tk.NumberPages(context.Background(), src, models.PageNumberOptions{Font: "Wingdings"})
	assert.ErrorIs(t, err, models.ErrUnsupportedFont)
}
