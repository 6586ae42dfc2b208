package services

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
	"github.com/Lllllllleong/pdfsuite/internal/textextract"
)

// ToolkitConfig holds the defaults applied to every operation.
type ToolkitConfig struct {
	Password     string
	Watermark    models.WatermarkOptions
	PageNumbers  models.PageNumberOptions
	RowTolerance float64
}

// DefaultToolkitConfig returns the built-in defaults.
func DefaultToolkitConfig() ToolkitConfig {
	return ToolkitConfig{
		Watermark: models.WatermarkOptions{
			Position: models.PositionCenter,
			Font:     "Helvetica-Bold",
			FontSize: 48,
			Opacity:  0.3,
			Angle:    45,
			Color:    models.Gray,
		},
		PageNumbers: models.PageNumberOptions{
			Position:    models.PositionBottomCenter,
			Format:      models.NumberFormatPlain,
			StartNumber: 1,
			Font:        "Helvetica",
			FontSize:    12,
			Color:       models.Black,
		},
		RowTolerance: textextract.DefaultRowTolerance,
	}
}

// Toolkit runs the document operations on one pipeline. Each operation
// validates its input first; validation errors are returned without touching
// the pipeline state.
type Toolkit struct {
	pipeline *pipeline.Pipeline
	config   ToolkitConfig
}

// NewToolkit creates a Toolkit that reports progress on p.
func NewToolkit(p *pipeline.Pipeline, config ToolkitConfig) *Toolkit {
	if p == nil {
		p = pipeline.New()
	}
	return &Toolkit{pipeline: p, config: config}
}

// Pipeline exposes the pipeline for state observation.
func (t *Toolkit) Pipeline() *pipeline.Pipeline {
	return t.pipeline
}

// Renderer rasterizes a single page. The toolkit never depends on it; it is
// the seam for page previews.
type Renderer interface {
	RenderPage(ctx context.Context, data []byte, pageIndex int, scale float64) (image.Image, error)
}

func (t *Toolkit) load(file models.UploadedFile) (*pdfdoc.Document, error) {
	doc, err := pdfdoc.Load(file.Data(), pdfdoc.Options{Password: t.config.Password})
	if err != nil {
		if file.Unreadable {
			return nil, fmt.Errorf("%s: %w: %w", file.Name, models.ErrUnreadableSource, err)
		}
		return nil, fmt.Errorf("%s: %w", file.Name, err)
	}
	return doc, nil
}

// knownPageCount returns the probed page count, or false when the file could
// not be probed at ingestion. Page-dependent validation is skipped in that
// case and the operation fails when it loads the file.
func knownPageCount(file models.UploadedFile) (int, bool) {
	if file.Unreadable {
		return 0, false
	}
	return file.PageCount, true
}

func pdfOutput(name string, data []byte, notes ...string) models.Output {
	return models.Output{Name: name, MediaType: models.MediaTypePDF, Data: data, Notes: notes}
}

// outputName derives a result file name from the source name.
func outputName(source, suffix, ext string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "document"
	}
	return base + suffix + ext
}

func logFor(op string, file models.UploadedFile) *slog.Logger {
	return slog.With("op", op, "file", file.Name, "fileId", file.ID)
}

func checkRotation(deg int) error {
	if deg%90 != 0 {
		return fmt.Errorf("%w: %d", models.ErrInvalidRotation, deg)
	}
	return nil
}
