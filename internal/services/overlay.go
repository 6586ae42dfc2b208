package services

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
)

const (
	watermarkMargin  = 50.0
	numberMarginX    = 50.0
	numberBottomY    = 30.0
	numberTopOffsetY = 40.0
	defaultTextSize  = 12.0
)

// Watermark draws opts.Text on a copy of every page. Zero fields of opts take
// the toolkit defaults.
func (t *Toolkit) Watermark(ctx context.Context, file models.UploadedFile, opts models.WatermarkOptions) (models.Output, error) {
	opts = t.watermarkDefaults(opts)
	if opts.Text == "" {
		return models.Output{}, models.ErrEmptyText
	}
	// The font must be resolved before any text is measured.
	font, err := pdfdoc.ParseFont(opts.Font)
	if err != nil {
		return models.Output{}, err
	}
	if _, _, _, err := watermarkPlacement(opts.Position, 1, 1, 0, opts.FontSize, opts.Angle); err != nil {
		return models.Output{}, err
	}

	width := font.TextWidth(opts.Text, opts.FontSize)
	j := allPages(file)
	j.op = "watermark"
	j.output = outputName(file.Name, "_watermarked", ".pdf")
	j.edit = func(res *pdfdoc.Result, i int, page models.PageInfo) error {
		x, y, angle, err := watermarkPlacement(opts.Position, page.Width, page.Height, width, opts.FontSize, opts.Angle)
		if err != nil {
			return err
		}
		return res.DrawText(i, pdfdoc.Text{
			Text:    opts.Text,
			X:       x,
			Y:       y,
			Font:    font,
			Size:    opts.FontSize,
			Color:   opts.Color,
			Opacity: opts.Opacity,
			Angle:   angle,
		})
	}
	return t.runPageJob(ctx, j)
}

func (t *Toolkit) watermarkDefaults(opts models.WatermarkOptions) models.WatermarkOptions {
	def := t.config.Watermark
	if opts.Position == "" {
		opts.Position = def.Position
	}
	if opts.Position == "" {
		opts.Position = models.PositionCenter
	}
	if opts.Font == "" {
		opts.Font = def.Font
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.FontSize <= 0 {
		opts.FontSize = defaultTextSize
	}
	if opts.Opacity <= 0 {
		opts.Opacity = def.Opacity
	}
	if opts.Angle == 0 {
		opts.Angle = def.Angle
	}
	if opts.Angle == 0 {
		opts.Angle = 45
	}
	if opts.Color == (models.Color{}) {
		opts.Color = def.Color
	}
	return opts
}

// watermarkPlacement returns the baseline origin and rotation of a watermark of
// the given text width on a w x h page.
func watermarkPlacement(pos models.Position, w, h, textWidth, size, angle float64) (x, y, rot float64, err error) {
	switch pos {
	case models.PositionCenter:
		return (w - textWidth) / 2, (h - size) / 2, 0, nil
	case models.PositionTopLeft:
		return watermarkMargin, h - watermarkMargin - size, 0, nil
	case models.PositionTopCenter:
		return (w - textWidth) / 2, h - watermarkMargin - size, 0, nil
	case models.PositionTopRight:
		return w - watermarkMargin - textWidth, h - watermarkMargin - size, 0, nil
	case models.PositionBottomLeft:
		return watermarkMargin, watermarkMargin, 0, nil
	case models.PositionBottomCenter:
		return (w - textWidth) / 2, watermarkMargin, 0, nil
	case models.PositionBottomRight:
		return w - watermarkMargin - textWidth, watermarkMargin, 0, nil
	case models.PositionDiagonal:
		// Rotate around the middle of the text so that it stays centred.
		rad := angle * math.Pi / 180
		cx, cy := textWidth/2, size/2
		x = w/2 - (cx*math.Cos(rad) - cy*math.Sin(rad))
		y = h/2 - (cx*math.Sin(rad) + cy*math.Cos(rad))
		return x, y, angle, nil
	}
	return 0, 0, 0, fmt.Errorf("%w: %q", models.ErrUnknownPosition, pos)
}

// Annotate draws each annotation on its target page. Every page is copied
// while preparing; the units are the annotated pages in ascending order.
func (t *Toolkit) Annotate(ctx context.Context, file models.UploadedFile, annotations []models.Annotation) (models.Output, error) {
	if len(annotations) == 0 {
		return models.Output{}, models.ErrEmptySelection
	}
	count, known := knownPageCount(file)
	byPage := make(map[int][]models.Annotation)
	for _, a := range annotations {
		if a.Text == "" {
			return models.Output{}, models.ErrEmptyText
		}
		if a.Page < 1 || (known && a.Page > count) {
			return models.Output{}, fmt.Errorf("%w: page %d of %d", models.ErrPageOutOfRange, a.Page, count)
		}
		byPage[a.Page] = append(byPage[a.Page], a)
	}
	targets := make([]int, 0, len(byPage))
	for p := range byPage {
		targets = append(targets, p)
	}
	slices.Sort(targets)

	res := pdfdoc.NewResult()
	outputs, err := pipeline.Run(ctx, t.pipeline, pipeline.Job[int]{
		Name:  "annotate",
		Unit:  "page",
		Units: targets,
		Prepare: func(context.Context) error {
			doc, err := t.load(file)
			if err != nil {
				return err
			}
			return res.CopyPages(doc, doc.Pages()...)
		},
		Step: func(_ context.Context, _ int, nr int) error {
			for _, a := range byPage[nr] {
				size := a.FontSize
				if size <= 0 {
					size = defaultTextSize
				}
				err := res.DrawText(nr-1, pdfdoc.Text{
					Text:  a.Text,
					X:     a.X,
					Y:     a.Y,
					Font:  pdfdoc.Helvetica,
					Size:  size,
					Color: a.Color,
				})
				if err != nil {
					return fmt.Errorf("annotation on page %d: %w", nr, err)
				}
			}
			return nil
		},
		Finalize: func(context.Context) ([]models.Output, error) {
			data, err := res.Save()
			if err != nil {
				return nil, err
			}
			return []models.Output{pdfOutput(outputName(file.Name, "_annotated", ".pdf"), data)}, nil
		},
	})
	if err != nil {
		return models.Output{}, err
	}
	return outputs[0], nil
}

// NumberPages draws a page number on a copy of every page. Zero fields of
// opts take the toolkit defaults.
func (t *Toolkit) NumberPages(ctx context.Context, file models.UploadedFile, opts models.PageNumberOptions) (models.Output, error) {
	opts = t.pageNumberDefaults(opts)
	font, err := pdfdoc.ParseFont(opts.Font)
	if err != nil {
		return models.Output{}, err
	}
	if _, err := formatPageNumber(opts.Format, 1, 1); err != nil {
		return models.Output{}, err
	}
	if _, _, err := numberPlacement(opts.Position, 1, 1, 0); err != nil {
		return models.Output{}, err
	}

	total := opts.StartNumber + file.PageCount - 1
	j := allPages(file)
	j.op = "number"
	j.output = outputName(file.Name, "_numbered", ".pdf")
	j.edit = func(res *pdfdoc.Result, i int, page models.PageInfo) error {
		label, err := formatPageNumber(opts.Format, opts.StartNumber+i, total)
		if err != nil {
			return err
		}
		x, y, err := numberPlacement(opts.Position, page.Width, page.Height, font.TextWidth(label, opts.FontSize))
		if err != nil {
			return err
		}
		return res.DrawText(i, pdfdoc.Text{
			Text:  label,
			X:     x,
			Y:     y,
			Font:  font,
			Size:  opts.FontSize,
			Color: opts.Color,
		})
	}
	return t.runPageJob(ctx, j)
}

func (t *Toolkit) pageNumberDefaults(opts models.PageNumberOptions) models.PageNumberOptions {
	def := t.config.PageNumbers
	if opts.Position == "" {
		opts.Position = def.Position
	}
	if opts.Position == "" {
		opts.Position = models.PositionBottomCenter
	}
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.Format == "" {
		opts.Format = models.NumberFormatPlain
	}
	if opts.StartNumber < 1 {
		opts.StartNumber = max(def.StartNumber, 1)
	}
	if opts.Font == "" {
		opts.Font = def.Font
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.FontSize <= 0 {
		opts.FontSize = defaultTextSize
	}
	return opts
}

func formatPageNumber(format models.NumberFormat, n, total int) (string, error) {
	switch format {
	case models.NumberFormatPlain:
		return fmt.Sprintf("%d", n), nil
	case models.NumberFormatOfN:
		return fmt.Sprintf("Page %d of %d", n, total), nil
	case models.NumberFormatDashed:
		return fmt.Sprintf("- %d -", n), nil
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnknownFormat, format)
}

// numberPlacement returns the baseline origin of a page number label.
func numberPlacement(pos models.Position, w, h, textWidth float64) (x, y float64, err error) {
	left := numberMarginX
	center := (w - textWidth) / 2
	right := w - numberMarginX - textWidth
	top := h - numberTopOffsetY
	switch pos {
	case models.PositionTopLeft:
		return left, top, nil
	case models.PositionTopCenter:
		return center, top, nil
	case models.PositionTopRight:
		return right, top, nil
	case models.PositionBottomLeft:
		return left, numberBottomY, nil
	case models.PositionBottomCenter:
		return center, numberBottomY, nil
	case models.PositionBottomRight:
		return right, numberBottomY, nil
	}
	return 0, 0, fmt.Errorf("%w: %q is not a page number position", models.ErrUnknownPosition, pos)
}
