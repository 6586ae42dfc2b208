package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
	"github.com/Lllllllleong/pdfsuite/internal/textextract"
)

// Inspect reports page count, version, metadata and page geometry. It does
// not run on the pipeline.
func (t *Toolkit) Inspect(file models.UploadedFile) (models.DocumentInfo, error) {
	doc, err := t.load(file)
	if err != nil {
		return models.DocumentInfo{}, err
	}
	info, err := doc.Info()
	if err != nil {
		return models.DocumentInfo{}, fmt.Errorf("%s: %w", file.Name, err)
	}
	info.Name = file.Name
	return info, nil
}

// ExtractText dumps the text of every page, one line per detected row. Pages
// are separated by a form feed.
func (t *Toolkit) ExtractText(ctx context.Context, file models.UploadedFile) (models.Output, error) {
	var sb strings.Builder
	return t.runTextJob(ctx, "text", file, func(nr int, rows [][]models.TextRun) {
		if nr > 1 {
			sb.WriteString("\f")
		}
		sb.WriteString(textextract.Text(rows))
	}, func() (models.Output, error) {
		return models.Output{
			Name:      outputName(file.Name, "", ".txt"),
			MediaType: models.MediaTypeText,
			Data:      []byte(sb.String()),
		}, nil
	})
}

// ExtractTable writes the rows of every page as CSV records, treating each
// positioned run as a cell.
func (t *Toolkit) ExtractTable(ctx context.Context, file models.UploadedFile) (models.Output, error) {
	var records [][]string
	return t.runTextJob(ctx, "table", file, func(_ int, rows [][]models.TextRun) {
		records = append(records, textextract.Cells(rows)...)
	}, func() (models.Output, error) {
		var buf bytes.Buffer
		if err := textextract.WriteCSV(&buf, records); err != nil {
			return models.Output{}, fmt.Errorf("failed to write CSV: %w", err)
		}
		return models.Output{
			Name:      outputName(file.Name, "", ".csv"),
			MediaType: models.MediaTypeCSV,
			Data:      buf.Bytes(),
			Notes:     []string{fmt.Sprintf("%d rows", len(records))},
		}, nil
	})
}

func (t *Toolkit) runTextJob(ctx context.Context, op string, file models.UploadedFile, page func(nr int, rows [][]models.TextRun), finish func() (models.Output, error)) (models.Output, error) {
	var doc *pdfdoc.Document
	units := make([]int, file.PageCount)
	for i := range units {
		units[i] = i + 1
	}
	tolerance := t.config.RowTolerance
	if tolerance <= 0 {
		tolerance = textextract.DefaultRowTolerance
	}

	outputs, err := pipeline.Run(ctx, t.pipeline, pipeline.Job[int]{
		Name:  op,
		Unit:  "page",
		Units: units,
		Prepare: func(context.Context) (err error) {
			doc, err = t.load(file)
			return err
		},
		Step: func(_ context.Context, _ int, nr int) error {
			content, err := doc.Content(nr)
			if err != nil {
				return err
			}
			page(nr, textextract.GroupRows(textextract.Runs(content), tolerance))
			return nil
		},
		Finalize: func(context.Context) ([]models.Output, error) {
			out, err := finish()
			if err != nil {
				return nil, err
			}
			return []models.Output{out}, nil
		},
	})
	if err != nil {
		return models.Output{}, err
	}
	return outputs[0], nil
}
