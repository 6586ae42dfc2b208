package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
)

// MergedName is the name of the merge output.
const MergedName = "merged.pdf"

// Merge concatenates all pages of files, in the given order, into one document.
func (t *Toolkit) Merge(ctx context.Context, files []models.UploadedFile) (models.Output, error) {
	if len(files) < 2 {
		return models.Output{}, fmt.Errorf("%w: got %d", models.ErrNotEnoughFiles, len(files))
	}

	res := pdfdoc.NewResult()
	outputs, err := pipeline.Run(ctx, t.pipeline, pipeline.Job[models.UploadedFile]{
		Name:  "merge",
		Unit:  "file",
		Units: files,
		Step: func(_ context.Context, _ int, file models.UploadedFile) error {
			doc, err := t.load(file)
			if err != nil {
				return err
			}
			if err := res.CopyPages(doc, doc.Pages()...); err != nil {
				return fmt.Errorf("%s: %w", file.Name, err)
			}
			return nil
		},
		Finalize: func(context.Context) ([]models.Output, error) {
			data, err := res.Save()
			if err != nil {
				return nil, err
			}
			return []models.Output{pdfOutput(MergedName, data)}, nil
		},
	})
	if err != nil {
		return models.Output{}, err
	}
	return outputs[0], nil
}
