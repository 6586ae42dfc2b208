package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
)

// Compress rewrites file with duplicate and unused objects removed. Image data
// is left untouched. When rewriting does not make the file smaller the
// original bytes are returned.
func (t *Toolkit) Compress(ctx context.Context, file models.UploadedFile) (models.Output, error) {
	logCtx := logFor("compress", file)
	var out models.Output
	_, err := pipeline.Run(ctx, t.pipeline, pipeline.Job[models.UploadedFile]{
		Name:  "compress",
		Unit:  "file",
		Units: []models.UploadedFile{file},
		Step: func(_ context.Context, _ int, src models.UploadedFile) error {
			doc, err := t.load(src)
			if err != nil {
				return err
			}
			data, err := doc.Save()
			if err != nil {
				return err
			}
			name := outputName(src.Name, "_compressed", ".pdf")
			before, after := doc.SourceSize(), len(data)
			if after >= before {
				logCtx.Info("Rewritten file is not smaller; keeping original.", "before", before, "after", after)
				out = pdfOutput(name, src.Data(), fmt.Sprintf("already optimized: %d bytes", before))
				return nil
			}
			saved := 100 * float64(before-after) / float64(before)
			out = pdfOutput(name, data, fmt.Sprintf("reduced from %d to %d bytes (%.1f%% smaller)", before, after, saved))
			return nil
		},
		Finalize: func(context.Context) ([]models.Output, error) {
			return []models.Output{out}, nil
		},
	})
	if err != nil {
		return models.Output{}, err
	}
	return out, nil
}

// Repair loads file leniently and copies it page by page into a fresh
// document. A page that cannot be copied is replaced by a blank page of the
// previous page's size and reported in the output notes; this is the only
// operation that recovers from page copy failures.
//
// expectedPages overrides the probed page count when positive.
func (t *Toolkit) Repair(ctx context.Context, file models.UploadedFile, expectedPages int) (models.Output, error) {
	logCtx := logFor("repair", file)
	count := expectedPages
	if count <= 0 {
		count = file.PageCount
	}
	units := make([]int, count)
	for i := range units {
		units[i] = i + 1
	}

	var (
		doc   *pdfdoc.Document
		notes []string
	)
	res := pdfdoc.NewResult()
	width, height := pdfdoc.LetterWidth, pdfdoc.LetterHeight

	outputs, err := pipeline.Run(ctx, t.pipeline, pipeline.Job[int]{
		Name:  "repair",
		Unit:  "page",
		Units: units,
		Prepare: func(context.Context) (err error) {
			doc, err = t.load(file)
			if err == nil && doc.PageCount() != count {
				notes = append(notes, fmt.Sprintf("expected %d pages, found %d", count, doc.PageCount()))
			}
			return err
		},
		Step: func(_ context.Context, i int, nr int) error {
			copyErr := res.CopyPages(doc, nr)
			if copyErr == nil {
				page, err := res.Page(res.PageCount() - 1)
				if err != nil {
					return err
				}
				width, height = page.Width, page.Height
				return nil
			}
			logCtx.Warn("Page could not be copied; substituting a blank page.", "page", nr, "error", copyErr)
			if err := res.AddBlankPage(doc, width, height); err != nil {
				return fmt.Errorf("page %d: %w (while recovering from: %v)", nr, err, copyErr)
			}
			notes = append(notes, fmt.Sprintf("page %d replaced with a blank page: %v", nr, copyErr))
			return nil
		},
		Finalize: func(context.Context) ([]models.Output, error) {
			data, err := res.Save()
			if err != nil {
				return nil, err
			}
			return []models.Output{pdfOutput(outputName(file.Name, "_repaired", ".pdf"), data, notes...)}, nil
		},
	})
	if err != nil {
		return models.Output{}, err
	}
	return outputs[0], nil
}
