package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pagerange"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
)

// Split builds one document per range, in range order. Every range must select
// at least one page.
func (t *Toolkit) Split(ctx context.Context, file models.UploadedFile, ranges []models.PageRange) ([]models.Output, error) {
	return t.splitRanges(ctx, "split", file, ranges, func(r models.PageRange) string {
		return outputName(file.Name, fmt.Sprintf("_pages_%d-%d", r.Start, r.End), ".pdf")
	})
}

// SplitPages builds one single-page document per page.
func (t *Toolkit) SplitPages(ctx context.Context, file models.UploadedFile) ([]models.Output, error) {
	count, ok := knownPageCount(file)
	if ok && count == 0 {
		return nil, models.ErrEmptySelection
	}
	ranges := pagerange.Singletons(count)
	if !ok {
		// Unprobed: a single open range makes the load failure surface in the pipeline.
		ranges = []models.PageRange{{Start: 1, End: pagerange.Last}}
	}
	return t.splitRanges(ctx, "split", file, ranges, func(r models.PageRange) string {
		return outputName(file.Name, fmt.Sprintf("_page_%d", r.Start), ".pdf")
	})
}

// Extract copies the selected ranges out of file. A single range yields a
// single document.
func (t *Toolkit) Extract(ctx context.Context, file models.UploadedFile, ranges []models.PageRange) ([]models.Output, error) {
	single := len(ranges) == 1
	return t.splitRanges(ctx, "extract", file, ranges, func(r models.PageRange) string {
		if single {
			return outputName(file.Name, "_extracted", ".pdf")
		}
		return outputName(file.Name, fmt.Sprintf("_extracted_%d-%d", r.Start, r.End), ".pdf")
	})
}

func (t *Toolkit) splitRanges(ctx context.Context, op string, file models.UploadedFile, ranges []models.PageRange, name func(models.PageRange) string) ([]models.Output, error) {
	if len(ranges) == 0 {
		return nil, models.ErrEmptySelection
	}
	if count, ok := knownPageCount(file); ok {
		for _, r := range ranges {
			if r.Start > r.End {
				return nil, fmt.Errorf("%w: %d-%d", models.ErrInvalidRange, r.Start, r.End)
			}
			if pagerange.Count(r, count) == 0 {
				return nil, fmt.Errorf("%w: range %d-%d is outside the %d pages of %s", models.ErrEmptySelection, r.Start, r.End, count, file.Name)
			}
		}
	}

	var doc *pdfdoc.Document
	outputs := make([]models.Output, 0, len(ranges))
	return pipeline.Run(ctx, t.pipeline, pipeline.Job[models.PageRange]{
		Name:  op,
		Unit:  "range",
		Units: ranges,
		Prepare: func(context.Context) (err error) {
			doc, err = t.load(file)
			return err
		},
		Step: func(_ context.Context, _ int, r models.PageRange) error {
			indices := pagerange.ToPageIndices([]models.PageRange{r}, doc.PageCount())
			if len(indices) == 0 {
				return fmt.Errorf("%w: range %d-%d", models.ErrEmptySelection, r.Start, r.End)
			}
			nrs := make([]int, len(indices))
			for i, idx := range indices {
				nrs[i] = idx + 1
			}
			res := pdfdoc.NewResult()
			if err := res.CopyPages(doc, nrs...); err != nil {
				return err
			}
			data, err := res.Save()
			if err != nil {
				return err
			}
			resolved, _ := pagerange.Normalize(r, doc.PageCount())
			outputs = append(outputs, pdfOutput(name(resolved), data))
			return nil
		},
		Finalize: func(context.Context) ([]models.Output, error) {
			return outputs, nil
		},
	})
}
