package services

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pagerange"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
	"github.com/Lllllllleong/pdfsuite/internal/pipeline"
)

// pageJob copies pages of one source into a single result, one unit per page.
// Units are 1-indexed source page numbers; edit, when set, runs on the copy.
type pageJob struct {
	op     string
	file   models.UploadedFile
	output string
	units  []int
	all    bool
	edit   func(res *pdfdoc.Result, i int, page models.PageInfo) error
}

func (t *Toolkit) runPageJob(ctx context.Context, j pageJob) (models.Output, error) {
	var doc *pdfdoc.Document
	res := pdfdoc.NewResult()

	units := j.units
	if j.all {
		// The real page count is only known after loading; the probed count
		// sizes the unit list.
		units = make([]int, j.file.PageCount)
		for i := range units {
			units[i] = i + 1
		}
	}

	outputs, err := pipeline.Run(ctx, t.pipeline, pipeline.Job[int]{
		Name:  j.op,
		Unit:  "page",
		Units: units,
		Prepare: func(context.Context) (err error) {
			doc, err = t.load(j.file)
			return err
		},
		Step: func(_ context.Context, i int, nr int) error {
			if err := res.CopyPages(doc, nr); err != nil {
				return err
			}
			if j.edit == nil {
				return nil
			}
			page, err := res.Page(i)
			if err != nil {
				return err
			}
			return j.edit(res, i, page)
		},
		Finalize: func(context.Context) ([]models.Output, error) {
			data, err := res.Save()
			if err != nil {
				return nil, err
			}
			return []models.Output{pdfOutput(j.output, data)}, nil
		},
	})
	if err != nil {
		return models.Output{}, err
	}
	return outputs[0], nil
}

func allPages(file models.UploadedFile) pageJob {
	return pageJob{file: file, all: true}
}

// Rotate adds delta degrees to the rotation of every page.
func (t *Toolkit) Rotate(ctx context.Context, file models.UploadedFile, delta int) (models.Output, error) {
	if err := checkRotation(delta); err != nil {
		return models.Output{}, err
	}
	j := allPages(file)
	j.op = "rotate"
	j.output = outputName(file.Name, "_rotated", ".pdf")
	j.edit = func(res *pdfdoc.Result, i int, _ models.PageInfo) error {
		return res.Rotate(i, delta)
	}
	return t.runPageJob(ctx, j)
}

// RemovePages drops the 1-indexed pages and keeps the rest in their original order.
func (t *Toolkit) RemovePages(ctx context.Context, file models.UploadedFile, pages []int) (models.Output, error) {
	count, ok := knownPageCount(file)
	units := []int{1}
	if ok {
		if err := pagerange.ValidateRemoval(pages, count); err != nil {
			return models.Output{}, err
		}
		kept := pagerange.Complement(pages, count)
		units = make([]int, len(kept))
		for i, idx := range kept {
			units[i] = idx + 1
		}
	} else if len(pages) == 0 {
		return models.Output{}, models.ErrEmptySelection
	}
	return t.runPageJob(ctx, pageJob{
		op:     "remove",
		file:   file,
		output: outputName(file.Name, "_pages_removed", ".pdf"),
		units:  units,
	})
}

// Organize builds a document from entries in order. Each entry copies one
// original page and adds its rotation; pages not listed are dropped and pages
// listed twice are duplicated.
func (t *Toolkit) Organize(ctx context.Context, file models.UploadedFile, entries []models.OrganizeEntry) (models.Output, error) {
	if len(entries) == 0 {
		return models.Output{}, models.ErrEmptySelection
	}
	count, ok := knownPageCount(file)
	units := make([]int, len(entries))
	for i, e := range entries {
		if ok && (e.Page < 1 || e.Page > count) {
			return models.Output{}, fmt.Errorf("%w: page %d of %d", models.ErrPageOutOfRange, e.Page, count)
		}
		if err := checkRotation(e.Rotation); err != nil {
			return models.Output{}, err
		}
		units[i] = e.Page
	}
	return t.runPageJob(ctx, pageJob{
		op:     "organize",
		file:   file,
		output: outputName(file.Name, "_organized", ".pdf"),
		units:  units,
		edit: func(res *pdfdoc.Result, i int, _ models.PageInfo) error {
			if entries[i].Rotation == 0 {
				return nil
			}
			return res.Rotate(i, entries[i].Rotation)
		},
	})
}
