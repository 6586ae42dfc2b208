package pdfdoc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

// Page sizes in points.
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

type resultPage struct {
	src      *Document
	nr       int
	info     models.PageInfo
	rotation int
	blank    bool
	texts    []Text
}

// Result is a freshly created document that accumulates pages copied from
// source documents. Page edits (rotation, drawn text) are recorded per page
// and applied to the copies when the result is saved; sources are never
// modified.
type Result struct {
	pages []*resultPage
}

// NewResult returns an empty result document.
func NewResult() *Result {
	return &Result{}
}

// PageCount returns the number of pages copied so far.
func (r *Result) PageCount() int {
	return len(r.pages)
}

// CopyPages appends the 1-indexed pages of src in the given order. A page may
// be listed more than once. Either all pages are appended or none.
func (r *Result) CopyPages(src *Document, nrs ...int) error {
	added := make([]*resultPage, 0, len(nrs))
	for _, nr := range nrs {
		info, err := src.Page(nr)
		if err != nil {
			return fmt.Errorf("%w %d: %v", ErrPageCopy, nr, err)
		}
		added = append(added, &resultPage{src: src, nr: nr, info: info, rotation: info.Rotation})
	}
	r.pages = append(r.pages, added...)
	return nil
}

// AddBlankPage appends an empty page of the given size. The page object is
// derived from a readable page of tmpl with its content and resources dropped.
func (r *Result) AddBlankPage(tmpl *Document, width, height float64) error {
	nr := tmpl.firstCopyablePage()
	if nr == 0 {
		return fmt.Errorf("%w: no readable page to derive a blank page from", ErrPageCopy)
	}
	r.pages = append(r.pages, &resultPage{
		src:   tmpl,
		nr:    nr,
		info:  models.PageInfo{Number: r.PageCount() + 1, Width: width, Height: height},
		blank: true,
	})
	return nil
}

func (r *Result) page(i int) (*resultPage, error) {
	if i < 0 || i >= len(r.pages) {
		return nil, fmt.Errorf("%w: result page index %d of %d", models.ErrPageOutOfRange, i, len(r.pages))
	}
	return r.pages[i], nil
}

// Page describes result page i (0-indexed) as it will be saved.
func (r *Result) Page(i int) (models.PageInfo, error) {
	p, err := r.page(i)
	if err != nil {
		return models.PageInfo{}, err
	}
	info := p.info
	info.Number = i + 1
	info.Rotation = p.rotation
	return info, nil
}

// SetRotation sets the absolute rotation of result page i.
func (r *Result) SetRotation(i, deg int) error {
	if deg%90 != 0 {
		return fmt.Errorf("%w: %d", models.ErrInvalidRotation, deg)
	}
	p, err := r.page(i)
	if err != nil {
		return err
	}
	p.rotation = normalizeRotation(deg)
	return nil
}

// Rotate adds delta degrees to the rotation of result page i.
func (r *Result) Rotate(i, delta int) error {
	p, err := r.page(i)
	if err != nil {
		return err
	}
	return r.SetRotation(i, p.rotation+delta)
}

// DrawText records text to be drawn on result page i. Coordinates are relative
// to the lower-left corner of the page's visible box.
func (r *Result) DrawText(i int, t Text) error {
	p, err := r.page(i)
	if err != nil {
		return err
	}
	if t.Text == "" {
		return models.ErrEmptyText
	}
	t.X += p.info.X
	t.Y += p.info.Y
	p.texts = append(p.texts, t)
	return nil
}

// Save materializes the result and serializes it to PDF bytes. Consecutive
// pages that come from the same source are extracted together; the parts are
// merged when more than one source contributed.
func (r *Result) Save() (data []byte, err error) {
	if len(r.pages) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSave, ErrEmptyDocument)
	}
	defer func() {
		if rec := recover(); rec != nil {
			data, err = nil, fmt.Errorf("%w: %v", ErrSave, rec)
		}
	}()

	var parts [][]byte
	for start := 0; start < len(r.pages); {
		end := start + 1
		for end < len(r.pages) && r.pages[end].src == r.pages[start].src {
			end++
		}
		part, err := materialize(r.pages[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSave, err)
		}
		parts = append(parts, part)
		start = end
	}
	if len(parts) == 1 {
		return parts[0], nil
	}

	readers := make([]io.ReadSeeker, len(parts))
	for i, part := range parts {
		readers[i] = bytes.NewReader(part)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, newConfiguration("")); err != nil {
		return nil, fmt.Errorf("%w: merge: %v", ErrSave, err)
	}
	return out.Bytes(), nil
}

func materialize(pages []*resultPage) ([]byte, error) {
	src := pages[0].src
	nrs := make([]int, len(pages))
	for i, p := range pages {
		nrs[i] = p.nr
	}

	ctx, err := pdfcpu.ExtractPages(src.ctx, nrs, false)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, err
	}

	w := newPageWriter(ctx)
	for i, p := range pages {
		dict, _, _, err := ctx.PageDict(i+1, false)
		if err != nil {
			return nil, err
		}
		if dict == nil {
			return nil, fmt.Errorf("page %d missing after extraction", p.nr)
		}
		if p.blank {
			blankOut(dict, p.info.Width, p.info.Height)
		}
		setRotation(dict, p.rotation)
		for _, t := range p.texts {
			if err := w.drawText(dict, t); err != nil {
				return nil, fmt.Errorf("draw text on page %d: %w", i+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRotation(page types.Dict, deg int) {
	if deg == 0 {
		page.Delete("Rotate")
		return
	}
	page["Rotate"] = types.Integer(deg)
}

func blankOut(page types.Dict, width, height float64) {
	for _, key := range []string{"Contents", "Annots", "CropBox", "BleedBox", "TrimBox", "ArtBox", "Thumb"} {
		page.Delete(key)
	}
	page["Resources"] = types.Dict{}
	page["MediaBox"] = types.RectForWidthAndHeight(0, 0, width, height).Array()
}
