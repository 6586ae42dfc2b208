// Package pdfdoc adapts the pdfcpu object model to the operations the PDF
// tools need: loading source documents, copying pages into fresh result
// documents, rotating, drawing text and serializing.
//
// Source documents are only ever read. Every transformation builds a Result,
// which records the pages copied into it and materializes them when saved.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

var (
	ErrLoad          = errors.New("failed to load PDF")
	ErrWrongPassword = errors.New("incorrect or missing PDF password")
	ErrPageCopy      = errors.New("failed to copy page")
	ErrSave          = errors.New("failed to save PDF")
	ErrEmptyDocument = errors.New("document has no pages")
)

// Options controls how a document is opened.
type Options struct {
	Password string
}

// Document is a loaded, read-only source document.
type Document struct {
	ctx  *model.Context
	size int
}

func newConfiguration(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	return conf
}

// Load parses data into a Document. Structural optimization (duplicate and
// unused object removal) is applied while reading.
func Load(data []byte, opts Options) (doc *Document, err error) {
	// pdfcpu panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrLoad, r)
		}
	}()

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), newConfiguration(opts.Password))
	if err != nil {
		if errors.Is(err, pdfcpu.ErrWrongPassword) {
			return nil, fmt.Errorf("%w: %v", ErrWrongPassword, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return &Document{ctx: ctx, size: len(data)}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Pages returns the 1-indexed numbers of all pages in order.
func (d *Document) Pages() []int {
	nrs := make([]int, d.ctx.PageCount)
	for i := range nrs {
		nrs[i] = i + 1
	}
	return nrs
}

// Page describes the visible box and rotation of page nr (1-indexed).
func (d *Document) Page(nr int) (info models.PageInfo, err error) {
	if nr < 1 || nr > d.ctx.PageCount {
		return models.PageInfo{}, fmt.Errorf("%w: page %d of %d", models.ErrPageOutOfRange, nr, d.ctx.PageCount)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", nr, r)
		}
	}()

	dict, _, inh, err := d.ctx.PageDict(nr, false)
	if err != nil {
		return models.PageInfo{}, fmt.Errorf("page %d: %w", nr, err)
	}
	if dict == nil || inh == nil {
		return models.PageInfo{}, fmt.Errorf("page %d: missing page object", nr)
	}

	box := inh.CropBox
	if box == nil {
		box = inh.MediaBox
	}
	if box == nil {
		return models.PageInfo{}, fmt.Errorf("page %d: missing page box", nr)
	}
	return models.PageInfo{
		Number:   nr,
		X:        box.LL.X,
		Y:        box.LL.Y,
		Width:    box.Width(),
		Height:   box.Height(),
		Rotation: normalizeRotation(inh.Rotate),
	}, nil
}

// Info returns the page count, version and document information entries.
func (d *Document) Info() (models.DocumentInfo, error) {
	info := models.DocumentInfo{
		PageCount: d.ctx.PageCount,
		Version:   d.ctx.VersionString(),
		Title:     d.ctx.Title,
		Author:    d.ctx.Author,
		Subject:   d.ctx.Subject,
		Creator:   d.ctx.Creator,
		Producer:  d.ctx.Producer,
		Encrypted: d.ctx.Encrypt != nil,
		Pages:     make([]models.PageInfo, 0, d.ctx.PageCount),
	}
	for nr := 1; nr <= d.ctx.PageCount; nr++ {
		p, err := d.Page(nr)
		if err != nil {
			return models.DocumentInfo{}, err
		}
		info.Pages = append(info.Pages, p)
	}
	return info, nil
}

// Content returns the decoded content stream of page nr.
func (d *Document) Content(nr int) ([]byte, error) {
	if nr < 1 || nr > d.ctx.PageCount {
		return nil, fmt.Errorf("%w: page %d of %d", models.ErrPageOutOfRange, nr, d.ctx.PageCount)
	}
	r, err := pdfcpu.ExtractPageContent(d.ctx, nr)
	if err != nil {
		return nil, fmt.Errorf("page %d: failed to read content: %w", nr, err)
	}
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(r)
}

// Save serializes the document as loaded. Because loading already optimizes
// the object graph, this is the structure-only compression path.
func (d *Document) Save() (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("%w: %v", ErrSave, r)
		}
	}()

	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSave, err)
	}
	return buf.Bytes(), nil
}

// SourceSize is the byte length the document was loaded from.
func (d *Document) SourceSize() int {
	return d.size
}

// firstCopyablePage returns the first page whose page object resolves, or 0.
func (d *Document) firstCopyablePage() int {
	for nr := 1; nr <= d.ctx.PageCount; nr++ {
		if _, err := d.Page(nr); err == nil {
			return nr
		}
	}
	return 0
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
