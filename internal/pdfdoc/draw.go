package pdfdoc

import (
	"bytes"
	"fmt"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

// Text is a single line of text to draw. X and Y locate the baseline origin;
// Angle rotates the line counter-clockwise around that origin.
type Text struct {
	Text    string
	X, Y    float64
	Font    Font
	Size    float64
	Color   models.Color
	Opacity float64 // 0 or 1 means opaque
	Angle   float64 // degrees
}

// pageWriter appends drawing operations to the pages of one extracted context.
// Font and graphics state objects are shared by all pages it touches.
type pageWriter struct {
	ctx    *model.Context
	fonts  map[Font]types.IndirectRef
	states map[int]types.IndirectRef
}

func newPageWriter(ctx *model.Context) *pageWriter {
	return &pageWriter{
		ctx:    ctx,
		fonts:  make(map[Font]types.IndirectRef),
		states: make(map[int]types.IndirectRef),
	}
}

func (w *pageWriter) drawText(page types.Dict, t Text) error {
	res, err := w.subDict(page, "Resources")
	if err != nil {
		return err
	}
	fontKey, err := w.fontResource(res, t.Font)
	if err != nil {
		return err
	}

	var ops bytes.Buffer
	ops.WriteString("Q\nq\n")
	if t.Opacity > 0 && t.Opacity < 1 {
		stateKey, err := w.stateResource(res, t.Opacity)
		if err != nil {
			return err
		}
		fmt.Fprintf(&ops, "/%s gs\n", stateKey)
	}
	fmt.Fprintf(&ops, "%.3f %.3f %.3f rg\n", t.Color.R, t.Color.G, t.Color.B)
	rad := t.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	fmt.Fprintf(&ops, "BT\n/%s %.2f Tf\n%.4f %.4f %.4f %.4f %.2f %.2f Tm\n<%X> Tj\nET\nQ\n",
		fontKey, t.Size, cos, sin, -sin, cos, t.X, t.Y, encodeWinAnsi(t.Text))

	return w.appendContent(page, ops.Bytes())
}

// appendContent wraps the existing page content in q/Q so that its graphics
// state cannot leak into ops, then appends ops.
func (w *pageWriter) appendContent(page types.Dict, ops []byte) error {
	open, err := w.stream([]byte("q\n"))
	if err != nil {
		return err
	}
	draw, err := w.stream(ops)
	if err != nil {
		return err
	}

	var existing types.Array
	switch c := page["Contents"].(type) {
	case nil:
	case types.IndirectRef:
		obj, err := w.ctx.Dereference(c)
		if err != nil {
			return err
		}
		if arr, ok := obj.(types.Array); ok {
			existing = arr
		} else {
			existing = types.Array{c}
		}
	case types.Array:
		existing = c
	default:
		return fmt.Errorf("unexpected page content type %T", c)
	}

	contents := make(types.Array, 0, len(existing)+2)
	contents = append(contents, *open)
	contents = append(contents, existing...)
	contents = append(contents, *draw)
	page["Contents"] = contents
	return nil
}

func (w *pageWriter) stream(content []byte) (*types.IndirectRef, error) {
	sd, err := w.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return w.ctx.IndRefForNewObject(*sd)
}

// subDict returns parent[key] as a dictionary, creating it when absent.
func (w *pageWriter) subDict(parent types.Dict, key string) (types.Dict, error) {
	obj, ok := parent[key]
	if ok && obj != nil {
		d, err := w.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", key, err)
		}
		if d != nil {
			return d, nil
		}
	}
	d := types.Dict{}
	parent[key] = d
	return d, nil
}

func (w *pageWriter) fontResource(res types.Dict, f Font) (string, error) {
	fonts, err := w.subDict(res, "Font")
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("PSF%d", int(f))
	if _, ok := fonts[key]; ok {
		return key, nil
	}
	ref, ok := w.fonts[f]
	if !ok {
		ir, err := w.ctx.IndRefForNewObject(types.Dict{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("Type1"),
			"BaseFont": types.Name(f.BaseFont()),
			"Encoding": types.Name("WinAnsiEncoding"),
		})
		if err != nil {
			return "", err
		}
		ref = *ir
		w.fonts[f] = ref
	}
	fonts[key] = ref
	return key, nil
}

func (w *pageWriter) stateResource(res types.Dict, opacity float64) (string, error) {
	states, err := w.subDict(res, "ExtGState")
	if err != nil {
		return "", err
	}
	pct := int(math.Round(opacity * 100))
	key := fmt.Sprintf("PSGS%d", pct)
	if _, ok := states[key]; ok {
		return key, nil
	}
	ref, ok := w.states[pct]
	if !ok {
		alpha := types.Float(float64(pct) / 100)
		ir, err := w.ctx.IndRefForNewObject(types.Dict{
			"Type": types.Name("ExtGState"),
			"ca":   alpha,
			"CA":   alpha,
		})
		if err != nil {
			return "", err
		}
		ref = *ir
		w.states[pct] = ref
	}
	states[key] = ref
	return key, nil
}
