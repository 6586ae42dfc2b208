// Package textextract recovers positioned text from page content streams and
// arranges it into rows, which is enough for plain text dumps and a simple
// table heuristic. Glyph widths are not tracked, so consecutive strings shown
// without repositioning are joined into one run.
package textextract

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/pdfdoc"
)

// DefaultRowTolerance is the baseline distance, in points, under which two
// runs are placed on the same row.
const DefaultRowTolerance = 3.0

type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

type state struct {
	ctm     matrix
	size    float64
	leading float64
}

type interpreter struct {
	gs    state
	stack []state

	tm, tlm matrix
	moved   bool

	runs []models.TextRun
}

// Runs returns the text shown by content in stream order.
func Runs(content []byte) []models.TextRun {
	in := &interpreter{gs: state{ctm: identity}}
	sc := &scanner{data: content}
	var args []token
	for {
		t, ok := sc.next()
		if !ok {
			break
		}
		if t.kind != kindOperator {
			args = append(args, t)
			continue
		}
		in.apply(t.op, args)
		args = args[:0]
	}
	return in.runs
}

func nums(args []token, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, a := range args[len(args)-n:] {
		if a.kind != kindNumber {
			return nil, false
		}
		out[i] = a.num
	}
	return out, true
}

func (in *interpreter) apply(op string, args []token) {
	switch op {
	case "q":
		in.stack = append(in.stack, in.gs)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.gs = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
	case "cm":
		if v, ok := nums(args, 6); ok {
			in.gs.ctm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.mul(in.gs.ctm)
		}
	case "BT":
		in.tm, in.tlm = identity, identity
		in.moved = true
	case "Tf":
		if v, ok := nums(args, 1); ok {
			in.gs.size = v[0]
		}
	case "TL":
		if v, ok := nums(args, 1); ok {
			in.gs.leading = v[0]
		}
	case "Td":
		if v, ok := nums(args, 2); ok {
			in.moveLine(v[0], v[1])
		}
	case "TD":
		if v, ok := nums(args, 2); ok {
			in.gs.leading = -v[1]
			in.moveLine(v[0], v[1])
		}
	case "Tm":
		if v, ok := nums(args, 6); ok {
			in.tm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			in.tlm = in.tm
			in.moved = true
		}
	case "T*":
		in.moveLine(0, -in.gs.leading)
	case "Tj":
		if len(args) > 0 {
			in.show(args[len(args)-1].str)
		}
	case "'":
		in.moveLine(0, -in.gs.leading)
		if len(args) > 0 {
			in.show(args[len(args)-1].str)
		}
	case "\"":
		in.moveLine(0, -in.gs.leading)
		if len(args) > 0 {
			in.show(args[len(args)-1].str)
		}
	case "TJ":
		if len(args) == 0 || args[len(args)-1].kind != kindArray {
			return
		}
		var b []byte
		for _, item := range args[len(args)-1].arr {
			if item.kind == kindString {
				b = append(b, item.str...)
			} else if item.kind == kindNumber && item.num < -200 {
				// A large negative adjustment is a word gap.
				b = append(b, ' ')
			}
		}
		in.show(b)
	}
}

func (in *interpreter) moveLine(tx, ty float64) {
	in.tlm = translate(tx, ty).mul(in.tlm)
	in.tm = in.tlm
	in.moved = true
}

func (in *interpreter) show(b []byte) {
	text := decode(b)
	if strings.TrimSpace(text) == "" {
		return
	}
	if !in.moved && len(in.runs) > 0 {
		in.runs[len(in.runs)-1].Text += text
		return
	}
	m := in.tm.mul(in.gs.ctm)
	in.runs = append(in.runs, models.TextRun{
		Text: text,
		X:    m[4],
		Y:    m[5],
		Size: in.gs.size * math.Hypot(m[2], m[3]),
	})
	in.moved = false
}

func decode(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		b = b[2:]
		units := make([]uint16, len(b)/2)
		for i := range units {
			units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
		}
		return string(utf16.Decode(units))
	}
	return pdfdoc.DecodeWinAnsi(b)
}

// GroupRows buckets runs into rows ordered top to bottom. A run joins the
// current row when its baseline is within tolerance of the row's first run.
// Cells within a row are ordered left to right.
func GroupRows(runs []models.TextRun, tolerance float64) [][]models.TextRun {
	if len(runs) == 0 {
		return nil
	}
	if tolerance < 0 {
		tolerance = DefaultRowTolerance
	}
	sorted := append([]models.TextRun(nil), runs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows [][]models.TextRun
	anchor := 0.0
	for _, r := range sorted {
		if len(rows) == 0 || anchor-r.Y > tolerance {
			rows = append(rows, nil)
			anchor = r.Y
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], r)
	}
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
	}
	return rows
}

// Cells reduces rows to their trimmed text.
func Cells(rows [][]models.TextRun) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, r := range row {
			out[i][j] = strings.TrimSpace(r.Text)
		}
	}
	return out
}

// Text renders rows as lines, separating cells with a single space.
func Text(rows [][]models.TextRun) string {
	var sb strings.Builder
	for _, cells := range Cells(rows) {
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteCSV writes one CSV record per row. Rows may have different lengths.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
