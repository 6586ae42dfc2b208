package pdfdoc

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/font"
	"golang.org/x/text/encoding/charmap"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

// Font identifies one of the standard Latin faces every PDF reader provides.
type Font int

const (
	Helvetica Font = iota
	HelveticaBold
	TimesRoman
	TimesBold
	Courier
	CourierBold
)

var baseFonts = [...]string{
	Helvetica:     "Helvetica",
	HelveticaBold: "Helvetica-Bold",
	TimesRoman:    "Times-Roman",
	TimesBold:     "Times-Bold",
	Courier:       "Courier",
	CourierBold:   "Courier-Bold",
}

// ParseFont resolves a font name such as "helvetica-bold". The empty name
// selects Helvetica.
func ParseFont(name string) (Font, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Helvetica, nil
	}
	for f, base := range baseFonts {
		if strings.EqualFold(name, base) {
			return Font(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", models.ErrUnsupportedFont, name)
}

// BaseFont is the PDF name of the face.
func (f Font) BaseFont() string {
	if f < 0 || int(f) >= len(baseFonts) {
		return baseFonts[Helvetica]
	}
	return baseFonts[f]
}

func (f Font) String() string {
	return f.BaseFont()
}

// TextWidth measures text set in f at size points.
func (f Font) TextWidth(text string, size float64) float64 {
	// Metrics are looked up per WinAnsi code at 1000 units per em.
	return font.TextWidth(string(encodeWinAnsi(text)), f.BaseFont(), 1000) * size / 1000
}

// encodeWinAnsi maps text to WinAnsiEncoding, the encoding declared for the
// fonts this package adds. Runes outside the code page become '?'.
func encodeWinAnsi(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// DecodeWinAnsi is the inverse of the encoding applied to drawn text.
func DecodeWinAnsi(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(charmap.Windows1252.DecodeByte(c))
	}
	return sb.String()
}
