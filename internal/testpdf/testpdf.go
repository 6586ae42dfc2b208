// Package testpdf assembles small, valid PDF files for tests. Every page gets
// its own MediaBox and a line of Helvetica text so that tests can tell pages
// apart after they have been copied, reordered or merged.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

// Page describes one fixture page.
type Page struct {
	Width  float64
	Height float64
	Rotate int
	Text   string
}

// Doc describes a fixture document. Rotate, Width and Height are set on the
// page tree root and inherited by pages that do not override them; a page
// with a zero Width then has no MediaBox of its own.
type Doc struct {
	Title  string
	Author string
	Rotate int
	Width  float64
	Height float64
	Pages  []Page
}

// Build returns a PDF containing pages.
func Build(pages ...Page) []byte {
	return BuildDoc(Doc{Pages: pages})
}

// Pages returns n pages whose widths start at baseWidth and grow by one point
// per page, labelled "<label><n>".
func Pages(label string, baseWidth float64, n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{
			Width:  baseWidth + float64(i),
			Height: 500,
			Text:   fmt.Sprintf("%s%d", label, i+1),
		}
	}
	return pages
}

// BuildDoc returns the PDF bytes for d.
func BuildDoc(d Doc) []byte {
	var objects []string

	// 1 catalog, 2 page tree, 3 font, 4 info, then a page and a content stream per page.
	kids := make([]string, len(d.Pages))
	for i := range d.Pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		pageTree(d, kids),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Title (%s) /Author (%s) /Producer (testpdf) >>", d.Title, d.Author),
	)
	for i, p := range d.Pages {
		page := "<< /Type /Page /Parent 2 0 R"
		h := d.Height
		if p.Width != 0 || d.Width == 0 {
			w := p.Width
			if w == 0 {
				w = 612
			}
			if h = p.Height; h == 0 {
				h = 792
			}
			page += fmt.Sprintf(" /MediaBox [0 0 %g %g]", w, h)
		}
		page += fmt.Sprintf(" /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R", 6+2*i)
		if p.Rotate != 0 {
			page += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		page += " >>"
		content := fmt.Sprintf("BT /F1 12 Tf 72 %g Td (%s) Tj ET", h/2, p.Text)
		objects = append(objects, page,
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pageTree(d Doc, kids []string) string {
	tree := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d", strings.Join(kids, " "), len(d.Pages))
	if d.Width != 0 {
		tree += fmt.Sprintf(" /MediaBox [0 0 %g %g]", d.Width, d.Height)
	}
	if d.Rotate != 0 {
		tree += fmt.Sprintf(" /Rotate %d", d.Rotate)
	}
	return tree + " >>"
}

// Garbage returns bytes that are not a PDF.
func Garbage() []byte {
	return []byte("this is not a pdf document\n")
}
