package models

// Color is an RGB colour with components in [0, 1].
type Color struct {
	R float64 `json:"r" toml:"r"`
	G float64 `json:"g" toml:"g"`
	B float64 `json:"b" toml:"b"`
}

var (
	Black = Color{}
	Gray  = Color{R: 0.5, G: 0.5, B: 0.5}
)

// OrganizeEntry places original page Page (1-indexed) at this position of the
// result and adds Rotation degrees to whatever rotation the page already has.
type OrganizeEntry struct {
	Page     int `json:"page"`
	Rotation int `json:"rotation"`
}

// Annotation is a text snippet drawn at an absolute position on one page.
// X and Y are in points from the lower-left corner of the visible page box.
type Annotation struct {
	Page     int     `json:"page"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
}

// Position is a placement category for watermarks and page numbers.
type Position string

const (
	PositionCenter       Position = "center"
	PositionTopLeft      Position = "top-left"
	PositionTopCenter    Position = "top-center"
	PositionTopRight     Position = "top-right"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomCenter Position = "bottom-center"
	PositionBottomRight  Position = "bottom-right"
	PositionDiagonal     Position = "diagonal"
)

// WatermarkOptions controls the text overlay drawn on every page.
type WatermarkOptions struct {
	Text     string   `toml:"text"`
	Position Position `toml:"position"`
	Font     string   `toml:"font"`
	FontSize float64  `toml:"font_size"`
	Opacity  float64  `toml:"opacity"`
	Angle    float64  `toml:"angle"`
	Color    Color    `toml:"color"`
}

// NumberFormat selects how a page number is rendered.
type NumberFormat string

const (
	NumberFormatPlain  NumberFormat = "n"
	NumberFormatOfN    NumberFormat = "page-n-of-total"
	NumberFormatDashed NumberFormat = "dashed"
)

// PageNumberOptions controls the page numbering overlay.
type PageNumberOptions struct {
	Position    Position     `toml:"position"`
	Format      NumberFormat `toml:"format"`
	StartNumber int          `toml:"start_number"`
	Font        string       `toml:"font"`
	FontSize    float64      `toml:"font_size"`
	Color       Color        `toml:"color"`
}

// TextRun is one string shown by a content stream, positioned at its baseline
// origin in user space.
type TextRun struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}
