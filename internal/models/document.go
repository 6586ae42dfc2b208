package models

import "time"

// UploadedFile is one entry of the file registry. The raw bytes are owned by the
// registry entry and are never modified after ingestion.
type UploadedFile struct {
	ID         string
	Name       string
	Size       int
	PageCount  int
	Checksum   string
	Unreadable bool
	ProbeError string
	AddedAt    time.Time

	data []byte
}

// NewUploadedFile builds a registry entry around data. The slice must not be
// modified by the caller afterwards.
func NewUploadedFile(id, name string, data []byte) UploadedFile {
	return UploadedFile{
		ID:      id,
		Name:    name,
		Size:    len(data),
		AddedAt: time.Now(),
		data:    data,
	}
}

// Data returns the raw file bytes. Callers must treat them as read-only.
func (f UploadedFile) Data() []byte {
	return f.data
}

// Blob is a raw file handed to the registry for ingestion.
type Blob struct {
	Name      string
	MediaType string
	Data      []byte
}

// PageRange is a 1-indexed inclusive span of pages. It is validated against a
// concrete page count only when it is used.
type PageRange struct {
	Start int `json:"start" toml:"start"`
	End   int `json:"end" toml:"end"`
}

// Output is one named, independently valid result buffer.
type Output struct {
	Name      string
	MediaType string
	Data      []byte
	Notes     []string
}

// Size returns the byte length of the output.
func (o Output) Size() int {
	return len(o.Data)
}

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeText = "text/plain; charset=utf-8"
	MediaTypeCSV  = "text/csv; charset=utf-8"
)

// DocumentInfo is the result of inspecting a document without transforming it.
type DocumentInfo struct {
	Name      string     `json:"name"`
	PageCount int        `json:"pageCount"`
	Version   string     `json:"version,omitempty"`
	Title     string     `json:"title,omitempty"`
	Author    string     `json:"author,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Creator   string     `json:"creator,omitempty"`
	Producer  string     `json:"producer,omitempty"`
	Encrypted bool       `json:"encrypted"`
	Pages     []PageInfo `json:"pages"`
}

// PageInfo describes the visible box and rotation of a single page, in points.
type PageInfo struct {
	Number   int     `json:"number"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation int     `json:"rotation"`
}
