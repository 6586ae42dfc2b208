package models

import (
	"errors"
	"fmt"
)

// Validation errors. They are reported before an operation starts and never
// move the pipeline into the Failed state.
var (
	ErrNotEnoughFiles   = errors.New("at least two PDF files are required")
	ErrEmptySelection   = errors.New("no pages selected")
	ErrPageOutOfRange   = errors.New("page number out of range")
	ErrInvalidRange     = errors.New("invalid page range")
	ErrInvalidRotation  = errors.New("rotation must be a multiple of 90 degrees")
	ErrUnsupportedFont  = errors.New("unsupported font")
	ErrUnknownPosition  = errors.New("unknown position")
	ErrUnknownFormat    = errors.New("unknown page number format")
	ErrEmptyText        = errors.New("text must not be empty")
	ErrUnreadableSource = errors.New("file could not be read as a PDF")
)

// ErrBusy is returned when an operation is started while another one is in flight.
var ErrBusy = errors.New("another operation is already in progress")

// WouldEmptyDocumentError reports a page removal that would leave no pages.
type WouldEmptyDocumentError struct {
	Selected  int
	PageCount int
}

func (e *WouldEmptyDocumentError) Error() string {
	return fmt.Sprintf("cannot remove %d of %d pages: a document must keep at least one page", e.Selected, e.PageCount)
}
