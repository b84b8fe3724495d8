package extract

import (
	"errors"
	"fmt"
)

// ErrNotPDF marks input that is missing, unreadable, or not a structurally
// valid PDF. These are fatal for the document and are never retried.
var ErrNotPDF = errors.New("not a valid PDF")

// PageRenderError reports a page that could not be rasterized. Callers may
// treat it as "skip this page" rather than aborting the document.
type PageRenderError struct {
	Page int
	Err  error
}

func (e *PageRenderError) Error() string {
	return fmt.Sprintf("render page %d: %v", e.Page, e.Err)
}

func (e *PageRenderError) Unwrap() error { return e.Err }
