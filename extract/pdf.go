package extract

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	fitz "github.com/gen2brain/go-fitz"
)

// source is an open document handle. It is exclusively owned by the call
// that created it and must be closed before that call returns.
type source struct {
	path string
	doc  *fitz.Document
}

func openSource(path string) (*source, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &source{path: path, doc: doc}, nil
}

func (s *source) close() {
	if s.doc != nil {
		s.doc.Close()
		s.doc = nil
	}
}

func (s *source) pageCount() int {
	return s.doc.NumPage()
}

// pageText returns the embedded text of a page. Pages are 1-based.
func (s *source) pageText(page int) (string, error) {
	text, err := s.doc.Text(page - 1)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", page, err)
	}
	return text, nil
}

// renderPage rasterizes a page to an in-memory PNG at the given resolution.
// The buffer is the only artifact; there is no temp file to clean up.
func (s *source) renderPage(page int, dpi float64) ([]byte, error) {
	img, err := s.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, &PageRenderError{Page: page, Err: err}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &PageRenderError{Page: page, Err: err}
	}
	return buf.Bytes(), nil
}

// metadata returns the document information dictionary as a string map.
func (s *source) metadata() map[string]string {
	return s.doc.Metadata()
}

func pageMarker(page int) string {
	return fmt.Sprintf("--- Page %d ---", page)
}

// pageAssembler joins per-page fragments into a single document text.
// Pages with empty stripped output contribute nothing, not even a marker;
// non-empty pages are prefixed with their marker and separated by a blank
// line. Pages must be added in increasing order.
type pageAssembler struct {
	sb strings.Builder
}

func (a *pageAssembler) add(page int, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if a.sb.Len() > 0 {
		a.sb.WriteString("\n\n")
	}
	a.sb.WriteString(pageMarker(page))
	a.sb.WriteByte('\n')
	a.sb.WriteString(text)
}

func (a *pageAssembler) text() string {
	return a.sb.String()
}
