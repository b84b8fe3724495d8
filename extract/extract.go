// Package extract turns railway tariff PDF files into machine-readable text
// and tables for downstream field extraction.
//
// Text extraction runs a fixed fallback chain per document:
//
//  1. text layer — embedded text, exact and free, accepted when its stripped
//     length exceeds a threshold
//  2. deep OCR   — PaddleOCR serving endpoint, best on complex multi-column
//     tariff layouts, accepted at a stricter threshold
//  3. classical  — Tesseract, cheapest fallback, accepted unconditionally
//
// Tables and document metadata are extracted independently of the fallback
// decision. All results are in-memory values; persistence, HTTP, and semantic
// interpretation of tariff content belong to the callers.
//
// Usage:
//
//	pipe := extract.New(extract.DefaultConfig())
//	doc, err := pipe.Process(ctx, "/path/to/tariff.pdf")
//	fmt.Println(doc.Text.Backend, len(doc.Tables), "tables")
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Backend is one interchangeable text-extraction strategy. Implementations
// own their document handle for the duration of Extract and release it on
// every exit path. Per-page failures are handled internally; an error from
// Extract means the whole backend produced nothing for this document.
type Backend interface {
	Name() BackendName
	Available() bool
	Extract(ctx context.Context, path string) (string, error)
}

// stage pairs a backend with its adequacy threshold: output whose stripped
// length exceeds minChars is accepted and ends the chain. A zero minChars
// accepts any non-empty output (the last-resort stage).
type stage struct {
	backend  Backend
	minChars int
}

// Pipeline is the extraction engine. Backend availability is probed once in
// New and frozen; a Pipeline is safe for concurrent use across documents.
type Pipeline struct {
	cfg     Config
	logger  *slog.Logger
	stages  []stage
	pdfConf *model.Configuration

	fragments fragmentSource
	pageCount func(path string) (int, error)
	openMeta  func(path string) (metaSource, error)
}

// New creates a Pipeline with the given configuration and probes which
// backends are usable in this process.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	p := &Pipeline{
		cfg:       cfg,
		logger:    cfg.Logger,
		pdfConf:   model.NewDefaultConfiguration(),
		fragments: tabulaFragments,
		pageCount: tabulaPageCount,
		openMeta:  func(path string) (metaSource, error) { return openSource(path) },
	}
	p.stages = []stage{
		{&textLayer{logger: p.logger}, cfg.TextLayerMinChars},
		{newPaddleBackend(cfg, p.logger), cfg.OCRMinChars},
		{newTesseractBackend(cfg, p.logger), 0},
	}
	return p
}

// Capabilities reports which backends are available in this process.
func (p *Pipeline) Capabilities() Capabilities {
	caps := Capabilities{Tables: true}
	for _, st := range p.stages {
		switch st.backend.Name() {
		case BackendTextLayer:
			caps.TextLayer = st.backend.Available()
		case BackendPaddleOCR:
			caps.DeepOCR = st.backend.Available()
		case BackendTesseract:
			caps.ClassicalOCR = st.backend.Available()
		}
	}
	return caps
}

// ExtractText runs the fallback chain and returns the aggregated document
// text. An empty TextResult.Text with a nil error means no backend could
// extract anything; callers decide whether that is fatal.
func (p *Pipeline) ExtractText(ctx context.Context, path string) (TextResult, error) {
	if err := p.validateInput(path); err != nil {
		return TextResult{}, err
	}
	return p.extractText(ctx, path, p.runLogger(path))
}

func (p *Pipeline) extractText(ctx context.Context, path string, logger *slog.Logger) (TextResult, error) {
	var res TextResult
	for _, st := range p.stages {
		b := st.backend
		if !b.Available() {
			logger.Warn("backend unavailable, skipping", "backend", b.Name())
			continue
		}
		res.Attempted = append(res.Attempted, b.Name())

		out, err := b.Extract(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return TextResult{}, err
			}
			logger.Error("backend failed", "backend", b.Name(), "error", err)
			continue
		}

		stripped := utf8.RuneCountInString(strings.TrimSpace(out))
		if stripped > st.minChars {
			res.Text = out
			res.Backend = b.Name()
			if b.Name() == BackendTextLayer {
				res.Quality = textQuality(path, out)
			}
			logger.Info("extraction adequate", "backend", b.Name(), "chars", stripped)
			return res, nil
		}
		logger.Info("output below adequacy threshold",
			"backend", b.Name(), "chars", stripped, "min_chars", st.minChars)
	}

	logger.Warn("no extractable text", "attempted", len(res.Attempted))
	return res, nil
}

// ExtractTables detects and extracts tables per page, independently of the
// text fallback chain. A failing page is skipped; tables from the other
// pages are still returned.
func (p *Pipeline) ExtractTables(ctx context.Context, path string) ([]Table, error) {
	if err := p.validateInput(path); err != nil {
		return nil, err
	}
	return p.extractTables(ctx, path, p.runLogger(path))
}

// ExtractMetadata returns document-level facts without running extraction.
func (p *Pipeline) ExtractMetadata(ctx context.Context, path string) (*Metadata, error) {
	if err := p.validateInput(path); err != nil {
		return nil, err
	}
	return p.extractMetadata(ctx, path, p.runLogger(path))
}

// Process runs text, table, and metadata extraction against one source file.
// Table or metadata failures degrade the result and are logged; only text
// extraction errors and invalid input are fatal.
func (p *Pipeline) Process(ctx context.Context, path string) (*Document, error) {
	if err := p.validateInput(path); err != nil {
		return nil, err
	}
	logger := p.runLogger(path)

	text, err := p.extractText(ctx, path, logger)
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: path, Text: text, Tables: []Table{}}

	if tables, err := p.extractTables(ctx, path, logger); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		logger.Error("table extraction failed", "error", err)
	} else {
		doc.Tables = tables
	}

	if md, err := p.extractMetadata(ctx, path, logger); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		logger.Error("metadata extraction failed", "error", err)
	} else {
		doc.Metadata = md
	}

	return doc, nil
}

// validateInput rejects missing, oversized, or structurally broken input
// before any extractor touches it. These are the only fatal error paths.
func (p *Pipeline) validateInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect type %s: %w", path, err)
	}
	if !mtype.Is("application/pdf") {
		return fmt.Errorf("%w: %s is %s", ErrNotPDF, path, mtype)
	}
	if err := api.ValidateFile(path, p.pdfConf); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotPDF, path, err)
	}
	return nil
}

func (p *Pipeline) runLogger(path string) *slog.Logger {
	return p.logger.With("run_id", uuid.NewString(), "path", path)
}
