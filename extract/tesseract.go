package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// tesseractBackend runs classical OCR via the Tesseract engine, configured
// with a single-column text assumption. It is the last resort in the fallback
// chain and has the weakest layout handling.
type tesseractBackend struct {
	language  string
	dpi       float64
	pageWait  time.Duration
	logger    *slog.Logger
	available bool

	// recognize is swapped out in tests to avoid the native engine.
	recognize func(raster []byte) (string, error)
}

func newTesseractBackend(cfg Config, logger *slog.Logger) *tesseractBackend {
	b := &tesseractBackend{
		language: cfg.Language,
		dpi:      cfg.RasterDPI,
		pageWait: cfg.PageTimeout,
		logger:   logger,
	}
	b.recognize = b.recognizeGosseract
	if !cfg.UseClassicalOCR {
		logger.Warn("classical OCR backend disabled by configuration")
		return b
	}
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		logger.Warn("tesseract unavailable", "error", err)
		return b
	}
	if !slices.Contains(langs, b.language) {
		logger.Warn("tesseract language data missing", "language", b.language)
		return b
	}
	b.available = true
	logger.Info("classical OCR backend initialized", "language", b.language)
	return b
}

func (b *tesseractBackend) Name() BackendName { return BackendTesseract }
func (b *tesseractBackend) Available() bool   { return b.available }

func (b *tesseractBackend) Extract(ctx context.Context, path string) (string, error) {
	src, err := openSource(path)
	if err != nil {
		return "", err
	}
	defer src.close()

	var asm pageAssembler
	for page := 1; page <= src.pageCount(); page++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		raster, err := src.renderPage(page, b.dpi)
		if err != nil {
			var pre *PageRenderError
			if errors.As(err, &pre) {
				b.logger.Error("page render failed, skipping", "page", page, "error", err)
				continue
			}
			return "", err
		}
		text, err := b.recognizePage(raster)
		if err != nil {
			b.logger.Error("tesseract recognition failed, skipping page", "page", page, "error", err)
			continue
		}
		asm.add(page, text)
	}
	return asm.text(), nil
}

// recognizePage bounds one recognition call with the page timeout. On
// timeout the in-flight engine call keeps running but its result is
// discarded; the page contributes no content.
func (b *tesseractBackend) recognizePage(raster []byte) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := b.recognize(raster)
		done <- outcome{text, err}
	}()
	select {
	case o := <-done:
		return o.text, o.err
	case <-time.After(b.pageWait):
		return "", fmt.Errorf("recognition timed out after %s", b.pageWait)
	}
}

func (b *tesseractBackend) recognizeGosseract(raster []byte) (string, error) {
	c := gosseract.NewClient()
	defer c.Close()

	if err := c.SetLanguage(b.language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	// Single uniform block of text.
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	if err := c.SetImageFromBytes(raster); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
