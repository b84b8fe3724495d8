package extract

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the extraction pipeline.
//
// The zero value is usable: the text layer is always read, but both OCR
// backends stay off until their Use flag is set. DefaultConfig returns a
// config with both backends enabled, matching the production deployment.
type Config struct {
	// UseDeepOCR enables the PaddleOCR backend. A disabled backend is
	// treated as unavailable even when the engine is reachable.
	UseDeepOCR bool `json:"use_deep_ocr" yaml:"use_deep_ocr"`

	// UseClassicalOCR enables the Tesseract backend.
	UseClassicalOCR bool `json:"use_classical_ocr" yaml:"use_classical_ocr"`

	// PaddleURL is the base URL of a PaddleOCR serving endpoint.
	PaddleURL string `json:"paddle_url" yaml:"paddle_url"`

	// Language is the Tesseract language code (default: eng).
	Language string `json:"language" yaml:"language"`

	// PaddleLanguage is the PaddleOCR language code (default: en).
	PaddleLanguage string `json:"paddle_language" yaml:"paddle_language"`

	// RasterDPI is the page rasterization resolution for OCR input
	// (default: 144, i.e. 2.0x zoom over the 72 dpi page space).
	RasterDPI float64 `json:"raster_dpi" yaml:"raster_dpi"`

	// TextLayerMinChars is the adequacy threshold for the text layer:
	// stripped output longer than this is accepted without OCR (default: 100).
	TextLayerMinChars int `json:"text_layer_min_chars" yaml:"text_layer_min_chars"`

	// OCRMinChars is the adequacy threshold for deep OCR output
	// (default: 50). The classical backend is the last resort and is
	// never gated.
	OCRMinChars int `json:"ocr_min_chars" yaml:"ocr_min_chars"`

	// HasTextLayerMinChars is the per-page threshold used by the metadata
	// probe to decide has_text_layer (default: 50).
	HasTextLayerMinChars int `json:"has_text_layer_min_chars" yaml:"has_text_layer_min_chars"`

	// TextLayerScanPages bounds how many leading pages the metadata probe
	// reads (default: 5).
	TextLayerScanPages int `json:"text_layer_scan_pages" yaml:"text_layer_scan_pages"`

	// MinLineConfidence drops recognized lines below this confidence from
	// deep OCR output. Zero keeps every line (default: 0).
	MinLineConfidence float64 `json:"min_line_confidence" yaml:"min_line_confidence"`

	// PageTimeout bounds a single page's recognition call (default: 60s).
	PageTimeout time.Duration `json:"page_timeout" yaml:"page_timeout"`

	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Logger for progress and diagnostics.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// DefaultConfig returns the production configuration: both OCR backends
// enabled, all thresholds at their defaults.
func DefaultConfig() Config {
	cfg := Config{
		UseDeepOCR:      true,
		UseClassicalOCR: true,
	}
	cfg.defaults()
	return cfg
}

func (c *Config) defaults() {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.PaddleLanguage == "" {
		c.PaddleLanguage = "en"
	}
	if c.RasterDPI <= 0 {
		c.RasterDPI = 144
	}
	if c.TextLayerMinChars <= 0 {
		c.TextLayerMinChars = 100
	}
	if c.OCRMinChars <= 0 {
		c.OCRMinChars = 50
	}
	if c.HasTextLayerMinChars <= 0 {
		c.HasTextLayerMinChars = 50
	}
	if c.TextLayerScanPages <= 0 {
		c.TextLayerScanPages = 5
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = 60 * time.Second
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}
