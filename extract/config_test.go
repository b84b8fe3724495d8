package extract

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	// WHAT: Zero-value config gets working thresholds; OCR flags stay off.
	// WHY: New(Config{}) must yield a usable text-layer-only pipeline.
	var cfg Config
	cfg.defaults()

	if cfg.TextLayerMinChars != 100 {
		t.Errorf("TextLayerMinChars = %d, want 100", cfg.TextLayerMinChars)
	}
	if cfg.OCRMinChars != 50 {
		t.Errorf("OCRMinChars = %d, want 50", cfg.OCRMinChars)
	}
	if cfg.HasTextLayerMinChars != 50 {
		t.Errorf("HasTextLayerMinChars = %d, want 50", cfg.HasTextLayerMinChars)
	}
	if cfg.TextLayerScanPages != 5 {
		t.Errorf("TextLayerScanPages = %d, want 5", cfg.TextLayerScanPages)
	}
	if cfg.RasterDPI != 144 {
		t.Errorf("RasterDPI = %f, want 144", cfg.RasterDPI)
	}
	if cfg.Language != "eng" || cfg.PaddleLanguage != "en" {
		t.Errorf("languages = %q/%q, want eng/en", cfg.Language, cfg.PaddleLanguage)
	}
	if cfg.PageTimeout != 60*time.Second {
		t.Errorf("PageTimeout = %s, want 60s", cfg.PageTimeout)
	}
	if cfg.UseDeepOCR || cfg.UseClassicalOCR {
		t.Error("zero-value config must not enable OCR backends")
	}
	if cfg.Logger == nil {
		t.Error("expected default logger")
	}
}

func TestDefaultConfig(t *testing.T) {
	// WHAT: DefaultConfig enables both OCR backends.
	// WHY: Matches the production deployment defaults.
	cfg := DefaultConfig()
	if !cfg.UseDeepOCR || !cfg.UseClassicalOCR {
		t.Error("DefaultConfig must enable both OCR backends")
	}
}

func TestLoadConfig(t *testing.T) {
	// WHAT: YAML config loads and missing keys fall back to defaults.
	// WHY: Deployments tune thresholds per document corpus.
	dir := t.TempDir()
	path := filepath.Join(dir, "tariffpipe.yaml")
	yaml := `
use_deep_ocr: true
paddle_url: http://127.0.0.1:8866
text_layer_min_chars: 250
min_line_confidence: 0.5
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.UseDeepOCR || cfg.UseClassicalOCR {
		t.Errorf("flags = %v/%v, want deep on, classical off", cfg.UseDeepOCR, cfg.UseClassicalOCR)
	}
	if cfg.PaddleURL != "http://127.0.0.1:8866" {
		t.Errorf("PaddleURL = %q", cfg.PaddleURL)
	}
	if cfg.TextLayerMinChars != 250 {
		t.Errorf("TextLayerMinChars = %d, want 250", cfg.TextLayerMinChars)
	}
	if cfg.MinLineConfidence != 0.5 {
		t.Errorf("MinLineConfidence = %f, want 0.5", cfg.MinLineConfidence)
	}
	if cfg.OCRMinChars != 50 {
		t.Errorf("OCRMinChars = %d, want default 50", cfg.OCRMinChars)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
