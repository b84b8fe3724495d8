package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrintableRatio_Normal(t *testing.T) {
	// WHAT: Normal text has a high printable ratio.
	// WHY: Baseline for quality scoring.
	ratio := computePrintableRatio("Wheat in bulk, Calgary to Vancouver, CAD 41.20 per tonne.")
	if ratio < 0.95 {
		t.Errorf("printable ratio = %f, want > 0.95", ratio)
	}
}

func TestPrintableRatio_Garbage(t *testing.T) {
	// WHAT: PUA and control characters drag the printable ratio down.
	// WHY: Detects garbled extraction from CIDFonts without ToUnicode maps.
	garbage := "abcdefghi\x01\x02\x03\x04\x05"
	ratio := computePrintableRatio(garbage)
	if ratio >= 0.85 {
		t.Errorf("printable ratio = %f, want < 0.85", ratio)
	}
}

func TestWordlikeRatio(t *testing.T) {
	// WHAT: Real phrases score high, char-by-char extraction scores low.
	// WHY: Distinguishes usable text from broken glyph runs.
	if ratio := computeWordlikeRatio("rates apply to carload traffic between stations"); ratio < 0.70 {
		t.Errorf("wordlike ratio = %f, want > 0.70", ratio)
	}
	if ratio := computeWordlikeRatio("a b c d e f g h i j k l"); ratio >= 0.40 {
		t.Errorf("wordlike ratio = %f, want < 0.40", ratio)
	}
}

func TestNeedsOCR(t *testing.T) {
	// WHAT: Low chars per page combined with image streams flags OCR.
	// WHY: Image-only scans carry almost no embedded text.
	q := &ExtractionQuality{
		CharsPerPage:    30,
		HasImageStreams: true,
		PrintableRatio:  0.9,
	}
	if !q.NeedsOCR() {
		t.Error("expected NeedsOCR=true for low chars + images")
	}

	q = &ExtractionQuality{
		CharsPerPage:    800,
		HasImageStreams: false,
		PrintableRatio:  0.99,
	}
	if q.NeedsOCR() {
		t.Error("expected NeedsOCR=false for dense clean text")
	}
}

func TestTextQuality_SyntheticPDF(t *testing.T) {
	// WHAT: textQuality reads page count from the document structure.
	// WHY: Chars-per-page must be normalized by the real page count.
	dir := t.TempDir()
	path := filepath.Join(dir, "q.pdf")
	if err := os.WriteFile(path, buildTariffPDF("quality fixture"), 0644); err != nil {
		t.Fatal(err)
	}

	q := textQuality(path, "four hundred useful characters of tariff text here")
	if q.PageCount != 1 {
		t.Errorf("page count = %d, want 1", q.PageCount)
	}
	if q.CharsPerPage <= 0 {
		t.Errorf("chars per page = %f, want > 0", q.CharsPerPage)
	}
	if q.HasImageStreams {
		t.Error("text-only fixture should have no image streams")
	}
}
