package extract

import "time"

// BackendName identifies a text-extraction strategy.
type BackendName string

const (
	BackendTextLayer BackendName = "text_layer"
	BackendPaddleOCR BackendName = "paddleocr"
	BackendTesseract BackendName = "tesseract"
)

// Capabilities is a snapshot of which backends are usable in this process.
// Computed once when the Pipeline is constructed, immutable afterward.
type Capabilities struct {
	DeepOCR      bool `json:"deep_ocr"`
	ClassicalOCR bool `json:"classical_ocr"`
	TextLayer    bool `json:"pdf_text_layer"`
	Tables       bool `json:"table_extraction"`
}

// TextResult is the outcome of running the extraction fallback chain on one
// document. Text is the per-page aggregated output with "--- Page N ---"
// markers in strictly increasing page order; an empty Text with a nil error
// means no backend could extract anything.
type TextResult struct {
	Text string `json:"text"`

	// Backend that produced Text; empty when nothing was extracted.
	Backend BackendName `json:"backend,omitempty"`

	// Attempted lists the backends invoked, in order.
	Attempted []BackendName `json:"attempted,omitempty"`

	// Quality carries text-layer extraction metrics when the text layer
	// was read, nil otherwise.
	Quality *ExtractionQuality `json:"quality,omitempty"`
}

// Table is one extracted table. Page numbers are 1-based. Headers is the
// first detected row; Rows are the remaining rows. RowCount and ColumnCount
// are redundant with the slices and provided for caller convenience.
type Table struct {
	Page        int        `json:"page"`
	Index       int        `json:"table_index"`
	Headers     []string   `json:"headers"`
	Rows        [][]string `json:"rows"`
	RowCount    int        `json:"row_count"`
	ColumnCount int        `json:"column_count"`
}

// Metadata holds document-level facts. Absent embedded fields stay at their
// zero values; they are never an error.
type Metadata struct {
	Filename         string        `json:"filename"`
	FileSize         int64         `json:"file_size"`
	PageCount        int           `json:"page_count"`
	HasTextLayer     bool          `json:"has_text_layer"`
	Title            string        `json:"title,omitempty"`
	Author           string        `json:"author,omitempty"`
	CreationDate     *time.Time    `json:"creation_date,omitempty"`
	ModificationDate *time.Time    `json:"modification_date,omitempty"`

	// Engines lists the backends enabled in this process, not necessarily
	// the ones invoked for this document.
	Engines []BackendName `json:"ocr_engines"`
}

// Document is the full result of processing one source file.
type Document struct {
	Path     string     `json:"path"`
	Text     TextResult `json:"text"`
	Tables   []Table    `json:"tables"`
	Metadata *Metadata  `json:"metadata,omitempty"`
}
