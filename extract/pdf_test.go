package extract

import (
	"strconv"
	"strings"
	"testing"
)

func TestPageAssembler_MarkersInOrder(t *testing.T) {
	// WHAT: Pages joined with "--- Page N ---" markers, blank-line separated,
	// in strictly increasing page order.
	// WHY: Page order is a correctness invariant of the aggregated output.
	var asm pageAssembler
	asm.add(1, "first page")
	asm.add(2, "second page")
	asm.add(3, "third page")

	got := asm.text()
	want := "--- Page 1 ---\nfirst page\n\n--- Page 2 ---\nsecond page\n\n--- Page 3 ---\nthird page"
	if got != want {
		t.Errorf("assembled text = %q, want %q", got, want)
	}

	last := -1
	for _, line := range strings.Split(got, "\n") {
		if !strings.HasPrefix(line, "--- Page ") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(line, "--- Page "), " ---"))
		if err != nil {
			t.Fatalf("bad marker %q: %v", line, err)
		}
		if n <= last {
			t.Errorf("marker order violated: page %d after %d", n, last)
		}
		last = n
	}
}

func TestPageAssembler_EmptyPageSkipped(t *testing.T) {
	// WHAT: A page with whitespace-only output contributes no marker.
	// WHY: Only pages with content get a marker+text block.
	var asm pageAssembler
	asm.add(1, "content")
	asm.add(2, "   \n\t ")
	asm.add(3, "more content")

	got := asm.text()
	if strings.Contains(got, "Page 2") {
		t.Errorf("empty page produced a marker: %q", got)
	}
	if !strings.Contains(got, "Page 1") || !strings.Contains(got, "Page 3") {
		t.Errorf("non-empty pages missing markers: %q", got)
	}
}

func TestPageAssembler_AllEmpty(t *testing.T) {
	// WHAT: All-empty pages yield an empty document text.
	// WHY: Empty aggregate output signals "no extractable text" upstream.
	var asm pageAssembler
	asm.add(1, "")
	asm.add(2, "  ")
	if asm.text() != "" {
		t.Errorf("expected empty text, got %q", asm.text())
	}
}

// buildTariffPDF creates a minimal valid single-page PDF with the given text
// and correct xref offsets.
func buildTariffPDF(text string) []byte {
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "(", `\(`)
	escaped = strings.ReplaceAll(escaped, ")", `\)`)

	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Length ")
	b.WriteString(itoa(len(stream)))
	b.WriteString(" >>\nstream\n")
	b.WriteString(stream)
	b.WriteString("\nendstream\nendobj\n")

	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(padOffset(offsets[i]))
		b.WriteString(" 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	b.WriteString(itoa(xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}

func padOffset(n int) string {
	s := itoa(n)
	for len(s) < 10 {
		s = "0" + s
	}
	return s
}
