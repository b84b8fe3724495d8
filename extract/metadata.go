package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/djherbis/times"
)

// metaSource is the slice of a document handle that metadata extraction
// reads. Stubbed in tests; *source is the production implementation.
type metaSource interface {
	pageCount() int
	pageText(page int) (string, error)
	metadata() map[string]string
	close()
}

// extractMetadata gathers document-level facts: filesystem size, page count,
// embedded properties, and a bounded probe for a usable text layer. Absent
// embedded fields stay at their zero values.
func (p *Pipeline) extractMetadata(ctx context.Context, path string, logger *slog.Logger) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	src, err := p.openMeta(path)
	if err != nil {
		return nil, err
	}
	defer src.close()

	md := &Metadata{
		Filename:  filepath.Base(path),
		FileSize:  info.Size(),
		PageCount: src.pageCount(),
		Engines:   p.enabledBackends(),
	}

	// Probe the leading pages only; one adequate page settles the flag, so
	// large scans never cost more than a handful of page reads.
	scan := p.cfg.TextLayerScanPages
	if scan > md.PageCount {
		scan = md.PageCount
	}
	for page := 1; page <= scan; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		text, err := src.pageText(page)
		if err != nil {
			logger.Error("metadata page probe failed", "page", page, "error", err)
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(text)) > p.cfg.HasTextLayerMinChars {
			md.HasTextLayer = true
			break
		}
	}

	embedded := src.metadata()
	md.Title = strings.TrimSpace(embedded["title"])
	md.Author = strings.TrimSpace(embedded["author"])
	md.CreationDate = parsePDFDate(embedded["creationDate"])
	md.ModificationDate = parsePDFDate(embedded["modDate"])

	// No embedded dates: fall back to filesystem timestamps.
	if md.CreationDate == nil && md.ModificationDate == nil {
		if ts, err := times.Stat(path); err == nil {
			mod := ts.ModTime()
			md.ModificationDate = &mod
			if ts.HasBirthTime() {
				birth := ts.BirthTime()
				md.CreationDate = &birth
			}
		}
	}

	logger.Info("metadata extracted",
		"pages", md.PageCount,
		"size", md.FileSize,
		"has_text_layer", md.HasTextLayer)
	return md, nil
}

func (p *Pipeline) enabledBackends() []BackendName {
	names := []BackendName{}
	for _, st := range p.stages {
		if st.backend.Available() {
			names = append(names, st.backend.Name())
		}
	}
	return names
}

// parsePDFDate parses a PDF date string such as "D:20240321154500+02'00'".
// Every component after the year is optional; an unparsable value yields nil.
func parsePDFDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "D:")
	if len(s) < 4 {
		return nil
	}

	digits := func(from, n, def int) int {
		if len(s) < from+n {
			return def
		}
		v, err := strconv.Atoi(s[from : from+n])
		if err != nil {
			return def
		}
		return v
	}

	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return nil
	}
	month := digits(4, 2, 1)
	if month < 1 || month > 12 {
		month = 1
	}
	day := digits(6, 2, 1)
	if day < 1 || day > 31 {
		day = 1
	}
	hour := digits(8, 2, 0)
	minute := digits(10, 2, 0)
	second := digits(12, 2, 0)

	loc := time.UTC
	if len(s) > 14 {
		loc = parsePDFZone(s[14:])
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	return &t
}

// parsePDFZone parses the trailing zone part: "Z", "+HH'mm'", or "-HH'mm'".
func parsePDFZone(z string) *time.Location {
	if z == "" || z[0] == 'Z' {
		return time.UTC
	}
	sign := 1
	switch z[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return time.UTC
	}
	z = strings.ReplaceAll(z[1:], "'", "")
	if len(z) < 2 {
		return time.UTC
	}
	hh, err := strconv.Atoi(z[0:2])
	if err != nil {
		return time.UTC
	}
	mm := 0
	if len(z) >= 4 {
		if v, err := strconv.Atoi(z[2:4]); err == nil {
			mm = v
		}
	}
	return time.FixedZone("", sign*(hh*3600+mm*60))
}
