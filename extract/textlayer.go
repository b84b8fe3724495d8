package extract

import (
	"context"
	"log/slog"
)

// textLayer reads embedded text directly from the PDF, no rasterization.
// It is always available; a PDF without a text layer yields an empty string,
// which is a normal outcome, not a failure.
type textLayer struct {
	logger *slog.Logger
}

func (t *textLayer) Name() BackendName { return BackendTextLayer }
func (t *textLayer) Available() bool   { return true }

func (t *textLayer) Extract(ctx context.Context, path string) (string, error) {
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
		text, err := src.pageText(page)
		if err != nil {
			t.logger.Error("text layer page read failed", "page", page, "error", err)
			continue
		}
		asm.add(page, text)
	}
	return asm.text(), nil
}
