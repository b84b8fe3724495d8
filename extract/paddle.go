package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// paddleBackend runs layout-aware deep-learning OCR by submitting rasterized
// pages to a PaddleOCR serving endpoint. Angle classification is enabled
// server-side; recognition is restricted to the configured language.
type paddleBackend struct {
	url       string
	language  string
	dpi       float64
	minConf   float64
	pageWait  time.Duration
	client    *http.Client
	logger    *slog.Logger
	available bool
}

func newPaddleBackend(cfg Config, logger *slog.Logger) *paddleBackend {
	b := &paddleBackend{
		url:      strings.TrimRight(cfg.PaddleURL, "/"),
		language: cfg.PaddleLanguage,
		dpi:      cfg.RasterDPI,
		minConf:  cfg.MinLineConfidence,
		pageWait: cfg.PageTimeout,
		client:   &http.Client{Timeout: cfg.PageTimeout},
		logger:   logger,
	}
	if !cfg.UseDeepOCR {
		logger.Warn("deep OCR backend disabled by configuration")
		return b
	}
	if b.url == "" {
		logger.Warn("deep OCR backend has no serving URL configured")
		return b
	}
	b.available = b.probe()
	if b.available {
		logger.Info("deep OCR backend initialized", "url", b.url)
	} else {
		logger.Warn("deep OCR serving endpoint unreachable", "url", b.url)
	}
	return b
}

// probe checks that the serving endpoint answers HTTP at all. Any response,
// including an error status, proves the engine process is up.
func (b *paddleBackend) probe() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url+"/", nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (b *paddleBackend) Name() BackendName { return BackendPaddleOCR }
func (b *paddleBackend) Available() bool   { return b.available }

func (b *paddleBackend) Extract(ctx context.Context, path string) (string, error) {
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
		lines, err := b.recognize(ctx, raster)
		if err != nil {
			b.logger.Error("deep OCR recognition failed, skipping page", "page", page, "error", err)
			continue
		}
		asm.add(page, joinLines(lines, b.minConf))
	}
	return asm.text(), nil
}

// paddleLine is one recognized text line from the serving response.
type paddleLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type paddleResponse struct {
	Msg     string         `json:"msg"`
	Results [][]paddleLine `json:"results"`
	Status  string         `json:"status"`
}

// recognize submits one page raster to the /predict/ocr_system route.
func (b *paddleBackend) recognize(ctx context.Context, raster []byte) ([]paddleLine, error) {
	ctx, cancel := context.WithTimeout(ctx, b.pageWait)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"images": []string{base64.StdEncoding.EncodeToString(raster)},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url+"/predict/ocr_system", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-OCR-Language", b.language)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serving request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serving status %d: %s", resp.StatusCode, truncate(string(body), 512))
	}

	var pr paddleResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(pr.Results) == 0 {
		return nil, nil
	}
	return pr.Results[0], nil
}

// joinLines concatenates recognized lines in reading order. Lines below
// minConf are dropped; a zero minConf keeps everything.
func joinLines(lines []paddleLine, minConf float64) string {
	var sb strings.Builder
	for _, ln := range lines {
		if minConf > 0 && ln.Confidence < minConf {
			continue
		}
		if ln.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(ln.Text)
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
