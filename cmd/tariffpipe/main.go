package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hazyhaar/tariffpipe/extract"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	paddleURL := flag.String("paddle-url", "", "PaddleOCR serving URL (enables deep OCR)")
	noClassical := flag.Bool("no-classical", false, "disable the Tesseract backend")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall processing timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}
	command, path := flag.Arg(0), flag.Arg(1)
	if command != "caps" && path == "" {
		printUsage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := extract.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = extract.LoadConfig(*configPath)
		if err != nil {
			logger.Error("config load failed", "error", err)
			os.Exit(1)
		}
	}
	if *paddleURL != "" {
		cfg.UseDeepOCR = true
		cfg.PaddleURL = *paddleURL
	}
	if *noClassical {
		cfg.UseClassicalOCR = false
	}
	cfg.Logger = logger

	pipe := extract.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var out any
	var err error
	switch command {
	case "text":
		out, err = pipe.ExtractText(ctx, path)
	case "tables":
		out, err = pipe.ExtractTables(ctx, path)
	case "meta":
		out, err = pipe.ExtractMetadata(ctx, path)
	case "process":
		out, err = pipe.Process(ctx, path)
	case "caps":
		out = pipe.Capabilities()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("extraction failed", "command", command, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `tariffpipe — extract text, tables, and metadata from tariff PDFs

usage:
  tariffpipe [flags] <command> [file.pdf]

commands:
  text     run the text extraction fallback chain
  tables   detect and extract tables per page
  meta     document metadata only
  process  text + tables + metadata in one pass
  caps     report backend availability

flags:
`)
	flag.PrintDefaults()
}
