package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/medreport/internal/app"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/summarizer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML config file")
	pdfPath := flag.String("file", "", "path to the local PDF (required)")
	outDir := flag.String("out", "", "directory for the summary (defaults to the PDF's directory)")
	markdown := flag.Bool("markdown", false, "also write the transcription as .md")
	flag.Parse()

	if *pdfPath == "" {
		return fmt.Errorf("-file is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := app.Logger(cfg, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	pdf, err := os.ReadFile(*pdfPath)
	if err != nil {
		return fmt.Errorf("failed to read PDF at %q: %w", *pdfPath, err)
	}

	s, err := app.NewSummarizer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}

	summary, err := s.Summarize(ctx, filepath.Base(*pdfPath), pdf)
	if err != nil {
		return err
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(*pdfPath)
	}
	out := filepath.Join(dir, summarizer.SummaryFilename(*pdfPath))
	if err := os.WriteFile(out, []byte(summary.Text), 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if *markdown {
		md := out[:len(out)-len(filepath.Ext(out))] + ".md"
		if err := os.WriteFile(md, []byte(summary.Markdown), 0o644); err != nil {
			return fmt.Errorf("writing transcription: %w", err)
		}
	}

	log.Info().Str("file", out).Int("sections", len(summary.Sections)).Msg("Summary written")
	fmt.Println(out)
	return nil
}
