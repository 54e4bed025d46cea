package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/medreport/internal/app"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/logger"
)

func main() {
	var (
		configPath string
		filePath   string
		bucket     string
	)
	flag.StringVar(&configPath, "config", "", "path to the YAML config file")
	flag.StringVar(&filePath, "file", "", "path to the local .docx or .pdf file (required)")
	flag.StringVar(&bucket, "bucket", "", "GCS bucket (overrides gcp.bucket)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log := app.Logger(cfg, os.Stderr)

	if bucket != "" {
		cfg.GCP.Bucket = bucket
	}
	if filePath == "" || cfg.GCP.Bucket == "" {
		log.Fatal().Msg("Usage: upload -file /path/to/report.docx [-bucket BUCKET_NAME]")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise application")
	}
	defer a.Close()

	log.Info().Str("bucket", cfg.GCP.Bucket).Str("file", filePath).Msg("Uploading file to GCS")

	doc, err := a.Service.Upload(ctx, filePath, data)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s (document %s, status %s)\n", filePath, doc.GCSURI, doc.DocumentID, doc.Status)
}
