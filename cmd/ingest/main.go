package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/medreport/internal/app"
	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	gcsURI := flag.String("gcs-uri", "", "GCS URI of the report or PDF (e.g. gs://bucket/EXP-1 Ana.docx)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log := app.Logger(cfg, os.Stderr)

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}
	docType, err := pipeline.DocumentType(*gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Unsupported document")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise application")
	}
	defer a.Close()

	log.Info().Str("gcs_uri", *gcsURI).Str("document_type", docType).Msg("Starting ingestion")

	var res *pipeline.Result
	if docType == bq.DocumentTypePDF {
		res, err = a.Service.SummarizePDFFromGCS(ctx, *gcsURI)
	} else {
		res, err = a.Service.IngestDocxFromGCS(ctx, *gcsURI)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Ingestion completed: document %s, run %s\n", res.DocumentID, res.RunID)
	if res.Table != nil {
		fmt.Printf("Visits: %d\n", res.Table.Visits())
	}
	for _, w := range res.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
}
