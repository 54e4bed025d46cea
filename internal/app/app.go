// Package app wires configuration into the repository, storage, model and
// pipeline used by the commands.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/gcsuploader"
	infraBQ "github.com/dvloznov/medreport/internal/infra/bigquery"
	"github.com/dvloznov/medreport/internal/infra/memory"
	"github.com/dvloznov/medreport/internal/infra/mongo"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/pipeline"
	"github.com/dvloznov/medreport/internal/summarizer"
)

// SourceSystem is recorded on every stored document.
const SourceSystem = "MEDREPORT"

// App holds the wired dependencies. Storage and Summarizer are nil when
// they are not configured.
type App struct {
	Config     *config.Config
	Repo       bq.DocumentRepository
	Storage    gcsuploader.StorageService
	Summarizer *summarizer.Summarizer
	Service    *pipeline.Service

	closers []func() error
}

// Logger builds the process logger: JSON when configured, console otherwise.
func Logger(cfg *config.Config, w io.Writer) zerolog.Logger {
	if cfg.Log.JSON {
		return logger.NewJSON(w, cfg.Log.Level)
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(logger.ParseLevel(cfg.Log.Level)).With().Timestamp().Logger()
}

// NewRepository opens the document repository of the configured backend.
func NewRepository(ctx context.Context, cfg *config.Config) (bq.DocumentRepository, error) {
	switch cfg.Storage.Backend {
	case config.BackendBigQuery:
		return infraBQ.NewBigQueryDocumentRepository(ctx, cfg.GCP.ProjectID, cfg.GCP.Dataset)
	case config.BackendMongo:
		return mongo.NewRepository(ctx, cfg.Storage.Mongo)
	case config.BackendNone, "":
		return memory.NewRepository(), nil
	}
	return nil, fmt.Errorf("NewRepository: unknown storage backend %q", cfg.Storage.Backend)
}

// NewSummarizer creates the Gemini-backed summarizer.
func NewSummarizer(ctx context.Context, cfg *config.Config) (*summarizer.Summarizer, error) {
	model, err := summarizer.NewGeminiModel(ctx)
	if err != nil {
		return nil, err
	}
	return summarizer.New(model, cfg.Gemini), nil
}

// New wires everything cfg enables. A model that cannot be created is
// logged and left out; the PDF operations then fail with
// pipeline.ErrNoSummarizer.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{Config: cfg}

	repo, err := NewRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	a.Repo = repo
	a.closers = append(a.closers, repo.Close)

	if cfg.GCP.Bucket != "" {
		storage, err := gcsuploader.NewGCSStorageService(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("New: %w", err)
		}
		a.Storage = storage
		a.closers = append(a.closers, storage.Close)
	} else {
		log.Warn().Msg("No GCS bucket configured - document uploads are disabled")
	}

	sum, err := NewSummarizer(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Gemini unavailable - PDF summaries are disabled")
	} else {
		a.Summarizer = sum
	}

	a.Service = pipeline.NewService(a.Repo, a.Storage, a.PDFSummarizer(), pipeline.Options{
		Bucket:       cfg.GCP.Bucket,
		Prefix:       cfg.GCP.Prefix,
		SourceSystem: SourceSystem,
		SummaryModel: cfg.Gemini.Model,
	})

	log.Info().
		Str("backend", cfg.Storage.Backend).
		Bool("storage", a.Storage != nil).
		Bool("summaries", a.Summarizer != nil).
		Msg("Application wired")
	return a, nil
}

// PDFSummarizer returns the summarizer as an interface, nil when it is not
// configured.
func (a *App) PDFSummarizer() pipeline.PDFSummarizer {
	if a.Summarizer == nil {
		return nil
	}
	return a.Summarizer
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
