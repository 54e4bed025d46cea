package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/medreport/internal/api/handlers"
	"github.com/dvloznov/medreport/internal/api/middleware"
	"github.com/dvloznov/medreport/internal/app"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/gdrive"
	"github.com/dvloznov/medreport/internal/jobs"
	"github.com/dvloznov/medreport/internal/jobs/inmemory"
	"github.com/dvloznov/medreport/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (defaults plus environment when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log := app.Logger(cfg, os.Stdout)

	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise application")
	}
	defer a.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.Options{Workers: cfg.Server.Workers})

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.NewDocumentHandler(a.Service)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	// Initialize handlers
	maxBytes := cfg.Server.MaxUploadBytes
	documentsHandler := handlers.NewDocumentsHandler(a.Repo, a.Service, jobQueue, maxBytes, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)
	extractHandler := handlers.NewExtractHandler(maxBytes, log)
	reportsHandler := handlers.NewReportsHandler(cfg, gdrive.NewFetcher(), log)
	summariesHandler := handlers.NewSummariesHandler(a.PDFSummarizer(), maxBytes, log)
	doctorsHandler := handlers.NewDoctorsHandler(cfg)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/api/extract", only(http.MethodPost, extractHandler.Extract))
	mux.HandleFunc("/api/reports", only(http.MethodPost, reportsHandler.Generate))
	mux.HandleFunc("/api/summaries", only(http.MethodPost, summariesHandler.Summarize))
	mux.HandleFunc("/api/doctors", only(http.MethodGet, doctorsHandler.ListDoctors))

	mux.HandleFunc("/api/documents", only(http.MethodGet, documentsHandler.ListDocuments))
	mux.HandleFunc("/api/documents/upload", only(http.MethodPost, documentsHandler.UploadDocument))
	mux.HandleFunc("/api/documents/process", only(http.MethodPost, documentsHandler.EnqueueProcessing))

	mux.HandleFunc("/api/jobs", only(http.MethodGet, jobsHandler.ListJobs))
	mux.HandleFunc("/api/jobs/", only(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	}))

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
		middleware.Auth(cfg.Server.APIKey),
	)

	port := strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Bool("auth", cfg.Server.APIKey != "").Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

// only rejects requests whose method is not method.
func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			handlers.MethodNotAllowed(w)
			return
		}
		h(w, r)
	}
}
