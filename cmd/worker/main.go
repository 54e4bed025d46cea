package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/medreport/internal/app"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/jobs"
	"github.com/dvloznov/medreport/internal/jobs/inmemory"
	"github.com/dvloznov/medreport/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to the YAML config file")
		interval   = flag.Duration("interval", 30*time.Second, "how often to look for pending documents")
		workers    = flag.Int("workers", 0, "number of concurrent jobs (defaults to server.workers)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log := app.Logger(cfg, os.Stdout)

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise application")
	}
	defer a.Close()

	if *workers <= 0 {
		*workers = cfg.Server.Workers
	}

	// Pending documents come from the shared repository; the queue only
	// spreads them over the local workers.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.Options{Workers: *workers})

	log.Info().Dur("interval", *interval).Int("workers", *workers).Msg("Starting worker service")

	if err := jobQueue.Start(ctx, jobs.NewDocumentHandler(a.Service)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	poller := jobs.NewPoller(a.Repo, jobQueue)
	go poller.Run(ctx, *interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	log.Info().Msg("Worker service exited")
}
