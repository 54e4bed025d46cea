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
	"github.com/dvloznov/medreport/internal/notionsync"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides notion.token)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides notion.records_db_id)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log := app.Logger(cfg, os.Stderr)

	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.RecordsDB = *notionDBID
	}
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: --notion-token or NOTION_TOKEN is required")
	}
	if cfg.Notion.RecordsDB == "" {
		log.Fatal().Msg("Error: --notion-db-id or NOTION_RECORDS_DB_ID is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Bool("dry_run", *dryRun).Str("backend", cfg.Storage.Backend).Msg("Starting Notion sync")

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise application")
	}
	defer a.Close()

	notionClient := notionsync.NewClient(cfg.Notion.Token)

	stats, err := notionsync.SyncVisits(ctx, a.Repo, a.Service, notionClient, cfg.Notion.RecordsDB, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		stats.Created, stats.Updated, stats.Archived, stats.Failed)
}
