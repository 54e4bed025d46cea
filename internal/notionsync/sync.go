// Package notionsync mirrors the visits of processed reports into a Notion
// database, one page per visit.
package notionsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"

	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/report"
)

// TableLoader returns the latest extracted table of a document.
// *pipeline.Service implements it.
type TableLoader interface {
	LatestTable(ctx context.Context, documentID string) (*report.Table, error)
}

// Stats counts what a sync did, or would do in dry-run mode.
type Stats struct {
	Created  int
	Updated  int
	Archived int
	Failed   int
}

// SyncVisits mirrors every visit of the processed reports in repo to the
// Notion database. It:
//  1. loads the latest table of each processed report;
//  2. archives pages whose record no longer exists, and duplicates;
//  3. updates pages already present and creates the rest.
//
// Failures on single pages are logged and counted; the sync carries on.
func SyncVisits(ctx context.Context, repo bq.DocumentRepository, tables TableLoader, notionClient NotionService, notionDBID string, dryRun bool) (*Stats, error) {
	log := logger.FromContext(ctx)
	log.Info().Bool("dry_run", dryRun).Msg("Starting visit sync to Notion")

	records, err := collectRecords(ctx, repo, tables)
	if err != nil {
		return nil, err
	}
	log.Info().Int("record_count", len(records)).Msg("Collected visit records")

	valid := make(map[string]bool, len(records))
	for _, r := range records {
		valid[r.RecordID()] = true
	}

	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return nil, fmt.Errorf("failed to query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	stats := &Stats{}
	existing := make(map[string]string)
	for _, page := range notionPages {
		recordID := extractRecordID(page)
		_, dup := existing[recordID]
		if recordID != "" && valid[recordID] && !dup {
			existing[recordID] = string(page.ID)
			continue
		}

		pageLog := log.With().Str("record_id", recordID).Str("page_id", string(page.ID)).Logger()
		if dryRun {
			pageLog.Info().Msg("[DRY RUN] Would archive stale Notion page")
			stats.Archived++
			continue
		}
		if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
			pageLog.Warn().Err(err).Msg("Failed to archive stale Notion page")
			stats.Failed++
			continue
		}
		pageLog.Info().Msg("Archived stale Notion page")
		stats.Archived++
	}

	for _, r := range records {
		recordID := r.RecordID()
		pageID, found := existing[recordID]
		recLog := log.With().Str("record_id", recordID).Logger()

		if dryRun {
			if found {
				recLog.Info().Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
				stats.Updated++
			} else {
				recLog.Info().Msg("[DRY RUN] Would create Notion page")
				stats.Created++
			}
			continue
		}

		props := VisitToNotionProperties(r)
		if found {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				recLog.Warn().Err(err).Str("page_id", pageID).Msg("Failed to update Notion page")
				stats.Failed++
				continue
			}
			stats.Updated++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			recLog.Warn().Err(err).Msg("Failed to create Notion page")
			stats.Failed++
			continue
		}
		recLog.Debug().Str("page_id", string(page.ID)).Msg("Created Notion page")
		stats.Created++
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg("Visit sync completed")
	return stats, nil
}

// collectRecords builds the records of every processed report. Reports
// without a successful run are skipped.
func collectRecords(ctx context.Context, repo bq.DocumentRepository, tables TableLoader) ([]VisitRecord, error) {
	docs, err := repo.ListAllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	var records []VisitRecord
	for _, doc := range docs {
		if doc.DocumentType != bq.DocumentTypeDocx || doc.Status != bq.StatusProcessed {
			continue
		}
		t, err := tables.LatestTable(ctx, doc.DocumentID)
		if errors.Is(err, bq.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load table of %s: %w", doc.DocumentID, err)
		}
		records = append(records, VisitRecords(doc, t)...)
	}
	return records, nil
}

// queryAllNotionPages queries all pages from a Notion database, following
// pagination.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return allPages, nil
}
