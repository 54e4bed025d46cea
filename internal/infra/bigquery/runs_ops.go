package bigquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// StartExtractionRun inserts a run with status=RUNNING and returns the
// generated run_id.
func (r *BigQueryDocumentRepository) StartExtractionRun(ctx context.Context, documentID, extractor string) (string, error) {
	runID := uuid.NewString()

	sql := fmt.Sprintf(`
		INSERT %s (
			run_id,
			document_id,
			started_ts,
			extractor,
			extractor_version,
			status,
			visits
		)
		VALUES (
			@run_id,
			@document_id,
			@started_ts,
			@extractor,
			@extractor_version,
			@status,
			0
		)
	`, r.table(extractionRunsTable))

	err := r.exec(ctx, sql,
		bigquery.QueryParameter{Name: "run_id", Value: runID},
		bigquery.QueryParameter{Name: "document_id", Value: documentID},
		bigquery.QueryParameter{Name: "started_ts", Value: time.Now()},
		bigquery.QueryParameter{Name: "extractor", Value: extractor},
		bigquery.QueryParameter{Name: "extractor_version", Value: ExtractorVersion},
		bigquery.QueryParameter{Name: "status", Value: bq.RunRunning},
	)
	if err != nil {
		return "", fmt.Errorf("StartExtractionRun: %w", err)
	}
	return runID, nil
}

// MarkExtractionRunFailed sets status=FAILED, finished_ts and error_message.
func (r *BigQueryDocumentRepository) MarkExtractionRunFailed(ctx context.Context, runID string, runErr error) {
	log := logger.FromContext(ctx)

	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, r.table(extractionRunsTable))

	err := r.exec(ctx, sql,
		bigquery.QueryParameter{Name: "status", Value: bq.RunFailed},
		bigquery.QueryParameter{Name: "finished_ts", Value: time.Now()},
		bigquery.QueryParameter{Name: "error_message", Value: bq.TruncateError(runErr)},
		bigquery.QueryParameter{Name: "run_id", Value: runID},
	)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkExtractionRunFailed: updating run")
	}
}

// MarkExtractionRunSucceeded sets status=SUCCESS, finished_ts, the visit count
// and warnings, and clears error_message.
func (r *BigQueryDocumentRepository) MarkExtractionRunSucceeded(ctx context.Context, runID string, visits int, warnings []string) error {
	if warnings == nil {
		warnings = []string{}
	}

	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    visits = @visits,
		    warnings = @warnings
		WHERE run_id = @run_id
	`, r.table(extractionRunsTable))

	err := r.exec(ctx, sql,
		bigquery.QueryParameter{Name: "status", Value: bq.RunSuccess},
		bigquery.QueryParameter{Name: "finished_ts", Value: time.Now()},
		bigquery.QueryParameter{Name: "visits", Value: visits},
		bigquery.QueryParameter{Name: "warnings", Value: warnings},
		bigquery.QueryParameter{Name: "run_id", Value: runID},
	)
	if err != nil {
		return fmt.Errorf("MarkExtractionRunSucceeded: %w", err)
	}
	return nil
}

// MarkExtractionRunsAsSuperseded marks every finished run of the document as
// SUPERSEDED. Running runs are left alone.
func (r *BigQueryDocumentRepository) MarkExtractionRunsAsSuperseded(ctx context.Context, documentID string) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @superseded
		WHERE document_id = @document_id
		  AND status != @running
	`, r.table(extractionRunsTable))

	err := r.exec(ctx, sql,
		bigquery.QueryParameter{Name: "superseded", Value: bq.RunSuperseded},
		bigquery.QueryParameter{Name: "document_id", Value: documentID},
		bigquery.QueryParameter{Name: "running", Value: bq.RunRunning},
	)
	if err != nil {
		return fmt.Errorf("MarkExtractionRunsAsSuperseded: %w", err)
	}
	return nil
}

// LatestSucceededRun returns the newest successful run of the extractor.
func (r *BigQueryDocumentRepository) LatestSucceededRun(ctx context.Context, documentID, extractor string) (*ExtractionRunRow, error) {
	query := fmt.Sprintf(`
		SELECT
			run_id,
			document_id,
			started_ts,
			finished_ts,
			extractor,
			extractor_version,
			status,
			error_message,
			visits,
			warnings
		FROM %s
		WHERE document_id = @document_id
		  AND extractor = @extractor
		  AND status = @status
		ORDER BY started_ts DESC
		LIMIT 1
	`, r.table(extractionRunsTable))

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
		{Name: "extractor", Value: extractor},
		{Name: "status", Value: bq.RunSuccess},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("LatestSucceededRun: reading query: %w", err)
	}

	var row ExtractionRunRow
	err = it.Next(&row)
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestSucceededRun: reading row: %w", err)
	}
	return &row, nil
}
