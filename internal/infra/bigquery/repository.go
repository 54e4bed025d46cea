package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/medreport/internal/bigquery"
)

// Re-export the shared types so callers need a single import.
type (
	DocumentRepository = bq.DocumentRepository
	DocumentRow        = bq.DocumentRow
	ExtractionRunRow   = bq.ExtractionRunRow
	FieldRow           = bq.FieldRow
	SummaryRow         = bq.SummaryRow
)

// Table names inside the dataset.
const (
	documentsTable      = "documents"
	extractionRunsTable = "extraction_runs"
	fieldsTable         = "fields"
	summariesTable      = "summaries"
)

// ExtractorVersion is recorded on every run started by this build.
const ExtractorVersion = "v1"

// BigQueryDocumentRepository implements DocumentRepository on BigQuery. It
// holds a shared client so each operation reuses the same connection.
type BigQueryDocumentRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryDocumentRepository creates a repository for the dataset.
func NewBigQueryDocumentRepository(ctx context.Context, projectID, datasetID string) (*BigQueryDocumentRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryDocumentRepository: creating client: %w", err)
	}
	return NewWithClient(client, projectID, datasetID), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *bigquery.Client, projectID, datasetID string) *BigQueryDocumentRepository {
	return &BigQueryDocumentRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}
}

// Close closes the BigQuery client connection.
func (r *BigQueryDocumentRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// table returns the fully qualified, backquoted table name for SQL.
func (r *BigQueryDocumentRepository) table(name string) string {
	return qualified(r.projectID, r.datasetID, name)
}

func qualified(projectID, datasetID, table string) string {
	return fmt.Sprintf("`%s.%s.%s`", projectID, datasetID, table)
}

// exec runs a DML statement and waits for it to finish.
func (r *BigQueryDocumentRepository) exec(ctx context.Context, sql string, params ...bigquery.QueryParameter) error {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

var _ DocumentRepository = (*BigQueryDocumentRepository)(nil)
