package bigquery

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/bigquery"
)

// ErrNotFound is returned when a document or run does not exist.
var ErrNotFound = errors.New("not found")

// Document types.
const (
	DocumentTypeDocx = "DOCX_REPORT"
	DocumentTypePDF  = "PDF_EVIDENCE"
)

// Document statuses.
const (
	StatusPending    = "PENDING"
	StatusProcessed  = "PROCESSED"
	StatusSummarized = "SUMMARIZED"
	StatusFailed     = "FAILED"
)

// Extraction run statuses.
const (
	RunRunning    = "RUNNING"
	RunSuccess    = "SUCCESS"
	RunFailed     = "FAILED"
	RunSuperseded = "SUPERSEDED"
)

// Extractor types recorded on a run.
const (
	ExtractorDocx    = "DOCX_FIELDS"
	ExtractorSummary = "GEMINI_SUMMARY"
)

// DocumentRepository stores uploaded documents, their extraction runs and
// what each run produced.
type DocumentRepository interface {
	// InsertDocument inserts a single DocumentRow.
	InsertDocument(ctx context.Context, row *DocumentRow) error

	// GetDocument returns the document or ErrNotFound.
	GetDocument(ctx context.Context, documentID string) (*DocumentRow, error)

	// FindDocumentByChecksum returns nil when no document has the checksum.
	FindDocumentByChecksum(ctx context.Context, checksum string) (*DocumentRow, error)

	// ListAllDocuments returns documents, newest upload first.
	ListAllDocuments(ctx context.Context) ([]*DocumentRow, error)

	// UpdateDocumentStatus sets the status and the processed timestamp.
	UpdateDocumentStatus(ctx context.Context, documentID, status string) error

	// DeleteDocument removes a document with its runs, fields and summaries.
	DeleteDocument(ctx context.Context, documentID string) error

	// StartExtractionRun inserts a run with status=RUNNING and returns its ID.
	StartExtractionRun(ctx context.Context, documentID, extractor string) (string, error)

	// MarkExtractionRunFailed sets status=FAILED and the error message.
	// Failures to record are logged, not returned.
	MarkExtractionRunFailed(ctx context.Context, runID string, runErr error)

	// MarkExtractionRunSucceeded sets status=SUCCESS with the visit count and
	// the warnings raised while building the table.
	MarkExtractionRunSucceeded(ctx context.Context, runID string, visits int, warnings []string) error

	// MarkExtractionRunsAsSuperseded marks all finished runs of a document as
	// SUPERSEDED.
	MarkExtractionRunsAsSuperseded(ctx context.Context, documentID string) error

	// LatestSucceededRun returns nil when the document has no successful run
	// of the extractor.
	LatestSucceededRun(ctx context.Context, documentID, extractor string) (*ExtractionRunRow, error)

	// InsertFields stores the cells of a transposed table.
	InsertFields(ctx context.Context, rows []*FieldRow) error

	// ListFields returns the cells of a run ordered by visit and position.
	ListFields(ctx context.Context, runID string) ([]*FieldRow, error)

	// InsertSummary stores a PDF summary.
	InsertSummary(ctx context.Context, row *SummaryRow) error

	// Close releases the underlying client.
	Close() error
}

// DocumentRow represents an uploaded file.
type DocumentRow struct {
	DocumentID     string `bigquery:"document_id" json:"document_id"`
	DocumentNumber string `bigquery:"document_number" json:"document_number"`
	GCSURI         string `bigquery:"gcs_uri" json:"gcs_uri"`

	DocumentType string `bigquery:"document_type" json:"document_type"`
	SourceSystem string `bigquery:"source_system" json:"source_system"`

	UploadTS    time.Time              `bigquery:"upload_ts" json:"upload_ts"`
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts" json:"processed_ts"`

	Status string `bigquery:"status" json:"status"`

	OriginalFilename string `bigquery:"original_filename" json:"original_filename"`
	FileMimeType     string `bigquery:"file_mime_type" json:"file_mime_type"`
	SizeBytes        int64  `bigquery:"size_bytes" json:"size_bytes"`

	ChecksumSHA256 string `bigquery:"checksum_sha256" json:"checksum_sha256"`
}

// ExtractionRunRow represents one attempt at processing a document.
type ExtractionRunRow struct {
	RunID      string `bigquery:"run_id" json:"run_id"`
	DocumentID string `bigquery:"document_id" json:"document_id"`

	StartedTS  time.Time              `bigquery:"started_ts" json:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts" json:"finished_ts"`

	Extractor        string `bigquery:"extractor" json:"extractor"`
	ExtractorVersion string `bigquery:"extractor_version" json:"extractor_version"`

	Status       string `bigquery:"status" json:"status"`
	ErrorMessage string `bigquery:"error_message" json:"error_message,omitempty"`

	Visits   int64    `bigquery:"visits" json:"visits"`
	Warnings []string `bigquery:"warnings" json:"warnings,omitempty"`
}

// FieldRow is one cell of a transposed table: the value of a field for a
// visit. Position keeps the row order of the table.
type FieldRow struct {
	DocumentID string `bigquery:"document_id" json:"document_id"`
	RunID      string `bigquery:"run_id" json:"run_id"`
	VisitIndex int64  `bigquery:"visit_index" json:"visit_index"`
	Position   int64  `bigquery:"position" json:"position"`
	Name       string `bigquery:"name" json:"name"`
	Value      string `bigquery:"value" json:"value"`
	IsNull     bool   `bigquery:"is_null" json:"is_null"`
}

// SummaryRow is a stored PDF summary.
type SummaryRow struct {
	SummaryID  string    `bigquery:"summary_id" json:"summary_id"`
	DocumentID string    `bigquery:"document_id" json:"document_id"`
	RunID      string    `bigquery:"run_id" json:"run_id"`
	Model      string    `bigquery:"model" json:"model"`
	Markdown   string    `bigquery:"markdown" json:"markdown"`
	Summary    string    `bigquery:"summary" json:"summary"`
	Sections   int64     `bigquery:"sections" json:"sections"`
	CreatedTS  time.Time `bigquery:"created_ts" json:"created_ts"`
}

// TruncateError shortens an error message to fit the error_message column.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const maxLen = 2000
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
