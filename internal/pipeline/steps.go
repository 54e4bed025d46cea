package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/gcsuploader"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/processor"
	"github.com/dvloznov/medreport/internal/report"
	"github.com/google/uuid"
)

// ErrNoStorage is returned when bytes must be fetched or uploaded but no
// object storage is configured.
var ErrNoStorage = errors.New("object storage not configured")

// Step 1: FetchStep downloads the file from GCS unless the bytes are
// already in the state.
type FetchStep struct {
	Storage gcsuploader.StorageService
}

func (s *FetchStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Data) > 0 {
		return nil
	}
	if s.Storage == nil {
		return fmt.Errorf("FetchStep: %w", ErrNoStorage)
	}
	data, err := s.Storage.FetchFromGCS(ctx, state.GCSURI)
	if err != nil {
		return err
	}
	state.Data = data
	if state.Filename == "" {
		state.Filename = s.Storage.ExtractFilenameFromGCSURI(state.GCSURI)
	}
	return nil
}

// Step 2: DedupeStep computes the checksum and reuses a document already
// stored with it. Earlier runs of a reused document are superseded.
type DedupeStep struct {
	Repo bq.DocumentRepository
}

func (s *DedupeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Checksum = Checksum(state.Data)
	if state.DocumentID != "" {
		return s.Repo.MarkExtractionRunsAsSuperseded(ctx, state.DocumentID)
	}

	existing, err := s.Repo.FindDocumentByChecksum(ctx, state.Checksum)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("document_id", existing.DocumentID).
		Str("checksum", state.Checksum).
		Msg("Document already stored, reprocessing")
	state.DocumentID = existing.DocumentID
	state.Reused = true
	if state.GCSURI == "" {
		state.GCSURI = existing.GCSURI
	}
	return s.Repo.MarkExtractionRunsAsSuperseded(ctx, existing.DocumentID)
}

// Step 3: CreateDocumentStep inserts the document row unless one exists.
type CreateDocumentStep struct {
	Repo         bq.DocumentRepository
	SourceSystem string
}

func (s *CreateDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.DocumentID != "" {
		return nil
	}
	row := newDocumentRow(state.Filename, state.GCSURI, state.DocumentType, s.SourceSystem, state.Data)
	if err := s.Repo.InsertDocument(ctx, row); err != nil {
		return fmt.Errorf("CreateDocumentStep: %w", err)
	}
	state.DocumentID = row.DocumentID
	return nil
}

// Step 4: StartRunStep starts an extraction run (status=RUNNING).
type StartRunStep struct {
	Repo      bq.DocumentRepository
	Extractor string
}

func (s *StartRunStep) Execute(ctx context.Context, state *PipelineState) error {
	runID, err := s.Repo.StartExtractionRun(ctx, state.DocumentID, s.Extractor)
	if err != nil {
		return err
	}
	state.RunID = runID
	return nil
}

// Step 5: ProcessDocxStep reads the fields of the report.
type ProcessDocxStep struct{}

func (s *ProcessDocxStep) Execute(ctx context.Context, state *PipelineState) error {
	outcome, err := processor.Process(ctx, state.Filename, state.Data)
	if err != nil {
		return err
	}
	state.Outcome = outcome
	return nil
}

// Step 6: BuildTableStep builds the transposed table and collects warnings.
type BuildTableStep struct{}

func (s *BuildTableStep) Execute(ctx context.Context, state *PipelineState) error {
	table, warnings, err := report.Build(state.Outcome)
	if err != nil {
		return err
	}
	state.Table = table
	state.Warnings = append(state.Warnings, warnings...)
	state.Warnings = append(state.Warnings, ValidateTable(table)...)

	log := logger.FromContext(ctx)
	for _, w := range state.Warnings {
		log.Warn().Str("document_id", state.DocumentID).Msg(w)
	}
	return nil
}

// Step 7: StoreFieldsStep writes every table cell as a field row.
type StoreFieldsStep struct {
	Repo bq.DocumentRepository
}

func (s *StoreFieldsStep) Execute(ctx context.Context, state *PipelineState) error {
	return s.Repo.InsertFields(ctx, FieldRows(state.DocumentID, state.RunID, state.Table))
}

// Step 8: MarkProcessedStep marks the run as SUCCESS and the document as
// PROCESSED.
type MarkProcessedStep struct {
	Repo bq.DocumentRepository
}

func (s *MarkProcessedStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Repo.MarkExtractionRunSucceeded(ctx, state.RunID, state.Table.Visits(), state.Warnings); err != nil {
		return err
	}
	return s.Repo.UpdateDocumentStatus(ctx, state.DocumentID, bq.StatusProcessed)
}

// SummarizeStep transcribes and summarises a PDF.
type SummarizeStep struct {
	Summarizer PDFSummarizer
}

func (s *SummarizeStep) Execute(ctx context.Context, state *PipelineState) error {
	summary, err := s.Summarizer.Summarize(ctx, state.Filename, state.Data)
	if err != nil {
		return err
	}
	state.Summary = summary
	return nil
}

// StoreSummaryStep stores the summary of the run.
type StoreSummaryStep struct {
	Repo  bq.DocumentRepository
	Model string
}

func (s *StoreSummaryStep) Execute(ctx context.Context, state *PipelineState) error {
	return s.Repo.InsertSummary(ctx, &bq.SummaryRow{
		SummaryID:  uuid.NewString(),
		DocumentID: state.DocumentID,
		RunID:      state.RunID,
		Model:      s.Model,
		Markdown:   state.Summary.Markdown,
		Summary:    state.Summary.Text,
		Sections:   int64(len(state.Summary.Sections)),
		CreatedTS:  time.Now(),
	})
}

// MarkSummarizedStep marks the run as SUCCESS and the document as
// SUMMARIZED.
type MarkSummarizedStep struct {
	Repo bq.DocumentRepository
}

func (s *MarkSummarizedStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Repo.MarkExtractionRunSucceeded(ctx, state.RunID, 0, state.Warnings); err != nil {
		return err
	}
	return s.Repo.UpdateDocumentStatus(ctx, state.DocumentID, bq.StatusSummarized)
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newDocumentRow(filename, gcsURI, documentType, sourceSystem string, data []byte) *bq.DocumentRow {
	number := ""
	if documentType == bq.DocumentTypeDocx {
		number = processor.DocumentNumber(filename)
	}
	return &bq.DocumentRow{
		DocumentID:       uuid.NewString(),
		DocumentNumber:   number,
		GCSURI:           gcsURI,
		DocumentType:     documentType,
		SourceSystem:     sourceSystem,
		UploadTS:         time.Now(),
		Status:           bq.StatusPending,
		OriginalFilename: filename,
		FileMimeType:     gcsuploader.ContentType(filename),
		SizeBytes:        int64(len(data)),
		ChecksumSHA256:   Checksum(data),
	}
}
