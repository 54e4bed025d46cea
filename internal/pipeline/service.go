package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/gcsuploader"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/report"
)

// ErrUnsupportedType is returned for files that are neither .docx nor .pdf.
var ErrUnsupportedType = errors.New("unsupported document type")

// ErrNoSummarizer is returned when a PDF must be summarised but no model is
// configured.
var ErrNoSummarizer = errors.New("summarizer not configured")

// Service is the entry point for storing and processing documents.
type Service struct {
	repo       bq.DocumentRepository
	storage    gcsuploader.StorageService
	summarizer PDFSummarizer
	opts       Options
}

// NewService creates a service. storage and summarizer may be nil; the
// operations that need them then fail with ErrNoStorage or ErrNoSummarizer.
func NewService(repo bq.DocumentRepository, storage gcsuploader.StorageService, summarizer PDFSummarizer, opts Options) *Service {
	return &Service{repo: repo, storage: storage, summarizer: summarizer, opts: opts}
}

// DocumentType maps a file name to the stored document type.
func DocumentType(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return bq.DocumentTypeDocx, nil
	case ".pdf":
		return bq.DocumentTypePDF, nil
	}
	return "", fmt.Errorf("%s: %w", filename, ErrUnsupportedType)
}

// IngestDocxFromGCS processes a single report stored in GCS.
// gcsURI should look like: "gs://bucket/path/to/report.docx".
func (s *Service) IngestDocxFromGCS(ctx context.Context, gcsURI string) (*Result, error) {
	return s.runDocx(ctx, &PipelineState{GCSURI: gcsURI, DocumentType: bq.DocumentTypeDocx})
}

// IngestDocx processes a report already in memory.
func (s *Service) IngestDocx(ctx context.Context, filename string, data []byte) (*Result, error) {
	return s.runDocx(ctx, &PipelineState{Filename: filename, Data: data, DocumentType: bq.DocumentTypeDocx})
}

// SummarizePDFFromGCS summarises a PDF stored in GCS.
func (s *Service) SummarizePDFFromGCS(ctx context.Context, gcsURI string) (*Result, error) {
	return s.runPDF(ctx, &PipelineState{GCSURI: gcsURI, DocumentType: bq.DocumentTypePDF})
}

// SummarizePDF summarises a PDF already in memory.
func (s *Service) SummarizePDF(ctx context.Context, filename string, data []byte) (*Result, error) {
	return s.runPDF(ctx, &PipelineState{Filename: filename, Data: data, DocumentType: bq.DocumentTypePDF})
}

// Process runs the pipeline matching the type of a stored document.
func (s *Service) Process(ctx context.Context, documentID string) (*Result, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("Process: %w", err)
	}
	state := &PipelineState{
		GCSURI:       doc.GCSURI,
		Filename:     doc.OriginalFilename,
		DocumentType: doc.DocumentType,
		DocumentID:   doc.DocumentID,
	}
	switch doc.DocumentType {
	case bq.DocumentTypeDocx:
		return s.runDocx(ctx, state)
	case bq.DocumentTypePDF:
		return s.runPDF(ctx, state)
	}
	return nil, fmt.Errorf("Process: %s: %w", doc.DocumentType, ErrUnsupportedType)
}

// Upload stores a file in GCS and registers it as a PENDING document. An
// identical file already stored is returned as is.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (*bq.DocumentRow, error) {
	docType, err := DocumentType(filename)
	if err != nil {
		return nil, fmt.Errorf("Upload: %w", err)
	}

	existing, err := s.repo.FindDocumentByChecksum(ctx, Checksum(data))
	if err != nil {
		return nil, fmt.Errorf("Upload: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	if s.storage == nil || s.opts.Bucket == "" {
		return nil, fmt.Errorf("Upload: %w", ErrNoStorage)
	}
	object := gcsuploader.ObjectName(s.opts.Prefix, filename)
	if err := s.storage.UploadBytes(ctx, s.opts.Bucket, object, data, gcsuploader.ContentType(filename)); err != nil {
		return nil, fmt.Errorf("Upload: %w", err)
	}

	row := newDocumentRow(filepath.Base(filename), gcsuploader.URI(s.opts.Bucket, object), docType, s.opts.SourceSystem, data)
	if err := s.repo.InsertDocument(ctx, row); err != nil {
		return nil, fmt.Errorf("Upload: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("document_id", row.DocumentID).
		Str("gcs_uri", row.GCSURI).
		Msg("Document uploaded")
	return row, nil
}

// LatestTable rebuilds the table of the last successful extraction of a
// report. It returns bq.ErrNotFound when the report was never processed.
func (s *Service) LatestTable(ctx context.Context, documentID string) (*report.Table, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("LatestTable: %w", err)
	}
	run, err := s.repo.LatestSucceededRun(ctx, documentID, bq.ExtractorDocx)
	if err != nil {
		return nil, fmt.Errorf("LatestTable: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("LatestTable: no successful run for %s: %w", documentID, bq.ErrNotFound)
	}
	rows, err := s.repo.ListFields(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("LatestTable: %w", err)
	}
	return TableFromFields(doc.DocumentNumber, doc.OriginalFilename, rows), nil
}

func (s *Service) runDocx(ctx context.Context, state *PipelineState) (*Result, error) {
	p := NewPipeline(s.repo,
		&FetchStep{Storage: s.storage},
		&DedupeStep{Repo: s.repo},
		&CreateDocumentStep{Repo: s.repo, SourceSystem: s.opts.SourceSystem},
		&StartRunStep{Repo: s.repo, Extractor: bq.ExtractorDocx},
		&ProcessDocxStep{},
		&BuildTableStep{},
		&StoreFieldsStep{Repo: s.repo},
		&MarkProcessedStep{Repo: s.repo},
	)
	if err := p.Execute(ctx, state); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("document_id", state.DocumentID).
		Str("run_id", state.RunID).
		Int("visits", state.Table.Visits()).
		Msg("Report processed")
	return state.result(), nil
}

func (s *Service) runPDF(ctx context.Context, state *PipelineState) (*Result, error) {
	if s.summarizer == nil {
		return nil, ErrNoSummarizer
	}
	p := NewPipeline(s.repo,
		&FetchStep{Storage: s.storage},
		&DedupeStep{Repo: s.repo},
		&CreateDocumentStep{Repo: s.repo, SourceSystem: s.opts.SourceSystem},
		&StartRunStep{Repo: s.repo, Extractor: bq.ExtractorSummary},
		&SummarizeStep{Summarizer: s.summarizer},
		&StoreSummaryStep{Repo: s.repo, Model: s.opts.SummaryModel},
		&MarkSummarizedStep{Repo: s.repo},
	)
	if err := p.Execute(ctx, state); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("document_id", state.DocumentID).
		Str("run_id", state.RunID).
		Int("sections", len(state.Summary.Sections)).
		Msg("PDF summarised")
	return state.result(), nil
}
