package mongo

import (
	"time"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/medreport/internal/bigquery"
)

type documentDoc struct {
	DocumentID       string     `bson:"document_id"`
	DocumentNumber   string     `bson:"document_number"`
	GCSURI           string     `bson:"gcs_uri,omitempty"`
	DocumentType     string     `bson:"document_type"`
	SourceSystem     string     `bson:"source_system,omitempty"`
	UploadTS         time.Time  `bson:"upload_ts"`
	ProcessedTS      *time.Time `bson:"processed_ts,omitempty"`
	Status           string     `bson:"status"`
	OriginalFilename string     `bson:"original_filename"`
	FileMimeType     string     `bson:"file_mime_type,omitempty"`
	SizeBytes        int64      `bson:"size_bytes"`
	ChecksumSHA256   string     `bson:"checksum_sha256"`
}

type runDoc struct {
	RunID            string     `bson:"run_id"`
	DocumentID       string     `bson:"document_id"`
	StartedTS        time.Time  `bson:"started_ts"`
	FinishedTS       *time.Time `bson:"finished_ts,omitempty"`
	Extractor        string     `bson:"extractor"`
	ExtractorVersion string     `bson:"extractor_version"`
	Status           string     `bson:"status"`
	ErrorMessage     string     `bson:"error_message,omitempty"`
	Visits           int64      `bson:"visits"`
	Warnings         []string   `bson:"warnings,omitempty"`
}

type fieldDoc struct {
	DocumentID string `bson:"document_id"`
	RunID      string `bson:"run_id"`
	VisitIndex int64  `bson:"visit_index"`
	Position   int64  `bson:"position"`
	Name       string `bson:"name"`
	Value      string `bson:"value"`
	IsNull     bool   `bson:"is_null"`
}

type summaryDoc struct {
	SummaryID  string    `bson:"summary_id"`
	DocumentID string    `bson:"document_id"`
	RunID      string    `bson:"run_id,omitempty"`
	Model      string    `bson:"model"`
	Markdown   string    `bson:"markdown"`
	Summary    string    `bson:"summary"`
	Sections   int64     `bson:"sections"`
	CreatedTS  time.Time `bson:"created_ts"`
}

func toDocument(r *bq.DocumentRow) documentDoc {
	return documentDoc{
		DocumentID:       r.DocumentID,
		DocumentNumber:   r.DocumentNumber,
		GCSURI:           r.GCSURI,
		DocumentType:     r.DocumentType,
		SourceSystem:     r.SourceSystem,
		UploadTS:         r.UploadTS,
		ProcessedTS:      timePtr(r.ProcessedTS),
		Status:           r.Status,
		OriginalFilename: r.OriginalFilename,
		FileMimeType:     r.FileMimeType,
		SizeBytes:        r.SizeBytes,
		ChecksumSHA256:   r.ChecksumSHA256,
	}
}

func (d documentDoc) row() *bq.DocumentRow {
	return &bq.DocumentRow{
		DocumentID:       d.DocumentID,
		DocumentNumber:   d.DocumentNumber,
		GCSURI:           d.GCSURI,
		DocumentType:     d.DocumentType,
		SourceSystem:     d.SourceSystem,
		UploadTS:         d.UploadTS,
		ProcessedTS:      nullTimestamp(d.ProcessedTS),
		Status:           d.Status,
		OriginalFilename: d.OriginalFilename,
		FileMimeType:     d.FileMimeType,
		SizeBytes:        d.SizeBytes,
		ChecksumSHA256:   d.ChecksumSHA256,
	}
}

func (d runDoc) row() *bq.ExtractionRunRow {
	return &bq.ExtractionRunRow{
		RunID:            d.RunID,
		DocumentID:       d.DocumentID,
		StartedTS:        d.StartedTS,
		FinishedTS:       nullTimestamp(d.FinishedTS),
		Extractor:        d.Extractor,
		ExtractorVersion: d.ExtractorVersion,
		Status:           d.Status,
		ErrorMessage:     d.ErrorMessage,
		Visits:           d.Visits,
		Warnings:         d.Warnings,
	}
}

func toField(r *bq.FieldRow) fieldDoc {
	return fieldDoc(*r)
}

func (d fieldDoc) row() *bq.FieldRow {
	r := bq.FieldRow(d)
	return &r
}

func toSummary(r *bq.SummaryRow) summaryDoc {
	return summaryDoc(*r)
}

func timePtr(ts bigquery.NullTimestamp) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Timestamp
	return &t
}

func nullTimestamp(t *time.Time) bigquery.NullTimestamp {
	if t == nil {
		return bigquery.NullTimestamp{}
	}
	return bigquery.NullTimestamp{Timestamp: *t, Valid: true}
}
