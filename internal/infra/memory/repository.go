// Package memory is an in-process document repository. It backs the
// "none" storage backend and tests; data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/google/uuid"
)

// Repository implements bq.DocumentRepository in memory. It is safe for
// concurrent use; rows are copied in and out.
type Repository struct {
	mu        sync.RWMutex
	documents map[string]*bq.DocumentRow
	runs      map[string]*bq.ExtractionRunRow
	runOrder  []string
	fields    []*bq.FieldRow
	summaries []*bq.SummaryRow
	now       func() time.Time
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		documents: make(map[string]*bq.DocumentRow),
		runs:      make(map[string]*bq.ExtractionRunRow),
		now:       time.Now,
	}
}

func (r *Repository) Close() error { return nil }

func (r *Repository) InsertDocument(ctx context.Context, row *bq.DocumentRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.documents[row.DocumentID]; exists {
		return fmt.Errorf("InsertDocument: duplicate document_id %s", row.DocumentID)
	}
	for _, d := range r.documents {
		if row.ChecksumSHA256 != "" && d.ChecksumSHA256 == row.ChecksumSHA256 {
			return fmt.Errorf("InsertDocument: duplicate checksum %s", row.ChecksumSHA256)
		}
	}
	c := *row
	r.documents[row.DocumentID] = &c
	return nil
}

func (r *Repository) GetDocument(ctx context.Context, documentID string) (*bq.DocumentRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.documents[documentID]
	if !ok {
		return nil, fmt.Errorf("GetDocument: %s: %w", documentID, bq.ErrNotFound)
	}
	c := *d
	return &c, nil
}

func (r *Repository) FindDocumentByChecksum(ctx context.Context, checksum string) (*bq.DocumentRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.documents {
		if d.ChecksumSHA256 == checksum {
			c := *d
			return &c, nil
		}
	}
	return nil, nil
}

func (r *Repository) ListAllDocuments(ctx context.Context) ([]*bq.DocumentRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*bq.DocumentRow, 0, len(r.documents))
	for _, d := range r.documents {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadTS.Equal(out[j].UploadTS) {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].UploadTS.After(out[j].UploadTS)
	})
	return out, nil
}

func (r *Repository) UpdateDocumentStatus(ctx context.Context, documentID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.documents[documentID]
	if !ok {
		return fmt.Errorf("UpdateDocumentStatus: %s: %w", documentID, bq.ErrNotFound)
	}
	d.Status = status
	d.ProcessedTS = bigquery.NullTimestamp{Timestamp: r.now(), Valid: true}
	return nil
}

func (r *Repository) DeleteDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.documents, documentID)

	order := r.runOrder[:0]
	for _, id := range r.runOrder {
		if r.runs[id].DocumentID == documentID {
			delete(r.runs, id)
			continue
		}
		order = append(order, id)
	}
	r.runOrder = order

	fields := r.fields[:0]
	for _, f := range r.fields {
		if f.DocumentID != documentID {
			fields = append(fields, f)
		}
	}
	r.fields = fields

	summaries := r.summaries[:0]
	for _, s := range r.summaries {
		if s.DocumentID != documentID {
			summaries = append(summaries, s)
		}
	}
	r.summaries = summaries
	return nil
}

func (r *Repository) StartExtractionRun(ctx context.Context, documentID, extractor string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.runs[id] = &bq.ExtractionRunRow{
		RunID:            id,
		DocumentID:       documentID,
		StartedTS:        r.now(),
		Extractor:        extractor,
		ExtractorVersion: "v1",
		Status:           bq.RunRunning,
	}
	r.runOrder = append(r.runOrder, id)
	return id, nil
}

func (r *Repository) MarkExtractionRunFailed(ctx context.Context, runID string, runErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run, ok := r.runs[runID]; ok {
		run.Status = bq.RunFailed
		run.ErrorMessage = bq.TruncateError(runErr)
		run.FinishedTS = bigquery.NullTimestamp{Timestamp: r.now(), Valid: true}
	}
}

func (r *Repository) MarkExtractionRunSucceeded(ctx context.Context, runID string, visits int, warnings []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return fmt.Errorf("MarkExtractionRunSucceeded: %s: %w", runID, bq.ErrNotFound)
	}
	run.Status = bq.RunSuccess
	run.ErrorMessage = ""
	run.Visits = int64(visits)
	run.Warnings = append([]string(nil), warnings...)
	run.FinishedTS = bigquery.NullTimestamp{Timestamp: r.now(), Valid: true}
	return nil
}

func (r *Repository) MarkExtractionRunsAsSuperseded(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, run := range r.runs {
		if run.DocumentID == documentID && run.Status != bq.RunRunning {
			run.Status = bq.RunSuperseded
		}
	}
	return nil
}

func (r *Repository) LatestSucceededRun(ctx context.Context, documentID, extractor string) (*bq.ExtractionRunRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.runOrder) - 1; i >= 0; i-- {
		run := r.runs[r.runOrder[i]]
		if run.DocumentID == documentID && run.Extractor == extractor && run.Status == bq.RunSuccess {
			c := *run
			return &c, nil
		}
	}
	return nil, nil
}

// Runs returns the runs of a document in start order.
func (r *Repository) Runs(documentID string) []*bq.ExtractionRunRow {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*bq.ExtractionRunRow
	for _, id := range r.runOrder {
		if run := r.runs[id]; run.DocumentID == documentID {
			c := *run
			out = append(out, &c)
		}
	}
	return out
}

func (r *Repository) InsertFields(ctx context.Context, rows []*bq.FieldRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		c := *row
		r.fields = append(r.fields, &c)
	}
	return nil
}

func (r *Repository) ListFields(ctx context.Context, runID string) ([]*bq.FieldRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*bq.FieldRow
	for _, f := range r.fields {
		if f.RunID == runID {
			c := *f
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].VisitIndex != out[j].VisitIndex {
			return out[i].VisitIndex < out[j].VisitIndex
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *Repository) InsertSummary(ctx context.Context, row *bq.SummaryRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *row
	r.summaries = append(r.summaries, &c)
	return nil
}

// Summaries returns the stored summaries of a document.
func (r *Repository) Summaries(documentID string) []*bq.SummaryRow {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*bq.SummaryRow
	for _, s := range r.summaries {
		if s.DocumentID == documentID {
			c := *s
			out = append(out, &c)
		}
	}
	return out
}

var _ bq.DocumentRepository = (*Repository)(nil)
