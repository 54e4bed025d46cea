package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/pipeline"
)

// ForDocument creates the queued job that processes doc: field extraction
// for reports, summaries for PDFs.
func ForDocument(doc *bq.DocumentRow) (*DocumentJob, error) {
	var jobType JobType
	switch doc.DocumentType {
	case bq.DocumentTypeDocx:
		jobType = JobTypeProcessDocument
	case bq.DocumentTypePDF:
		jobType = JobTypeSummarizeDocument
	default:
		return nil, fmt.Errorf("ForDocument: %q: %w", doc.DocumentType, pipeline.ErrUnsupportedType)
	}
	return &DocumentJob{
		JobID:      uuid.NewString(),
		Type:       jobType,
		DocumentID: doc.DocumentID,
		GCSURI:     doc.GCSURI,
		Status:     JobStatusQueued,
		CreatedAt:  time.Now(),
	}, nil
}

// DocumentLister lists stored documents.
type DocumentLister interface {
	ListAllDocuments(ctx context.Context) ([]*bq.DocumentRow, error)
}

// Poller publishes a job for every PENDING document. Each document is
// published once per Poller.
type Poller struct {
	docs      DocumentLister
	publisher Publisher

	mu        sync.Mutex
	published map[string]bool
}

// NewPoller creates a poller.
func NewPoller(docs DocumentLister, publisher Publisher) *Poller {
	return &Poller{docs: docs, publisher: publisher, published: make(map[string]bool)}
}

// PollOnce publishes the pending documents not seen before and returns how
// many it published.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	docs, err := p.docs.ListAllDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("PollOnce: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, doc := range docs {
		if doc.Status != bq.StatusPending || p.published[doc.DocumentID] {
			continue
		}
		job, err := ForDocument(doc)
		if err != nil {
			log.Warn().Err(err).Str("document_id", doc.DocumentID).Msg("Skipping document")
			p.published[doc.DocumentID] = true
			continue
		}
		if err := p.publisher.Publish(ctx, job); err != nil {
			return n, fmt.Errorf("PollOnce: %w", err)
		}
		p.published[doc.DocumentID] = true
		n++
		log.Info().
			Str("job_id", job.JobID).
			Str("document_id", doc.DocumentID).
			Str("job_type", string(job.Type)).
			Msg("Job enqueued")
	}
	return n, nil
}

// Run polls every interval until ctx is cancelled. Poll errors are logged.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.PollOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Polling documents failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
