package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/pipeline"
)

// DocumentProcessor runs the pipeline for a stored document.
// *pipeline.Service implements it.
type DocumentProcessor interface {
	Process(ctx context.Context, documentID string) (*pipeline.Result, error)
}

// NewDocumentHandler returns a JobHandler that processes DocumentJobs with p.
func NewDocumentHandler(p DocumentProcessor) JobHandler {
	return func(ctx context.Context, job Job) error {
		dj, ok := job.(*DocumentJob)
		if !ok {
			return fmt.Errorf("unexpected job %T", job)
		}

		ctx = logger.WithContextFields(ctx, map[string]interface{}{
			"job_id":      dj.JobID,
			"document_id": dj.DocumentID,
		})
		res, err := p.Process(ctx, dj.DocumentID)
		if err != nil {
			return err
		}
		dj.RunID = res.RunID
		return nil
	}
}
