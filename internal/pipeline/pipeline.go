// Package pipeline runs stored documents through extraction or
// summarisation and records every attempt as an extraction run.
package pipeline

import (
	"context"
	"fmt"

	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/processor"
	"github.com/dvloznov/medreport/internal/report"
	"github.com/dvloznov/medreport/internal/summarizer"
)

// PipelineStep represents a single step in a pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	GCSURI       string
	Filename     string
	DocumentType string
	Data         []byte
	Checksum     string

	DocumentID string
	// Reused is set when a document with the same checksum already existed.
	Reused bool
	RunID  string

	Outcome  *processor.Outcome
	Table    *report.Table
	Warnings []string
	Summary  *summarizer.Summary
}

// Result is what a finished pipeline reports back.
type Result struct {
	DocumentID string              `json:"document_id"`
	RunID      string              `json:"run_id"`
	Reused     bool                `json:"reused"`
	Table      *report.Table       `json:"table,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
	Summary    *summarizer.Summary `json:"summary,omitempty"`
}

func (s *PipelineState) result() *Result {
	return &Result{
		DocumentID: s.DocumentID,
		RunID:      s.RunID,
		Reused:     s.Reused,
		Table:      s.Table,
		Warnings:   s.Warnings,
		Summary:    s.Summary,
	}
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	repo  bq.DocumentRepository
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps. repo records
// failures of steps that run after a run was started.
func NewPipeline(repo bq.DocumentRepository, steps ...PipelineStep) *Pipeline {
	return &Pipeline{repo: repo, steps: steps}
}

// Execute runs all steps in the pipeline sequentially. Once a run exists, a
// failing step marks the run FAILED and the document FAILED.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			p.fail(ctx, state, err)
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, state *PipelineState, err error) {
	if state.RunID == "" {
		return
	}
	log := logger.FromContext(ctx)
	log.Error().Err(err).
		Str("document_id", state.DocumentID).
		Str("run_id", state.RunID).
		Msg("Pipeline run failed")

	p.repo.MarkExtractionRunFailed(ctx, state.RunID, err)
	if uerr := p.repo.UpdateDocumentStatus(ctx, state.DocumentID, bq.StatusFailed); uerr != nil {
		log.Error().Err(uerr).Str("document_id", state.DocumentID).Msg("Failed to update document status")
	}
}
