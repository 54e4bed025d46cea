package pipeline

import (
	"context"

	"github.com/dvloznov/medreport/internal/summarizer"
)

// PDFSummarizer turns a PDF into a structured summary.
// *summarizer.Summarizer implements it.
type PDFSummarizer interface {
	Summarize(ctx context.Context, filename string, pdf []byte) (*summarizer.Summary, error)
}

// Options holds the deployment settings the pipeline needs.
type Options struct {
	// Bucket receives uploads. Upload fails when it is empty.
	Bucket string
	// Prefix is prepended to uploaded object names.
	Prefix string
	// SourceSystem is recorded on new documents.
	SourceSystem string
	// SummaryModel is recorded on stored summaries.
	SummaryModel string
}
