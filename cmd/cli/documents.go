package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/medreport/internal/app"
	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/pipeline"
	"github.com/dvloznov/medreport/internal/summarizer"
)

func newSummarizer(e *env) (*summarizer.Summarizer, error) {
	return app.NewSummarizer(e.ctx, e.cfg)
}

func runUpload(args []string) error {
	fs, configPath := newFlagSet("upload")
	bucket := fs.String("bucket", "", "GCS bucket (overrides gcp.bucket)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: cli upload [-bucket NAME] FILE")
	}
	path := fs.Arg(0)

	e, err := setup(*configPath, 5*time.Minute)
	if err != nil {
		return err
	}
	defer e.cancel()
	if *bucket != "" {
		e.cfg.GCP.Bucket = *bucket
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	a, err := e.wire()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.Service.Upload(e.ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %s to %s (document %s, status %s)\n", path, doc.GCSURI, doc.DocumentID, doc.Status)
	return nil
}

func runIngest(args []string) error {
	fs, configPath := newFlagSet("ingest")
	gcsURI := fs.String("gcs-uri", "", "process a report or PDF stored in GCS")
	file := fs.String("file", "", "process a local report or PDF")
	documentID := fs.String("document-id", "", "re-process a stored document")
	fs.Parse(args)

	e, err := setup(*configPath, 10*time.Minute)
	if err != nil {
		return err
	}
	defer e.cancel()

	a, err := e.wire()
	if err != nil {
		return err
	}
	defer a.Close()

	var res *pipeline.Result
	switch {
	case *documentID != "":
		res, err = a.Service.Process(e.ctx, *documentID)
	case *gcsURI != "":
		res, err = ingestGCS(e, a, *gcsURI)
	case *file != "":
		res, err = ingestFile(e, a, *file)
	default:
		return fmt.Errorf("one of -gcs-uri, -file or -document-id is required")
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ingestion completed: document %s, run %s", res.DocumentID, res.RunID)
	if res.Reused {
		fmt.Print(" (already stored)")
	}
	fmt.Println()
	if res.Table != nil {
		fmt.Printf("Visits: %d\n", res.Table.Visits())
	}
	for _, w := range res.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	return nil
}

func ingestGCS(e *env, a *app.App, uri string) (*pipeline.Result, error) {
	docType, err := pipeline.DocumentType(uri)
	if err != nil {
		return nil, err
	}
	if docType == bq.DocumentTypePDF {
		return a.Service.SummarizePDFFromGCS(e.ctx, uri)
	}
	return a.Service.IngestDocxFromGCS(e.ctx, uri)
}

func ingestFile(e *env, a *app.App, path string) (*pipeline.Result, error) {
	docType, err := pipeline.DocumentType(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if docType == bq.DocumentTypePDF {
		return a.Service.SummarizePDF(e.ctx, filepath.Base(path), data)
	}
	return a.Service.IngestDocx(e.ctx, filepath.Base(path), data)
}

func runDoctors(args []string) error {
	fs, configPath := newFlagSet("doctors")
	fs.Parse(args)

	e, err := setup(*configPath, time.Minute)
	if err != nil {
		return err
	}
	defer e.cancel()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tNUMBER\tSIGNATURE")
	for _, d := range e.cfg.Doctors {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Number, d.SignatureURL)
	}
	return tw.Flush()
}

func runListDocuments(args []string) error {
	fs, configPath := newFlagSet("list-documents")
	status := fs.String("status", "", "only documents with this status (PENDING, PROCESSED, SUMMARIZED, FAILED)")
	fs.Parse(args)

	e, err := setup(*configPath, time.Minute)
	if err != nil {
		return err
	}
	defer e.cancel()

	a, err := e.wire()
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.Repo.ListAllDocuments(e.ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tTYPE\tSTATUS\tUPLOADED\tFILE")
	for _, d := range docs {
		if *status != "" && d.Status != *status {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.DocumentID, d.DocumentNumber, d.DocumentType, d.Status,
			d.UploadTS.Format(time.RFC3339), d.OriginalFilename)
	}
	return tw.Flush()
}
