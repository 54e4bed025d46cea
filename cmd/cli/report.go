package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/medreport/internal/docxfill"
	"github.com/dvloznov/medreport/internal/gdrive"
	"github.com/dvloznov/medreport/internal/summarizer"
)

func runReport(args []string) error {
	fs, configPath := newFlagSet("report")
	templatePath := fs.String("template", "", "the .docx template with {{field}} placeholders (required)")
	sourcePath := fs.String("source", "", "the filled assessment report (required)")
	doctorName := fs.String("doctor", "", "registered doctor who signs the report (required)")
	column := fs.Int("column", -1, "visit column, starting at 0 (defaults to the last visit)")
	expediente := fs.String("expediente", "", "case number")
	provided := fs.String("aportada", "", "documentation provided")
	missing := fs.String("no-aportada", "", "documentation not provided")
	outDir := fs.String("out", ".", "output folder")
	fs.Parse(args)

	if *templatePath == "" || *sourcePath == "" || *doctorName == "" {
		return fmt.Errorf("usage: cli report -template T.docx -source R.docx -doctor NAME [-column N]")
	}

	e, err := setup(*configPath, 5*time.Minute)
	if err != nil {
		return err
	}
	defer e.cancel()

	doctor, err := e.cfg.FindDoctor(*doctorName)
	if err != nil {
		return fmt.Errorf("%w; registered: %v", err, e.cfg.DoctorNames())
	}
	template, err := os.ReadFile(*templatePath)
	if err != nil {
		return err
	}
	table, err := tableFromFile(e, *sourcePath)
	if err != nil {
		return err
	}

	visit := *column
	if visit < 0 {
		visit = table.Visits() - 1
	}
	extra := docxfill.ExtraFor(doctor, *expediente, *provided, *missing)
	res, err := docxfill.Fill(e.ctx, template, table, visit, extra, docxfill.SignatureFor(doctor, gdrive.NewFetcher()))
	if err != nil {
		return err
	}

	out := filepath.Join(*outDir, res.Filename)
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Println(out)
	return nil
}

func runSummarize(args []string) error {
	fs, configPath := newFlagSet("summarize")
	store := fs.Bool("store", false, "record the document and its summary in the repository")
	outDir := fs.String("out", "", "output folder (defaults to the PDF's folder)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: cli summarize [-store] [-out DIR] evidence.pdf")
	}
	path := fs.Arg(0)

	e, err := setup(*configPath, 10*time.Minute)
	if err != nil {
		return err
	}
	defer e.cancel()

	pdf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var summary *summarizer.Summary
	if *store {
		a, err := e.wire()
		if err != nil {
			return err
		}
		defer a.Close()
		res, err := a.Service.SummarizePDF(e.ctx, filepath.Base(path), pdf)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "document %s, run %s\n", res.DocumentID, res.RunID)
		summary = res.Summary
	} else {
		s, err := newSummarizer(e)
		if err != nil {
			return err
		}
		if summary, err = s.Summarize(e.ctx, filepath.Base(path), pdf); err != nil {
			return err
		}
	}

	out := filepath.Join(outputDir(*outDir, filepath.Dir(path)), summarizer.SummaryFilename(path))
	if err := os.WriteFile(out, []byte(summary.Text), 0o644); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
