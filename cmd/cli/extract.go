package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/medreport/internal/processor"
	"github.com/dvloznov/medreport/internal/report"
	"github.com/dvloznov/medreport/internal/tui"
)

func runExtract(args []string) error {
	fs, configPath := newFlagSet("extract")
	dir := fs.String("dir", "", "process every .docx in this folder")
	toXLSX := fs.Bool("xlsx", false, "write the transposed table(s) as .xlsx")
	toJSON := fs.Bool("json", false, "print the table as JSON")
	raw := fs.Bool("raw", false, "with -dir: write one flat sheet with every visit of every report")
	outDir := fs.String("out", "", "output folder (defaults to the input folder)")
	workers := fs.Int("workers", 4, "reports processed concurrently with -dir")
	fs.Parse(args)

	e, err := setup(*configPath, 10*time.Minute)
	if err != nil {
		return err
	}
	defer e.cancel()

	if *dir != "" {
		return extractDir(e, *dir, *outDir, *workers, *raw, *toXLSX)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: cli extract [-xlsx] [-json] [-out DIR] report.docx | cli extract -dir DIR [-raw]")
	}

	path := fs.Arg(0)
	table, err := tableFromFile(e, path)
	if err != nil {
		return err
	}

	if *toXLSX {
		out := filepath.Join(outputDir(*outDir, filepath.Dir(path)), report.XLSXFilename(path))
		if err := writeFile(out, func(w io.Writer) error { return report.WriteXLSX(w, table) }); err != nil {
			return err
		}
		fmt.Println(out)
	}
	if *toJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}
	if !*toXLSX {
		return printTable(os.Stdout, table)
	}
	return nil
}

func extractDir(e *env, dir, outDir string, workers int, raw, toXLSX bool) error {
	outcomes, failures, err := processor.ProcessDir(e.ctx, dir, workers)
	if err != nil {
		return err
	}
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "skipped %s\n", f.Error())
	}
	out := outputDir(outDir, dir)

	if raw {
		frame := report.BuildRaw(outcomes...)
		path := filepath.Join(out, report.RawXLSXFilename(dir))
		if err := writeFile(path, func(w io.Writer) error { return report.WriteRawXLSX(w, frame) }); err != nil {
			return err
		}
		fmt.Printf("%s (%d rows from %d reports)\n", path, len(frame.Rows), len(outcomes))
		return nil
	}

	for _, o := range outcomes {
		table, warnings, err := report.Build(o)
		for _, w := range warnings {
			e.log.Warn().Str("file", o.SourceName).Msg(w)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipped %s: %v\n", o.SourceName, err)
			continue
		}
		if !toXLSX {
			fmt.Printf("%s\t%s\t%d visits\n", o.SourceName, table.DocumentNumber, table.Visits())
			continue
		}
		path := filepath.Join(out, report.XLSXFilename(o.SourceName))
		if err := writeFile(path, func(w io.Writer) error { return report.WriteXLSX(w, table) }); err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

func runView(args []string) error {
	fs, configPath := newFlagSet("view")
	documentID := fs.String("document-id", "", "view the latest extraction of a stored report instead of a file")
	fs.Parse(args)

	e, err := setup(*configPath, 24*time.Hour)
	if err != nil {
		return err
	}
	defer e.cancel()

	var table *report.Table
	switch {
	case *documentID != "":
		a, err := e.wire()
		if err != nil {
			return err
		}
		defer a.Close()
		if table, err = a.Service.LatestTable(e.ctx, *documentID); err != nil {
			return err
		}
	case fs.NArg() == 1:
		if table, err = tableFromFile(e, fs.Arg(0)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("usage: cli view report.docx | cli view -document-id ID")
	}
	return tui.Run(table)
}

// tableFromFile extracts the table of a local report, logging warnings.
func tableFromFile(e *env, path string) (*report.Table, error) {
	outcome, err := processor.ProcessFile(e.ctx, path)
	if err != nil {
		return nil, err
	}
	table, warnings, err := report.Build(outcome)
	for _, w := range warnings {
		e.log.Warn().Str("file", outcome.SourceName).Msg(w)
	}
	return table, err
}

// printTable writes the table as tab-aligned text, one field per line.
func printTable(w io.Writer, t *report.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"Campo"}
	for v := 0; v < t.Visits(); v++ {
		header = append(header, fmt.Sprintf("Visita %d", v+1))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i := range t.Fields {
		field, values := t.Row(i)
		cells := []string{field}
		for _, v := range values {
			if v == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, strings.ReplaceAll(*v, "\n", " / "))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func outputDir(out, fallback string) string {
	if out != "" {
		return out
	}
	return fallback
}

// writeFile creates path and fills it with write.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
