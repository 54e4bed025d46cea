package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/medreport/internal/report"
)

func TestPrintTable(t *testing.T) {
	table := report.NewTable("EXP-1", "EXP-1.docx", []string{"Nombre y apellidos", "Diagnóstico"},
		map[string]string{"Nombre y apellidos": "Ana López", "Diagnóstico": "Esguince\ncervical"},
		map[string]string{"Nombre y apellidos": "Ana López"},
	)

	var buf bytes.Buffer
	if err := printTable(&buf, table); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "Visita 2") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "Esguince / cervical") {
		t.Errorf("multi-line value not joined: %q", lines[2])
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	table := report.NewTable("EXP-1", "EXP-1.docx", []string{"Nombre y apellidos"}, map[string]string{"Nombre y apellidos": "Ana"})
	if err := writeFile(path, func(w io.Writer) error { return report.WriteXLSX(w, table) }); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("output is not an xlsx package")
	}
}

func TestOutputDir(t *testing.T) {
	if got := outputDir("", "in"); got != "in" {
		t.Errorf("outputDir fallback = %q", got)
	}
	if got := outputDir("out", "in"); got != "out" {
		t.Errorf("outputDir = %q", got)
	}
}
