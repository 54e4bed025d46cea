package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dvloznov/medreport/internal/docx"
	"github.com/dvloznov/medreport/internal/extract/extracttest"
	"github.com/dvloznov/medreport/internal/formfields"
)

func TestProcess(t *testing.T) {
	out, err := Process(context.Background(), extracttest.FileName, extracttest.Docx())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.DocumentNumber != extracttest.DocumentNumber {
		t.Errorf("DocumentNumber = %q, want %q", out.DocumentNumber, extracttest.DocumentNumber)
	}
	if out.SourceName != extracttest.FileName {
		t.Errorf("SourceName = %q, want %q", out.SourceName, extracttest.FileName)
	}
	if !out.ConsentFound || out.Consent != formfields.ConsentYes {
		t.Errorf("consent = %q (%v), want %q", out.Consent, out.ConsentFound, formfields.ConsentYes)
	}

	wantTypes := []formfields.VisitType{
		{Value: formfields.VisitFollowUp, Set: true},
		{Value: formfields.VisitFinal, Set: true},
		{},
	}
	if !reflect.DeepEqual(out.VisitTypes, wantTypes) {
		t.Errorf("VisitTypes = %+v, want %+v", out.VisitTypes, wantTypes)
	}
	if got := len(out.Visits()); got != 4 {
		t.Errorf("len(Visits()) = %d, want 4", got)
	}
	if got := out.Result.Base.Value("Nombre y apellidos"); got != "Ana López" {
		t.Errorf("Nombre y apellidos = %q", got)
	}
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		wantErr  error
	}{
		{name: "wrong extension", filename: "report.pdf", data: extracttest.Docx(), wantErr: ErrNotDocx},
		{name: "not a zip", filename: "report.docx", data: []byte("plain text"), wantErr: docx.ErrNotDocx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Process(context.Background(), tt.filename, tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Process() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Process(ctx, "a.docx", extracttest.Docx()); !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
}

func TestDocumentNumber(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"EXP-1 Ana López.docx", "EXP-1"},
		{"/tmp/in/EXP-2.docx", "EXP-2"},
		{"sin numero.DOCX", "sin"},
		{"archivo.tar.docx", "archivo.tar"},
		{"EXP-3 .docx", "EXP-3"},
	}
	for _, tt := range tests {
		if got := DocumentNumber(tt.filename); got != tt.want {
			t.Errorf("DocumentNumber(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestProcessDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"B-2 segundo.docx": extracttest.Docx(),
		"A-1 primero.docx": extracttest.Docx(),
		"roto.docx":        []byte("not a zip"),
		"~$A-1 lock.docx":  []byte("lock"),
		"notas.txt":        []byte("ignored"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	outcomes, failures, err := ProcessDir(context.Background(), dir, 2)
	if err != nil {
		t.Fatalf("ProcessDir failed: %v", err)
	}

	var numbers []string
	for _, o := range outcomes {
		numbers = append(numbers, o.DocumentNumber)
	}
	if want := []string{"A-1", "B-2"}; !reflect.DeepEqual(numbers, want) {
		t.Errorf("document numbers = %v, want %v", numbers, want)
	}
	if len(failures) != 1 || filepath.Base(failures[0].Path) != "roto.docx" {
		t.Errorf("failures = %v, want roto.docx only", failures)
	}
}

func TestProcessDir_MissingDir(t *testing.T) {
	if _, _, err := ProcessDir(context.Background(), filepath.Join(t.TempDir(), "missing"), 1); err == nil {
		t.Error("ProcessDir() should fail for a missing folder")
	}
}
