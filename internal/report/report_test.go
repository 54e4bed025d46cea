package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/medreport/internal/domain"
	"github.com/dvloznov/medreport/internal/extract"
	"github.com/dvloznov/medreport/internal/extract/extracttest"
	"github.com/dvloznov/medreport/internal/formfields"
	"github.com/dvloznov/medreport/internal/processor"
)

func sampleOutcome(t *testing.T) *processor.Outcome {
	t.Helper()
	out, err := processor.Process(context.Background(), extracttest.FileName, extracttest.Docx())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return out
}

func TestDesiredColumns(t *testing.T) {
	if got := len(DesiredColumns); got != 102 {
		t.Errorf("len(DesiredColumns) = %d, want 102", got)
	}
	count := 0
	for _, c := range DesiredColumns {
		if c == "Fecha alta" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("Fecha alta appears %d times, want 2", count)
	}
}

func TestBuild(t *testing.T) {
	table, warnings, err := Build(sampleOutcome(t))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if table.Visits() != 4 {
		t.Fatalf("Visits() = %d, want 4", table.Visits())
	}
	if len(table.Fields) != len(DesiredColumns) {
		t.Errorf("len(Fields) = %d, want %d", len(table.Fields), len(DesiredColumns))
	}
	if table.DocumentNumber != extracttest.DocumentNumber {
		t.Errorf("DocumentNumber = %q", table.DocumentNumber)
	}

	tests := []struct {
		field  string
		visit  int
		want   string
		wantOK bool
	}{
		{"Compañía", 0, "MAPFRE", true},
		{"Compañía", 3, "MAPFRE", true},
		{"Fecha alta", 0, "02/02/2024", true},
		{"Fecha alta", 1, "02/02/2024", true},
		{"Lesiones muy graves", 1, "1", true},
		{"Tratamiento y evolución - processed", 0, "Rehabilitación\n\nAnalgésicos", true},
		{"Tratamiento y evolución - processed", 3, "Nada", true},
		{"Pérdida c vida", 2, formfields.ConsentYes, true},
		{"Próxima visita", 0, formfields.VisitFollowUp, true},
		{"Próxima visita", 1, formfields.VisitFinal, true},
		{"Próxima visita", 2, "", false},
		{"Próxima visita", 3, NoVisitType, true},
		{"Ama de casa", 0, "", true},
		{"Relación de causalidad", 0, "Se cumplen criterios Compatible", true},
		{"Relación de causalidad", 1, "", false},
		{"Hora", 0, "", false},
		{"Numero de documento", 0, "", false},
	}
	for _, tt := range tests {
		got, ok := table.Cell(tt.field, tt.visit)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Cell(%q, %d) = %q, %v; want %q, %v", tt.field, tt.visit, got, ok, tt.want, tt.wantOK)
		}
	}

	col := table.Column(1)
	if col["Nombre y apellidos"] != "Ana López" || col["Relación de causalidad"] != "" {
		t.Errorf("Column(1) has unexpected values: %q, %q", col["Nombre y apellidos"], col["Relación de causalidad"])
	}
}

func outcomeFrom(res *extract.Result, types ...formfields.VisitType) *processor.Outcome {
	return &processor.Outcome{
		SourceName:     "X-1 test.docx",
		DocumentNumber: "X-1",
		Result:         res,
		Consent:        formfields.ConsentNo,
		ConsentFound:   true,
		VisitTypes:     types,
	}
}

func TestBuild_Warnings(t *testing.T) {
	res := extract.Extract(nil, []string{"Evolución", "Bien"})
	types := []formfields.VisitType{
		{Value: formfields.VisitFinal, Set: true},
		{Value: formfields.VisitFinal, Set: true},
	}
	table, warnings, err := Build(outcomeFrom(res, types...))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want base and truncation warnings", warnings)
	}
	if !strings.Contains(warnings[1], "2 next-visit checkbox groups but 1 visits") {
		t.Errorf("unexpected truncation warning %q", warnings[1])
	}
	if table.Visits() != 1 {
		t.Errorf("Visits() = %d, want 1", table.Visits())
	}
	if got, ok := table.Cell("Compañía", 0); got != "" || !ok {
		t.Errorf("Compañía = %q, %v; want empty string", got, ok)
	}
	if got := table.Value("Próxima visita", 0); got != formfields.VisitFinal {
		t.Errorf("Próxima visita = %q, want %q", got, formfields.VisitFinal)
	}
}

func TestBuild_NoVisits(t *testing.T) {
	res := &extract.Result{Base: domain.NewRecord(), FirstVisit: domain.NewRecord()}
	_, warnings, err := Build(outcomeFrom(res))
	if !errors.Is(err, ErrNoVisits) {
		t.Errorf("Build() error = %v, want ErrNoVisits", err)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want base and skipped visit", warnings)
	}
}

func TestBuild_Renames(t *testing.T) {
	base := domain.NewRecord()
	base.Set("Teléfono", "911000000")
	visit := domain.NewRecord()
	visit.Set("Lesiones graves", "4")
	visit.Set("Tratamiento y evolución. Exploraciones complementarias", "Fisioterapia")

	table, _, err := Build(outcomeFrom(&extract.Result{Base: base, FirstVisit: visit}))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := []struct {
		field string
		want  string
	}{
		{"Teléfono (FyM)", "911000000"},
		{"Lesiones graves", "4"},
		{"Tratamiento y evolución - processed", "Fisioterapia"},
		{"Pérdida c vida", formfields.ConsentNo},
		{"Próxima visita", NoVisitType},
	}
	for _, tt := range tests {
		if got := table.Value(tt.field, 0); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestSourceColumns(t *testing.T) {
	tests := []struct {
		name    string
		present []string
		want    map[string]string
	}{
		{
			name:    "source or target already exported",
			present: []string{"Teléfono", "Teléfono (FyM)", "Lesiones graves", "Códigos Diagnóstico"},
			want:    map[string]string{"Códigos": "Códigos Diagnóstico"},
		},
		{
			name:    "swap pair applies one way only",
			present: []string{"Motivos variación de fecha inicial"},
			want:    map[string]string{"Motivos variacion fecha final": "Motivos variación de fecha inicial"},
		},
		{
			name:    "visit type lands in the accented column",
			present: []string{ColumnNextVisit},
			want:    map[string]string{"Próxima visita": ColumnNextVisit},
		},
		{
			name:    "visit type never overwrites an extracted column",
			present: []string{ColumnNextVisit, "Próxima visita"},
			want:    map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			present := make(map[string]bool)
			for _, name := range tt.present {
				present[name] = true
			}
			if got := sourceColumns(present); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sourceColumns() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildRaw(t *testing.T) {
	sample := sampleOutcome(t)
	short := outcomeFrom(extract.Extract(nil, []string{"Evolución", "Bien", "Próxima visita:", "Evolución", "Peor"}),
		formfields.VisitType{Value: formfields.VisitFollowUp, Set: true})

	frame := BuildRaw(sample, short)

	if got := len(frame.Rows); got != 4 {
		t.Fatalf("len(Rows) = %d, want 4 (3 zipped sample visits + 1)", got)
	}
	if frame.Columns[0] != "Compañía" {
		t.Errorf("first column = %q, want Compañía", frame.Columns[0])
	}
	if got := frame.Rows[3].Value(ColumnDocumentNumber); got != "X-1" {
		t.Errorf("last row document number = %q, want X-1", got)
	}
	if got := frame.Rows[0].Value("Tratamiento y evolución. Exploraciones complementarias"); got == "" {
		t.Error("raw frame must keep original column names")
	}
	seen := make(map[string]bool)
	for _, c := range frame.Columns {
		if seen[c] {
			t.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
}

func TestWriteXLSX(t *testing.T) {
	table, _, err := Build(sampleOutcome(t))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, table); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetTransposed)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if want := []string{"", "0", "1", "2", "3"}; !reflect.DeepEqual(rows[0], want) {
		t.Errorf("header row = %q, want %q", rows[0], want)
	}
	if got := len(rows); got != len(DesiredColumns)+1 {
		t.Errorf("row count = %d, want %d", got, len(DesiredColumns)+1)
	}
	if rows[1][0] != "Compañía" || rows[1][1] != "MAPFRE" {
		t.Errorf("first field row = %q", rows[1])
	}
}

func TestWriteRawXLSX(t *testing.T) {
	frame := BuildRaw(sampleOutcome(t))

	var buf bytes.Buffer
	if err := WriteRawXLSX(&buf, frame); err != nil {
		t.Fatalf("WriteRawXLSX failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetRaw)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != len(frame.Rows)+1 {
		t.Errorf("row count = %d, want %d", len(rows), len(frame.Rows)+1)
	}
	if !reflect.DeepEqual(rows[0], frame.Columns) {
		t.Errorf("header = %q, want %q", rows[0], frame.Columns)
	}
}

func TestFilenames(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{XLSXFilename("/in/EXP-1 Ana.docx"), "procesado_transpuesto_EXP-1 Ana.xlsx"},
		{XLSXFilename("informe"), "procesado_transpuesto_informe.xlsx"},
		{RawXLSXFilename("/data/enero/"), "procesado_enero.xlsx"},
		{RawXLSXFilename("."), "procesado_lote.xlsx"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestTableJSON(t *testing.T) {
	table := NewTable("N-1", "N-1 a.docx", []string{"Compañía", "Hora"},
		map[string]string{"Compañía": "AXA"},
		map[string]string{"Compañía": "AXA", "Hora": "10:00"},
	)

	data, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `{"field":"Hora","values":[null,"10:00"]}`) {
		t.Errorf("unexpected JSON: %s", data)
	}

	var back Table
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Visits() != 2 || back.Value("Hora", 1) != "10:00" || back.DocumentNumber != "N-1" {
		t.Errorf("decoded table differs: %+v", back)
	}
	if _, ok := back.Cell("Hora", 0); ok {
		t.Error("null cell should stay null")
	}
}
