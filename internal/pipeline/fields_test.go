package pipeline

import (
	"testing"

	"github.com/dvloznov/medreport/internal/report"
)

func TestFieldRowsRoundTrip(t *testing.T) {
	table := report.NewTable("N-1", "N-1 a.docx", []string{"Compañía", "Hora", "Fecha alta"},
		map[string]string{"Compañía": "MAPFRE", "Hora": ""},
		map[string]string{"Compañía": "MAPFRE", "Fecha alta": "02/02/2024"},
	)

	rows := FieldRows("doc", "run", table)
	if len(rows) != 6 {
		t.Fatalf("FieldRows() = %d rows, want 6", len(rows))
	}

	tests := []struct {
		idx    int
		visit  int64
		name   string
		value  string
		isNull bool
	}{
		{0, 0, "Compañía", "MAPFRE", false},
		{1, 0, "Hora", "", false},
		{2, 0, "Fecha alta", "", true},
		{4, 1, "Hora", "", true},
		{5, 1, "Fecha alta", "02/02/2024", false},
	}
	for _, tt := range tests {
		r := rows[tt.idx]
		if r.VisitIndex != tt.visit || r.Name != tt.name || r.Value != tt.value || r.IsNull != tt.isNull {
			t.Errorf("row %d = %+v", tt.idx, r)
		}
		if r.DocumentID != "doc" || r.RunID != "run" {
			t.Errorf("row %d ids = %s/%s", tt.idx, r.DocumentID, r.RunID)
		}
	}

	back := TableFromFields("N-1", "N-1 a.docx", rows)
	if back.Visits() != 2 || len(back.Fields) != 3 {
		t.Fatalf("TableFromFields() = %d visits, %d fields", back.Visits(), len(back.Fields))
	}
	if v, ok := back.Cell("Hora", 0); !ok || v != "" {
		t.Errorf("Hora visit 0 = %q, %v; want empty non-null", v, ok)
	}
	if _, ok := back.Cell("Hora", 1); ok {
		t.Error("Hora visit 1 should be null")
	}
	if back.Value("Fecha alta", 1) != "02/02/2024" {
		t.Errorf("Fecha alta visit 1 = %q", back.Value("Fecha alta", 1))
	}
}

func TestValidateTable(t *testing.T) {
	full := report.NewTable("N-1", "src", RequiredFields, map[string]string{
		"Nombre y apellidos": "Ana", "Compañía": "MAPFRE", "Fecha siniestro": "01/02/2024",
	})
	if w := ValidateTable(full); len(w) != 0 {
		t.Errorf("ValidateTable(full) = %v", w)
	}

	partial := report.NewTable("", "src", RequiredFields, map[string]string{"Compañía": "MAPFRE"})
	if w := ValidateTable(partial); len(w) != 3 {
		t.Errorf("ValidateTable(partial) = %v, want 3 warnings", w)
	}

	if w := ValidateTable(report.NewTable("N", "src", RequiredFields)); w != nil {
		t.Errorf("ValidateTable(no visits) = %v", w)
	}
}
