package pipeline

import (
	"fmt"

	"github.com/dvloznov/medreport/internal/report"
)

// RequiredFields must have a value in the first visit of every report.
var RequiredFields = []string{
	"Nombre y apellidos",
	"Compañía",
	"Fecha siniestro",
}

// ValidateTable returns a warning for each required field that is empty in
// the first visit, and for a missing document number.
func ValidateTable(t *report.Table) []string {
	if t == nil || t.Visits() == 0 {
		return nil
	}
	var warnings []string
	if t.DocumentNumber == "" {
		warnings = append(warnings, "missing document number")
	}
	for _, f := range RequiredFields {
		if v, ok := t.Cell(f, 0); !ok || v == "" {
			warnings = append(warnings, fmt.Sprintf("missing required field %q", f))
		}
	}
	return warnings
}
