package pipeline

import (
	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/report"
)

// FieldRows flattens a table into one row per cell, visit by visit.
func FieldRows(documentID, runID string, t *report.Table) []*bq.FieldRow {
	rows := make([]*bq.FieldRow, 0, t.Visits()*len(t.Fields))
	for v := 0; v < t.Visits(); v++ {
		for i := range t.Fields {
			name, cells := t.Row(i)
			row := &bq.FieldRow{
				DocumentID: documentID,
				RunID:      runID,
				VisitIndex: int64(v),
				Position:   int64(i),
				Name:       name,
			}
			if cells[v] == nil {
				row.IsNull = true
			} else {
				row.Value = *cells[v]
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// TableFromFields rebuilds a table from stored field rows. Field order
// follows Position; null rows become null cells.
func TableFromFields(number, source string, rows []*bq.FieldRow) *report.Table {
	var nFields, nVisits int64
	for _, r := range rows {
		nFields = max(nFields, r.Position+1)
		nVisits = max(nVisits, r.VisitIndex+1)
	}

	fields := make([]string, nFields)
	visits := make([]map[string]string, nVisits)
	for i := range visits {
		visits[i] = make(map[string]string)
	}
	for _, r := range rows {
		if r.Position < 0 || r.VisitIndex < 0 {
			continue
		}
		fields[r.Position] = r.Name
		if !r.IsNull {
			visits[r.VisitIndex][r.Name] = r.Value
		}
	}
	return report.NewTable(number, source, fields, visits...)
}
