// Package report combines the records of processed reports into the
// transposed per-document table and the flat batch frame, and exports them
// to Excel and JSON.
package report

import (
	"errors"
	"fmt"

	"github.com/dvloznov/medreport/internal/domain"
	"github.com/dvloznov/medreport/internal/processor"
)

// ErrNoVisits is returned when a document yields no visit with data.
var ErrNoVisits = errors.New("no visit data")

// Table is one document in transposed form: one row per exported field and
// one column per visit.
type Table struct {
	Fields         []string
	DocumentNumber string
	SourceName     string

	// columns[visit][field index]; nil is an empty cell.
	columns [][]*string
}

// Visits is the number of visit columns.
func (t *Table) Visits() int {
	return len(t.columns)
}

// Cell returns the value of field in visit. ok is false for null or unknown
// cells.
func (t *Table) Cell(field string, visit int) (string, bool) {
	if visit < 0 || visit >= len(t.columns) {
		return "", false
	}
	for i, f := range t.Fields {
		if f != field {
			continue
		}
		if v := t.columns[visit][i]; v != nil {
			return *v, true
		}
		return "", false
	}
	return "", false
}

// Value is Cell without the presence flag.
func (t *Table) Value(field string, visit int) string {
	v, _ := t.Cell(field, visit)
	return v
}

// Column returns the visit's values by field; null cells are "".
func (t *Table) Column(visit int) map[string]string {
	out := make(map[string]string, len(t.Fields))
	if visit < 0 || visit >= len(t.columns) {
		return out
	}
	for i, f := range t.Fields {
		if _, seen := out[f]; seen {
			continue
		}
		if v := t.columns[visit][i]; v != nil {
			out[f] = *v
		} else {
			out[f] = ""
		}
	}
	return out
}

// Row returns the field label and its value per visit.
func (t *Table) Row(i int) (string, []*string) {
	vals := make([]*string, len(t.columns))
	for v, col := range t.columns {
		vals[v] = col[i]
	}
	return t.Fields[i], vals
}

// Build combines the base record with every visit of o and projects the rows
// onto DesiredColumns. Warnings describe recoverable problems.
func Build(o *processor.Outcome) (*Table, []string, error) {
	rows, warnings := visitRows(o, true)
	if len(rows) == 0 {
		return nil, warnings, fmt.Errorf("Build: %s: %w", o.SourceName, ErrNoVisits)
	}

	present := make(map[string]bool)
	for _, row := range rows {
		for _, name := range row.Names() {
			present[name] = true
		}
	}
	sources := sourceColumns(present)

	t := &Table{
		Fields:         append([]string(nil), DesiredColumns...),
		DocumentNumber: o.DocumentNumber,
		SourceName:     o.SourceName,
		columns:        make([][]*string, len(rows)),
	}
	empty := ""
	for v, row := range rows {
		col := make([]*string, len(t.Fields))
		for i, field := range t.Fields {
			name := field
			if src, ok := sources[field]; ok {
				name = src
			}
			switch {
			case !present[name]:
				col[i] = &empty
			case row.Has(name) && !row.IsNull(name):
				val := row.Value(name)
				col[i] = &val
			}
		}
		t.columns[v] = col
	}
	return t, warnings, nil
}

// visitRows builds one row per visit. With pad set the visit type list is
// padded with NoVisitType or truncated to the visit count; otherwise visits
// and types are zipped and the shorter list wins.
func visitRows(o *processor.Outcome, pad bool) ([]*domain.Record, []string) {
	var warnings []string
	visits := o.Visits()
	types := o.VisitTypes

	if o.Result.Base.Empty() {
		warnings = append(warnings, "no base data extracted (company, dates, patient); check the first table")
	}

	n := len(visits)
	if pad {
		if len(types) > n {
			warnings = append(warnings, fmt.Sprintf("found %d next-visit checkbox groups but %d visits; using the first %d", len(types), n, n))
		}
	} else if len(types) < n {
		n = len(types)
	}

	var rows []*domain.Record
	for i := 0; i < n; i++ {
		visit := visits[i]
		if visit.Empty() {
			warnings = append(warnings, fmt.Sprintf("visit %d has no data; skipped", i+1))
			continue
		}

		row := domain.NewRecord()
		copyNew(row, o.Result.Base)
		copyNew(row, visit)

		if o.ConsentFound {
			row.Set(ColumnConsent, o.Consent)
		} else {
			row.SetNull(ColumnConsent)
		}
		switch {
		case i >= len(types):
			row.Set(ColumnNextVisit, NoVisitType)
		case types[i].Set:
			row.Set(ColumnNextVisit, types[i].Value)
		default:
			row.SetNull(ColumnNextVisit)
		}
		row.Set(ColumnDocumentNumber, o.DocumentNumber)
		rows = append(rows, row)
	}
	return rows, warnings
}

// copyNew copies the fields of src that dst does not have yet.
func copyNew(dst, src *domain.Record) {
	for _, name := range src.Names() {
		if dst.Has(name) {
			continue
		}
		if src.IsNull(name) {
			dst.SetNull(name)
		} else {
			dst.Set(name, src.Value(name))
		}
	}
}

// Frame is the flat batch export: one row per visit of every document.
type Frame struct {
	Columns []string
	Rows    []*domain.Record
}

// BuildRaw concatenates the visit rows of all outcomes without renaming or
// projection. Columns appear in first-seen order.
func BuildRaw(outcomes ...*processor.Outcome) *Frame {
	f := &Frame{}
	seen := make(map[string]bool)
	for _, o := range outcomes {
		rows, _ := visitRows(o, false)
		for _, row := range rows {
			for _, name := range row.Names() {
				if !seen[name] {
					seen[name] = true
					f.Columns = append(f.Columns, name)
				}
			}
			f.Rows = append(f.Rows, row)
		}
	}
	return f
}

// NewTable builds a table from per-visit values. Fields missing from a
// visit map are null.
func NewTable(number, source string, fields []string, visits ...map[string]string) *Table {
	t := &Table{
		Fields:         append([]string(nil), fields...),
		DocumentNumber: number,
		SourceName:     source,
		columns:        make([][]*string, len(visits)),
	}
	for v, values := range visits {
		col := make([]*string, len(fields))
		for i, f := range fields {
			if val, ok := values[f]; ok {
				col[i] = &val
			}
		}
		t.columns[v] = col
	}
	return t
}
