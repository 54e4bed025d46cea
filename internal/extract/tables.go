package extract

import (
	"slices"
	"strings"

	"github.com/dvloznov/medreport/internal/domain"
)

// Table positions inside a report.
const (
	tableCompany     = 0
	tableInjured     = 1
	tableFamily      = 2
	tableHospital    = 3
	tableDiagnosis   = 4
	tableFirstVisit  = 5
	tableSequelae    = 6
	tableLifeQuality = 7
	tableLawyer      = 9
	// Follow-up visit tables are searched from here on.
	tableFollowUps = 10
)

const (
	followUpMarker  = "Muy graves:"
	aggravationTail = " ¿Agravación por no uso protección?:"
)

// baseRecord reads the identification tables (1-5). With no tables at all
// the record stays empty.
func baseRecord(tables [][][]string) *domain.Record {
	rec := domain.NewRecord()
	if len(tables) == 0 {
		return rec
	}

	readCompany(rec, tables[tableCompany])
	readLabelled(rec, tableAt(tables, tableInjured), injuredFields, func(v string) string {
		return strings.ReplaceAll(v, aggravationTail, "")
	})
	readLabelled(rec, tableAt(tables, tableFamily), familyFields, nil)
	readHeaderRow(rec, tableAt(tables, tableHospital), hospitalFields)
	readHeaderRow(rec, tableAt(tables, tableDiagnosis), diagnosisFields)
	return rec
}

func tableAt(tables [][][]string, i int) [][]string {
	if i < len(tables) {
		return tables[i]
	}
	return nil
}

func readCompany(rec *domain.Record, table [][]string) {
	for _, name := range companyFields {
		rec.SetNull(name)
	}
	for _, row := range table {
		for _, cell := range row {
			for _, seg := range segments(cell) {
				key, val, ok := splitLabel(seg)
				if !ok {
					continue
				}
				if key == FieldVisitDate {
					m := visitDate.FindStringSubmatch(val)
					if m == nil {
						rec.Set(FieldVisitDate, val)
						continue
					}
					rec.Set(FieldVisitDate, strings.TrimSpace(m[1]))
					if m[2] == "" {
						rec.SetNull(FieldDoctorName)
					} else {
						rec.Set(FieldDoctorName, strings.TrimSpace(m[2]))
					}
					continue
				}
				if slices.Contains(companyFields, key) {
					rec.Set(key, val)
				}
			}
		}
	}
}

// readLabelled reads "label: value" segments of every cell. Fields that stay
// empty are stored as Missing.
func readLabelled(rec *domain.Record, table [][]string, names []string, clean func(string) string) {
	values := make(map[string]string, len(names))
	for _, row := range table {
		for _, cell := range row {
			for _, seg := range segments(flatten(cell)) {
				key, val, ok := splitLabel(seg)
				if !ok || !slices.Contains(names, key) {
					continue
				}
				if clean != nil {
					val = clean(val)
				}
				values[key] = val
			}
		}
	}
	for _, name := range names {
		rec.Set(name, orMissing(values[name]))
	}
}

// readHeaderRow reads a two-row table whose first row names the columns.
func readHeaderRow(rec *domain.Record, table [][]string, names []string) {
	values := make(map[string]string, len(names))
	if len(table) >= 2 {
		for i := 0; i < len(table[0]) && i < len(table[1]); i++ {
			header := strings.TrimSpace(table[0][i])
			if slices.Contains(names, header) {
				values[header] = strings.TrimSpace(table[1][i])
			}
		}
	}
	for _, name := range names {
		rec.Set(name, orMissing(values[name]))
	}
}

// firstVisitRecord reads the first visit's injury, sequelae, life-quality
// and lawyer tables.
func firstVisitRecord(tables [][][]string) *domain.Record {
	rec := domain.NewRecord()
	readInjuries(rec, tableAt(tables, tableFirstVisit))
	readSequelae(rec, tableAt(tables, tableSequelae))
	readLifeQuality(rec, tableAt(tables, tableLifeQuality))
	readLawyer(rec, tableAt(tables, tableLawyer))
	return rec
}

func readInjuries(rec *domain.Record, table [][]string) {
	for _, name := range injuryGrades.fields() {
		rec.Set(name, Missing)
	}
	for _, row := range table {
		for i, cell := range row {
			cleaned := cleanCell(cell)
			key, val, ok := splitLabel(cleaned)
			if !ok {
				if rec.Value(FieldDischargeDate) == Missing && i > 0 && strings.Contains(row[i-1], "Fecha alta") {
					rec.Set(FieldDischargeDate, orMissing(cleaned))
				}
				continue
			}
			field, known := injuryGrades.lookup(key)
			if !known {
				continue
			}
			if val == "" && i+1 < len(row) {
				next := cleanCell(row[i+1])
				if next != "" && !strings.Contains(next, ":") {
					val = next
				}
			}
			rec.Set(field, orMissing(val))
		}
	}
}

func readSequelae(rec *domain.Record, table [][]string) {
	for _, name := range sequelae.fields() {
		rec.Set(name, Missing)
	}
	if len(table) < 2 {
		return
	}
	headers, values := table[0], table[1]
	for i := 0; i < len(headers) && i < len(values); i++ {
		field, ok := sequelae.lookup(strings.TrimSpace(headers[i]))
		if !ok {
			continue
		}
		rec.Set(field, orMissing(strings.TrimSpace(flatten(values[i]))))
	}
}

func readLifeQuality(rec *domain.Record, table [][]string) {
	rec.Set(FieldLifeQualityGrade, Missing)
	for _, row := range table {
		for _, cell := range row {
			cleaned := flatten(cell)
			if !strings.Contains(cleaned, "Grado y razonarlo:") && !strings.Contains(cleaned, "Notas:") {
				continue
			}
			rec.Set(FieldLifeQualityGrade, orMissing(afterColon(cleaned)))
		}
	}
}

func readLawyer(rec *domain.Record, table [][]string) {
	for _, name := range lawyer.fields() {
		rec.Set(name, Missing)
	}
	for _, row := range table {
		for _, cell := range row {
			key, val, ok := splitLabel(flatten(cell))
			if !ok {
				continue
			}
			if field, known := lawyer.lookup(key); known {
				rec.Set(field, orMissing(val))
			}
		}
	}
}

// followUpRecords reads table pairs of later visits. The first pair starts
// at the first table from index 10 holding "Muy graves:"; each pair is
// followed by one table that is skipped.
func followUpRecords(tables [][][]string) []*domain.Record {
	i := tableFollowUps
	for ; i < len(tables); i++ {
		if tableContains(tables[i], followUpMarker) {
			break
		}
	}

	var visits []*domain.Record
	for ; i+1 < len(tables); i += 3 {
		rec := domain.NewRecord()
		readFollowUpInjuries(rec, tables[i])
		readFollowUpSequelae(rec, tables[i+1])
		visits = append(visits, rec)
	}
	return visits
}

func tableContains(table [][]string, s string) bool {
	for _, row := range table {
		for _, cell := range row {
			if strings.Contains(cell, s) {
				return true
			}
		}
	}
	return false
}

func readFollowUpInjuries(rec *domain.Record, table [][]string) {
	for _, name := range injuryGrades.fields() {
		rec.Set(name, Missing)
	}
	var discharge, reasons []string
	for r, row := range table {
		for _, cell := range row {
			cleaned := cleanCell(cell)
			key, val, ok := splitLabel(cleaned)
			if ok {
				if field, known := injuryGrades.lookup(key); known && val != "" {
					rec.Set(field, val)
				}
				continue
			}
			switch r {
			case 1:
				discharge = append(discharge, cleaned)
			case 2:
				reasons = append(reasons, cleaned)
			}
		}
	}
	if len(discharge) > 0 {
		rec.Set(FieldDischargeDate, strings.Join(discharge, " "))
	}
	if len(reasons) > 0 {
		rec.Set(FieldDischargeReasons, strings.Join(reasons, " "))
	}
}

func readFollowUpSequelae(rec *domain.Record, table [][]string) {
	for _, name := range sequelae.fields() {
		rec.Set(name, Missing)
	}
	if len(table) < 2 {
		return
	}
	headers, values := table[0], table[1]
	for i := 0; i < len(headers) && i < len(values); i++ {
		field, ok := sequelae.lookup(strings.TrimSpace(headers[i]))
		if !ok {
			continue
		}
		if v := cleanCell(values[i]); v != "" {
			rec.Set(field, v)
		}
	}
}
