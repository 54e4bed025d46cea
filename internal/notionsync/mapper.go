package notionsync

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/report"
)

// Property names of the records database.
const (
	PropRecordID       = "Record ID"
	PropName           = "Nombre y apellidos"
	PropCompany        = "Compañía"
	PropAccidentDate   = "Fecha siniestro"
	PropDiagnosis      = "Diagnóstico"
	PropNextVisit      = "Proxima visita"
	PropConsent        = "Pérdida c vida"
	PropDocumentNumber = "Numero de documento"
)

// maxTextLen is the Notion limit for one rich text object.
const maxTextLen = 2000

// richTextFields are copied from the table as rich text properties.
var richTextFields = []string{PropName, PropCompany, PropAccidentDate, PropDiagnosis}

// VisitRecord is one visit of a processed report.
type VisitRecord struct {
	DocumentID     string
	DocumentNumber string
	Visit          int
	Values         map[string]string
}

// RecordID is the page title identifying a visit: <document_id>#<visit>.
func (r VisitRecord) RecordID() string {
	return r.DocumentID + "#" + strconv.Itoa(r.Visit)
}

// VisitRecords splits a table into one record per visit.
func VisitRecords(doc *bq.DocumentRow, t *report.Table) []VisitRecord {
	number := doc.DocumentNumber
	if number == "" {
		number = t.DocumentNumber
	}
	records := make([]VisitRecord, 0, t.Visits())
	for v := 0; v < t.Visits(); v++ {
		records = append(records, VisitRecord{
			DocumentID:     doc.DocumentID,
			DocumentNumber: number,
			Visit:          v,
			Values:         t.Column(v),
		})
	}
	return records
}

// VisitToNotionProperties converts a visit record to page properties.
// Rich text properties are always sent so updates clear old values; select
// properties are only sent when the value is set.
func VisitToNotionProperties(r VisitRecord) notionapi.Properties {
	props := notionapi.Properties{
		PropRecordID: notionapi.TitleProperty{
			Title: textContent(r.RecordID()),
		},
		PropDocumentNumber: notionapi.RichTextProperty{
			RichText: textContent(r.DocumentNumber),
		},
	}

	for _, f := range richTextFields {
		props[f] = notionapi.RichTextProperty{
			RichText: textContent(r.Values[f]),
		}
	}

	// The table carries the accented spelling of the next visit column.
	if v := selectOption(r.Values["Próxima visita"]); v != "" {
		props[PropNextVisit] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: v},
		}
	}
	if v := selectOption(r.Values[report.ColumnConsent]); v != "" {
		props[PropConsent] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: v},
		}
	}

	return props
}

func textContent(s string) []notionapi.RichText {
	if s == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: truncate(s, maxTextLen),
			},
		},
	}
}

// selectOption cleans a value for use as a select option. Notion rejects
// commas in option names.
func selectOption(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", " "))
	return truncate(s, 100)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// extractRecordID extracts the record ID from a page title. Returns an
// empty string if not found.
func extractRecordID(page notionapi.Page) string {
	prop, ok := page.Properties[PropRecordID]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range title.Title {
		if t.PlainText != "" {
			b.WriteString(t.PlainText)
		} else if t.Text != nil {
			b.WriteString(t.Text.Content)
		}
	}
	return b.String()
}

// ParseRecordID splits a record ID into document ID and visit index.
func ParseRecordID(id string) (string, int, error) {
	i := strings.LastIndex(id, "#")
	if i <= 0 {
		return "", 0, fmt.Errorf("ParseRecordID: %q: missing visit", id)
	}
	visit, err := strconv.Atoi(id[i+1:])
	if err != nil || visit < 0 {
		return "", 0, fmt.Errorf("ParseRecordID: %q: bad visit", id)
	}
	return id[:i], visit, nil
}
