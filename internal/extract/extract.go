// Package extract turns the tables and paragraphs of a medical assessment
// report into field records: one for the patient and claim, one for the
// first visit and one per follow-up visit.
package extract

import (
	"github.com/dvloznov/medreport/internal/docx"
	"github.com/dvloznov/medreport/internal/domain"
)

// Result holds the records read from one report.
type Result struct {
	// Base holds the claim, patient, family, hospital and diagnosis fields.
	// It is empty when the document has no tables.
	Base *domain.Record
	// FirstVisit holds the first visit's tables merged with its narrative.
	FirstVisit *domain.Record
	// NextVisits holds one record per follow-up visit.
	NextVisits []*domain.Record
}

// Visits returns the first visit followed by the follow-up visits.
func (r *Result) Visits() []*domain.Record {
	out := make([]*domain.Record, 0, len(r.NextVisits)+1)
	out = append(out, r.FirstVisit)
	return append(out, r.NextVisits...)
}

// FromDocument extracts the records of a parsed report.
func FromDocument(doc *docx.Document) *Result {
	return Extract(doc.Tables, doc.Paragraphs)
}

// Extract builds the records from table cell text and paragraph text.
func Extract(tables [][][]string, paragraphs []string) *Result {
	res := &Result{
		Base:       baseRecord(tables),
		FirstVisit: firstVisitRecord(tables),
		NextVisits: followUpRecords(tables),
	}

	blocks := splitBlocks(paragraphs)
	if len(blocks) == 0 {
		return res
	}

	// Narrative values replace table values unless they are empty.
	narrative := firstBlockRecord(blocks[0])
	for _, name := range narrative.Names() {
		if v := narrative.Value(name); v != "" {
			res.FirstVisit.Set(name, v)
		}
	}

	for i, block := range blocks[1:] {
		visit := laterBlockRecord(block)
		if i < len(res.NextVisits) && !res.NextVisits[i].Empty() {
			target := res.NextVisits[i]
			for _, name := range visit.Names() {
				if v := visit.Value(name); v != "" && v != Missing {
					target.Set(name, v)
				}
			}
			continue
		}
		res.NextVisits = append(res.NextVisits, visit)
	}
	return res
}
