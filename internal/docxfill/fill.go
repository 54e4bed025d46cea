// Package docxfill generates a report from a .docx template by replacing
// {{field}} placeholders with one visit of an extracted table and inserting
// the doctor's signature image.
package docxfill

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/docx"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/report"
)

// ErrVisitOutOfRange is returned when the requested visit column does not
// exist in the table.
var ErrVisitOutOfRange = errors.New("visit out of range")

// SignaturePlaceholder marks the paragraph replaced by the signature image.
const SignaturePlaceholder = "{{signature image}}"

const (
	fieldAccidentDate = "Fecha siniestro"
	fieldFullName     = "Nombre y apellidos"
	hourSeparator     = " Hora: "
)

// Extra holds the values entered alongside the template.
type Extra struct {
	Doctor           string
	CollegiateNumber string
	Expediente       string
	DocsProvided     string
	DocsMissing      string
}

// ExtraFor fills Extra from a registered doctor.
func ExtraFor(d config.Doctor, expediente, provided, missing string) Extra {
	return Extra{
		Doctor:           d.Name,
		CollegiateNumber: d.Number,
		Expediente:       expediente,
		DocsProvided:     provided,
		DocsMissing:      missing,
	}
}

func (e Extra) replacements() []replacement {
	return []replacement{
		{"{{Doctor}}", e.Doctor},
		{"{{Numero de colegiado}}", e.CollegiateNumber},
		{"{{Doctor Identification}}", e.CollegiateNumber},
		{"{{Expediente}}", e.Expediente},
		{"{{Documentación aportada}}", e.DocsProvided},
		{"{{Documentación no aportada}}", e.DocsMissing},
	}
}

// ImageFetcher downloads an image by URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SignatureSource tells Fill where the signature comes from and how wide it
// is drawn.
type SignatureSource struct {
	URL     string
	Inches  float64
	Fetcher ImageFetcher
}

// SignatureFor builds the signature source of a registered doctor.
func SignatureFor(d config.Doctor, f ImageFetcher) SignatureSource {
	return SignatureSource{URL: d.SignatureURL, Inches: d.SignatureSize, Fetcher: f}
}

// Result is a generated report.
type Result struct {
	Data     []byte
	Filename string
	Warnings []string
}

// Fill renders template with the values of visit from table.
func Fill(ctx context.Context, template []byte, table *report.Table, visit int, extra Extra, sig SignatureSource) (*Result, error) {
	log := logger.FromContext(ctx)

	if visit < 0 || visit >= table.Visits() {
		return nil, fmt.Errorf("Fill: visit %d of %d: %w", visit, table.Visits(), ErrVisitOutOfRange)
	}

	doc, err := docx.Parse(template)
	if err != nil {
		return nil, fmt.Errorf("Fill: parsing template: %w", err)
	}

	data := fieldReplacements(table, visit)
	extras := extra.replacements()

	replaced := 0
	for _, p := range doc.BodyParagraphs() {
		if replaceInParagraph(p, data) {
			replaced++
		}
	}
	for _, p := range doc.BodyParagraphs() {
		if replaceInParagraph(p, extras) {
			replaced++
		}
	}
	all := append(append([]replacement(nil), data...), extras...)
	for _, p := range tableParagraphs(doc) {
		if replaceInParagraph(p, all) {
			replaced++
		}
	}

	res := &Result{Filename: Filename(table, visit, extra)}
	if warn := insertSignature(ctx, doc, sig); warn != "" {
		log.Warn().Str("signature_url", sig.URL).Msg(warn)
		res.Warnings = append(res.Warnings, warn)
	}

	res.Data, err = doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("Fill: %w", err)
	}

	log.Info().
		Str("file", res.Filename).
		Int("visit", visit).
		Int("paragraphs_replaced", replaced).
		Msg("Generated report")
	return res, nil
}

// fieldReplacements maps {{field}} to the visit's values. Null values become
// "". The accident date drops its time part, which is also exposed as
// {{Hora}} together with {{Fecha Siniestro}}.
func fieldReplacements(table *report.Table, visit int) []replacement {
	var out []replacement
	seen := make(map[string]bool)
	for _, field := range table.Fields {
		if seen[field] {
			continue
		}
		seen[field] = true
		val := table.Value(field, visit)
		if field == fieldAccidentDate {
			val, _, _ = strings.Cut(val, hourSeparator)
		}
		out = append(out, replacement{placeholder(field), val})
	}

	if full, ok := table.Cell(fieldAccidentDate, visit); ok {
		if date, hour, found := strings.Cut(full, hourSeparator); found {
			out = setReplacement(out, "{{Fecha Siniestro}}", date)
			out = setReplacement(out, "{{Hora}}", hour)
		}
	}
	return out
}

func placeholder(field string) string {
	return "{{" + field + "}}"
}

func setReplacement(list []replacement, key, val string) []replacement {
	for i := range list {
		if list[i].key == key {
			list[i].val = val
			return list
		}
	}
	return append(list, replacement{key, val})
}

// Filename is "<document number> <full name> <expediente>.docx" with empty
// parts left out.
func Filename(table *report.Table, visit int, extra Extra) string {
	var parts []string
	for _, p := range []string{table.DocumentNumber, table.Value(fieldFullName, visit), extra.Expediente} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	name := strings.Join(parts, " ")
	if name == "" {
		name = "informe"
	}
	return strings.NewReplacer("/", "-", `\`, "-").Replace(name) + ".docx"
}
