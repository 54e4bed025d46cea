package extract

import (
	"strings"

	"github.com/dvloznov/medreport/internal/domain"
)

// splitBlocks trims the non-blank paragraphs and cuts them into one block
// per visit. Lines holding the next-visit marker are separators and are
// dropped.
func splitBlocks(paragraphs []string) [][]string {
	var blocks [][]string
	var current []string
	for _, p := range paragraphs {
		line := strings.TrimSpace(p)
		if line == "" {
			continue
		}
		if strings.Contains(line, BlockSeparator) {
			if len(current) > 0 {
				blocks = append(blocks, current)
			}
			current = nil
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// collect joins lines from start until stop matches or the block ends.
// It returns the collected lines and the index where it stopped.
func collect(block []string, start int, stop func(string) bool) ([]string, int) {
	var parts []string
	j := start
	for j < len(block) && !stop(block[j]) {
		parts = append(parts, block[j])
		j++
	}
	return parts, j
}

func equals(s string) func(string) bool {
	return func(line string) bool { return line == s }
}

// treatmentStart finds the earliest treatment heading.
func treatmentStart(block []string) (int, string) {
	idx, heading := -1, ""
	for _, h := range treatmentHeadings {
		if i := indexOf(block, h); i >= 0 && (idx < 0 || i < idx) {
			idx, heading = i, h
		}
	}
	return idx, heading
}

// firstBlockRecord reads the first visit's narrative.
func firstBlockRecord(block []string) *domain.Record {
	rec := domain.NewRecord()

	if i := indexOf(block, headingMedicalHistory); i >= 0 && i+1 < len(block) {
		rec.Set(FieldMedicalHistory, block[i+1])
	} else {
		rec.Set(FieldMedicalHistory, Missing)
	}

	if i := indexOf(block, headingAccident); i >= 0 {
		parts, _ := collect(block, i+1, equals(headingCareData))
		rec.Set(FieldAccident, strings.Join(parts, " "))
	} else {
		rec.Set(FieldAccident, Missing)
	}

	readTreatment(rec, block, false)

	if i := indexOf(block, headingState); i >= 0 {
		parts, j := collect(block, i+1, equals(headingCausality))
		rec.Set(FieldCausality, causality(block, j))
		readState(rec, strings.Join(parts, "\n\n"))
	} else {
		rec.Set(FieldCurrentState, Missing)
	}

	readTemporaryInjuries(rec, block)
	readSequelaeTotal(rec, block)
	readClarifications(rec, block)
	return rec
}

// laterBlockRecord reads a follow-up visit's narrative.
func laterBlockRecord(block []string) *domain.Record {
	rec := domain.NewRecord()
	readTreatment(rec, block, true)

	if i := indexOf(block, headingState); i >= 0 {
		parts, _ := collect(block, i+1, equals(headingCausality))
		readState(rec, strings.Join(parts, " "))
	} else {
		rec.Set(FieldCurrentState, Missing)
	}

	readTemporaryInjuries(rec, block)
	readSequelaeTotal(rec, block)
	readClarifications(rec, block)
	return rec
}

// readTreatment stores the treatment text. Follow-up visits introduced by
// the short heading take their consultation date from the line above it.
func readTreatment(rec *domain.Record, block []string, followUp bool) {
	idx, heading := treatmentStart(block)
	if idx < 0 {
		rec.Set(FieldTreatment, Missing)
		rec.Set(FieldExtraVisitDate, "")
		return
	}
	parts, _ := collect(block, idx+1, equals(headingState))
	rec.Set(FieldTreatment, strings.Join(parts, "\n\n"))
	if followUp && heading == headingEvolution && idx > 0 {
		rec.Set(FieldExtraVisitDate, firstRunes(block[idx-1], 10))
		return
	}
	rec.Set(FieldExtraVisitDate, "")
}

// causality reads the causality paragraph starting at the heading at j.
// The criteria line is skipped.
func causality(block []string, j int) string {
	if j >= len(block) || block[j] != headingCausality {
		return Missing
	}
	parts, j := collect(block, j+1, func(line string) bool {
		return line == headingTemporary || strings.Contains(line, causalityCriteria)
	})
	if j < len(block) && strings.Contains(block[j], causalityCriteria) {
		rest, _ := collect(block, j+1, equals(headingTemporary))
		parts = append(parts, rest...)
	}
	return strings.Join(parts, " ")
}

// readState splits the state text into its labelled sub-sections.
func readState(rec *domain.Record, text string) {
	rec.Set(FieldHistory, Missing)
	rec.Set(FieldExamination, Missing)
	rec.Set(FieldTests, Missing)

	_, rest, ok := strings.Cut(text, labelHistory)
	if !ok {
		return
	}
	remaining := strings.TrimSpace(firstPart(rest, labelHistory))
	history, rest, ok := strings.Cut(remaining, labelExamination)
	rec.Set(FieldHistory, strings.TrimSpace(history))
	if !ok {
		return
	}
	remaining = strings.TrimSpace(firstPart(rest, labelExamination))
	exam, rest, ok := strings.Cut(remaining, labelTests)
	rec.Set(FieldExamination, strings.TrimSpace(exam))
	if !ok {
		return
	}
	rec.Set(FieldTests, strings.TrimSpace(firstPart(rest, labelTests)))
}

// firstPart keeps the text before a repeated label.
func firstPart(s, label string) string {
	before, _, _ := strings.Cut(s, label)
	return before
}

func readTemporaryInjuries(rec *domain.Record, block []string) {
	rec.Set(FieldSurgery, Missing)
	rec.Set(FieldPatrimonialDamage, Missing)

	i := indexOf(block, headingTemporary)
	if i < 0 {
		return
	}
	j := i + 1
	for j < len(block) && block[j] != headingSequelae {
		line := block[j]
		switch {
		case strings.HasPrefix(line, prefixSurgery):
			var parts []string
			parts, j = inlineAndFollowing(block, j, func(l string) bool {
				return strings.HasPrefix(l, prefixPatrimonial)
			})
			rec.Set(FieldSurgery, orMissing(strings.Join(parts, " ")))
		case strings.HasPrefix(line, prefixPatrimonial):
			var parts []string
			parts, j = inlineAndFollowing(block, j, equals(headingSequelae))
			rec.Set(FieldPatrimonialDamage, orMissing(strings.Join(parts, "\n\n")))
		default:
			j++
		}
	}
}

// inlineAndFollowing collects the value after the colon on line j plus the
// lines after it until stop.
func inlineAndFollowing(block []string, j int, stop func(string) bool) ([]string, int) {
	var parts []string
	if v := afterColon(block[j]); v != "" {
		parts = append(parts, v)
	}
	rest, next := collect(block, j+1, stop)
	return append(parts, rest...), next
}

func readSequelaeTotal(rec *domain.Record, block []string) {
	total, reasons := Missing, Missing
	for j, line := range block {
		if !strings.Contains(line, FieldSequelaeTotal) {
			continue
		}
		if strings.Contains(line, ":") {
			total = orMissing(afterColon(line))
			if j+1 < len(block) && strings.Contains(block[j+1], labelSequelaeReasons) && strings.Contains(block[j+1], ":") {
				reasons = orMissing(afterColon(block[j+1]))
			}
		}
		break
	}
	rec.Set(FieldSequelaeTotal, total)
	rec.Set(FieldSequelaeReasons, reasons)
}

func readClarifications(rec *domain.Record, block []string) {
	i := indexOf(block, headingClarifications)
	if i < 0 {
		rec.Set(FieldClarifications, Missing)
		return
	}
	parts, _ := collect(block, i+1, func(l string) bool {
		return strings.HasPrefix(l, prefixNextVisit) || strings.HasPrefix(l, prefixTestRequest)
	})
	rec.Set(FieldClarifications, orMissing(strings.Join(parts, "\n\n")))
}
