package docxfill

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/dvloznov/medreport/internal/docx"
)

type replacement struct {
	key string
	val string
}

// replaceInParagraph applies the replacements to the paragraph text as a
// whole, so placeholders split across runs are found. When anything
// changes, the paragraph is rewritten as a single run carrying the first
// run's formatting.
func replaceInParagraph(p *etree.Element, list []replacement) bool {
	text := docx.ParagraphText(p)
	if !strings.Contains(text, "{{") {
		return false
	}
	out := text
	for _, r := range list {
		if strings.Contains(out, r.key) {
			out = strings.ReplaceAll(out, r.key, r.val)
		}
	}
	if out == text {
		return false
	}
	setParagraphText(p, out)
	return true
}

// setParagraphText replaces everything but the paragraph properties with one
// run holding text.
func setParagraphText(p *etree.Element, text string) {
	var rPr *etree.Element
	if r := firstRun(p); r != nil {
		if props := docx.Child(r, "rPr"); props != nil {
			rPr = props.Copy()
		}
	}

	for _, c := range p.ChildElements() {
		if !docx.IsW(c, "pPr") {
			p.RemoveChild(c)
		}
	}

	run := p.CreateElement("w:r")
	if rPr != nil {
		run.AddChild(rPr)
	}
	writeRunText(run, text)
}

func firstRun(p *etree.Element) *etree.Element {
	for _, c := range p.ChildElements() {
		switch {
		case docx.IsW(c, "r"):
			return c
		case docx.IsW(c, "hyperlink"):
			if r := docx.Child(c, "r"); r != nil {
				return r
			}
		}
	}
	return nil
}

// writeRunText appends w:t elements, turning newlines into w:br and tabs
// into w:tab.
func writeRunText(run *etree.Element, text string) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			run.CreateElement("w:br")
		}
		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				run.CreateElement("w:tab")
			}
			if seg == "" {
				continue
			}
			t := run.CreateElement("w:t")
			t.CreateAttr("xml:space", "preserve")
			t.SetText(seg)
		}
	}
}

// tableParagraphs returns the paragraphs of every top-level table cell.
func tableParagraphs(doc *docx.Document) []*etree.Element {
	var out []*etree.Element
	for _, tbl := range doc.BodyTables() {
		for _, tr := range docx.Children(tbl, "tr") {
			for _, tc := range docx.Children(tr, "tc") {
				out = append(out, docx.Children(tc, "p")...)
			}
		}
	}
	return out
}
