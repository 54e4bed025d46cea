package docx

import (
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/unicode/norm"
)

// NSWordML is the WordprocessingML main namespace.
const NSWordML = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// IsW reports whether el is the WordprocessingML element with the local name.
func IsW(el *etree.Element, local string) bool {
	if el == nil || el.Tag != local {
		return false
	}
	return el.Space == "w" || el.NamespaceURI() == NSWordML
}

// Children returns the direct WordprocessingML children with the local name.
func Children(el *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if IsW(c, local) {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first direct WordprocessingML child with the local name.
func Child(el *etree.Element, local string) *etree.Element {
	for _, c := range el.ChildElements() {
		if IsW(c, local) {
			return c
		}
	}
	return nil
}

// Attr returns a WordprocessingML attribute value and whether it is present.
func Attr(el *etree.Element, local string) (string, bool) {
	if el == nil {
		return "", false
	}
	for _, a := range el.Attr {
		if a.Key != local {
			continue
		}
		if a.Space == "w" || a.NamespaceURI() == NSWordML {
			return a.Value, true
		}
	}
	return "", false
}

// ParagraphText returns the text of a w:p the way Word presents it: runs that
// are direct children or inside hyperlinks, with tabs and line breaks.
func ParagraphText(p *etree.Element) string {
	var b strings.Builder
	for _, c := range p.ChildElements() {
		switch {
		case IsW(c, "r"):
			writeRunText(&b, c)
		case IsW(c, "hyperlink"):
			for _, r := range Children(c, "r") {
				writeRunText(&b, r)
			}
		}
	}
	return norm.NFC.String(b.String())
}

// RunText returns the text of a single w:r.
func RunText(r *etree.Element) string {
	var b strings.Builder
	writeRunText(&b, r)
	return b.String()
}

func writeRunText(b *strings.Builder, r *etree.Element) {
	for _, c := range r.ChildElements() {
		switch {
		case IsW(c, "t"):
			b.WriteString(c.Text())
		case IsW(c, "tab"), IsW(c, "ptab"):
			b.WriteByte('\t')
		case IsW(c, "br"):
			if typ, _ := Attr(c, "type"); typ == "" || typ == "textWrapping" {
				b.WriteByte('\n')
			}
		case IsW(c, "cr"):
			b.WriteByte('\n')
		case IsW(c, "noBreakHyphen"):
			b.WriteByte('-')
		}
	}
}

// CellText joins the paragraphs of a w:tc with newlines.
func CellText(tc *etree.Element) string {
	paras := Children(tc, "p")
	texts := make([]string, 0, len(paras))
	for _, p := range paras {
		texts = append(texts, ParagraphText(p))
	}
	return strings.Join(texts, "\n")
}
