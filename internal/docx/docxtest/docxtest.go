// Package docxtest builds small in-memory .docx files for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// Escape escapes text for use inside XML.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Run returns a w:r with the text. Newlines become w:br and tabs w:tab.
func Run(text string) string {
	var b strings.Builder
	b.WriteString("<w:r>")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				b.WriteString("<w:tab/>")
			}
			if seg != "" {
				fmt.Fprintf(&b, `<w:t xml:space="preserve">%s</w:t>`, Escape(seg))
			}
		}
	}
	b.WriteString("</w:r>")
	return b.String()
}

// Paragraph returns a w:p made of one run per argument.
func Paragraph(runs ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, r := range runs {
		b.WriteString(Run(r))
	}
	b.WriteString("</w:p>")
	return b.String()
}

// Paragraphs returns one paragraph per line.
func Paragraphs(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(Paragraph(l))
	}
	return b.String()
}

// Cell returns a w:tc whose paragraphs are the newline-separated parts of text.
func Cell(text string) string {
	var b strings.Builder
	b.WriteString("<w:tc>")
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(Paragraph(line))
	}
	b.WriteString("</w:tc>")
	return b.String()
}

// Table returns a w:tbl with one row per slice.
func Table(rows ...[]string) string {
	var b strings.Builder
	b.WriteString("<w:tbl>")
	for _, row := range rows {
		b.WriteString("<w:tr>")
		for _, c := range row {
			b.WriteString(Cell(c))
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
	return b.String()
}

// RawTable wraps pre-built w:tr elements in a w:tbl.
func RawTable(rows ...string) string {
	return "<w:tbl>" + strings.Join(rows, "") + "</w:tbl>"
}

// Checkbox returns a paragraph with a legacy checkbox form field. checked is
// written verbatim as the w:checked element: "" omits it, "on" writes
// <w:checked/>, anything else becomes its w:val.
func Checkbox(name, checked string) string {
	var state string
	switch checked {
	case "":
	case "on":
		state = "<w:checked/>"
	default:
		state = fmt.Sprintf(`<w:checked w:val="%s"/>`, Escape(checked))
	}
	return fmt.Sprintf(`<w:p><w:r><w:fldChar w:fldCharType="begin"><w:ffData><w:name w:val="%s"/><w:enabled/><w:calcOnExit w:val="0"/><w:checkBox><w:sizeAuto/><w:default w:val="0"/>%s</w:checkBox></w:ffData></w:fldChar></w:r><w:r><w:instrText xml:space="preserve"> FORMCHECKBOX </w:instrText></w:r><w:r><w:fldChar w:fldCharType="end"/></w:r></w:p>`,
		Escape(name), state)
}

// DocumentXML wraps body content in a complete word/document.xml.
func DocumentXML(body ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
		`<w:body>` + strings.Join(body, "") +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

// Build returns a minimal .docx whose body is the concatenated content.
func Build(body ...string) []byte {
	return BuildXML(DocumentXML(body...))
}

// BuildXML returns a minimal .docx with the given document.xml.
func BuildXML(documentXML string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, data string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
		{"word/document.xml", documentXML},
		{"word/_rels/document.xml.rels", documentRels},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(p.data)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
