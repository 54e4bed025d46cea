// Package docx reads WordprocessingML (.docx) documents into table and
// paragraph text and exposes the XML tree for in-place edits.
package docx

import (
	"fmt"
	"os"
	"strconv"

	"github.com/beevik/etree"
)

// Document is a parsed .docx.
type Document struct {
	// Tables holds the top-level body tables as table → row → cell text.
	// Horizontally merged cells repeat once per spanned grid column and
	// vertical merge continuations repeat the text of the cell above.
	Tables [][][]string
	// Paragraphs holds the text of every top-level body paragraph, blank
	// ones included.
	Paragraphs []string
	// XML is the raw word/document.xml.
	XML []byte

	pkg  *Package
	tree *etree.Document
}

// Open reads and parses the .docx at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Open: %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses .docx bytes.
func Parse(data []byte) (*Document, error) {
	pkg, err := OpenPackage(data)
	if err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}

	raw, _ := pkg.Part(DocumentPart)
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("Parse: reading %s: %w", DocumentPart, err)
	}

	doc := &Document{
		XML:  raw,
		pkg:  pkg,
		tree: tree,
	}

	body := doc.Body()
	if body == nil {
		return nil, fmt.Errorf("Parse: %w: document has no body", ErrNotDocx)
	}

	for _, el := range body.ChildElements() {
		switch {
		case IsW(el, "tbl"):
			doc.Tables = append(doc.Tables, tableText(el))
		case IsW(el, "p"):
			doc.Paragraphs = append(doc.Paragraphs, ParagraphText(el))
		}
	}

	return doc, nil
}

// Package returns the underlying package for writing modified parts.
func (d *Document) Package() *Package {
	return d.pkg
}

// Tree returns the document.xml DOM.
func (d *Document) Tree() *etree.Document {
	return d.tree
}

// Body returns the w:body element.
func (d *Document) Body() *etree.Element {
	root := d.tree.Root()
	if root == nil {
		return nil
	}
	return Child(root, "body")
}

// BodyTables returns the top-level w:tbl elements.
func (d *Document) BodyTables() []*etree.Element {
	body := d.Body()
	if body == nil {
		return nil
	}
	return Children(body, "tbl")
}

// BodyParagraphs returns the top-level w:p elements.
func (d *Document) BodyParagraphs() []*etree.Element {
	body := d.Body()
	if body == nil {
		return nil
	}
	return Children(body, "p")
}

// Bytes serialises the current DOM back into the package and returns the
// resulting .docx.
func (d *Document) Bytes() ([]byte, error) {
	raw, err := d.tree.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("Bytes: writing %s: %w", DocumentPart, err)
	}
	d.pkg.SetPart(DocumentPart, raw)
	d.XML = raw

	out, err := d.pkg.Bytes()
	if err != nil {
		return nil, fmt.Errorf("Bytes: %w", err)
	}
	return out, nil
}

// expandRow maps grid positions to the cell that provides their content.
// The returned slice is indexed by grid column minus gridBefore padding.
func expandRow(tr *etree.Element, above []*etree.Element) []*etree.Element {
	col := gridBefore(tr)
	var out []*etree.Element
	for _, tc := range Children(tr, "tc") {
		span := gridSpan(tc)
		src := tc
		if isMergeContinuation(tc) {
			if col < len(above) && above[col] != nil {
				src = above[col]
			}
		}
		for i := 0; i < span; i++ {
			out = append(out, src)
		}
		col += span
	}
	return out
}

// gridRow returns the providing cell per absolute grid column.
func gridRow(tr *etree.Element, above []*etree.Element) []*etree.Element {
	before := gridBefore(tr)
	grid := make([]*etree.Element, before)
	return append(grid, expandRow(tr, above)...)
}

func tableText(tbl *etree.Element) [][]string {
	var rows [][]string
	var above []*etree.Element
	texts := make(map[*etree.Element]string)

	for _, tr := range Children(tbl, "tr") {
		cells := expandRow(tr, above)
		row := make([]string, 0, len(cells))
		for _, tc := range cells {
			text, ok := texts[tc]
			if !ok {
				text = CellText(tc)
				texts[tc] = text
			}
			row = append(row, text)
		}
		rows = append(rows, row)
		above = gridRow(tr, above)
	}
	return rows
}

func gridBefore(tr *etree.Element) int {
	trPr := Child(tr, "trPr")
	if trPr == nil {
		return 0
	}
	return intVal(Child(trPr, "gridBefore"), 0)
}

func gridSpan(tc *etree.Element) int {
	tcPr := Child(tc, "tcPr")
	if tcPr == nil {
		return 1
	}
	n := intVal(Child(tcPr, "gridSpan"), 1)
	if n < 1 {
		return 1
	}
	return n
}

func isMergeContinuation(tc *etree.Element) bool {
	tcPr := Child(tc, "tcPr")
	if tcPr == nil {
		return false
	}
	vm := Child(tcPr, "vMerge")
	if vm == nil {
		return false
	}
	val, ok := Attr(vm, "val")
	return !ok || val == "continue"
}

func intVal(el *etree.Element, def int) int {
	if el == nil {
		return def
	}
	v, ok := Attr(el, "val")
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
