// Package formfields reads legacy Word form-field checkboxes from
// word/document.xml.
package formfields

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/dvloznov/medreport/internal/docx"
)

// Values reported for the consent form field.
const (
	ConsentYes = "SI"
	ConsentNo  = "NO"
)

// Visit types behind the three "Próxima visita:" checkboxes, in order.
const (
	VisitFollowUp      = "Seguimiento"
	VisitFinal         = "Final"
	VisitFinalDefinite = "Final definitive"
)

// ConsentFieldName is the form-field name of the consent checkbox pair.
const ConsentFieldName = "Casilla9"

// NextVisitMarker is the text that precedes each visit-type checkbox group.
const NextVisitMarker = "Próxima visita:"

var namespaces = map[string]string{"w": docx.NSWordML}

var (
	consentExpr  = mustCompile(`//w:ffData[w:name/@w:val='` + ConsentFieldName + `']`)
	checkedExpr  = mustCompile(`w:checkBox/w:checked`)
	childChecked = mustCompile(`w:checked`)
)

func mustCompile(expr string) *xpath.Expr {
	e, err := xpath.CompileWithNS(expr, namespaces)
	if err != nil {
		panic(fmt.Sprintf("formfields: compiling %q: %v", expr, err))
	}
	return e
}

// Parse parses document XML for the checkbox queries.
func Parse(documentXML []byte) (*xmlquery.Node, error) {
	root, err := xmlquery.Parse(bytes.NewReader(documentXML))
	if err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	return root, nil
}

// ConsentState inspects the Casilla9 checkbox pair. The first occurrence
// explicitly unchecked means "SI", the second explicitly unchecked means
// "NO". The boolean is false when neither rule applies.
func ConsentState(root *xmlquery.Node) (string, bool) {
	for idx, ff := range xmlquery.QuerySelectorAll(root, consentExpr) {
		checked := xmlquery.QuerySelector(ff, checkedExpr)
		if checked == nil || !hasAttrValue(checked, "val", "0") {
			continue
		}
		switch idx {
		case 0:
			return ConsentYes, true
		case 1:
			return ConsentNo, true
		}
	}
	return "", false
}

// VisitType is the result for one "Próxima visita:" marker. Set is false
// when none of the three boxes is checked.
type VisitType struct {
	Value string
	Set   bool
}

// NextVisitTypes returns one entry per "Próxima visita:" marker that is
// followed by at least three checkboxes in document order.
func NextVisitTypes(root *xmlquery.Node) []VisitType {
	elements := elementsInOrder(root)
	var out []VisitType

	for i, el := range elements {
		if !isW(el, "t") || strings.TrimSpace(el.InnerText()) != NextVisitMarker {
			continue
		}

		var boxes []*xmlquery.Node
		for j := i + 1; j < len(elements) && len(boxes) < 3; j++ {
			if isW(elements[j], "checkBox") {
				boxes = append(boxes, elements[j])
			}
		}
		if len(boxes) < 3 {
			continue
		}

		switch {
		case isChecked(boxes[0]):
			out = append(out, VisitType{Value: VisitFollowUp, Set: true})
		case isChecked(boxes[1]):
			out = append(out, VisitType{Value: VisitFinal, Set: true})
		case isChecked(boxes[2]):
			out = append(out, VisitType{Value: VisitFinalDefinite, Set: true})
		default:
			out = append(out, VisitType{})
		}
	}
	return out
}

// isChecked treats a present w:checked as checked unless its value is "0".
func isChecked(box *xmlquery.Node) bool {
	checked := xmlquery.QuerySelector(box, childChecked)
	if checked == nil {
		return false
	}
	return !hasAttrValue(checked, "val", "0")
}

func hasAttrValue(n *xmlquery.Node, local, value string) bool {
	for _, a := range n.Attr {
		if a.Name.Local == local && (a.Name.Space == "w" || a.NamespaceURI == docx.NSWordML) {
			return a.Value == value
		}
	}
	return false
}

func isW(n *xmlquery.Node, local string) bool {
	return n.Type == xmlquery.ElementNode && n.Data == local &&
		(n.Prefix == "w" || n.NamespaceURI == docx.NSWordML)
}

func elementsInOrder(root *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}
