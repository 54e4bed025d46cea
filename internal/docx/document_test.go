package docx_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dvloznov/medreport/internal/docx"
	"github.com/dvloznov/medreport/internal/docx/docxtest"
)

func TestParse_TablesAndParagraphs(t *testing.T) {
	data := docxtest.Build(
		docxtest.Paragraph("Informe"),
		docxtest.Table(
			[]string{"Compañía: ACME", "Hora: 10:00"},
			[]string{"line one\nline two", ""},
		),
		docxtest.Paragraph(""),
		docxtest.Paragraph("Antecedentes", " médicos"),
	)

	doc, err := docx.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wantTables := [][][]string{{
		{"Compañía: ACME", "Hora: 10:00"},
		{"line one\nline two", ""},
	}}
	if !reflect.DeepEqual(doc.Tables, wantTables) {
		t.Errorf("Tables = %#v, want %#v", doc.Tables, wantTables)
	}

	wantParas := []string{"Informe", "", "Antecedentes médicos"}
	if !reflect.DeepEqual(doc.Paragraphs, wantParas) {
		t.Errorf("Paragraphs = %#v, want %#v", doc.Paragraphs, wantParas)
	}
}

func TestParse_RunTextElements(t *testing.T) {
	para := `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t><w:br w:type="page"/><w:noBreakHyphen/><w:cr/></w:r>` +
		`<w:hyperlink r:id="rId9"><w:r><w:t>link</w:t></w:r></w:hyperlink></w:p>`

	doc, err := docx.Parse(docxtest.Build(para))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := "a\tb\nc-\nlink"
	if len(doc.Paragraphs) != 1 || doc.Paragraphs[0] != want {
		t.Errorf("Paragraphs = %q, want [%q]", doc.Paragraphs, want)
	}
}

func TestParse_NormalisesToNFC(t *testing.T) {
	decomposed := "Compan\u0303i\u0301a"
	doc, err := docx.Parse(docxtest.Build(docxtest.Paragraph(decomposed)))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Paragraphs[0] != "Compañía" {
		t.Errorf("expected NFC text, got %q", doc.Paragraphs[0])
	}
}

func TestParse_MergedCells(t *testing.T) {
	tbl := docxtest.RawTable(
		`<w:tr>`+
			`<w:tc><w:tcPr><w:gridSpan w:val="2"/></w:tcPr>`+docxtest.Paragraph("wide")+`</w:tc>`+
			`<w:tc><w:tcPr><w:vMerge w:val="restart"/></w:tcPr>`+docxtest.Paragraph("tall")+`</w:tc>`+
			`</w:tr>`,
		`<w:tr>`+
			docxtest.Cell("a")+docxtest.Cell("b")+
			`<w:tc><w:tcPr><w:vMerge/></w:tcPr>`+docxtest.Paragraph("")+`</w:tc>`+
			`</w:tr>`,
		`<w:tr>`+
			docxtest.Cell("c")+docxtest.Cell("d")+
			`<w:tc><w:tcPr><w:vMerge w:val="continue"/></w:tcPr>`+docxtest.Paragraph("")+`</w:tc>`+
			`</w:tr>`,
	)

	doc, err := docx.Parse(docxtest.Build(tbl))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := [][]string{
		{"wide", "wide", "tall"},
		{"a", "b", "tall"},
		{"c", "d", "tall"},
	}
	if !reflect.DeepEqual(doc.Tables[0], want) {
		t.Errorf("table = %#v, want %#v", doc.Tables[0], want)
	}
}

func TestParse_NestedTablesAreNotTopLevel(t *testing.T) {
	inner := docxtest.Table([]string{"inner"})
	outer := docxtest.RawTable(`<w:tr><w:tc>` + docxtest.Paragraph("outer") + inner + `</w:tc></w:tr>`)

	doc, err := docx.Parse(docxtest.Build(outer, docxtest.Table([]string{"second"})))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(doc.Tables) != 2 {
		t.Fatalf("expected 2 top-level tables, got %d", len(doc.Tables))
	}
	if doc.Tables[0][0][0] != "outer" {
		t.Errorf("nested table text leaked into cell: %q", doc.Tables[0][0][0])
	}
	if doc.Tables[1][0][0] != "second" {
		t.Errorf("second table = %q", doc.Tables[1][0][0])
	}
}

func TestParse_NotDocx(t *testing.T) {
	_, err := docx.Parse([]byte("plain text"))
	if !errors.Is(err, docx.ErrNotDocx) {
		t.Errorf("expected ErrNotDocx, got %v", err)
	}
}

func TestDocument_BytesRoundTrip(t *testing.T) {
	doc, err := docx.Parse(docxtest.Build(docxtest.Paragraph("hello")))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	paras := doc.BodyParagraphs()
	tEl := paras[0].FindElement(".//w:t")
	if tEl == nil {
		t.Fatal("no w:t found")
	}
	tEl.SetText("bye")

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	again, err := docx.Parse(out)
	if err != nil {
		t.Fatalf("re-Parse failed: %v", err)
	}
	if again.Paragraphs[0] != "bye" {
		t.Errorf("round trip text = %q", again.Paragraphs[0])
	}
	if !again.Package().HasPart("word/_rels/document.xml.rels") {
		t.Error("relationships part lost in round trip")
	}
	if !strings.Contains(string(again.XML), "w:sectPr") {
		t.Error("section properties lost in round trip")
	}
}

func TestPackage_SetPart(t *testing.T) {
	pkg, err := docx.OpenPackage(docxtest.Build())
	if err != nil {
		t.Fatalf("OpenPackage failed: %v", err)
	}

	pkg.SetPart("word/media/image1.png", []byte{1, 2, 3})
	out, err := pkg.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	again, err := docx.OpenPackage(out)
	if err != nil {
		t.Fatalf("OpenPackage failed: %v", err)
	}
	data, ok := again.Part("word/media/image1.png")
	if !ok || !reflect.DeepEqual(data, []byte{1, 2, 3}) {
		t.Errorf("media part = %v, %v", data, ok)
	}
	names := again.Names()
	if names[len(names)-1] != "word/media/image1.png" {
		t.Errorf("new part should be appended, names = %v", names)
	}
}
