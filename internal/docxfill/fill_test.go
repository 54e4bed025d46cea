package docxfill

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/docx"
	"github.com/dvloznov/medreport/internal/docx/docxtest"
	"github.com/dvloznov/medreport/internal/report"
)

type fakeFetcher struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	return f.data, f.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sampleTable() *report.Table {
	fields := []string{"Fecha siniestro", "Hora", "Nombre y apellidos", "Diagnóstico", "Tratamiento y evolución - processed"}
	return report.NewTable("EXP-1", "EXP-1 Ana.docx", fields,
		map[string]string{"Nombre y apellidos": "Ana López", "Diagnóstico": "Previo"},
		map[string]string{
			"Fecha siniestro":                     "01/02/2024 Hora: 10:30",
			"Nombre y apellidos":                  "Ana López",
			"Diagnóstico":                         "Esguince",
			"Tratamiento y evolución - processed": "Rehabilitación\n\nAnalgésicos",
		},
	)
}

func template() []byte {
	return docxtest.Build(
		docxtest.Paragraph("Paciente: {{Nombre y apellidos}}"),
		docxtest.Paragraph("Fecha: {{Fecha ", "siniestro}} a las {{Hora}} ({{Fecha Siniestro}})"),
		`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t>{{Doctor}}</w:t></w:r><w:r><w:t xml:space="preserve"> - {{Numero de colegiado}}</w:t></w:r></w:p>`,
		docxtest.Paragraph("{{Tratamiento y evolución - processed}}"),
		docxtest.Table([]string{"Diagnóstico", "{{Diagnóstico}}"}, []string{"Expediente", "{{Expediente}}"}),
		docxtest.Paragraph("Sin cambios {{Desconocido}}"),
		docxtest.Paragraph("{{signature image}}"),
		docxtest.Paragraph("Fin"),
	)
}

var doctor = config.Doctor{
	Name:          "Dra. Prueba",
	Number:        "Médico colegiado Nº 1 de Sevilla",
	SignatureURL:  "https://drive.google.com/file/d/abc/view",
	SignatureSize: 2,
}

func TestFill(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	extra := ExtraFor(doctor, "E-77", "Informe de urgencias", "")

	res, err := Fill(context.Background(), template(), sampleTable(), 1, extra, SignatureFor(doctor, fetcher))
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	if res.Filename != "EXP-1 Ana López E-77.docx" {
		t.Errorf("Filename = %q", res.Filename)
	}
	if len(fetcher.urls) != 1 || fetcher.urls[0] != doctor.SignatureURL {
		t.Errorf("fetched %v", fetcher.urls)
	}

	doc, err := docx.Parse(res.Data)
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}

	wantParagraphs := []string{
		"Paciente: Ana López",
		"Fecha: 01/02/2024 a las 10:30 (01/02/2024)",
		"Dra. Prueba - Médico colegiado Nº 1 de Sevilla",
		"Rehabilitación\n\nAnalgésicos",
		"Sin cambios {{Desconocido}}",
		"",
		"Fin",
	}
	if len(doc.Paragraphs) != len(wantParagraphs) {
		t.Fatalf("paragraphs = %q, want %q", doc.Paragraphs, wantParagraphs)
	}
	for i, want := range wantParagraphs {
		if doc.Paragraphs[i] != want {
			t.Errorf("paragraph %d = %q, want %q", i, doc.Paragraphs[i], want)
		}
	}

	if got := doc.Tables[0][0][1]; got != "Esguince" {
		t.Errorf("table diagnosis = %q, want Esguince", got)
	}
	if got := doc.Tables[0][1][1]; got != "E-77" {
		t.Errorf("table expediente = %q, want E-77", got)
	}

	bold := doc.BodyParagraphs()[2]
	if bold.FindElement("./w:pPr/w:jc") == nil || bold.FindElement("./w:r/w:rPr/w:b") == nil {
		t.Error("paragraph and first-run formatting should be kept")
	}
	if got := len(bold.FindElements("./w:r")); got != 1 {
		t.Errorf("rewritten paragraph has %d runs, want 1", got)
	}
}

func TestFill_SignatureParts(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 200, 100)}
	res, err := Fill(context.Background(), template(), sampleTable(), 0, Extra{}, SignatureSource{URL: "u", Inches: 2, Fetcher: fetcher})
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}

	doc, err := docx.Parse(res.Data)
	if err != nil {
		t.Fatal(err)
	}
	pkg := doc.Package()

	if !pkg.HasPart("word/media/firma1.png") {
		t.Errorf("media part missing; parts: %v", pkg.Names())
	}

	rels, _ := pkg.Part(docx.DocumentRelsPart)
	if !strings.Contains(string(rels), `Id="rId2"`) || !strings.Contains(string(rels), `Target="media/firma1.png"`) {
		t.Errorf("relationship not registered: %s", rels)
	}
	types, _ := pkg.Part(docx.ContentTypesPart)
	if !strings.Contains(string(types), `Extension="png"`) {
		t.Errorf("png content type not registered: %s", types)
	}

	sig := doc.BodyParagraphs()[5]
	if jc := sig.FindElement("./w:pPr/w:jc"); jc == nil || jc.SelectAttrValue("w:val", "") != "right" {
		t.Error("signature paragraph should be right aligned")
	}
	extent := sig.FindElement(".//wp:extent")
	if extent == nil {
		t.Fatal("inline drawing missing")
	}
	if cx, cy := extent.SelectAttrValue("cx", ""), extent.SelectAttrValue("cy", ""); cx != "1828800" || cy != "914400" {
		t.Errorf("extent = %s x %s, want 1828800 x 914400", cx, cy)
	}
	if blip := sig.FindElement(".//a:blip"); blip == nil || blip.SelectAttrValue("r:embed", "") != "rId2" {
		t.Error("blip should reference rId2")
	}
}

func TestFill_SignatureFailureRemovesPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		sig  SignatureSource
	}{
		{name: "fetch error", sig: SignatureSource{URL: "u", Fetcher: &fakeFetcher{err: errors.New("boom")}}},
		{name: "not an image", sig: SignatureSource{URL: "u", Fetcher: &fakeFetcher{data: []byte("<html>")}}},
		{name: "not configured", sig: SignatureSource{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Fill(context.Background(), template(), sampleTable(), 0, Extra{}, tt.sig)
			if err != nil {
				t.Fatalf("Fill failed: %v", err)
			}
			if len(res.Warnings) != 1 {
				t.Errorf("warnings = %v, want one", res.Warnings)
			}
			doc, err := docx.Parse(res.Data)
			if err != nil {
				t.Fatal(err)
			}
			for _, p := range doc.Paragraphs {
				if strings.Contains(p, SignaturePlaceholder) {
					t.Error("placeholder paragraph should be removed")
				}
			}
			if last := doc.Paragraphs[len(doc.Paragraphs)-1]; last != "Fin" {
				t.Errorf("last paragraph = %q, want Fin", last)
			}
		})
	}
}

func TestFill_VisitOutOfRange(t *testing.T) {
	for _, visit := range []int{-1, 2} {
		_, err := Fill(context.Background(), template(), sampleTable(), visit, Extra{}, SignatureSource{})
		if !errors.Is(err, ErrVisitOutOfRange) {
			t.Errorf("Fill(visit=%d) error = %v, want ErrVisitOutOfRange", visit, err)
		}
	}
}

func TestFill_BadTemplate(t *testing.T) {
	_, err := Fill(context.Background(), []byte("nope"), sampleTable(), 0, Extra{}, SignatureSource{})
	if !errors.Is(err, docx.ErrNotDocx) {
		t.Errorf("Fill() error = %v, want docx.ErrNotDocx", err)
	}
}

func TestFilename(t *testing.T) {
	table := sampleTable()
	tests := []struct {
		name  string
		table *report.Table
		extra Extra
		want  string
	}{
		{"all parts", table, Extra{Expediente: "E-1"}, "EXP-1 Ana López E-1.docx"},
		{"no expediente", table, Extra{}, "EXP-1 Ana López.docx"},
		{"nothing", report.NewTable("", "", nil, map[string]string{}), Extra{}, "informe.docx"},
		{"separators", report.NewTable("A/B", "", nil, map[string]string{}), Extra{}, "A-B.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.table, 0, tt.extra); got != tt.want {
				t.Errorf("Filename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodePicture(t *testing.T) {
	pic, err := decodePicture(pngBytes(t, 30, 10))
	if err != nil {
		t.Fatalf("decodePicture failed: %v", err)
	}
	if pic.ext != "png" || pic.width != 30 || pic.height != 10 {
		t.Errorf("picture = %s %dx%d", pic.ext, pic.width, pic.height)
	}
	if _, err := decodePicture([]byte("GIF")); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("decodePicture() error = %v, want ErrUnsupportedImage", err)
	}
}

func TestAddImagePart_FailureLeavesPackageUntouched(t *testing.T) {
	tests := []struct {
		name    string
		corrupt string
	}{
		{"broken relationships", docx.DocumentRelsPart},
		{"broken content types", docx.ContentTypesPart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := docx.OpenPackage(docxtest.Build(docxtest.Paragraph("x")))
			if err != nil {
				t.Fatal(err)
			}
			pkg.SetPart(tt.corrupt, []byte(`<Root attr=>`))

			before := make(map[string]string)
			for _, name := range pkg.Names() {
				data, _ := pkg.Part(name)
				before[name] = string(data)
			}

			pic, err := decodePicture(pngBytes(t, 4, 4))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := addImagePart(pkg, pic); err == nil {
				t.Fatal("addImagePart() expected error")
			}

			if names := pkg.Names(); len(names) != len(before) {
				t.Errorf("parts = %v, want %d unchanged parts", names, len(before))
			}
			for name, want := range before {
				if got, _ := pkg.Part(name); string(got) != want {
					t.Errorf("part %s changed", name)
				}
			}
		})
	}
}
