package formfields

import (
	"reflect"
	"testing"

	"github.com/dvloznov/medreport/internal/docx/docxtest"
)

func parseBody(t *testing.T, body ...string) []byte {
	t.Helper()
	return []byte(docxtest.DocumentXML(body...))
}

func TestConsentState(t *testing.T) {
	tests := []struct {
		name   string
		body   []string
		want   string
		wantOK bool
	}{
		{
			name:   "first occurrence unchecked means yes",
			body:   []string{docxtest.Checkbox("Casilla9", "0"), docxtest.Checkbox("Casilla9", "on")},
			want:   ConsentYes,
			wantOK: true,
		},
		{
			name:   "second occurrence unchecked means no",
			body:   []string{docxtest.Checkbox("Casilla9", "on"), docxtest.Checkbox("Casilla9", "0")},
			want:   ConsentNo,
			wantOK: true,
		},
		{
			name:   "missing checked element is ignored",
			body:   []string{docxtest.Checkbox("Casilla9", ""), docxtest.Checkbox("Casilla9", "0")},
			want:   ConsentNo,
			wantOK: true,
		},
		{
			name:   "other field names are ignored",
			body:   []string{docxtest.Checkbox("Casilla8", "0"), docxtest.Checkbox("Casilla9", "1")},
			wantOK: false,
		},
		{
			name:   "third occurrence does not count",
			body:   []string{docxtest.Checkbox("Casilla9", "1"), docxtest.Checkbox("Casilla9", "1"), docxtest.Checkbox("Casilla9", "0")},
			wantOK: false,
		},
		{
			name:   "no form fields",
			body:   []string{docxtest.Paragraph("nothing here")},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse(parseBody(t, tt.body...))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			got, ok := ConsentState(root)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ConsentState() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func visitGroup(first, second, third string) []string {
	return []string{
		docxtest.Paragraph(" Próxima visita: "),
		docxtest.Checkbox("Seg", first),
		docxtest.Checkbox("Fin", second),
		docxtest.Checkbox("Def", third),
	}
}

func TestNextVisitTypes(t *testing.T) {
	var body []string
	body = append(body, visitGroup("on", "", "")...)
	body = append(body, visitGroup("0", "1", "")...)
	body = append(body, visitGroup("0", "0", "on")...)
	body = append(body, visitGroup("", "0", "")...)

	root, err := Parse(parseBody(t, body...))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := NextVisitTypes(root)
	want := []VisitType{
		{Value: VisitFollowUp, Set: true},
		{Value: VisitFinal, Set: true},
		{Value: VisitFinalDefinite, Set: true},
		{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NextVisitTypes() = %+v, want %+v", got, want)
	}
}

func TestNextVisitTypes_SkipsMarkerWithoutThreeBoxes(t *testing.T) {
	body := []string{
		docxtest.Paragraph("Próxima visita:"),
		docxtest.Checkbox("a", "on"),
		docxtest.Checkbox("b", ""),
	}

	root, err := Parse(parseBody(t, body...))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := NextVisitTypes(root); len(got) != 0 {
		t.Errorf("expected no results, got %+v", got)
	}
}

func TestNextVisitTypes_MarkerMustBeWholeRun(t *testing.T) {
	body := append([]string{docxtest.Paragraph("Próxima visita: el lunes")}, visitGroup("on", "", "")[1:]...)

	root, err := Parse(parseBody(t, body...))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := NextVisitTypes(root); len(got) != 0 {
		t.Errorf("expected no results, got %+v", got)
	}
}

func TestNextVisitTypes_OverlappingGroupsShareCheckboxes(t *testing.T) {
	body := []string{
		docxtest.Paragraph("Próxima visita:"),
		docxtest.Paragraph("Próxima visita:"),
		docxtest.Checkbox("a", "0"),
		docxtest.Checkbox("b", "on"),
		docxtest.Checkbox("c", ""),
	}

	root, err := Parse(parseBody(t, body...))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := NextVisitTypes(root)
	if len(got) != 2 || got[0].Value != VisitFinal || got[1].Value != VisitFinal {
		t.Errorf("NextVisitTypes() = %+v", got)
	}
}
