package extract

import (
	"reflect"
	"testing"

	"github.com/dvloznov/medreport/internal/docx"
	"github.com/dvloznov/medreport/internal/domain"
	"github.com/dvloznov/medreport/internal/extract/extracttest"
)

// pairs renders a record as "name=value" entries, with "name=<null>" for
// null values.
func pairs(rec *domain.Record) []string {
	var out []string
	for _, f := range rec.Fields() {
		if f.Value == nil {
			out = append(out, f.Name+"=<null>")
			continue
		}
		out = append(out, f.Name+"="+*f.Value)
	}
	return out
}

func TestExtract_Base(t *testing.T) {
	res := Extract(extracttest.Tables(), extracttest.Paragraphs())

	if got := res.Base.Len(); got != 41 {
		t.Errorf("Base.Len() = %d, want 41", got)
	}
	if got := res.Base.Names()[0]; got != FieldCompany {
		t.Errorf("first base field = %q, want %q", got, FieldCompany)
	}

	tests := []struct {
		field string
		want  string
	}{
		{FieldCompany, "MAPFRE"},
		{FieldAccidentDate, "01/02/2024 Hora: 10:30"},
		{"Lugar de la visita", "Madrid"},
		{FieldVisitDate, "05/02/2024"},
		{FieldDoctorName, "Dr. Pérez"},
		{FieldFullName, "Ana López"},
		{"NIF", "12345678X"},
		{"Edad", "40"},
		{"Sexo", "Mujer"},
		{"Domicilio", Missing},
		{"Estado civil", "Casada"},
		{"Nº de Hijos", "2"},
		{"Menores", Missing},
		{"Tipo", "Urgencias"},
		{FieldDischargeDate, "02/02/2024"},
		{"Nº Historial Clínico", Missing},
		{"Códigos", "S13.4"},
		{FieldDiagnosis, "Esguince cervical"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := res.Base.Get(tt.field)
			if !ok || got != tt.want {
				t.Errorf("Base[%q] = %q (%v), want %q", tt.field, got, ok, tt.want)
			}
		})
	}

	if !res.Base.IsNull("Hora") {
		t.Errorf("Base[Hora] should be null, got %q", res.Base.Value("Hora"))
	}
}

func TestExtract_FirstVisit(t *testing.T) {
	res := Extract(extracttest.Tables(), extracttest.Paragraphs())

	want := []string{
		"Lesiones muy graves=0",
		"Lesiones graves=3",
		"Lesiones moderados=-",
		"Lesiones basicos=-",
		"Fecha alta=15/03/2024",
		"Motivos variacion fecha final=Ninguno",
		"Codigo Secuela=01234",
		"Descripción secuela=Algia postraumática",
		"analogía secuela=-",
		"rango secuela=-",
		"prev/defin secuela=-",
		"puntuación secuela=2",
		"Perdida c vida: Grado y razonarlo=Leve",
		"Nombre abogado=Juan Ruiz",
		"Telefono abogado=600000000",
		"Antecedentes médicos del lesionado=Sin interés",
		"Descripción del accidente=Colisión trasera en rotonda",
		"Tratamiento y evolución. Exploraciones complementarias=Rehabilitación\n\nAnalgésicos",
		"Relación de causalidad=Se cumplen criterios Compatible",
		"HISTORIA ACTUAL=Dolor cervical",
		"EXPLORACION FISICA=Contractura",
		"Pruebas complementarias=RX normal",
		"Intervenciones quirúrgicas=No",
		"Patrimonial. Daño emergente (se indemniza su importe)=Farmacia",
		"Valoración Total Secuelas=2",
		"Motivos variación=Ninguno",
		"Aclaraciones=Paciente colaboradora",
	}
	if got := pairs(res.FirstVisit); !reflect.DeepEqual(got, want) {
		t.Errorf("FirstVisit =\n%q\nwant\n%q", got, want)
	}
}

func TestExtract_NextVisits(t *testing.T) {
	res := Extract(extracttest.Tables(), extracttest.Paragraphs())

	want := [][]string{
		{
			"Lesiones muy graves=1",
			"Lesiones graves=2",
			"Lesiones moderados=-",
			"Lesiones basicos=-",
			"Fecha alta=20/04/2024",
			"Motivos variacion fecha final=Sin cambios",
			"Codigo Secuela=05678",
			"Descripción secuela=-",
			"analogía secuela=-",
			"rango secuela=-",
			"prev/defin secuela=-",
			"puntuación secuela=3",
			"Tratamiento y evolución. Exploraciones complementarias=Mejoría",
			"Fecha de consulta extra=20/04/2024",
			"HISTORIA ACTUAL=Menos dolor",
			"EXPLORACION FISICA=Movilidad completa",
			"Aclaraciones=Alta próxima",
		},
		{
			"Lesiones muy graves=0",
			"Lesiones graves=-",
			"Lesiones moderados=-",
			"Lesiones basicos=-",
			"Fecha alta=30/05/2024",
			"Motivos variacion fecha final=",
			"Codigo Secuela=09999",
			"Descripción secuela=-",
			"analogía secuela=-",
			"rango secuela=-",
			"prev/defin secuela=-",
			"puntuación secuela=-",
			"Tratamiento y evolución. Exploraciones complementarias=Alta",
		},
		{
			"Tratamiento y evolución. Exploraciones complementarias=Nada",
			"Fecha de consulta extra=",
			"Estado actual y exploración física=-",
			"Intervenciones quirúrgicas=-",
			"Patrimonial. Daño emergente (se indemniza su importe)=-",
			"Valoración Total Secuelas=-",
			"Motivos variación=-",
			"Aclaraciones=-",
		},
	}

	if len(res.NextVisits) != len(want) {
		t.Fatalf("len(NextVisits) = %d, want %d", len(res.NextVisits), len(want))
	}
	for i := range want {
		if got := pairs(res.NextVisits[i]); !reflect.DeepEqual(got, want[i]) {
			t.Errorf("NextVisits[%d] =\n%q\nwant\n%q", i, got, want[i])
		}
	}
	if got := len(res.Visits()); got != 4 {
		t.Errorf("len(Visits()) = %d, want 4", got)
	}
}

func TestExtract_NoTables(t *testing.T) {
	res := Extract(nil, []string{
		"Antecedentes médicos del lesionado",
		"Hipertensión",
		"Próxima visita: 01/01/2025",
		"Evolución",
		"Estable",
	})

	if !res.Base.Empty() {
		t.Errorf("Base should be empty, got %q", pairs(res.Base))
	}
	if got := res.FirstVisit.Value("Lesiones muy graves"); got != Missing {
		t.Errorf("FirstVisit[Lesiones muy graves] = %q, want %q", got, Missing)
	}
	if got := res.FirstVisit.Value(FieldMedicalHistory); got != "Hipertensión" {
		t.Errorf("FirstVisit[%s] = %q", FieldMedicalHistory, got)
	}
	if res.FirstVisit.Has(FieldExtraVisitDate) {
		t.Error("empty narrative values must not be merged into the first visit")
	}
	if len(res.NextVisits) != 1 {
		t.Fatalf("len(NextVisits) = %d, want 1", len(res.NextVisits))
	}
	if got := res.NextVisits[0].Value(FieldTreatment); got != "Estable" {
		t.Errorf("NextVisits[0][%s] = %q, want Estable", FieldTreatment, got)
	}
}

func TestExtract_CompanyVisitDate(t *testing.T) {
	tests := []struct {
		name       string
		cell       string
		wantDate   string
		wantDoctor string
		doctorNull bool
	}{
		{name: "date and doctor", cell: "Fecha visita: 05/02/24 Dra. Gómez", wantDate: "05/02/24", wantDoctor: "Dra. Gómez"},
		{name: "date only", cell: "Fecha visita: 05/02/2024", wantDate: "05/02/2024", doctorNull: true},
		{name: "free text", cell: "Fecha visita: pendiente", wantDate: "pendiente", doctorNull: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract([][][]string{{{tt.cell}}}, nil)
			if got := res.Base.Value(FieldVisitDate); got != tt.wantDate {
				t.Errorf("visit date = %q, want %q", got, tt.wantDate)
			}
			if tt.doctorNull {
				if !res.Base.IsNull(FieldDoctorName) {
					t.Errorf("doctor should be null, got %q", res.Base.Value(FieldDoctorName))
				}
				return
			}
			if got := res.Base.Value(FieldDoctorName); got != tt.wantDoctor {
				t.Errorf("doctor = %q, want %q", got, tt.wantDoctor)
			}
		})
	}
}

func TestExtract_WideSpacesAndMissingTables(t *testing.T) {
	tables := [][][]string{
		{{"Compañía: AXA"}},
		{{"Nombre y apellidos:\u2003Luis\u2002\u2002Martín", "Protección: Casco ¿Agravación por no uso protección?: No"}},
	}
	res := Extract(tables, nil)

	if got := res.Base.Value(FieldFullName); got != "Luis Martín" {
		t.Errorf("full name = %q, want %q", got, "Luis Martín")
	}
	if got := res.Base.Value("Protección"); got != "Casco No" {
		t.Errorf("Protección = %q, want %q", got, "Casco No")
	}
	for _, field := range []string{"Estado civil", "Tipo", FieldDiagnosis} {
		if got := res.Base.Value(field); got != Missing {
			t.Errorf("%s = %q, want %q", field, got, Missing)
		}
	}
	if len(res.NextVisits) != 0 {
		t.Errorf("len(NextVisits) = %d, want 0", len(res.NextVisits))
	}
}

func TestExtract_FollowUpSearchSkipsUnrelatedTables(t *testing.T) {
	tables := make([][][]string, 10)
	tables = append(tables,
		[][]string{{"Otra tabla"}},
		[][]string{{"Muy graves: 2"}},
		[][]string{{"Código"}, {"111"}},
	)
	res := Extract(tables, nil)

	if len(res.NextVisits) != 1 {
		t.Fatalf("len(NextVisits) = %d, want 1", len(res.NextVisits))
	}
	if got := res.NextVisits[0].Value("Lesiones muy graves"); got != "2" {
		t.Errorf("Lesiones muy graves = %q, want 2", got)
	}
	if got := res.NextVisits[0].Value("Codigo Secuela"); got != "111" {
		t.Errorf("Codigo Secuela = %q, want 111", got)
	}
}

func TestExtract_TemporaryInjuriesAcrossLines(t *testing.T) {
	res := Extract(nil, []string{
		"Lesiones temporales",
		"Intervenciones quirúrgicas:",
		"Artroscopia",
		"de rodilla",
		"Patrimonial. Daño emergente (se indemniza su importe):",
		"Farmacia",
		"Transporte",
		"Secuelas. Básico",
		"Valoración Total Secuelas",
		"Motivos variación: ignorado",
	})

	tests := []struct {
		field string
		want  string
	}{
		{FieldSurgery, "Artroscopia de rodilla"},
		{FieldPatrimonialDamage, "Farmacia\n\nTransporte"},
		{FieldSequelaeTotal, Missing},
		{FieldSequelaeReasons, Missing},
		{FieldClarifications, Missing},
	}
	for _, tt := range tests {
		if got := res.FirstVisit.Value(tt.field); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestFromDocument(t *testing.T) {
	doc, err := docx.Parse(extracttest.Docx())
	if err != nil {
		t.Fatalf("docx.Parse failed: %v", err)
	}

	got := FromDocument(doc)
	want := Extract(extracttest.Tables(), extracttest.Paragraphs())

	if !reflect.DeepEqual(pairs(got.Base), pairs(want.Base)) {
		t.Errorf("Base =\n%q\nwant\n%q", pairs(got.Base), pairs(want.Base))
	}
	if !reflect.DeepEqual(pairs(got.FirstVisit), pairs(want.FirstVisit)) {
		t.Errorf("FirstVisit =\n%q\nwant\n%q", pairs(got.FirstVisit), pairs(want.FirstVisit))
	}
	if len(got.NextVisits) != len(want.NextVisits) {
		t.Fatalf("len(NextVisits) = %d, want %d", len(got.NextVisits), len(want.NextVisits))
	}
	for i := range want.NextVisits {
		if !reflect.DeepEqual(pairs(got.NextVisits[i]), pairs(want.NextVisits[i])) {
			t.Errorf("NextVisits[%d] differs", i)
		}
	}
}
