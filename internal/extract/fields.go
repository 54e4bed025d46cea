package extract

// Field names shared with the report layer.
const (
	FieldCompany           = "Compañía"
	FieldAccidentDate      = "Fecha siniestro"
	FieldVisitDate         = "Fecha visita"
	FieldDoctorName        = "Nombre del Doctor"
	FieldFullName          = "Nombre y apellidos"
	FieldDischargeDate     = "Fecha alta"
	FieldDiagnosis         = "Diagnóstico"
	FieldTreatment         = "Tratamiento y evolución. Exploraciones complementarias"
	FieldExtraVisitDate    = "Fecha de consulta extra"
	FieldCurrentState      = "Estado actual y exploración física"
	FieldCausality         = "Relación de causalidad"
	FieldHistory           = "HISTORIA ACTUAL"
	FieldExamination       = "EXPLORACION FISICA"
	FieldTests             = "Pruebas complementarias"
	FieldSurgery           = "Intervenciones quirúrgicas"
	FieldPatrimonialDamage = "Patrimonial. Daño emergente (se indemniza su importe)"
	FieldSequelaeTotal     = "Valoración Total Secuelas"
	FieldSequelaeReasons   = "Motivos variación"
	FieldClarifications    = "Aclaraciones"
	FieldMedicalHistory    = "Antecedentes médicos del lesionado"
	FieldAccident          = "Descripción del accidente"
	FieldLifeQualityGrade  = "Perdida c vida: Grado y razonarlo"
	FieldDischargeReasons  = "Motivos variacion fecha final"
)

// Placeholder stored for fields that were looked for but are empty.
const Missing = "-"

var companyFields = []string{
	FieldCompany,
	FieldAccidentDate,
	"Hora",
	"Lugar de la visita",
	FieldVisitDate,
	FieldDoctorName,
}

var injuredFields = []string{
	FieldFullName,
	"Condición",
	"Domicilio",
	"NIF",
	"Población",
	"Teléfono (FyM)",
	"C.P.",
	"Edad",
	"Fecha nacimiento",
	"Provincia",
	"Sexo",
	"Lateralidad",
	"Profesión",
	"Nivel s.e.",
	"Puesto de trabajo / ocupación",
	"Deportes",
	"Federado",
	"Situación laboral en el momento del accidente",
	"Actividades de ocio",
	"Mail",
	"Protección",
	"¿Agravación por no uso protección?",
}

var familyFields = []string{
	"Estado civil",
	"Nº de Hijos",
	"Menores",
	"Miembros unidad familiar",
	">18 años",
	"<18 años",
	"Miembros discapacitados",
}

var hospitalFields = []string{"Tipo", "Fecha ingreso", FieldDischargeDate, "Nº Historial Clínico"}

var diagnosisFields = []string{"Códigos", FieldDiagnosis}

// mapping pairs a label found in the document with the field it fills.
type mapping struct {
	label string
	field string
}

type mappings []mapping

func (m mappings) lookup(label string) (string, bool) {
	for _, p := range m {
		if p.label == label {
			return p.field, true
		}
	}
	return "", false
}

func (m mappings) fields() []string {
	out := make([]string, len(m))
	for i, p := range m {
		out[i] = p.field
	}
	return out
}

var injuryGrades = mappings{
	{"Muy graves", "Lesiones muy graves"},
	{"Graves", "Lesiones graves"},
	{"Moderados", "Lesiones moderados"},
	{"Básicos", "Lesiones basicos"},
	{"Fecha alta", FieldDischargeDate},
	{"Motivos variación de fecha inicial", FieldDischargeReasons},
}

var sequelae = mappings{
	{"Código", "Codigo Secuela"},
	{"Descripción secuela", "Descripción secuela"},
	{"Analogía", "analogía secuela"},
	{"Rango", "rango secuela"},
	{"Prev./Defin.", "prev/defin secuela"},
	{"Puntuación", "puntuación secuela"},
}

var lawyer = mappings{
	{"Nombre abogado", "Nombre abogado"},
	{"Teléfono", "Telefono abogado"},
}

// Section headings in the free-text part of the report.
const (
	headingMedicalHistory = "Antecedentes médicos del lesionado"
	headingAccident       = "Descripción del accidente"
	headingCareData       = "Datos asistenciales"
	headingEvolution      = "Evolución"
	headingState          = "Estado actual y exploración física"
	headingCausality      = "Relación de causalidad"
	headingTemporary      = "Lesiones temporales"
	headingSequelae       = "Secuelas. Básico"
	headingClarifications = "Aclaraciones:"
	causalityCriteria     = "(exclusión, cronológico, topográfico, intensidad)"
	prefixSurgery         = "Intervenciones quirúrgicas"
	prefixPatrimonial     = "Patrimonial. Daño emergente"
	prefixNextVisit       = "Próxima visita"
	prefixTestRequest     = "Solicitud para la autorización de pruebas"
	labelHistory          = "HISTORIA ACTUAL:"
	labelExamination      = "EXPLORACION FISICA:"
	labelTests            = "Pruebas complementarias:"
	labelSequelaeReasons  = "Motivos variación"
)

// BlockSeparator marks the start of a follow-up visit in the free text.
const BlockSeparator = "Próxima visita:"

// treatmentHeadings are tried in this order; the earliest in the block wins.
var treatmentHeadings = []string{FieldTreatment, headingEvolution}
