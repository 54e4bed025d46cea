package report

// Columns added to every visit row on top of the extracted fields.
const (
	ColumnConsent        = "Pérdida c vida"
	ColumnNextVisit      = "Proxima visita"
	ColumnDocumentNumber = "Numero de documento"
)

// NoVisitType fills the visit type of visits without a next-visit marker.
const NoVisitType = "NO"

// DesiredColumns is the field order of the exported table. "Fecha alta"
// appears twice.
var DesiredColumns = []string{
	"Compañía", "Fecha siniestro", "Hora", "Lugar de la visita", "Fecha visita",
	"Nombre y apellidos", "Condición", "Domicilio", "NIF", "Población",
	"Teléfono (FyM)", "C.P.", "Edad", "Fecha nacimiento", "Provincia", "Sexo",
	"Lateralidad", "Profesión", "Nivel s.e.", "Puesto de trabajo / ocupación",
	"Deportes", "Situación laboral en el momento del accidente", "Actividades de ocio",
	"Mail", "Protección", "¿Agravación por no uso protección?", "Estado civil",
	"Nº de Hijos", "Menores", "Miembros unidad familiar", "<18 años", ">18 años",
	"Miembros discapacitados", "Ama de casa", "Total", "Parcial",
	"Antecedentes médicos del lesionado", "Descripción del accidente", "Tipo",
	"Fecha ingreso", "Fecha alta", "Nº Historial Clínico", "Códigos", "Diagnóstico",
	"Tratamiento y evolución - processed", "HISTORIA ACTUAL", "EXPLORACION FISICA",
	"Pruebas complementarias", "Relación de causalidad", "Cronológico", "Topográfico",
	"Intensidad", "Continuidad evolutiva", "Exclusión", "Lesiones muy graves", "Lesiones graves",
	"Lesiones moderados", "Lesiones basicos",
	"Fecha alta",
	"Motivos variacion fecha final",
	"Prevista", "Definitiva",
	"Intervenciones quirúrgicas", "Patrimonial. Daño emergente (se indemniza su importe)",
	"Codigo Secuela", "Descripción secuela", "analogía secuela", "rango secuela",
	"prev/defin secuela", "puntuación secuela",
	"Valoración Total Secuelas", "Motivos variación", "DM psicofisico", "DM estético",
	"Pérdida c vida", "DMxperd c vida", "Pérdida feto", "P excepcional",
	"Asis sanit futur", "Protesis/ortesis", "RHB dom/amb", "Ayuda técnica",
	"Coste movilidad", "Tercera persona", "Descripción de las necesidades",
	"Adecuación de vehículo", "Adecuación de vivienda",
	"Nombre abogado", "Telefono abogado",
	"Actitud frente a la compañía", "Posibilidad transacción", "Precisa investigador",
	"Consentimiento informado", "Aclaraciones", "Medio de transporte", "Hasta",
	"Otros", "Seguimiento", "Final", "Final Definitivo", "Fecha", "Próxima visita",
}

// Rename maps extracted names to the exported ones. Entries whose source
// is itself a desired column are never applied.
var Renames = []Rename{
	{"Teléfono", "Teléfono (FyM)"},
	{"Códigos Diagnóstico", "Códigos"},
	{"Lesiones muy graves", "Muy graves"},
	{"Lesiones graves", "Graves"},
	{"Lesiones moderados", "Moderados"},
	{"Lesiones basicos", "Básicos"},
	{"Motivos variación de fecha inicial", "Motivos variacion fecha final"},
	{"Motivos variacion fecha final", "Motivos variación de fecha inicial"},
	{"Codigo Secuela", "Código"},
	{"analogía secuela", "Analogía"},
	{"rango secuela", "Rango"},
	{"prev/defin secuela", "Prev./Defin."},
	{"puntuación secuela", "Puntuación"},
	{"Tratamiento y evolución. Exploraciones complementarias", "Tratamiento y evolución - processed"},
	// The checkbox result is stored unaccented; only the accented name is exported.
	{ColumnNextVisit, "Próxima visita"},
}

// Rename is one column rename.
type Rename struct {
	From string
	To   string
}

var desired = func() map[string]bool {
	m := make(map[string]bool, len(DesiredColumns))
	for _, c := range DesiredColumns {
		m[c] = true
	}
	return m
}()

// IsDesired reports whether name is one of the exported columns.
func IsDesired(name string) bool {
	return desired[name]
}

// sourceColumns returns, for each exported column, the column it is read
// from. A rename applies when its source exists, is not exported itself and
// its target does not already exist.
func sourceColumns(present map[string]bool) map[string]string {
	src := make(map[string]string)
	for _, r := range Renames {
		if !present[r.From] || desired[r.From] || present[r.To] {
			continue
		}
		if _, taken := src[r.To]; taken {
			continue
		}
		src[r.To] = r.From
	}
	return src
}
