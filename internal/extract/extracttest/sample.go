// Package extracttest provides a complete sample assessment report for
// tests of the extraction, processing and reporting packages.
package extracttest

import (
	"strings"

	"github.com/dvloznov/medreport/internal/docx/docxtest"
)

// Tables returns the cell text of the sample report's tables.
func Tables() [][][]string {
	return [][][]string{
		{{"Compañía: MAPFRE  Fecha siniestro: 01/02/2024 Hora: 10:30", "Lugar de la visita: Madrid  Fecha visita: 05/02/2024 Dr. Pérez"}},
		{{"Nombre y apellidos: Ana López  NIF: 12345678X", "Edad: 40  Sexo: Mujer"}},
		{{"Estado civil: Casada  Nº de Hijos: 2"}},
		{{"Tipo", "Fecha ingreso", "Fecha alta", "Nº Historial Clínico"}, {"Urgencias", "01/02/2024", "02/02/2024", ""}},
		{{"Códigos", "Diagnóstico"}, {"S13.4", "Esguince cervical"}},
		{{"Muy graves: 0", "Graves:", "3"}, {"Fecha alta", "15/03/2024"}, {"Motivos variación de fecha inicial: Ninguno"}},
		{{"Código", "Descripción secuela", "Puntuación"}, {"01234", "Algia\npostraumática", "2"}},
		{{"Grado y razonarlo: Leve"}},
		{{"Firma"}},
		{{"Nombre abogado: Juan Ruiz", "Teléfono: 600000000"}},
		{{"Muy graves: 1", "Graves: 2"}, {"20/04/2024"}, {"Sin cambios"}},
		{{"Código", "Puntuación"}, {"05678", "3"}},
		{{"Firma"}},
		{{"Muy graves: 0"}, {"30/05/2024"}, {""}},
		{{"Código"}, {"09999"}},
	}
}

// Paragraphs returns the sample report's body paragraphs. Next-visit
// markers are split across two runs like Word writes them.
func Paragraphs() []string {
	return []string{
		"Antecedentes médicos del lesionado",
		"Sin interés",
		"Descripción del accidente",
		"Colisión trasera",
		"en rotonda",
		"Datos asistenciales",
		"Tratamiento y evolución. Exploraciones complementarias",
		"Rehabilitación",
		"Analgésicos",
		"Estado actual y exploración física",
		"HISTORIA ACTUAL: Dolor cervical",
		"EXPLORACION FISICA: Contractura",
		"Pruebas complementarias: RX normal",
		"Relación de causalidad",
		"Se cumplen criterios",
		"(exclusión, cronológico, topográfico, intensidad)",
		"Compatible",
		"Lesiones temporales",
		"Intervenciones quirúrgicas: No",
		"Patrimonial. Daño emergente (se indemniza su importe): Farmacia",
		"Secuelas. Básico",
		"Valoración Total Secuelas: 2",
		"Motivos variación: Ninguno",
		"Aclaraciones:",
		"Paciente colaboradora",
		"Próxima visita: 20/04/2024",
		"20/04/2024 revisión",
		"Evolución",
		"Mejoría",
		"Estado actual y exploración física",
		"HISTORIA ACTUAL: Menos dolor EXPLORACION FISICA: Movilidad completa",
		"Relación de causalidad",
		"Aclaraciones:",
		"Alta próxima",
		"Próxima visita: 30/05/2024",
		"Evolución",
		"Alta",
		"Próxima visita: 15/06/2024",
		"Tratamiento y evolución. Exploraciones complementarias",
		"Nada",
	}
}

// Consent and visit-type checkbox states written by Docx.
var (
	ConsentBoxes = [2]string{"0", "on"}
	VisitBoxes   = [][3]string{
		{"on", "", ""},
		{"0", "on", ""},
		{"", "", ""},
	}
)

// FileName is the sample's upload name; DocumentNumber is derived from it.
const (
	FileName       = "EXP-2024-001 Ana López.docx"
	DocumentNumber = "EXP-2024-001"
)

// Body returns the sample as document body XML fragments.
func Body() []string {
	var body []string
	for _, table := range Tables() {
		body = append(body, docxtest.Table(table...))
	}

	marker := 0
	for _, line := range Paragraphs() {
		if rest, ok := strings.CutPrefix(line, "Próxima visita:"); ok {
			body = append(body, docxtest.Paragraph("Próxima visita:", rest))
			boxes := VisitBoxes[marker]
			body = append(body,
				docxtest.Checkbox("Seguimiento", boxes[0]),
				docxtest.Checkbox("Final", boxes[1]),
				docxtest.Checkbox("Definitiva", boxes[2]),
			)
			marker++
			continue
		}
		body = append(body, docxtest.Paragraph(line))
	}

	body = append(body,
		docxtest.Checkbox("Casilla9", ConsentBoxes[0]),
		docxtest.Checkbox("Casilla9", ConsentBoxes[1]),
	)
	return body
}

// Docx returns the sample as a .docx file.
func Docx() []byte {
	return docxtest.Build(Body()...)
}
