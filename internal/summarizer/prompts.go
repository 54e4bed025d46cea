package summarizer

const ocrPrompt = "Transcribe el documento PDF adjunto a markdown.\n\n" +
	"Reglas:\n" +
	"- Transcribe todo el texto de cada página en orden, sin resumir ni inventar contenido.\n" +
	"- Conserva títulos, listas y tablas usando sintaxis markdown.\n" +
	"- Separa cada página con una línea en blanco.\n" +
	"- Devuelve solo el markdown, sin bloques de código ni comentarios.\n"

const summaryInstructions = "Eres un asistente encargado de extraer información de un texto en formato markdown." +
	"Tu tarea es seguir las instrucciones que te doy a continuación para extraer los datos de manera precisa y sin inventar información.\n" +
	"\n" +
	"Consideraciones importantes:\n" +
	"1. Si el resumen no tiene información para un apartado, usa 'No hay información'.\n" +
	"2. Si algún valor entre corchetes se encuentra en el markdown, reemplázalo con la información correcta, si no existe, escribe N/A y modifica el texto para que tenga sentido.\n" +
	"3. El formato de respuesta debe seguir exactamente el esquema que te proporciono. No alteres ni modifiques el formato, solo rellena los campos con la información extraída del markdown.\n" +
	"4. Si hay datos de varias instancias o personas, incluye solo una si es común a todas ellas, en caso contrario, incluir todas ellas en una lista. Para ello, añade el apartado varias veces.\n" +
	"5. Prioriza escribir el nombre del hospital o centro médico en lugar del nombre de la persona o entidad emisora en cada punto.\n" +
	"6. En la resonancia magnética y rayos X, no asumir que es este tipo de exploración si no se escribe específicamente.\n" +
	"\n" +
	"Formato de respuesta:\n\n" +
	"1. Parte al juzgado de guardia\n" +
	"Resumen: Parte al juzgado de guardia emitido por {Nombre de la persona o entidad emisora} con fecha {Fecha de la parte}.\n" +
	"2. Informe de alta de Urgencia\n" +
	"Resumen: Informe de alta de Urgencias de {Nombre del hospital o institución} con fecha {Fecha del informe de alta}.\n" +
	"Descripción: {Descripción extensa del informe de alta de Urgencia en lenguaje natural. Reemplazadas ibuprofeno, paracetamol y Ketazolam por 'medicación habitual'}\n" +
	"3. Informe biomecánico\n" +
	"Resumen: Informe biomecánico emitido por {Nombre de la institución o persona que emite el informe} con fecha {Fecha del informe}.\n" +
	"Descripción: Por ingenieros se informa {Descripción extensa del informe biomecánico incluyendo velocidad de impacto, delta V y aceleración media y conclusiones.}\n" +
	"4. Informe Médico de Seguimiento\n" +
	"Resumen: Informe Médico de Seguimiento emitido por {Nombre de la persona o entidad} de fecha o fechas {Fecha(s) del informe de seguimiento}.\n" +
	"Descripción: {Descripción resumida (2 o 3 frases largas) del seguimiento médico. Si hay varios días, incluye la fecha y descripción por cada uno.}\n" +
	"5. Parte Médico de baja-alta\n" +
	"Resumen: Parte Médico de baja-alta emitido por {Nombre del médico} de fechas {Fecha de baja} a {Fecha de alta}.\n" +
	"Descripción: De baja por su médico del día {Fecha de baja} al {Fecha de alta}.\n" +
	"6. Parte Médico de baja \n" +
	"Resumen: Parte Médico de baja emitido por {Nombre del médico} de fecha {Fecha de baja}.\n" +
	"Descripción: De baja por su médico desde el día {Fecha de baja}.\n" +
	"7. Estudio de resonancia magnética (RMN)\n" +
	"Resumen: Estudio de RMN de {zona del cuerpo} realizado por {Incluir nombre del médico o hospital y fecha del estudio si existen, sino poner N/A}.\n" +
	"Descripción: {Descripción extensa del estudio de resonancia magnética}\n" +
	"8. Estudio de rayos X (RX)\n" +
	"Resumen: Estudio de RX de {zona del cuerpo} realizado por {Incluir nombre del médico o hospital y fecha del estudio si existen, sino poner N/A}.\n" +
	"Descripción: {Descripción extensa del estudio de rayos X}\n" +
	"9. Certificado de asistencia a rehabilitación\n" +
	"Resumen: Certificado de asistencia a rehabilitación de {Fecha de inicio} a {Fecha de finalización si existe, sino poner N/A}.\n" +
	"Descripción: Acredita {Número de sesiones. Dejar en blanco si el numero no existe} sesiones de rehabilitación realizadas desde el {Fecha de inicio} hasta el {Fecha de finalización si existe, sino poner N/A}.\n" +
	"10. Informe médico-pericial\n" +
	"Resumen: Informe médico-pericial emitido por {Nombre de la persona o entidad emisora} de fecha {Fecha del informe}.\n" +
	"Descripción: Por médico perito / forense {Nombre del perito o forense} se indica que ha curado de una {lesión y descripción de la lesión} en {número de días} días de los cuales {número de días de perjuicio moderado} fueron de perjuicio personal moderado y {número de días de perjuicio básico} días de perjuicio personal básico, valorando a su vez las secuelas: {lista de secuelas en bullet points con la valoración de cada una con puntos}.\n" +
	"11. Resolución de INNSS\n" +
	"Resumen: Resolución de INNSS de fecha {Fecha de la resolución}.\n" +
	"12. Hoja de anamnesis\n" +
	"Resumen: Hoja de anamnesis de {tipo de hoja de anamnesis} de fecha {Fecha de la anamnesis}.\n" +
	"\n\n"

// userPrefix precedes the OCR markdown in the summary request.
const userPrefix = "Contenido del markdown: "
