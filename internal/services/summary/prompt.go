package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/models"
)

// System prompts for the two report kinds. Everything downstream of the
// crawler is in Spanish, matching the source material.
const (
	summarySystemPrompt = "Eres un modelo experto en análisis legislativo. Tu tarea es leer y generar un reporte a partir de las transcripciones de sesiones del Congreso de Chile."
	mindmapSystemPrompt = "Eres un asistente experto en temas parlamentarios que genera mapas mentales sobre sesiones del Congreso de Chile, explicando los temas tratados de forma estructurada."
)

// formatContext renders the chamber-specific agenda entries as prompt
// bullet points. The Senate publishes topic/aspects/agreements, the Chamber
// of Deputies publishes citation/result.
func formatContext(chamber models.Chamber, entries []models.ContextEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch chamber {
		case models.ChamberSenate:
			lines = append(lines, fmt.Sprintf("- Tema: %s\n- Aspectos: %s\n- Acuerdos: %s",
				entry.Topic, entry.Aspects, entry.Agreements))
		case models.ChamberDeputies:
			lines = append(lines, fmt.Sprintf("- Citación: %s\n- Resultado: %s",
				entry.Citation, entry.Result))
		}
	}
	return strings.Join(lines, "\n")
}

// formatAttendance renders the chamber-specific attendee structure.
func formatAttendance(chamber models.Chamber, attendance models.Attendance) string {
	switch chamber {
	case models.ChamberSenate:
		members := make([]string, 0, len(attendance.Members))
		for _, name := range attendance.Members {
			members = append(members, "- Nombre: "+name)
		}
		guests := make([]string, 0, len(attendance.Guests))
		for _, name := range attendance.Guests {
			guests = append(guests, "- "+name)
		}
		return strings.Join([]string{
			"Miembros:", strings.Join(members, "\n"),
			"Invitados:", strings.Join(guests, "\n"),
		}, "\n")
	case models.ChamberDeputies:
		lines := make([]string, 0, len(attendance.Records))
		for _, record := range attendance.Records {
			lines = append(lines, fmt.Sprintf("- Nombre: %s Estado: %s", record.Name, record.Status))
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

func sessionMaterial(commission *models.Commission, session *models.Session) string {
	return fmt.Sprintf(`### Contexto:
%s

### Participantes:
%s

### Transcripción:
%s`,
		formatContext(commission.Chamber, session.Context),
		formatAttendance(commission.Chamber, session.Attendance),
		session.Transcript,
	)
}

// buildSummaryPrompt builds the full structured-report prompt for a session.
func buildSummaryPrompt(commission *models.Commission, session *models.Session, loc *time.Location) string {
	return fmt.Sprintf(`Genera un informe de la siguiente transcripción de una sesión de la %s en %s de Chile, realizada el día %s. El resumen debe estar organizado en las siguientes secciones:

# **Titular**: Crea un titular representativo de lo discutido en la sesión. Debe describir los temas tratados en la sesión.
## **Palabras claves**: Enumera las cinco palabras claves que mejor describan el contenido de la sesión. Deben ser relevantes y específicas a los problemas tratados en la sesión. Descarta palabras que puedan ser muy generales y que apliquen a la mayoría de las sesiones, como 'Legislación' o 'Congreso'.
## **Proyectos de ley**: Enumera los proyectos de ley y boletines discutidos en la sesión, junto con una breve descripción de lo que tratan.
## **Participantes**: Enumera los participantes de la sesión en las siguientes categorías:
### Parlamentarios principales: Enumera los parlamentarios que fueron más relevantes para la discusión.
### Invitados a la comisión: Enumera los invitados que participaron activamente en la sesión, exponiendo sobre algún tema relevante.
### Otros actores presentes: Esta sección es opcional, y solo debe ser incluída si algún participante relevante no pertenece a las categorías anteriores.
## **Temas principales tratados**: Enumera los temas más importantes discutidos durante la sesión, en formato de lista clara.
## **Resumen de la sesión**: Redacta un texto en formato de noticia que informe sobre todos los puntos abordados en la sesión. Debe responder el 'Qué', 'Quién', 'Como', 'Donde', 'Cuando' y 'Por qué'. Se debe mencionar quienes intervinieron, cuales fueron sus intervenciones, y cual fue el descenlace de la discusión. Este texto debe tener una extensión de 500 palabras aproximadamente.
## **Puntos de acuerdo**: Describe los puntos o temas en los que hubo consenso entre los participantes. Incluye los argumentos más relevantes que se entregaron a favor y explica por qué se logró el acuerdo, y quienes intervinieron.
## **Puntos de desacuerdo**: Describe los puntos o temas que generaron discusión o desacuerdo. Explica las posturas contrapuestas, incluyendo los argumentos clave entregados por las distintas partes, quienes dieron estos argumentos, y por qué no se logró llegar a un consenso. No incluyas tensiones producidas entre parlamentarios, sino que solo enfocate en las decisiones legislativas.
## **Principales entidades nombradas**: Enumera personas, instituciones, eventos o lugares que fueron mencionadas en la sesión, y cual es su importancia para esta. Ignora entidades que sean muy generales y puedan aplicar a las demás sesiones, como 'Congreso', 'Gobierno de Chile' o los mismos parlamentarios.
## **Insights accionables**: Enumera posibles insights accionables que puedan ser de ínteres para organizaciones dependientes de la legislación discutida (ej. que suscite decisiones, permita anticipar escenarios normativos, o guiar hacia objetivos de lobby).

Instrucciones adicionales:
- La respuesta debe estar estructurada en formato Markdown. Usa el titular generado como título principal (#), y el resto de secciones como subtítulos (##).
- Usa tanto el contexto como la transcripción completa para elaborar un resumen lo más completo posible.
- No te limites al contexto ni a la lista de participantes: es importante incluir las cosas que aparecen en la transcripción que fueron omitidas en el contexto.

%s`,
		commission.Name,
		commission.Chamber.SpanishName(),
		common.SpanishLongDate(session.Start, loc),
		sessionMaterial(commission, session),
	)
}

// buildMindmapPrompt builds the hierarchical mind-map prompt for a session.
// The model is asked for a JSON tree of name/children nodes.
func buildMindmapPrompt(commission *models.Commission, session *models.Session, loc *time.Location) string {
	return fmt.Sprintf(`Genera un mapa mental a partir de la siguiente transcripción de una sesión de la %s en %s de Chile, realizada el día %s.

El mapa mental debe estar enfocado en los temas más relevantes discutidos durante la sesión, no incluyas discusiones suspendidas o aplazadas.

La raíz debe tener un título que sea representativo a lo discutido en la sesión. Cada rama que salga de la raíz debe abordar de forma general cada uno de los temas discutidos, y sus ramas hijas deben explicar a mayor detalle el tema discutido, explicando en que consiste y que acuerdos se obtuvieron, incluyendo datos específicos mencionados (como estadisticas, cifras relevantes, etc).

Estructura el resultado como un objeto JSON con nodos padre-hijo. Cada nodo debe tener:
- `+"`name`"+`: frase breve que explique la idea/concepto
- `+"`children`"+`: lista de nodos hijos (puede estar vacía)

Genera el JSON lo más limpio y estructurado posible.

Evita estructuras estándar como Resumen o Conclusión. Además, el mapa mental debe ir más allá de simples etiquetas de categorías como `+"`Educación`"+` o `+"`Ejemplos`"+`. Debe incluir detalles específicos, completa con hechos, no sólo el punto de partida básico. Si hay demasiado contenido para un mapa mental, también puedes acortar e ir más general, pero sólo si es realmente necesario. Intenta llegar a 2-3 niveles de profundidad. El mapa mental no debe ser abrumador. Evita construir ramas muy profundas con pocas bifurcaciones, en esos casos prefiere incluir la información en un solo nodo, separado por comas. Evita generar frases muy extensas, el contenido de una rama debe ser breve y conciso, entre 10 a 20 palabras de longitud, si debes explicar hazlo en una de las ramas hijas.

Aquí está el contexto, la lista de asistencia y la transcripción:

%s`,
		commission.Name,
		commission.Chamber.SpanishName(),
		common.SpanishLongDate(session.Start, loc),
		sessionMaterial(commission, session),
	)
}
