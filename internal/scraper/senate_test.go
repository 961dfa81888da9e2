package scraper

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/models"
)

func newTestSenateCrawler(t *testing.T) *SenateCrawler {
	t.Helper()
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	return NewSenateCrawler(nil, nil, loc, arbor.NewLogger())
}

func senateTestCommission() *models.Commission {
	c := &models.Commission{
		SiteID:  178,
		Name:    "Comisión de Hacienda",
		Chamber: models.ChamberSenate,
	}
	c.EnsureID()
	return c
}

func TestSenateParseSessionRows(t *testing.T) {
	crawler := newTestSenateCrawler(t)
	commission := senateTestCommission()

	t.Run("parses well-formed rows", func(t *testing.T) {
		table := `<table><tbody>
			<tr>
				<td>04/06/2024</td><td>Ordinaria</td><td>09:30</td><td>11:00</td>
				<td><a href="/actividad-legislativa/comisiones/178/6921">Ver</a></td>
			</tr>
			<tr>
				<td>05/06/2024</td><td>Especial</td><td>15:00</td><td>17:30</td>
				<td><a href="/actividad-legislativa/comisiones/178/6930">Ver</a></td>
			</tr>
		</tbody></table>`

		sessions := crawler.parseSessionRows(table, commission)
		require.Len(t, sessions, 2)

		assert.Equal(t, 6921, sessions[0].ID)
		assert.Equal(t, "senate-178", sessions[0].CommissionID)
		assert.Equal(t, "senate-178-6921", sessions[0].Key)
		assert.Equal(t, time.Date(2024, 6, 4, 9, 30, 0, 0, crawler.loc).UTC(), sessions[0].Start)
		assert.Equal(t, time.Date(2024, 6, 4, 11, 0, 0, 0, crawler.loc).UTC(), sessions[0].Finish)
		assert.Equal(t, 6930, sessions[1].ID)
	})

	t.Run("empty-result sentinel ends parsing", func(t *testing.T) {
		table := `<table><tbody>
			<tr><td>No hay resultados que coincidan con la búsqueda</td></tr>
			<tr>
				<td>04/06/2024</td><td>Ordinaria</td><td>09:30</td><td>11:00</td>
				<td><a href="/actividad-legislativa/comisiones/178/6921">Ver</a></td>
			</tr>
		</tbody></table>`

		sessions := crawler.parseSessionRows(table, commission)
		assert.Empty(t, sessions)
	})

	t.Run("skips malformed rows", func(t *testing.T) {
		table := `<table><tbody>
			<tr><td>not-a-date</td><td></td><td>09:30</td><td>11:00</td>
				<td><a href="/actividad-legislativa/comisiones/178/6921">Ver</a></td></tr>
			<tr><td>04/06/2024</td><td></td><td>09:30</td><td>11:00</td>
				<td><a href="javascript:void(0)">Ver</a></td></tr>
			<tr>
				<td>05/06/2024</td><td>Ordinaria</td><td>10:00</td><td>12:00</td>
				<td><a href="/actividad-legislativa/comisiones/178/7001">Ver</a></td>
			</tr>
		</tbody></table>`

		sessions := crawler.parseSessionRows(table, commission)
		require.Len(t, sessions, 1)
		assert.Equal(t, 7001, sessions[0].ID)
	})
}

func TestParseLegislatureOptions(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	selectHTML := `<select id="legislatura">
		<option value="">Seleccione</option>
		<option value="372">Legislatura 372 (11/03/2024 al 10/03/2025)</option>
		<option value="371">Legislatura 371 (11/03/2023 al 10/03/2024)</option>
	</select>`

	windows, err := parseLegislatureOptions(selectHTML, loc)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "372", windows[0].Value)
	assert.Equal(t, "371", windows[1].Value)
}

func TestParseSenateContext(t *testing.T) {
	page := `<body>
		<div class="dynamic-content">
			<h4>Tema</h4><p>Reforma previsional</p>
			<h4>Aspectos considerados</h4><p>Indicaciones del Ejecutivo</p>
			<h4>Acuerdos</h4><p>Votar en la próxima sesión</p>
		</div>
		<div class="dynamic-content">
			<h4>Tema</h4><p>Presupuesto</p>
		</div>
	</body>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	entries := parseSenateContext(doc)
	require.Len(t, entries, 2)
	assert.Equal(t, "Reforma previsional", entries[0].Topic)
	assert.Equal(t, "Indicaciones del Ejecutivo", entries[0].Aspects)
	assert.Equal(t, "Votar en la próxima sesión", entries[0].Agreements)
	assert.Equal(t, "Presupuesto", entries[1].Topic)
	assert.Empty(t, entries[1].Aspects)
}

func TestParseSenateAttendance(t *testing.T) {
	page := `<body>
		<div class="dynamic-content">
			<h4>Integrantes</h4>
			<p>Senador A</p>
			<p>Senador B</p>
			<p>Ministro de Hacienda</p>
			<p>Documento de la sesión</p>
		</div>
	</body>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	attendance := parseSenateAttendance(doc)
	assert.ElementsMatch(t, []string{"Senador A", "Senador B"}, attendance.Members)
	assert.ElementsMatch(t, []string{"Ministro de Hacienda"}, attendance.Guests)
	assert.Empty(t, attendance.Records)
}

func TestSenateParseCommissions(t *testing.T) {
	crawler := newTestSenateCrawler(t)

	page := `<body><div class="tabs__content">
		<div class="component">
			<a href="/actividad-legislativa/comisiones/178"><span>Hacienda</span></a>
			<a href="/actividad-legislativa/comisiones/185"><span>Salud</span></a>
			<a href="/otros"><span></span></a>
		</div>
	</div></body>`

	commissions, err := crawler.parseCommissions(page)
	require.NoError(t, err)
	require.Len(t, commissions, 2)

	assert.Equal(t, "senate-178", commissions[0].ID)
	assert.Equal(t, 178, commissions[0].SiteID)
	assert.Equal(t, "Hacienda", commissions[0].Name)
	assert.Equal(t, models.ChamberSenate, commissions[0].Chamber)
	assert.True(t, commissions[0].ExtractionEnabled)
	assert.Equal(t, "senate-185", commissions[1].ID)
}

func TestFilterByRange(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)

	sessions := []models.Session{
		{ID: 1, CommissionID: "senate-178", Start: time.Date(2024, 5, 31, 10, 0, 0, 0, time.UTC)},
		{ID: 2, CommissionID: "senate-178", Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 3, CommissionID: "senate-178", Start: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)},
		{ID: 4, CommissionID: "senate-178", Start: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
	}

	filtered := filterByRange(sessions, start, end)
	require.Len(t, filtered, 2)
	assert.Equal(t, 2, filtered[0].ID)
	assert.Equal(t, 3, filtered[1].ID)
}

func TestDedupeSessions(t *testing.T) {
	a := models.Session{ID: 1, CommissionID: "senate-178"}
	a.EnsureKey()
	b := models.Session{ID: 2, CommissionID: "senate-178"}
	b.EnsureKey()
	dup := models.Session{ID: 1, CommissionID: "senate-178"}
	dup.EnsureKey()

	deduped := dedupeSessions([]models.Session{a, b, dup})
	require.Len(t, deduped, 2)
	assert.Equal(t, 1, deduped[0].ID)
	assert.Equal(t, 2, deduped[1].ID)
}

func TestDedupeSessionsDerivesIdentityFromIDs(t *testing.T) {
	// Duplicate rows must collapse even when no Key has been assigned yet.
	a := models.Session{ID: 1, CommissionID: "senate-178"}
	dup := models.Session{ID: 1, CommissionID: "senate-178"}
	other := models.Session{ID: 1, CommissionID: "deputies-405"}

	deduped := dedupeSessions([]models.Session{a, dup, other})
	require.Len(t, deduped, 2)
	assert.Equal(t, "senate-178", deduped[0].CommissionID)
	assert.Equal(t, "deputies-405", deduped[1].CommissionID)
}
