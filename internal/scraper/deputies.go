package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/browser"
	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

const deputiesBaseURL = "https://www.camara.cl/legislacion/comisiones"

var deputiesSessionLinkPattern = regexp.MustCompile(`prmIdSesion=(\d+)`)

// DeputiesCrawler discovers committee sessions on the Chamber of Deputies
// website. The site filters its session table through year and month
// selectors, so discovery iterates every month of the requested range.
type DeputiesCrawler struct {
	browsers interfaces.BrowserFactory
	catalog  *KeywordCatalog
	loc      *time.Location
	logger   arbor.ILogger
}

var _ interfaces.SessionCrawler = (*DeputiesCrawler)(nil)

// NewDeputiesCrawler creates a crawler for the Chamber of Deputies.
func NewDeputiesCrawler(browsers interfaces.BrowserFactory, catalog *KeywordCatalog, loc *time.Location, logger arbor.ILogger) *DeputiesCrawler {
	return &DeputiesCrawler{
		browsers: browsers,
		catalog:  catalog,
		loc:      loc,
		logger:   logger,
	}
}

// Chamber returns the chamber this crawler handles.
func (c *DeputiesCrawler) Chamber() models.Chamber {
	return models.ChamberDeputies
}

func deputiesCommissionURL(siteID int) string {
	return fmt.Sprintf("%s/sesiones.aspx?prmID=%d", deputiesBaseURL, siteID)
}

func deputiesResultsURL(siteID, sessionID int) string {
	return fmt.Sprintf("%s/resultado_detalle.aspx?prmId=%d&prmIdSesion=%d", deputiesBaseURL, siteID, sessionID)
}

func deputiesAttendanceURL(siteID, sessionID int) string {
	return fmt.Sprintf("%s/asistencia.aspx?prmId=%d&prmIdSesion=%d", deputiesBaseURL, siteID, sessionID)
}

// Discover returns the commission's sessions starting within [start, end],
// enriched with context and attendance.
func (c *DeputiesCrawler) Discover(ctx context.Context, commission *models.Commission, start, end time.Time) ([]models.Session, error) {
	session, err := c.browsers.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	sessions, err := c.discoverSessions(ctx, session, commission, start, end)
	if err != nil {
		return nil, err
	}

	sessions = filterByRange(sessions, start, end)
	sessions = dedupeSessions(sessions)

	for i := range sessions {
		if err := c.enrich(ctx, session, commission, &sessions[i]); err != nil {
			return nil, err
		}
	}

	c.logger.Info().
		Str("commission", commission.ID).
		Int("sessions", len(sessions)).
		Msg("Deputies discovery completed")

	return sessions, nil
}

func (c *DeputiesCrawler) discoverSessions(ctx context.Context, session interfaces.BrowserSession, commission *models.Commission, start, end time.Time) ([]models.Session, error) {
	if err := session.Navigate(ctx, deputiesCommissionURL(commission.SiteID)); err != nil {
		return nil, err
	}
	if err := session.WaitVisible(ctx, "div.year select"); err != nil {
		return nil, c.wrapTimeout(err, commission, "year selector")
	}

	localStart := start.In(c.loc)
	localEnd := end.In(c.loc)

	var sessions []models.Session
	for year := localStart.Year(); year <= localEnd.Year(); year++ {
		if err := session.SetSelectValue(ctx, "div.year select", strconv.Itoa(year)); err != nil {
			return nil, err
		}

		fromMonth := time.January
		if year == localStart.Year() {
			fromMonth = localStart.Month()
		}
		toMonth := time.December
		if year == localEnd.Year() {
			toMonth = localEnd.Month()
		}

		for month := fromMonth; month <= toMonth; month++ {
			if err := session.SetSelectValue(ctx, "div.mes select", fmt.Sprintf("%02d", month)); err != nil {
				return nil, err
			}
			// The month selector is disabled while the table reloads; waiting
			// for it to re-enable keeps the previous month's rows from being
			// read as this month's.
			if err := session.WaitVisible(ctx, "div.mes select:enabled"); err != nil {
				return nil, c.wrapTimeout(err, commission, "month table reload")
			}

			// Months without sessions render an empty tbody.
			hasRows, err := session.Exists(ctx, "table tbody tr")
			if err != nil {
				return nil, err
			}
			if !hasRows {
				continue
			}

			tableHTML, err := session.OuterHTML(ctx, "table")
			if err != nil {
				return nil, err
			}
			sessions = append(sessions, c.parseSessionRows(tableHTML, commission)...)
		}
	}

	return sessions, nil
}

// parseSessionRows extracts session rows from the month table markup. Rows
// without a session link or with unparseable dates are skipped.
func (c *DeputiesCrawler) parseSessionRows(tableHTML string, commission *models.Commission) []models.Session {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		c.logger.Warn().Err(err).Str("commission", commission.ID).Msg("Failed to parse month table")
		return nil
	}

	var sessions []models.Session
	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 11 {
			return
		}

		href := cells.Eq(10).Find("a").AttrOr("href", "")
		sessionID, ok := parseSessionID(deputiesSessionLinkPattern, href)
		if !ok {
			return
		}

		date, err := parseDeputiesDate(strings.TrimSpace(cells.Eq(1).Text()), c.loc)
		if err != nil {
			return
		}
		start, err := combineDateTime(date, strings.TrimSpace(cells.Eq(2).Text()), c.loc)
		if err != nil {
			return
		}
		finish, err := combineDateTime(date, strings.TrimSpace(cells.Eq(3).Text()), c.loc)
		if err != nil {
			return
		}

		s := models.Session{
			ID:           sessionID,
			CommissionID: commission.ID,
			Start:        start,
			Finish:       finish,
		}
		s.EnsureKey()
		sessions = append(sessions, s)
	})

	return sessions
}

// parseDeputiesDate parses dates like "04 jun. 2024" using the Spanish month
// abbreviations the Chamber renders.
func parseDeputiesDate(text string, loc *time.Location) (time.Time, error) {
	parts := strings.Fields(text)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("unexpected date format: %q", text)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("unexpected day in %q: %w", text, err)
	}
	month, ok := common.SpanishMonthAbbrevs[strings.ToLower(parts[1])]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month abbreviation in %q", text)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("unexpected year in %q: %w", text, err)
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc), nil
}

// enrich loads the result and attendance pages and attaches them to the
// session.
func (c *DeputiesCrawler) enrich(ctx context.Context, session interfaces.BrowserSession, commission *models.Commission, s *models.Session) error {
	if err := session.Navigate(ctx, deputiesResultsURL(commission.SiteID, s.ID)); err != nil {
		return err
	}
	resultsHTML, err := session.OuterHTML(ctx, "body")
	if err != nil {
		return err
	}
	context, err := parseDeputiesContext(resultsHTML)
	if err != nil {
		return fmt.Errorf("failed to parse session %d results: %w", s.ID, err)
	}
	s.Context = context

	if err := session.Navigate(ctx, deputiesAttendanceURL(commission.SiteID, s.ID)); err != nil {
		return err
	}
	attendanceHTML, err := session.OuterHTML(ctx, "body")
	if err != nil {
		return err
	}
	attendance, err := parseDeputiesAttendance(attendanceHTML)
	if err != nil {
		return fmt.Errorf("failed to parse session %d attendance: %w", s.ID, err)
	}
	s.Attendance = attendance

	return nil
}

// parseDeputiesContext reads citation/result pairs from the session results
// table.
func parseDeputiesContext(pageHTML string) ([]models.ContextEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	var entries []models.ContextEntry
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		entries = append(entries, models.ContextEntry{
			Citation: strings.TrimSpace(cells.Eq(0).Text()),
			Result:   strings.TrimSpace(cells.Eq(1).Text()),
		})
	})
	return entries, nil
}

// parseDeputiesAttendance reads per-attendee name/status records.
func parseDeputiesAttendance(pageHTML string) (models.Attendance, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return models.Attendance{}, err
	}

	var records []models.AttendanceRecord
	doc.Find(".integrante").Each(func(_ int, attendee *goquery.Selection) {
		paragraphs := attendee.Find("p")
		if paragraphs.Length() < 2 {
			return
		}
		records = append(records, models.AttendanceRecord{
			Name:   strings.TrimSpace(paragraphs.Eq(0).Text()),
			Status: strings.TrimSpace(paragraphs.Eq(1).Text()),
		})
	})
	return models.Attendance{Records: records}, nil
}

// Commissions lists the Chamber's permanent commissions from its directory
// page.
func (c *DeputiesCrawler) Commissions(ctx context.Context) ([]models.Commission, error) {
	session, err := c.browsers.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, deputiesBaseURL+"/comisiones_permanentes.aspx"); err != nil {
		return nil, err
	}
	if err := session.WaitVisible(ctx, "table tbody tr"); err != nil {
		if errors.Is(err, browser.ErrWaitTimeout) {
			return nil, &CrawlTimeoutError{Chamber: models.ChamberDeputies, Stage: "commission directory", Err: err}
		}
		return nil, err
	}

	pageHTML, err := session.OuterHTML(ctx, "body")
	if err != nil {
		return nil, err
	}

	return c.parseCommissions(pageHTML)
}

var deputiesCommissionLinkPattern = regexp.MustCompile(`prmID=(\d+)`)

func (c *DeputiesCrawler) parseCommissions(pageHTML string) ([]models.Commission, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse commission directory: %w", err)
	}

	var commissions []models.Commission
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		cell := cells.Eq(1)
		href := cell.Find("a").AttrOr("href", "")
		siteID, ok := parseSessionID(deputiesCommissionLinkPattern, href)
		if !ok {
			return
		}
		name := strings.TrimSpace(cell.Text())
		if name == "" {
			return
		}

		commission := models.Commission{
			SiteID:                siteID,
			Name:                  "Comisión de " + name,
			Chamber:               models.ChamberDeputies,
			SearchKeywords:        c.catalog.Keywords(models.ChamberDeputies, siteID),
			ExtractionEnabled:     true,
			AutoProcessingEnabled: true,
		}
		commission.EnsureID()
		commissions = append(commissions, commission)
	})

	return commissions, nil
}

func (c *DeputiesCrawler) wrapTimeout(err error, commission *models.Commission, stage string) error {
	if errors.Is(err, browser.ErrWaitTimeout) {
		return &CrawlTimeoutError{
			Chamber:      models.ChamberDeputies,
			CommissionID: commission.SiteID,
			Stage:        stage,
			Err:          err,
		}
	}
	return err
}
