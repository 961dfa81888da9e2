package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/browser"
	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

const (
	senateBaseURL = "https://www.senado.cl/actividad-legislativa/comisiones"

	// The Senate's result table renders this in the first cell instead of an
	// empty tbody when a legislature has no sessions.
	senateEmptyResults = "No hay resultados que coincidan con la búsqueda"
)

var senateSessionLinkPattern = regexp.MustCompile(`/\d+/(\d+)`)

// SenateCrawler discovers committee sessions on the Senate website. The site
// exposes sessions behind a legislature selector with a paginated result
// table, so discovery visits every legislature window overlapping the
// requested range and walks all result pages.
type SenateCrawler struct {
	browsers interfaces.BrowserFactory
	catalog  *KeywordCatalog
	loc      *time.Location
	logger   arbor.ILogger
}

var _ interfaces.SessionCrawler = (*SenateCrawler)(nil)

// NewSenateCrawler creates a crawler for the Senate.
func NewSenateCrawler(browsers interfaces.BrowserFactory, catalog *KeywordCatalog, loc *time.Location, logger arbor.ILogger) *SenateCrawler {
	return &SenateCrawler{
		browsers: browsers,
		catalog:  catalog,
		loc:      loc,
		logger:   logger,
	}
}

// Chamber returns the chamber this crawler handles.
func (c *SenateCrawler) Chamber() models.Chamber {
	return models.ChamberSenate
}

func senateCommissionURL(siteID int) string {
	return fmt.Sprintf("%s/%d", senateBaseURL, siteID)
}

func senateSessionURL(siteID, sessionID int) string {
	return fmt.Sprintf("%s/%d/%d", senateBaseURL, siteID, sessionID)
}

// Discover returns the commission's sessions starting within [start, end],
// enriched with context and attendance.
func (c *SenateCrawler) Discover(ctx context.Context, commission *models.Commission, start, end time.Time) ([]models.Session, error) {
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
		Msg("Senate discovery completed")

	return sessions, nil
}

func (c *SenateCrawler) discoverSessions(ctx context.Context, session interfaces.BrowserSession, commission *models.Commission, start, end time.Time) ([]models.Session, error) {
	if err := session.Navigate(ctx, senateCommissionURL(commission.SiteID)); err != nil {
		return nil, err
	}

	// The sessions table lives behind a tab labeled by text only.
	if err := session.ClickText(ctx, "button", "Sesiones"); err != nil {
		return nil, c.wrapTimeout(err, commission, "sessions tab")
	}
	if err := session.WaitVisible(ctx, "#legislatura"); err != nil {
		return nil, c.wrapTimeout(err, commission, "legislature selector")
	}

	selectHTML, err := session.OuterHTML(ctx, "#legislatura")
	if err != nil {
		return nil, err
	}

	windows, err := parseLegislatureOptions(selectHTML, c.loc)
	if err != nil {
		return nil, err
	}

	overlapping := make([]legislatureWindow, 0, len(windows))
	for _, w := range windows {
		if w.Overlaps(start, end) {
			overlapping = append(overlapping, w)
		}
	}
	overlapping = dedupeWindows(overlapping)

	var sessions []models.Session
	for _, window := range overlapping {
		windowSessions, err := c.crawlWindow(ctx, session, commission, window)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, windowSessions...)
	}

	return sessions, nil
}

// crawlWindow selects one legislature window and walks every page of its
// result table.
func (c *SenateCrawler) crawlWindow(ctx context.Context, session interfaces.BrowserSession, commission *models.Commission, window legislatureWindow) ([]models.Session, error) {
	if err := session.WaitVisible(ctx, "#legislatura:enabled"); err != nil {
		return nil, c.wrapTimeout(err, commission, "legislature selector enabled")
	}
	if err := session.SetSelectValue(ctx, "#legislatura", window.Value); err != nil {
		return nil, err
	}

	var sessions []models.Session
	for {
		if err := session.WaitVisible(ctx, "#legislatura:enabled"); err != nil {
			return nil, c.wrapTimeout(err, commission, "result table reload")
		}

		hasNext, err := session.ExistsText(ctx, "a:not(.disabled)", "Siguiente")
		if err != nil {
			return nil, err
		}

		tableHTML, err := session.OuterHTML(ctx, "table")
		if err != nil {
			return nil, err
		}

		pageSessions := c.parseSessionRows(tableHTML, commission)
		sessions = append(sessions, pageSessions...)

		if !hasNext {
			break
		}
		if err := session.ClickText(ctx, "a:not(.disabled)", "Siguiente"); err != nil {
			return nil, c.wrapTimeout(err, commission, "next page")
		}
	}

	return sessions, nil
}

// parseSessionRows extracts session rows from the result table markup.
// Malformed rows are skipped; the empty-result sentinel ends parsing.
func (c *SenateCrawler) parseSessionRows(tableHTML string, commission *models.Commission) []models.Session {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		c.logger.Warn().Err(err).Str("commission", commission.ID).Msg("Failed to parse result table")
		return nil
	}

	var sessions []models.Session
	doc.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return true
		}
		if strings.TrimSpace(cells.Eq(0).Text()) == senateEmptyResults {
			return false
		}
		if cells.Length() < 5 {
			return true
		}

		date, err := time.ParseInLocation("02/01/2006", strings.TrimSpace(cells.Eq(0).Text()), c.loc)
		if err != nil {
			return true
		}
		start, err := combineDateTime(date, strings.TrimSpace(cells.Eq(2).Text()), c.loc)
		if err != nil {
			return true
		}
		finish, err := combineDateTime(date, strings.TrimSpace(cells.Eq(3).Text()), c.loc)
		if err != nil {
			return true
		}

		href := cells.Eq(4).Find("a").AttrOr("href", "")
		sessionID, ok := parseSessionID(senateSessionLinkPattern, href)
		if !ok {
			return true
		}

		s := models.Session{
			ID:           sessionID,
			CommissionID: commission.ID,
			Start:        start,
			Finish:       finish,
		}
		s.EnsureKey()
		sessions = append(sessions, s)
		return true
	})

	return sessions
}

// enrich loads the session detail page and attaches context and attendance.
func (c *SenateCrawler) enrich(ctx context.Context, session interfaces.BrowserSession, commission *models.Commission, s *models.Session) error {
	if err := session.Navigate(ctx, senateSessionURL(commission.SiteID, s.ID)); err != nil {
		return err
	}
	if err := session.WaitVisible(ctx, ".dynamic-content"); err != nil {
		return c.wrapTimeout(err, commission, "session detail")
	}

	pageHTML, err := session.OuterHTML(ctx, "body")
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return fmt.Errorf("failed to parse session %d detail page: %w", s.ID, err)
	}

	s.Context = parseSenateContext(doc)
	s.Attendance = parseSenateAttendance(doc)
	return nil
}

// parseSenateContext reads the topic/aspects/agreements blocks of a session
// detail page. Each block is a heading followed by a paragraph; absent
// headings leave the field empty.
func parseSenateContext(doc *goquery.Document) []models.ContextEntry {
	var entries []models.ContextEntry
	doc.Find(".dynamic-content").Each(func(_ int, section *goquery.Selection) {
		var entry models.ContextEntry
		section.Find("h4").Each(func(_ int, heading *goquery.Selection) {
			value := strings.TrimSpace(heading.NextAllFiltered("p").First().Text())
			switch {
			case strings.Contains(heading.Text(), "Tema"):
				entry.Topic = value
			case strings.Contains(heading.Text(), "Aspectos considerados"):
				entry.Aspects = value
			case strings.Contains(heading.Text(), "Acuerdos"):
				entry.Agreements = value
			}
		})
		if entry != (models.ContextEntry{}) {
			entries = append(entries, entry)
		}
	})
	return entries
}

// parseSenateAttendance reads the attendee paragraphs under each
// "Integrantes" heading. The last paragraph of each block names the guests,
// the rest name members; the trailing paragraph after the block is boilerplate
// and dropped.
func parseSenateAttendance(doc *goquery.Document) models.Attendance {
	members := make(map[string]struct{})
	guests := make(map[string]struct{})

	doc.Find(".dynamic-content").Each(func(_ int, section *goquery.Selection) {
		section.Find("h4").Each(func(_ int, heading *goquery.Selection) {
			if !strings.Contains(heading.Text(), "Integrantes") {
				return
			}
			var texts []string
			heading.NextFilteredUntil("p", "h4").Each(func(_ int, p *goquery.Selection) {
				texts = append(texts, strings.TrimSpace(p.Text()))
			})
			if len(texts) < 2 {
				return
			}
			texts = texts[:len(texts)-1]
			for _, name := range texts[:len(texts)-1] {
				if name != "" {
					members[name] = struct{}{}
				}
			}
			if guest := texts[len(texts)-1]; guest != "" {
				guests[guest] = struct{}{}
			}
		})
	})

	return models.Attendance{
		Members: sortedKeys(members),
		Guests:  sortedKeys(guests),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseLegislatureOptions reads the legislature windows out of the selector
// markup. Options without a recognizable date span are ignored.
func parseLegislatureOptions(selectHTML string, loc *time.Location) ([]legislatureWindow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(selectHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse legislature selector: %w", err)
	}

	var windows []legislatureWindow
	doc.Find("option").Each(func(_ int, option *goquery.Selection) {
		value, ok := option.Attr("value")
		if !ok {
			return
		}
		if window, ok := parseWindowLabel(value, option.Text(), loc); ok {
			windows = append(windows, window)
		}
	})
	return windows, nil
}

// Commissions lists the Senate's commissions from its directory page.
func (c *SenateCrawler) Commissions(ctx context.Context) ([]models.Commission, error) {
	session, err := c.browsers.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, senateBaseURL); err != nil {
		return nil, err
	}
	if err := session.WaitVisible(ctx, "div.tabs__content div.component a"); err != nil {
		if errors.Is(err, browser.ErrWaitTimeout) {
			return nil, &CrawlTimeoutError{Chamber: models.ChamberSenate, Stage: "commission directory", Err: err}
		}
		return nil, err
	}

	pageHTML, err := session.OuterHTML(ctx, "body")
	if err != nil {
		return nil, err
	}

	return c.parseCommissions(pageHTML)
}

var commissionIDPattern = regexp.MustCompile(`\d+`)

func (c *SenateCrawler) parseCommissions(pageHTML string) ([]models.Commission, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse commission directory: %w", err)
	}

	var commissions []models.Commission
	doc.Find("div.tabs__content div.component a").Each(func(_ int, anchor *goquery.Selection) {
		href := anchor.AttrOr("href", "")
		idText := commissionIDPattern.FindString(href)
		if idText == "" {
			return
		}
		siteID, err := strconv.Atoi(idText)
		if err != nil {
			return
		}
		name := strings.TrimSpace(anchor.Find("span").First().Text())
		if name == "" {
			return
		}

		commission := models.Commission{
			SiteID:                siteID,
			Name:                  name,
			Chamber:               models.ChamberSenate,
			SearchKeywords:        c.catalog.Keywords(models.ChamberSenate, siteID),
			ExtractionEnabled:     true,
			AutoProcessingEnabled: true,
		}
		commission.EnsureID()
		commissions = append(commissions, commission)
	})

	return commissions, nil
}

func (c *SenateCrawler) wrapTimeout(err error, commission *models.Commission, stage string) error {
	if errors.Is(err, browser.ErrWaitTimeout) {
		return &CrawlTimeoutError{
			Chamber:      models.ChamberSenate,
			CommissionID: commission.SiteID,
			Stage:        stage,
			Err:          err,
		}
	}
	return err
}
