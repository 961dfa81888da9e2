package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/parlascope/parlascope/internal/browser"
	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

const (
	senateTVSearchURL = "https://tv.senado.cl/cgi-bin/prontus_search.cgi?search_prontus=tvsenado"
	deputiesTVURL     = "https://www.camara.cl/prensa/television.aspx"

	// Value of the "commission sessions" section in the Senate TV search form.
	senateTVCommissionSection = "7"
)

// locateSenateVideo searches the Senate TV portal for the session's broadcast
// and follows through to the direct download link.
func (r *DownloadResolver) locateSenateVideo(ctx context.Context, session interfaces.BrowserSession, commission *models.Commission, s *models.Session) (string, error) {
	if err := session.Navigate(ctx, senateTVSearchURL); err != nil {
		return "", err
	}
	if err := session.WaitVisible(ctx, "#buscar"); err != nil {
		return "", &DownloadError{SessionKey: s.Key, Err: fmt.Errorf("search form never loaded: %w", err)}
	}

	if err := session.SendKeys(ctx, "#search_texto", strings.Join(commission.SearchKeywords, " ")); err != nil {
		return "", err
	}
	if err := session.SetSelectValue(ctx, "#SECCION1", senateTVCommissionSection); err != nil {
		return "", err
	}

	local := s.Start.In(r.loc)
	if err := session.SendKeys(ctx, "#search_fechaini", local.Format("02/01/2006")); err != nil {
		return "", err
	}
	if err := session.SendKeys(ctx, "#search_fechafin", s.Finish.In(r.loc).Format("02/01/2006")); err != nil {
		return "", err
	}
	if err := session.Click(ctx, "input[value='Buscar']"); err != nil {
		return "", err
	}

	if err := session.WaitVisible(ctx, "article"); err != nil {
		if errors.Is(err, browser.ErrWaitTimeout) {
			return "", &NotFoundError{SessionKey: s.Key, Reason: "portal search returned no results"}
		}
		return "", err
	}

	pageHTML, err := session.OuterHTML(ctx, "body")
	if err != nil {
		return "", err
	}

	hrefs, err := matchingResultLinks(pageHTML, "article", commission.SearchKeywords)
	if err != nil {
		return "", err
	}
	if len(hrefs) == 0 {
		return "", &NotFoundError{SessionKey: s.Key, Reason: "no portal result matched the commission keywords"}
	}

	// Broadcasts are listed newest-first within a day, so the morning session
	// is the last matching result and the afternoon one the first.
	playerURL := hrefs[0]
	if s.MorningSession(r.loc) {
		playerURL = hrefs[len(hrefs)-1]
	}

	if err := session.Navigate(ctx, playerURL); err != nil {
		return "", err
	}
	videoURL, ok, err := session.AttributeValue(ctx, "a[download]", "href")
	if err != nil {
		return "", err
	}
	if !ok || videoURL == "" {
		return "", &NotFoundError{SessionKey: s.Key, Reason: "player page exposes no download link"}
	}
	return videoURL, nil
}

// locateDeputiesVideo drives the Chamber of Deputies television page: select
// the commission, filter by the session date, pick the matching broadcast.
func (r *DownloadResolver) locateDeputiesVideo(ctx context.Context, session interfaces.BrowserSession, commission *models.Commission, s *models.Session) (string, error) {
	if err := session.Navigate(ctx, deputiesTVURL); err != nil {
		return "", err
	}
	if err := session.WaitVisible(ctx, "#tab_comisiones"); err != nil {
		return "", &DownloadError{SessionKey: s.Key, Err: fmt.Errorf("television page never loaded: %w", err)}
	}
	if err := session.Click(ctx, "#tab_comisiones"); err != nil {
		return "", err
	}

	selectHTML, err := session.HTMLNearLabel(ctx, "Permanentes:")
	if err != nil {
		return "", err
	}
	value, ok := commissionOptionValue(selectHTML, commission.SearchKeywords)
	if !ok {
		return "", &NotFoundError{SessionKey: s.Key, Reason: "no commission option matched the keywords"}
	}
	if err := session.FillNearLabel(ctx, "Permanentes:", value); err != nil {
		return "", err
	}
	if err := session.WaitVisible(ctx, "div[role='status'][aria-hidden='true']"); err != nil {
		return "", &DownloadError{SessionKey: s.Key, Err: fmt.Errorf("commission filter never settled: %w", err)}
	}

	if err := session.FillNearLabel(ctx, "Fecha:", s.Start.In(r.loc).Format("02/01/2006")); err != nil {
		return "", err
	}
	if err := session.Click(ctx, "input[id*='Buscar_comisiones']"); err != nil {
		return "", err
	}
	if err := session.WaitVisible(ctx, "div[role='status'][aria-hidden='true']"); err != nil {
		return "", &DownloadError{SessionKey: s.Key, Err: fmt.Errorf("search never settled: %w", err)}
	}

	resultsHTML, err := session.OuterHTML(ctx, "div[id*='ResultadoBusqueda']")
	if err != nil {
		return "", err
	}

	const resultSelector = "article > div:has(input)"
	indices, err := matchingResultIndices(resultsHTML, resultSelector, commission.SearchKeywords)
	if err != nil {
		return "", err
	}
	if len(indices) == 0 {
		return "", &NotFoundError{SessionKey: s.Key, Reason: "no broadcast matched the commission keywords"}
	}

	index := indices[0]
	if s.MorningSession(r.loc) {
		index = indices[len(indices)-1]
	}
	if err := session.ClickNth(ctx, "div[id*='ResultadoBusqueda'] "+resultSelector, index); err != nil {
		return "", err
	}

	videoURL, ok, err := session.AttributeValue(ctx, "#btn_descargar", "href")
	if err != nil {
		return "", err
	}
	if !ok || videoURL == "" {
		return "", &NotFoundError{SessionKey: s.Key, Reason: "broadcast exposes no download link"}
	}
	return videoURL, nil
}

// matchingResultLinks returns the first link of every result element whose
// text contains all keywords, in page order.
func matchingResultLinks(pageHTML, selector string, keywords []string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse portal results: %w", err)
	}

	var hrefs []string
	doc.Find(selector).Each(func(_ int, result *goquery.Selection) {
		if !common.ContainsAllKeywords(result.Text(), keywords) {
			return
		}
		if href := result.Find("a").AttrOr("href", ""); href != "" {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs, nil
}

// matchingResultIndices returns the positions of result elements whose text
// contains all keywords, in page order.
func matchingResultIndices(pageHTML, selector string, keywords []string) ([]int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse portal results: %w", err)
	}

	var indices []int
	doc.Find(selector).Each(func(i int, result *goquery.Selection) {
		if common.ContainsAllKeywords(result.Text(), keywords) {
			indices = append(indices, i)
		}
	})
	return indices, nil
}

// commissionOptionValue picks the value of the select option whose text
// contains all keywords.
func commissionOptionValue(selectHTML string, keywords []string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(selectHTML))
	if err != nil {
		return "", false
	}

	value := ""
	found := false
	doc.Find("option").EachWithBreak(func(_ int, option *goquery.Selection) bool {
		if !common.ContainsAllKeywords(option.Text(), keywords) {
			return true
		}
		value = option.AttrOr("value", "")
		found = value != ""
		return !found
	})
	return value, found
}
