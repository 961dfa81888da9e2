package scraper

import (
	"fmt"
	"time"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

// Registry holds one crawler per chamber.
type Registry map[models.Chamber]interfaces.SessionCrawler

// For returns the crawler registered for a chamber.
func (r Registry) For(chamber models.Chamber) (interfaces.SessionCrawler, error) {
	crawler, ok := r[chamber]
	if !ok {
		return nil, fmt.Errorf("no crawler registered for chamber %s", chamber)
	}
	return crawler, nil
}

// filterByRange keeps the sessions whose start instant falls inside
// [start, end]. Chamber pages return whole legislature or month spans, so
// discovery always over-fetches and re-filters.
func filterByRange(sessions []models.Session, start, end time.Time) []models.Session {
	filtered := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Start.Before(start) || s.Start.After(end) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

// dedupeSessions drops duplicate (commission, session) pairs while preserving
// order. Legislature windows and pagination can both surface the same row
// twice.
func dedupeSessions(sessions []models.Session) []models.Session {
	seen := make(map[string]struct{}, len(sessions))
	deduped := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		key := models.SessionKey(s.CommissionID, s.ID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, s)
	}
	return deduped
}

// dedupeWindows drops legislature windows sharing a selector value.
func dedupeWindows(windows []legislatureWindow) []legislatureWindow {
	seen := make(map[string]struct{}, len(windows))
	deduped := make([]legislatureWindow, 0, len(windows))
	for _, w := range windows {
		if _, ok := seen[w.Value]; ok {
			continue
		}
		seen[w.Value] = struct{}{}
		deduped = append(deduped, w)
	}
	return deduped
}
