package scraper

import (
	"regexp"
	"strconv"
	"time"
)

// legislatureWindow is one option of the Senate's legislature selector. Each
// option covers a date span; a discovery pass only visits windows overlapping
// the requested range.
type legislatureWindow struct {
	Value string
	Start time.Time
	End   time.Time
}

var windowRangePattern = regexp.MustCompile(`(\d{2}/\d{2}/\d{4}) al (\d{2}/\d{2}/\d{4})`)

// parseWindowLabel extracts the date span from a legislature option label such
// as "Legislatura 372 (11/03/2024 al 10/03/2025)". Returns false when the
// label carries no recognizable span.
func parseWindowLabel(value, label string, loc *time.Location) (legislatureWindow, bool) {
	match := windowRangePattern.FindStringSubmatch(label)
	if match == nil {
		return legislatureWindow{}, false
	}

	start, err := time.ParseInLocation("02/01/2006", match[1], loc)
	if err != nil {
		return legislatureWindow{}, false
	}
	end, err := time.ParseInLocation("02/01/2006", match[2], loc)
	if err != nil {
		return legislatureWindow{}, false
	}

	return legislatureWindow{
		Value: value,
		Start: start.UTC(),
		End:   end.UTC(),
	}, true
}

// Overlaps reports whether the window intersects the [start, end] range.
// Windows touching the range boundary count as overlapping.
func (w legislatureWindow) Overlaps(start, end time.Time) bool {
	return !w.Start.After(end) && !w.End.Before(start)
}

// combineDateTime merges a calendar date with an HH:MM clock reading in the
// chamber's local timezone and returns the UTC instant.
func combineDateTime(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc).UTC(), nil
}

// parseSessionID pulls the trailing numeric group out of a session link,
// given a pattern with exactly one capture group.
func parseSessionID(pattern *regexp.Regexp, href string) (int, bool) {
	match := pattern.FindStringSubmatch(href)
	if match == nil {
		return 0, false
	}
	id, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return id, true
}
