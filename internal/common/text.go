package common

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTimezone is the legislature's timezone.
const DefaultTimezone = "America/Santiago"

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText lowercases text and strips combining accent marks, so that
// "Educación" and "educacion" compare equal. Chamber websites and video
// titles are inconsistent about accents, which makes this the comparison
// baseline for all keyword and title matching.
func NormalizeText(text string) string {
	normalized, _, err := transform.String(stripAccents, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return normalized
}

// ContainsAllKeywords reports whether the accent-normalized text contains
// every accent-normalized keyword.
func ContainsAllKeywords(text string, keywords []string) bool {
	normalized := NormalizeText(text)
	for _, kw := range keywords {
		if !strings.Contains(normalized, NormalizeText(kw)) {
			return false
		}
	}
	return true
}

// SpanishMonths maps full lowercase Spanish month names to their number.
var SpanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// SpanishMonthAbbrevs maps the dotted abbreviations used in the Chamber of
// Deputies session tables ("ene.", "feb.", ...) to month numbers.
var SpanishMonthAbbrevs = map[string]time.Month{
	"ene.": time.January,
	"feb.": time.February,
	"mar.": time.March,
	"abr.": time.April,
	"may.": time.May,
	"jun.": time.June,
	"jul.": time.July,
	"ago.": time.August,
	"sep.": time.September,
	"oct.": time.October,
	"nov.": time.November,
	"dic.": time.December,
}

// SpanishWeekdays maps Go weekdays to their lowercase Spanish names.
var SpanishWeekdays = map[time.Weekday]string{
	time.Sunday:    "domingo",
	time.Monday:    "lunes",
	time.Tuesday:   "martes",
	time.Wednesday: "miércoles",
	time.Thursday:  "jueves",
	time.Friday:    "viernes",
	time.Saturday:  "sábado",
}

// SpanishLongDate formats a date the way it is read aloud in Chile, e.g.
// "martes 4 de junio de 2024".
func SpanishLongDate(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%s %d de %s de %d",
		SpanishWeekdays[local.Weekday()], local.Day(), SpanishMonthName(local.Month()), local.Year())
}

// SpanishMonthName returns the full lowercase Spanish name for a month.
func SpanishMonthName(m time.Month) string {
	for name, month := range SpanishMonths {
		if month == m {
			return name
		}
	}
	return ""
}

// LoadTimezone resolves a timezone name, falling back to the legislature
// default when the name is empty.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	return time.LoadLocation(name)
}
