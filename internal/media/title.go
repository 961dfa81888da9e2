package media

import (
	"regexp"
	"strconv"
	"time"

	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/models"
)

// SessionTypeToken is the literal prefix both chambers' broadcast teams put
// on committee session titles.
const SessionTypeToken = "Comision"

var (
	// "comision de hacienda - 4 de junio 2024"
	senateTitleDatePattern = regexp.MustCompile(`^comision .*?(\d{1,2}) de ([a-z]+) (\d{4})$`)

	// "comision de salud /am/ 4 junio 2024"
	deputiesTitleDatePattern = regexp.MustCompile(`^comision .*?(\d{1,2}) ([a-z]+) (\d{4})$`)

	amToken = regexp.MustCompile(`\bam\b`)
	pmToken = regexp.MustCompile(`\bpm\b`)
)

// TitleMatches reports whether a video title belongs to the session. Titles
// are compared accent-normalized. All chambers require the session-type
// prefix and a date fragment matching the session's local date; the Chamber
// of Deputies publishes separate morning and afternoon broadcasts, so its
// titles additionally carry an am/pm token that must match the session's
// half of day: the wanted token must be present and the other half's token
// must be absent. A title carrying both tokens (combined re-broadcasts) is
// rejected.
func TitleMatches(chamber models.Chamber, title string, session *models.Session, loc *time.Location) bool {
	normalized := common.NormalizeText(title)

	switch chamber {
	case models.ChamberSenate:
		return dateFragmentMatches(senateTitleDatePattern, normalized, session.Start.In(loc))
	case models.ChamberDeputies:
		if !halfOfDayMatches(normalized, session.MorningSession(loc)) {
			return false
		}
		return dateFragmentMatches(deputiesTitleDatePattern, normalized, session.Start.In(loc))
	default:
		return false
	}
}

func dateFragmentMatches(pattern *regexp.Regexp, normalizedTitle string, local time.Time) bool {
	match := pattern.FindStringSubmatch(normalizedTitle)
	if match == nil {
		return false
	}
	day, err := strconv.Atoi(match[1])
	if err != nil || day != local.Day() {
		return false
	}
	if match[2] != common.SpanishMonthName(local.Month()) {
		return false
	}
	year, err := strconv.Atoi(match[3])
	if err != nil || year != local.Year() {
		return false
	}
	return true
}

func halfOfDayMatches(normalizedTitle string, morning bool) bool {
	wanted, unwanted := pmToken, amToken
	if morning {
		wanted, unwanted = amToken, pmToken
	}
	return wanted.MatchString(normalizedTitle) && !unwanted.MatchString(normalizedTitle)
}
