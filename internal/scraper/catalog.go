package scraper

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/parlascope/parlascope/internal/models"
)

// KeywordCatalog maps commissions to the search keywords used when locating
// their session recordings on the chamber's channel. Commission names on the
// chamber pages rarely match the titles the broadcast teams use, so the
// catalog is curated by hand.
type KeywordCatalog struct {
	chambers map[models.Chamber]map[string][]string
}

// LoadKeywordCatalog reads a keyword catalog from a YAML file keyed by
// chamber, then by commission ID.
func LoadKeywordCatalog(path string) (*KeywordCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword catalog %s: %w", path, err)
	}

	var chambers map[models.Chamber]map[string][]string
	if err := yaml.Unmarshal(data, &chambers); err != nil {
		return nil, fmt.Errorf("failed to parse keyword catalog %s: %w", path, err)
	}

	for chamber := range chambers {
		if !chamber.Valid() {
			return nil, fmt.Errorf("keyword catalog %s: unknown chamber %q", path, chamber)
		}
	}

	return &KeywordCatalog{chambers: chambers}, nil
}

// Keywords returns the search keywords for a commission, or nil when the
// catalog has no entry.
func (c *KeywordCatalog) Keywords(chamber models.Chamber, commissionID int) []string {
	if c == nil || c.chambers == nil {
		return nil
	}
	return c.chambers[chamber][strconv.Itoa(commissionID)]
}
