package models

import (
	"fmt"
	"time"
)

// Chamber identifies one of the legislature's two houses. It selects which
// crawler and media resolver variant applies to a commission.
type Chamber string

const (
	ChamberSenate   Chamber = "senate"
	ChamberDeputies Chamber = "deputies"
)

// Valid reports whether the chamber tag is one of the known houses.
func (c Chamber) Valid() bool {
	return c == ChamberSenate || c == ChamberDeputies
}

// SpanishName returns the chamber's official Spanish name, used in generated
// reports and prompts.
func (c Chamber) SpanishName() string {
	switch c {
	case ChamberSenate:
		return "el Senado"
	case ChamberDeputies:
		return "la Cámara de Diputados"
	default:
		return string(c)
	}
}

// Commission is a standing committee within a chamber, the unit of discovery
// and watermarking. Commissions are created once during catalog bootstrap and
// mutated only by watermark and flag updates.
type Commission struct {
	ID                    string    `badgerhold:"key" json:"id"` // "{chamber}-{site_id}"
	SiteID                int       `json:"site_id"`
	Name                  string    `json:"name"`
	Chamber               Chamber   `badgerholdIndex:"Chamber" json:"chamber"`
	SearchKeywords        []string  `json:"search_keywords"`
	LastScrape            time.Time `json:"last_scrape"`
	ExtractionEnabled     bool      `json:"extraction_enabled"`
	AutoProcessingEnabled bool      `json:"auto_processing_enabled"`
}

// CommissionID builds the storage key for a chamber's commission.
func CommissionID(chamber Chamber, siteID int) string {
	return fmt.Sprintf("%s-%d", chamber, siteID)
}

// EnsureID populates the storage key from the chamber and site identifier.
func (c *Commission) EnsureID() {
	if c.ID == "" {
		c.ID = CommissionID(c.Chamber, c.SiteID)
	}
}

// Validate checks invariants before persistence.
func (c *Commission) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("commission ID is required")
	}
	if c.SiteID <= 0 {
		return fmt.Errorf("commission %s: site ID is required", c.ID)
	}
	if !c.Chamber.Valid() {
		return fmt.Errorf("unknown chamber: %s", c.Chamber)
	}
	return nil
}
