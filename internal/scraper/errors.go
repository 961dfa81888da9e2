package scraper

import (
	"fmt"

	"github.com/parlascope/parlascope/internal/models"
)

// CrawlTimeoutError reports that a chamber page never reached the state a
// crawler was waiting for. Timeouts are fatal for the extraction pass of the
// commission being crawled; the orchestrator retries on the next cycle.
type CrawlTimeoutError struct {
	Chamber      models.Chamber
	CommissionID int
	Stage        string
	Err          error
}

func (e *CrawlTimeoutError) Error() string {
	return fmt.Sprintf("crawl timed out on %s commission %d during %s: %v",
		e.Chamber, e.CommissionID, e.Stage, e.Err)
}

func (e *CrawlTimeoutError) Unwrap() error {
	return e.Err
}
