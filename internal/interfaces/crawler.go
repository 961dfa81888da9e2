package interfaces

import (
	"context"
	"time"

	"github.com/parlascope/parlascope/internal/models"
)

// SessionCrawler discovers committee sessions on a chamber website and
// enriches them with context and attendance. Implementations are selected by
// chamber tag; shared orchestration (window overlap filter, paging loop,
// range re-filter, dedup) lives in the scraper service.
type SessionCrawler interface {
	// Chamber returns the chamber this crawler variant handles.
	Chamber() models.Chamber

	// Discover returns the sessions of a commission whose start falls within
	// [start, end], each enriched with context and attendance. A timeout
	// waiting for a required page element surfaces as a CrawlTimeoutError.
	Discover(ctx context.Context, commission *models.Commission, start, end time.Time) ([]models.Session, error)

	// Commissions lists the chamber's commissions from its directory page,
	// with search keywords attached from the keyword catalog. Invoked once
	// during catalog bootstrap.
	Commissions(ctx context.Context) ([]models.Commission, error)
}
