package interfaces

import (
	"context"
	"time"

	"github.com/parlascope/parlascope/internal/models"
)

// CommissionStorage persists the commission catalog and its watermarks.
type CommissionStorage interface {
	SaveCommission(ctx context.Context, commission *models.Commission) error
	FindCommission(ctx context.Context, id string) (*models.Commission, error)
	EnabledCommissionIDs(ctx context.Context) ([]string, error)
	ListCommissions(ctx context.Context) ([]*models.Commission, error)
	UpdateLastScrape(ctx context.Context, id string, ts time.Time) error
}

// SessionStorage persists discovered sessions. Saving is an upsert keyed by
// (commission id, session id) so re-running a discovery window is idempotent.
type SessionStorage interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, commissionID string, sessionID int) (*models.Session, error)
	ListSessions(ctx context.Context, commissionID string) ([]*models.Session, error)
}

// StorageManager provides access to all storage services
type StorageManager interface {
	CommissionStorage() CommissionStorage
	SessionStorage() SessionStorage
	Close() error
}
