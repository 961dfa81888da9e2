package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

// SessionStorage implements the SessionStorage interface for Badger
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSessionStorage creates a new SessionStorage instance
func NewSessionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SessionStorage {
	return &SessionStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSession upserts by the (commission, session) key so re-running a
// discovery window overwrites instead of duplicating.
func (s *SessionStorage) SaveSession(ctx context.Context, session *models.Session) error {
	session.EnsureKey()
	if err := session.Validate(); err != nil {
		return err
	}

	if err := s.db.Store().Upsert(session.Key, session); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.Key, err)
	}
	return nil
}

func (s *SessionStorage) GetSession(ctx context.Context, commissionID string, sessionID int) (*models.Session, error) {
	key := models.SessionKey(commissionID, sessionID)

	var session models.Session
	if err := s.db.Store().Get(key, &session); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("session not found: %s", key)
		}
		return nil, fmt.Errorf("failed to get session %s: %w", key, err)
	}
	return &session, nil
}

func (s *SessionStorage) ListSessions(ctx context.Context, commissionID string) ([]*models.Session, error) {
	var sessions []models.Session
	err := s.db.Store().Find(&sessions, badgerhold.Where("CommissionID").Eq(commissionID).Index("CommissionID"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for %s: %w", commissionID, err)
	}

	result := make([]*models.Session, len(sessions))
	for i := range sessions {
		result[i] = &sessions[i]
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}
