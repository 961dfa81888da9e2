package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

// CommissionStorage implements the CommissionStorage interface for Badger
type CommissionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCommissionStorage creates a new CommissionStorage instance
func NewCommissionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CommissionStorage {
	return &CommissionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CommissionStorage) SaveCommission(ctx context.Context, commission *models.Commission) error {
	commission.EnsureID()
	if err := commission.Validate(); err != nil {
		return err
	}

	if err := s.db.Store().Upsert(commission.ID, commission); err != nil {
		return fmt.Errorf("failed to save commission %s: %w", commission.ID, err)
	}
	return nil
}

func (s *CommissionStorage) FindCommission(ctx context.Context, id string) (*models.Commission, error) {
	var commission models.Commission
	if err := s.db.Store().Get(id, &commission); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("commission not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get commission %s: %w", id, err)
	}
	return &commission, nil
}

func (s *CommissionStorage) EnabledCommissionIDs(ctx context.Context) ([]string, error) {
	var commissions []models.Commission
	err := s.db.Store().Find(&commissions, badgerhold.Where("ExtractionEnabled").Eq(true))
	if err != nil {
		return nil, fmt.Errorf("failed to find enabled commissions: %w", err)
	}

	ids := make([]string, len(commissions))
	for i := range commissions {
		ids[i] = commissions[i].ID
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *CommissionStorage) ListCommissions(ctx context.Context) ([]*models.Commission, error) {
	var commissions []models.Commission
	if err := s.db.Store().Find(&commissions, nil); err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}

	result := make([]*models.Commission, len(commissions))
	for i := range commissions {
		result[i] = &commissions[i]
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *CommissionStorage) UpdateLastScrape(ctx context.Context, id string, ts time.Time) error {
	commission, err := s.FindCommission(ctx, id)
	if err != nil {
		return err
	}

	commission.LastScrape = ts
	if err := s.db.Store().Upsert(commission.ID, commission); err != nil {
		return fmt.Errorf("failed to update watermark for %s: %w", id, err)
	}

	s.logger.Debug().
		Str("commission_id", id).
		Str("last_scrape", ts.Format(time.RFC3339)).
		Msg("Commission watermark advanced")

	return nil
}
