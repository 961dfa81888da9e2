package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{
		Path: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return manager
}

func testCommission(chamber models.Chamber, siteID int) *models.Commission {
	return &models.Commission{
		SiteID:            siteID,
		Name:              "Comisión de Hacienda",
		Chamber:           chamber,
		SearchKeywords:    []string{"hacienda"},
		ExtractionEnabled: true,
	}
}

func TestCommissionSaveAndFind(t *testing.T) {
	storage := newTestManager(t).CommissionStorage()
	ctx := context.Background()

	commission := testCommission(models.ChamberSenate, 188)
	require.NoError(t, storage.SaveCommission(ctx, commission))
	assert.Equal(t, "senate-188", commission.ID)

	found, err := storage.FindCommission(ctx, "senate-188")
	require.NoError(t, err)
	assert.Equal(t, "Comisión de Hacienda", found.Name)
	assert.Equal(t, models.ChamberSenate, found.Chamber)
	assert.Equal(t, []string{"hacienda"}, found.SearchKeywords)

	_, err = storage.FindCommission(ctx, "senate-999")
	assert.Error(t, err)
}

func TestCommissionSaveIsUpsert(t *testing.T) {
	storage := newTestManager(t).CommissionStorage()
	ctx := context.Background()

	commission := testCommission(models.ChamberDeputies, 405)
	require.NoError(t, storage.SaveCommission(ctx, commission))

	commission.Name = "Comisión de Agricultura"
	require.NoError(t, storage.SaveCommission(ctx, commission))

	all, err := storage.ListCommissions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Comisión de Agricultura", all[0].Name)
}

func TestCommissionValidationRejected(t *testing.T) {
	storage := newTestManager(t).CommissionStorage()

	err := storage.SaveCommission(context.Background(), &models.Commission{
		Chamber: models.ChamberSenate,
		Name:    "sin identificador",
	})
	assert.Error(t, err)
}

func TestEnabledCommissionIDs(t *testing.T) {
	storage := newTestManager(t).CommissionStorage()
	ctx := context.Background()

	enabled := testCommission(models.ChamberSenate, 188)
	disabled := testCommission(models.ChamberSenate, 190)
	disabled.ExtractionEnabled = false
	other := testCommission(models.ChamberDeputies, 405)

	require.NoError(t, storage.SaveCommission(ctx, enabled))
	require.NoError(t, storage.SaveCommission(ctx, disabled))
	require.NoError(t, storage.SaveCommission(ctx, other))

	ids, err := storage.EnabledCommissionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deputies-405", "senate-188"}, ids)
}

func TestUpdateLastScrape(t *testing.T) {
	storage := newTestManager(t).CommissionStorage()
	ctx := context.Background()

	commission := testCommission(models.ChamberSenate, 188)
	require.NoError(t, storage.SaveCommission(ctx, commission))

	watermark := time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.UpdateLastScrape(ctx, "senate-188", watermark))

	found, err := storage.FindCommission(ctx, "senate-188")
	require.NoError(t, err)
	assert.True(t, found.LastScrape.Equal(watermark))

	err = storage.UpdateLastScrape(ctx, "senate-999", watermark)
	assert.Error(t, err)
}

func testSession(commissionID string, id int, start time.Time) *models.Session {
	return &models.Session{
		ID:           id,
		CommissionID: commissionID,
		Start:        start,
		Finish:       start.Add(2 * time.Hour),
	}
}

func TestSessionSaveAndGet(t *testing.T) {
	storage := newTestManager(t).SessionStorage()
	ctx := context.Background()

	start := time.Date(2024, 6, 4, 13, 0, 0, 0, time.UTC)
	session := testSession("senate-188", 6512, start)
	session.Transcript = "se abre la sesión"
	require.NoError(t, storage.SaveSession(ctx, session))
	assert.Equal(t, "senate-188-6512", session.Key)

	found, err := storage.GetSession(ctx, "senate-188", 6512)
	require.NoError(t, err)
	assert.Equal(t, "se abre la sesión", found.Transcript)
	assert.True(t, found.Start.Equal(start))

	_, err = storage.GetSession(ctx, "senate-188", 9999)
	assert.Error(t, err)
}

func TestSessionSaveIsUpsert(t *testing.T) {
	storage := newTestManager(t).SessionStorage()
	ctx := context.Background()

	start := time.Date(2024, 6, 4, 13, 0, 0, 0, time.UTC)
	session := testSession("senate-188", 6512, start)
	require.NoError(t, storage.SaveSession(ctx, session))

	// Second pass over the same window attaches the transcript.
	session.Transcript = "texto completo"
	session.VideoURL = "https://tv.senado.cl/video/6512"
	require.NoError(t, storage.SaveSession(ctx, session))

	sessions, err := storage.ListSessions(ctx, "senate-188")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "texto completo", sessions[0].Transcript)
}

func TestListSessionsFiltersAndOrders(t *testing.T) {
	storage := newTestManager(t).SessionStorage()
	ctx := context.Background()

	base := time.Date(2024, 6, 4, 13, 0, 0, 0, time.UTC)
	require.NoError(t, storage.SaveSession(ctx, testSession("senate-188", 6513, base.AddDate(0, 0, 7))))
	require.NoError(t, storage.SaveSession(ctx, testSession("senate-188", 6512, base)))
	require.NoError(t, storage.SaveSession(ctx, testSession("deputies-405", 81000, base)))

	sessions, err := storage.ListSessions(ctx, "senate-188")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, 6512, sessions[0].ID)
	assert.Equal(t, 6513, sessions[1].ID)
}

func TestSessionValidationRejected(t *testing.T) {
	storage := newTestManager(t).SessionStorage()

	start := time.Date(2024, 6, 4, 13, 0, 0, 0, time.UTC)
	invalid := testSession("senate-188", 6512, start)
	invalid.Finish = start.Add(-time.Hour)

	err := storage.SaveSession(context.Background(), invalid)
	assert.Error(t, err)
}
