package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/index"
	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/media"
	"github.com/parlascope/parlascope/internal/models"
	"github.com/parlascope/parlascope/internal/queue"
	"github.com/parlascope/parlascope/internal/scraper"
)

type fakeCrawler struct {
	chamber  models.Chamber
	sessions []models.Session
	start    time.Time
	end      time.Time
}

func (f *fakeCrawler) Chamber() models.Chamber { return f.chamber }

func (f *fakeCrawler) Discover(_ context.Context, _ *models.Commission, start, end time.Time) ([]models.Session, error) {
	f.start = start
	f.end = end
	return f.sessions, nil
}

func (f *fakeCrawler) Commissions(_ context.Context) ([]models.Commission, error) {
	return nil, nil
}

type fakeResolver struct {
	transcript string
	err        error
	calls      int
}

func (f *fakeResolver) Resolve(_ context.Context, _ *models.Commission, session *models.Session) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	session.Transcript = f.transcript
	session.VideoURL = "https://example.cl/video"
	return nil
}

type fakeIndexer struct {
	indexed []string
	err     error
}

func (f *fakeIndexer) Index(_ context.Context, session *models.Session) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, session.Key)
	return nil
}

type memoryStorage struct {
	commissions map[string]*models.Commission
	sessions    map[string]*models.Session
	watermarks  map[string]time.Time
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		commissions: make(map[string]*models.Commission),
		sessions:    make(map[string]*models.Session),
		watermarks:  make(map[string]time.Time),
	}
}

func (m *memoryStorage) CommissionStorage() interfaces.CommissionStorage { return m }
func (m *memoryStorage) SessionStorage() interfaces.SessionStorage      { return m }
func (m *memoryStorage) Close() error                                   { return nil }

func (m *memoryStorage) SaveCommission(_ context.Context, c *models.Commission) error {
	c.EnsureID()
	m.commissions[c.ID] = c
	return nil
}

func (m *memoryStorage) FindCommission(_ context.Context, id string) (*models.Commission, error) {
	c, ok := m.commissions[id]
	if !ok {
		return nil, fmt.Errorf("commission not found: %s", id)
	}
	return c, nil
}

func (m *memoryStorage) EnabledCommissionIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id, c := range m.commissions {
		if c.ExtractionEnabled {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memoryStorage) ListCommissions(_ context.Context) ([]*models.Commission, error) {
	var all []*models.Commission
	for _, c := range m.commissions {
		all = append(all, c)
	}
	return all, nil
}

func (m *memoryStorage) UpdateLastScrape(_ context.Context, id string, ts time.Time) error {
	m.watermarks[id] = ts
	return nil
}

func (m *memoryStorage) SaveSession(_ context.Context, s *models.Session) error {
	s.EnsureKey()
	copied := *s
	m.sessions[s.Key] = &copied
	return nil
}

func (m *memoryStorage) GetSession(_ context.Context, commissionID string, sessionID int) (*models.Session, error) {
	s, ok := m.sessions[models.SessionKey(commissionID, sessionID)]
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	return s, nil
}

func (m *memoryStorage) ListSessions(_ context.Context, commissionID string) ([]*models.Session, error) {
	var all []*models.Session
	for _, s := range m.sessions {
		if s.CommissionID == commissionID {
			all = append(all, s)
		}
	}
	return all, nil
}

type fixture struct {
	orchestrator *Orchestrator
	crawler      *fakeCrawler
	resolver     *fakeResolver
	fallback     *fakeResolver
	indexer      *fakeIndexer
	storage      *memoryStorage
	queue        *queue.MemoryQueue
}

func newFixture(t *testing.T, commission *models.Commission, sessions []models.Session, withFallback bool) *fixture {
	t.Helper()

	crawler := &fakeCrawler{chamber: commission.Chamber, sessions: sessions}
	resolver := &fakeResolver{transcript: "se abre la sesión"}
	indexer := &fakeIndexer{}
	storage := newMemoryStorage()
	taskQueue := queue.NewMemoryQueue(arbor.NewLogger())

	require.NoError(t, storage.SaveCommission(context.Background(), commission))

	var fallback *fakeResolver
	var fallbackResolver interfaces.MediaResolver
	if withFallback {
		fallback = &fakeResolver{transcript: "transcrito por descarga"}
		fallbackResolver = fallback
	}

	orchestrator := NewOrchestrator(
		scraper.Registry{commission.Chamber: crawler},
		resolver,
		fallbackResolver,
		indexer,
		storage,
		taskQueue,
		DefaultWatermarkDelay,
		arbor.NewLogger(),
	)

	return &fixture{
		orchestrator: orchestrator,
		crawler:      crawler,
		resolver:     resolver,
		fallback:     fallback,
		indexer:      indexer,
		storage:      storage,
		queue:        taskQueue,
	}
}

func testCommission() *models.Commission {
	return &models.Commission{
		ID:                    "senate-188",
		SiteID:                188,
		Name:                  "Comisión de Hacienda",
		Chamber:               models.ChamberSenate,
		LastScrape:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExtractionEnabled:     true,
		AutoProcessingEnabled: true,
	}
}

func testSessions() []models.Session {
	start := time.Date(2024, 1, 9, 13, 0, 0, 0, time.UTC)
	return []models.Session{{
		ID:           6512,
		CommissionID: "senate-188",
		Start:        start,
		Finish:       start.Add(2 * time.Hour),
	}}
}

func TestUnpinnedRunUsesWatermarkWindow(t *testing.T) {
	f := newFixture(t, testCommission(), testSessions(), false)
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	f.orchestrator.now = func() time.Time { return now }

	result, err := f.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Discovered)

	wantEnd := time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC)
	assert.True(t, f.crawler.start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, f.crawler.end.Equal(wantEnd))
	assert.True(t, f.storage.watermarks["senate-188"].Equal(wantEnd))
}

func TestPinnedEndLeavesWatermarkUntouched(t *testing.T) {
	f := newFixture(t, testCommission(), testSessions(), false)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := f.orchestrator.RunCommission(context.Background(), "senate-188", start, end)
	require.NoError(t, err)

	assert.True(t, f.crawler.end.Equal(end))
	_, updated := f.storage.watermarks["senate-188"]
	assert.False(t, updated)
}

func TestMediaMissPersistsWithoutTranscript(t *testing.T) {
	f := newFixture(t, testCommission(), testSessions(), false)
	f.resolver.err = &media.NotFoundError{SessionKey: "senate-188-6512", Reason: "search returned no results"}

	result, err := f.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Missing)
	assert.Equal(t, 0, result.Transcribed)

	persisted, err := f.storage.GetSession(context.Background(), "senate-188", 6512)
	require.NoError(t, err)
	assert.False(t, persisted.HasTranscript())

	assert.Empty(t, f.indexer.indexed)
	assert.Empty(t, f.queue.Tasks())
}

func TestCaptionMissFallsBackToDownloadPath(t *testing.T) {
	f := newFixture(t, testCommission(), testSessions(), true)
	f.resolver.err = &media.NotFoundError{SessionKey: "senate-188-6512", Reason: "no caption track"}

	result, err := f.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Transcribed)
	assert.Equal(t, 1, f.fallback.calls)

	persisted, err := f.storage.GetSession(context.Background(), "senate-188", 6512)
	require.NoError(t, err)
	assert.Equal(t, "transcrito por descarga", persisted.Transcript)
}

func TestTranscriptIndexedBeforePersist(t *testing.T) {
	f := newFixture(t, testCommission(), testSessions(), false)

	result, err := f.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, []string{"senate-188-6512"}, f.indexer.indexed)

	persisted, err := f.storage.GetSession(context.Background(), "senate-188", 6512)
	require.NoError(t, err)
	assert.Equal(t, "se abre la sesión", persisted.Transcript)
}

func TestDiscoveredSessionGetsKeyBeforeIndexing(t *testing.T) {
	// Crawler fakes may hand back sessions without a Key; the orchestrator
	// must assign one before any stage logs or indexes it.
	sessions := testSessions()
	sessions[0].Key = ""
	f := newFixture(t, testCommission(), sessions, false)

	_, err := f.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, f.indexer.indexed, 1)
	assert.Equal(t, "senate-188-6512", f.indexer.indexed[0])
}

func TestIndexFailureStillPersistsSession(t *testing.T) {
	f := newFixture(t, testCommission(), testSessions(), false)
	f.indexer.err = &index.UpsertError{Namespace: "transcripts", Batch: 1}

	result, err := f.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Indexed)
	assert.Equal(t, 1, result.Transcribed)

	_, err = f.storage.GetSession(context.Background(), "senate-188", 6512)
	assert.NoError(t, err)
}

func TestDispatchGatedByAutoProcessing(t *testing.T) {
	commission := testCommission()
	f := newFixture(t, commission, testSessions(), false)

	_, err := f.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	require.NoError(t, err)

	tasks := f.queue.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, interfaces.TaskSummarize, tasks[0].Endpoint)
	assert.Equal(t, interfaces.TaskMindmap, tasks[1].Endpoint)

	// Disabled flag suppresses dispatch even with a transcript attached.
	disabled := testCommission()
	disabled.AutoProcessingEnabled = false
	g := newFixture(t, disabled, testSessions(), false)

	_, err = g.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, g.queue.Tasks())
}

func TestExtractionDisabledCommissionRejected(t *testing.T) {
	commission := testCommission()
	commission.ExtractionEnabled = false
	f := newFixture(t, commission, nil, false)

	_, err := f.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestHardResolutionFailureDropsSession(t *testing.T) {
	f := newFixture(t, testCommission(), testSessions(), false)
	f.resolver.err = &media.TranscriptionError{SessionKey: "senate-188-6512", Part: "audio_part_002.mp3", Err: fmt.Errorf("api unavailable")}

	result, err := f.orchestrator.RunCommission(context.Background(), "senate-188", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	_, err = f.storage.GetSession(context.Background(), "senate-188", 6512)
	assert.Error(t, err)
}
