package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/media"
	"github.com/parlascope/parlascope/internal/models"
	"github.com/parlascope/parlascope/internal/scraper"
)

// DefaultWatermarkDelay is the safety margin subtracted from "now" when the
// caller did not pin an end date, tolerating last-minute edits to
// just-concluded sessions on the chamber sites.
const DefaultWatermarkDelay = 12 * time.Hour

// TaskPayload identifies a session in summarize/mindmap task messages.
type TaskPayload struct {
	CommissionID string `json:"commission_id"`
	SessionID    int    `json:"session_id"`
}

// Result counts the outcomes of one commission run.
type Result struct {
	Discovered  int
	Transcribed int
	Indexed     int
	Missing     int // persisted without transcript after a media miss
	Failed      int // dropped after a hard resolution failure
}

// Orchestrator drives a commission's sessions through discover, resolve,
// index and persist. Each run owns its in-flight sessions exclusively; the
// stage services keep no references.
type Orchestrator struct {
	crawlers       scraper.Registry
	resolver       interfaces.MediaResolver
	fallback       interfaces.MediaResolver // retried after a caption miss, nil when disabled
	indexer        interfaces.TranscriptIndexer
	storage        interfaces.StorageManager
	queue          interfaces.TaskQueue
	watermarkDelay time.Duration
	now            func() time.Time
	logger         arbor.ILogger
}

// NewOrchestrator wires the pipeline stages together. fallback may be nil,
// in which case a media miss on the primary path is final.
func NewOrchestrator(
	crawlers scraper.Registry,
	resolver interfaces.MediaResolver,
	fallback interfaces.MediaResolver,
	indexer interfaces.TranscriptIndexer,
	storage interfaces.StorageManager,
	queue interfaces.TaskQueue,
	watermarkDelay time.Duration,
	logger arbor.ILogger,
) *Orchestrator {
	if watermarkDelay <= 0 {
		watermarkDelay = DefaultWatermarkDelay
	}
	return &Orchestrator{
		crawlers:       crawlers,
		resolver:       resolver,
		fallback:       fallback,
		indexer:        indexer,
		storage:        storage,
		queue:          queue,
		watermarkDelay: watermarkDelay,
		now:            time.Now,
		logger:         logger,
	}
}

// RunAll processes every extraction-enabled commission sequentially with an
// unpinned window.
func (o *Orchestrator) RunAll(ctx context.Context) (map[string]*Result, error) {
	ids, err := o.storage.CommissionStorage().EnabledCommissionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled commissions: %w", err)
	}

	results := make(map[string]*Result, len(ids))
	for _, id := range ids {
		result, err := o.RunCommission(ctx, id, time.Time{}, time.Time{})
		if err != nil {
			o.logger.Error().Err(err).Str("commission_id", id).Msg("Commission run failed")
			continue
		}
		results[id] = result
	}
	return results, nil
}

// RunCommission discovers and processes one commission's sessions. A zero
// start falls back to the commission's watermark; a zero end means "now
// minus the safety margin" and advances the watermark afterwards. A pinned
// (non-zero) end leaves the watermark untouched.
func (o *Orchestrator) RunCommission(ctx context.Context, commissionID string, start, end time.Time) (*Result, error) {
	commission, err := o.storage.CommissionStorage().FindCommission(ctx, commissionID)
	if err != nil {
		return nil, err
	}
	if !commission.ExtractionEnabled {
		return nil, fmt.Errorf("extraction is disabled for commission %s", commissionID)
	}

	crawler, err := o.crawlers.For(commission.Chamber)
	if err != nil {
		return nil, err
	}

	if start.IsZero() {
		start = commission.LastScrape
	}
	pinned := !end.IsZero()
	if !pinned {
		end = o.now().Add(-o.watermarkDelay)
	}

	o.logger.Info().
		Str("commission_id", commission.ID).
		Str("start", start.Format(time.RFC3339)).
		Str("end", end.Format(time.RFC3339)).
		Msg("Starting commission run")

	sessions, err := crawler.Discover(ctx, commission, start, end)
	if err != nil {
		return nil, fmt.Errorf("discovery failed for %s: %w", commission.ID, err)
	}

	result := &Result{Discovered: len(sessions)}
	for i := range sessions {
		o.processSession(ctx, commission, &sessions[i], result)
	}

	if !pinned {
		if err := o.storage.CommissionStorage().UpdateLastScrape(ctx, commission.ID, end); err != nil {
			return result, fmt.Errorf("failed to advance watermark for %s: %w", commission.ID, err)
		}
	}

	o.logger.Info().
		Str("commission_id", commission.ID).
		Int("discovered", result.Discovered).
		Int("transcribed", result.Transcribed).
		Int("missing", result.Missing).
		Int("failed", result.Failed).
		Msg("Commission run finished")

	return result, nil
}

// processSession runs one session through resolve, index and persist. A
// media miss persists the session without a transcript; a hard failure drops
// it so a later run can retry discovery.
func (o *Orchestrator) processSession(ctx context.Context, commission *models.Commission, session *models.Session, result *Result) {
	session.EnsureKey()

	err := o.resolver.Resolve(ctx, commission, session)

	var notFound *media.NotFoundError
	if errors.As(err, &notFound) && o.fallback != nil {
		o.logger.Info().
			Str("session_key", session.Key).
			Str("reason", notFound.Reason).
			Msg("Caption path missed, retrying download path")
		err = o.fallback.Resolve(ctx, commission, session)
	}

	switch {
	case errors.As(err, &notFound):
		// Expected outcome: no hosted video matched. Persist without
		// transcript so the session record is not lost.
		o.logger.Warn().
			Str("session_key", session.Key).
			Str("reason", notFound.Reason).
			Msg("No media found for session")
		result.Missing++
	case err != nil:
		o.logger.Error().Err(err).Str("session_key", session.Key).Msg("Media resolution failed")
		result.Failed++
		return
	default:
		result.Transcribed++
	}

	if session.HasTranscript() {
		if err := o.indexer.Index(ctx, session); err != nil {
			// The session record still gets persisted; only the index is
			// behind until the next re-run.
			o.logger.Error().Err(err).Str("session_key", session.Key).Msg("Transcript indexing failed")
		} else {
			result.Indexed++
		}
	}

	if err := o.storage.SessionStorage().SaveSession(ctx, session); err != nil {
		o.logger.Error().Err(err).Str("session_key", session.Key).Msg("Failed to persist session")
		result.Failed++
		return
	}

	if session.HasTranscript() && commission.AutoProcessingEnabled {
		o.dispatchTasks(ctx, session)
	}
}

// dispatchTasks enqueues the downstream summarize/mindmap work. Failures are
// logged, not retried; delivery is the queue's concern.
func (o *Orchestrator) dispatchTasks(ctx context.Context, session *models.Session) {
	payload := TaskPayload{
		CommissionID: session.CommissionID,
		SessionID:    session.ID,
	}

	for _, endpoint := range []string{interfaces.TaskSummarize, interfaces.TaskMindmap} {
		if err := o.queue.Enqueue(ctx, endpoint, payload); err != nil {
			o.logger.Warn().
				Err(err).
				Str("session_key", session.Key).
				Str("endpoint", endpoint).
				Msg("Failed to dispatch processing task")
		}
	}
}
