package pipeline

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Scheduler runs periodic extraction passes over all enabled commissions.
type Scheduler struct {
	orchestrator *Orchestrator
	cron         *cron.Cron
	logger       arbor.ILogger
}

// NewScheduler creates a new extraction scheduler
func NewScheduler(orchestrator *Orchestrator, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		cron:         cron.New(cron.WithSeconds()),
		logger:       logger,
	}
}

// Start begins the scheduled extraction
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: daily at 06:00
		schedule = "0 0 6 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runExtraction()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Extraction scheduler started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Extraction scheduler stopped")
}

// RunNow triggers an immediate extraction run
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("Triggering immediate extraction run")
	go s.runExtraction()
}

func (s *Scheduler) runExtraction() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	s.logger.Info().Msg("Starting scheduled extraction")

	results, err := s.orchestrator.RunAll(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduled extraction failed")
		return
	}

	var discovered, transcribed, missing, failed int
	for _, result := range results {
		discovered += result.Discovered
		transcribed += result.Transcribed
		missing += result.Missing
		failed += result.Failed
	}

	s.logger.Info().
		Int("commissions", len(results)).
		Int("discovered", discovered).
		Int("transcribed", transcribed).
		Int("missing", missing).
		Int("failed", failed).
		Msg("Scheduled extraction completed")
}
