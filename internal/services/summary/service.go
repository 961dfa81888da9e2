package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

// Service generates narrative reports and mind maps from session
// transcripts. Both outputs are produced on demand, typically by a worker
// consuming the summarize/mindmap task queue.
type Service struct {
	llm    interfaces.LLMService
	loc    *time.Location
	logger arbor.ILogger
}

// NewService creates a report generation service.
func NewService(llm interfaces.LLMService, loc *time.Location, logger arbor.ILogger) *Service {
	return &Service{
		llm:    llm,
		loc:    loc,
		logger: logger,
	}
}

// Summarize produces the structured Markdown report for a session. The
// session must carry a transcript.
func (s *Service) Summarize(ctx context.Context, commission *models.Commission, session *models.Session) (string, error) {
	if !session.HasTranscript() {
		return "", fmt.Errorf("session %s has no transcript to summarize", session.Key)
	}

	s.logger.Info().
		Str("session_key", session.Key).
		Str("commission", commission.Name).
		Msg("Generating session report")

	report, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: buildSummaryPrompt(commission, session, s.loc)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate report for %s: %w", session.Key, err)
	}

	return report, nil
}

// Mindmap produces the JSON mind map for a session.
func (s *Service) Mindmap(ctx context.Context, commission *models.Commission, session *models.Session) (string, error) {
	if !session.HasTranscript() {
		return "", fmt.Errorf("session %s has no transcript to map", session.Key)
	}

	s.logger.Info().
		Str("session_key", session.Key).
		Str("commission", commission.Name).
		Msg("Generating session mind map")

	mindmap, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: mindmapSystemPrompt},
		{Role: "user", Content: buildMindmapPrompt(commission, session, s.loc)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate mind map for %s: %w", session.Key, err)
	}

	return mindmap, nil
}
