package queue

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/interfaces"
)

// New builds a task queue for the configured backend.
func New(ctx context.Context, cfg common.QueueConfig, logger arbor.ILogger) (interfaces.TaskQueue, error) {
	switch cfg.Backend {
	case "nats":
		return NewNATSQueue(ctx, cfg.URL, cfg.Stream, logger)
	case "memory":
		return NewMemoryQueue(logger), nil
	default:
		return nil, fmt.Errorf("unknown queue backend: %s", cfg.Backend)
	}
}
