package interfaces

import (
	"context"
)

// TaskQueue dispatches downstream processing tasks. Semantics are
// fire-and-forget with at-least-once delivery and no ordering guarantee
// between independently enqueued tasks.
type TaskQueue interface {
	Enqueue(ctx context.Context, endpoint string, payload any) error
	Close() error
}

// Task endpoints understood by downstream processing services.
const (
	TaskSummarize = "summarize"
	TaskMindmap   = "mindmap"
)
