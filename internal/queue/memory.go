package queue

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/interfaces"
)

// MemoryQueue is an in-process task queue for development and tests. Tasks
// are held in order; nothing consumes them.
type MemoryQueue struct {
	mu     sync.Mutex
	tasks  []Task
	logger arbor.ILogger
}

var _ interfaces.TaskQueue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an empty in-process queue.
func NewMemoryQueue(logger arbor.ILogger) *MemoryQueue {
	return &MemoryQueue{logger: logger}
}

// Enqueue records one task.
func (q *MemoryQueue) Enqueue(_ context.Context, endpoint string, payload any) error {
	task := NewTask(endpoint, payload)

	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	q.logger.Debug().
		Str("task_id", task.ID).
		Str("endpoint", endpoint).
		Msg("Task enqueued in memory")

	return nil
}

// Tasks returns a snapshot of the enqueued tasks.
func (q *MemoryQueue) Tasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	snapshot := make([]Task, len(q.tasks))
	copy(snapshot, q.tasks)
	return snapshot
}

// Close is a no-op.
func (q *MemoryQueue) Close() error {
	return nil
}
