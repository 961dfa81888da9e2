package queue

import (
	"time"

	"github.com/google/uuid"
)

// Task is the envelope published for downstream processing services. Delivery
// is at-least-once; consumers dedupe on ID if they need to.
type Task struct {
	ID         string    `json:"id"`
	Endpoint   string    `json:"endpoint"`
	Payload    any       `json:"payload,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTask wraps a payload for an endpoint.
func NewTask(endpoint string, payload any) Task {
	return Task{
		ID:         uuid.New().String(),
		Endpoint:   endpoint,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
}
