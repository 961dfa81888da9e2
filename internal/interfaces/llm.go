package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// LLMService provides chat completions for the summarization and
// question-answering services.
type LLMService interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Close() error
}
