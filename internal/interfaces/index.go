package interfaces

import (
	"context"

	"github.com/parlascope/parlascope/internal/models"
)

// ChunkMatch is one retrieval hit from the vector index.
type ChunkMatch struct {
	ID    string
	Score float64
	Chunk models.TranscriptChunk
}

// VectorIndex is the retrieval index boundary. Upsert is append-only per
// chunk ID: stable IDs make re-indexing idempotent by overwrite. Both
// operations treat the index as an externally-synchronized service.
type VectorIndex interface {
	Upsert(ctx context.Context, namespace string, chunks []models.TranscriptChunk) error
	Search(ctx context.Context, namespace, query string, filters map[string]any, topK int) ([]ChunkMatch, error)
}

// TranscriptIndexer splits a session transcript into passages and upserts
// them into the retrieval index.
type TranscriptIndexer interface {
	Index(ctx context.Context, session *models.Session) error
}
