package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

// Indexer feeds finished transcripts into the retrieval index: split into
// overlapping passages, wrap as chunk records, upsert in batches.
type Indexer struct {
	chunker   *Chunker
	index     interfaces.VectorIndex
	namespace string
	batchSize int
	logger    arbor.ILogger
}

var _ interfaces.TranscriptIndexer = (*Indexer)(nil)

// NewIndexer creates the transcript indexer.
func NewIndexer(chunker *Chunker, index interfaces.VectorIndex, namespace string, batchSize int, logger arbor.ILogger) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{
		chunker:   chunker,
		index:     index,
		namespace: namespace,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Index splits the session transcript and upserts every batch. A session
// without a transcript is a no-op.
func (i *Indexer) Index(ctx context.Context, session *models.Session) error {
	if !session.HasTranscript() {
		return nil
	}

	passages := i.chunker.Split(session.Transcript)
	chunks := make([]models.TranscriptChunk, 0, len(passages))
	for seq, passage := range passages {
		chunks = append(chunks, models.NewTranscriptChunk(session, seq, passage))
	}

	for batchNum, batch := range Batches(chunks, i.batchSize) {
		if err := i.index.Upsert(ctx, i.namespace, batch); err != nil {
			var upsertErr *UpsertError
			if errors.As(err, &upsertErr) {
				upsertErr.Batch = batchNum
				return upsertErr
			}
			return fmt.Errorf("index upsert failed for session %s: %w", session.Key, err)
		}
	}

	i.logger.Info().
		Str("session", session.Key).
		Int("chunks", len(chunks)).
		Msg("Transcript indexed")

	return nil
}
