package index

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

type fakeIndex struct {
	upserts [][]models.TranscriptChunk
	err     error
}

func (f *fakeIndex) Upsert(_ context.Context, _ string, chunks []models.TranscriptChunk) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, chunks)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, string, map[string]any, int) ([]interfaces.ChunkMatch, error) {
	return nil, nil
}

func indexerTestSession() *models.Session {
	s := &models.Session{
		ID:           6921,
		CommissionID: "senate-178",
		Start:        time.Date(2024, 6, 4, 13, 30, 0, 0, time.UTC),
		Finish:       time.Date(2024, 6, 4, 15, 0, 0, 0, time.UTC),
		Transcript:   strings.Repeat("palabra ", 400),
	}
	s.EnsureKey()
	return s
}

func TestIndexerIndex(t *testing.T) {
	chunker, err := NewChunker(100, 10)
	require.NoError(t, err)

	store := &fakeIndex{}
	indexer := NewIndexer(chunker, store, "transcripts", 2, arbor.NewLogger())

	session := indexerTestSession()
	require.NoError(t, indexer.Index(context.Background(), session))
	require.NotEmpty(t, store.upserts)

	// Stable, sequential chunk IDs tagged with the session identity.
	var all []models.TranscriptChunk
	for _, batch := range store.upserts {
		assert.LessOrEqual(t, len(batch), 2)
		all = append(all, batch...)
	}
	for seq, chunk := range all {
		assert.Equal(t, models.ChunkID("senate-178", 6921, seq), chunk.ID)
		assert.Equal(t, 6921, chunk.SessionID)
		assert.Equal(t, "senate-178", chunk.CommissionID)
		assert.Equal(t, session.Start.Unix(), chunk.Timestamp)
		assert.NotEmpty(t, chunk.Text)
	}
}

func TestIndexerSkipsSessionsWithoutTranscript(t *testing.T) {
	chunker, err := NewChunker(100, 10)
	require.NoError(t, err)

	store := &fakeIndex{}
	indexer := NewIndexer(chunker, store, "transcripts", 96, arbor.NewLogger())

	session := indexerTestSession()
	session.Transcript = ""

	require.NoError(t, indexer.Index(context.Background(), session))
	assert.Empty(t, store.upserts)
}

func TestIndexerPropagatesUpsertFailure(t *testing.T) {
	chunker, err := NewChunker(100, 10)
	require.NoError(t, err)

	store := &fakeIndex{err: &UpsertError{Namespace: "transcripts", Err: assert.AnError}}
	indexer := NewIndexer(chunker, store, "transcripts", 96, arbor.NewLogger())

	err = indexer.Index(context.Background(), indexerTestSession())
	var upsertErr *UpsertError
	require.ErrorAs(t, err, &upsertErr)
}
