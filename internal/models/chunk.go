package models

import (
	"fmt"
)

// TranscriptChunk is a bounded-length passage of a session transcript
// prepared for retrieval indexing. Chunks are derived and ephemeral: they are
// regenerated whenever a transcript is (re)indexed, and their deterministic
// IDs make re-indexing idempotent by overwrite.
type TranscriptChunk struct {
	ID           string `json:"id"` // "{commission_id}-{session_id}-{seq}"
	SessionID    int    `json:"session_id"`
	CommissionID string `json:"commission_id"`
	Timestamp    int64  `json:"timestamp"` // Session start, seconds since epoch
	Text         string `json:"text"`
}

// ChunkID builds the deterministic chunk identifier.
func ChunkID(commissionID string, sessionID, seq int) string {
	return fmt.Sprintf("%s-%d-%d", commissionID, sessionID, seq)
}

// NewTranscriptChunk builds the chunk record for passage seq of a session.
func NewTranscriptChunk(s *Session, seq int, text string) TranscriptChunk {
	return TranscriptChunk{
		ID:           ChunkID(s.CommissionID, s.ID, seq),
		SessionID:    s.ID,
		CommissionID: s.CommissionID,
		Timestamp:    s.Start.Unix(),
		Text:         text,
	}
}
