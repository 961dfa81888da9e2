package interfaces

import (
	"context"

	"github.com/parlascope/parlascope/internal/models"
)

// MediaResolver locates the recorded video of a session and produces its
// transcript. Resolve mutates the given session, attaching Transcript and
// VideoURL, and returns a media.NotFoundError when no hosted video matches.
type MediaResolver interface {
	Resolve(ctx context.Context, commission *models.Commission, session *models.Session) error
}

// Transcriber converts one audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
