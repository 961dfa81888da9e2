package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/models"
)

type fakeTranscriber struct {
	mu     sync.Mutex
	failOn string
	calls  []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, audioPath)
	f.mu.Unlock()

	if filepath.Base(audioPath) == f.failOn {
		return "", fmt.Errorf("transcription backend unavailable")
	}
	return "texto de " + filepath.Base(audioPath), nil
}

func writeParts(t *testing.T, dir string, n int) []string {
	t.Helper()
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		part := filepath.Join(dir, fmt.Sprintf("audio_part_%03d.mp3", i))
		require.NoError(t, os.WriteFile(part, []byte("audio"), 0o644))
		parts = append(parts, part)
	}
	return parts
}

func newTestPipeline(transcriber *fakeTranscriber) *audioPipeline {
	return &audioPipeline{
		config:      common.MediaConfig{Concurrency: 2},
		transcriber: transcriber,
		logger:      arbor.NewLogger(),
	}
}

func TestTranscribePartsJoinsInOrder(t *testing.T) {
	dir := t.TempDir()
	parts := writeParts(t, dir, 3)
	p := newTestPipeline(&fakeTranscriber{})
	s := &models.Session{ID: 6512, CommissionID: "senate-188"}
	s.EnsureKey()

	text, err := p.transcribeParts(context.Background(), s, parts)
	require.NoError(t, err)
	assert.Equal(t,
		"texto de audio_part_000.mp3 texto de audio_part_001.mp3 texto de audio_part_002.mp3",
		text)

	for _, part := range parts {
		_, err := os.Stat(part)
		assert.True(t, os.IsNotExist(err), "part %s not removed", part)
	}
}

func TestTranscribePartsFailureWaitsForInFlightParts(t *testing.T) {
	dir := t.TempDir()
	parts := writeParts(t, dir, 4)
	transcriber := &fakeTranscriber{failOn: "audio_part_001.mp3"}
	p := newTestPipeline(transcriber)
	s := &models.Session{ID: 6512, CommissionID: "senate-188"}
	s.EnsureKey()

	_, err := p.transcribeParts(context.Background(), s, parts)
	require.Error(t, err)

	var transcriptionErr *TranscriptionError
	require.ErrorAs(t, err, &transcriptionErr)
	assert.Equal(t, "audio_part_001.mp3", transcriptionErr.Part)

	// By the time the call returns no goroutine may still hold a part file:
	// every submitted part has been consumed and removed.
	assert.Len(t, transcriber.calls, len(parts))
	for _, part := range parts {
		_, statErr := os.Stat(part)
		assert.True(t, os.IsNotExist(statErr), "part %s not removed", part)
	}
}
