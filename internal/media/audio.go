package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

// audioPipeline turns a video URL into a transcript: download, extract mono
// 16 kHz audio, segment into fixed-length chunks, transcribe chunks in
// parallel, join in order. Temporary artifacts are deleted as soon as each
// stage no longer needs them; the per-session directory goes away on every
// exit path.
type audioPipeline struct {
	config      common.MediaConfig
	transcriber interfaces.Transcriber
	logger      arbor.ILogger
}

func (p *audioPipeline) produceTranscript(ctx context.Context, s *models.Session, videoURL string) (transcript string, err error) {
	// Unique per-session directory so concurrent resolutions cannot collide.
	dir := filepath.Join(p.config.TempDir, s.Key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	videoPath := filepath.Join(dir, "video.mp4")
	audioPath := filepath.Join(dir, "audio.mp3")

	if err := p.download(ctx, s, videoURL, dir, "video.mp4"); err != nil {
		return "", err
	}
	if err := p.transcode(ctx, s, videoPath, audioPath); err != nil {
		return "", err
	}
	parts, err := p.segment(ctx, s, audioPath)
	if err != nil {
		return "", err
	}
	return p.transcribeParts(ctx, s, parts)
}

// download fetches the video with the external multi-connection downloader.
func (p *audioPipeline) download(ctx context.Context, s *models.Session, videoURL, dir, filename string) error {
	streams := strconv.Itoa(p.config.DownloadStreams)
	cmd := exec.CommandContext(ctx, p.config.DownloadTool,
		"-x", streams,
		"-s", streams,
		"-d", dir,
		"-o", filename,
		videoURL,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return &DownloadError{SessionKey: s.Key, Err: fmt.Errorf("%s: %w: %s", p.config.DownloadTool, err, tailOf(output))}
	}

	p.logger.Debug().Str("session", s.Key).Msg("Video download completed")
	return nil
}

// transcode extracts a mono 16 kHz audio track and drops the video file.
func (p *audioPipeline) transcode(ctx context.Context, s *models.Session, videoPath, audioPath string) error {
	cmd := exec.CommandContext(ctx, p.config.TranscodeTool,
		"-y",
		"-i", videoPath,
		"-map", "a",
		"-ac", "1",
		"-ar", "16000",
		audioPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return &TranscodeError{SessionKey: s.Key, Err: fmt.Errorf("%s: %w: %s", p.config.TranscodeTool, err, tailOf(output))}
	}

	if err := os.Remove(videoPath); err != nil {
		p.logger.Warn().Err(err).Str("session", s.Key).Msg("Failed to remove video file")
	}
	return nil
}

// segment splits the audio into fixed-length parts without re-encoding and
// drops the full-length file.
func (p *audioPipeline) segment(ctx context.Context, s *models.Session, audioPath string) ([]string, error) {
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	pattern := base + "_part_%03d.mp3"

	cmd := exec.CommandContext(ctx, p.config.TranscodeTool,
		"-y",
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(p.config.ChunkSeconds),
		"-c", "copy",
		pattern,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, &TranscodeError{SessionKey: s.Key, Err: fmt.Errorf("%s segment: %w: %s", p.config.TranscodeTool, err, tailOf(output))}
	}

	var parts []string
	for i := 0; ; i++ {
		part := fmt.Sprintf(pattern, i)
		if _, err := os.Stat(part); err != nil {
			break
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil, &TranscodeError{SessionKey: s.Key, Err: fmt.Errorf("segmentation produced no parts")}
	}

	if err := os.Remove(audioPath); err != nil {
		p.logger.Warn().Err(err).Str("session", s.Key).Msg("Failed to remove audio file")
	}

	p.logger.Debug().Str("session", s.Key).Int("parts", len(parts)).Msg("Audio segmented")
	return parts, nil
}

// transcribeParts transcribes the audio parts with bounded parallelism and
// joins the texts in part order. Any part failing fails the whole session.
func (p *audioPipeline) transcribeParts(ctx context.Context, s *models.Session, parts []string) (string, error) {
	pool, err := ants.NewPool(p.config.Concurrency)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription pool: %w", err)
	}
	defer pool.Release()

	texts := make([]string, len(parts))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, part := range parts {
		i, part := i, part
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()

			text, err := p.transcriber.Transcribe(ctx, part)
			if removeErr := os.Remove(part); removeErr != nil {
				p.logger.Warn().Err(removeErr).Str("part", part).Msg("Failed to remove audio part")
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = &TranscriptionError{SessionKey: s.Key, Part: filepath.Base(part), Err: err}
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			texts[i] = text
			mu.Unlock()
		}); err != nil {
			wg.Done()
			// In-flight parts still hold files under the session directory;
			// the caller removes it as soon as we return.
			wg.Wait()
			return "", fmt.Errorf("failed to submit transcription task: %w", err)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return "", firstErr
	}
	return strings.Join(texts, " "), nil
}

func tailOf(output []byte) string {
	const max = 512
	text := strings.TrimSpace(string(output))
	if len(text) > max {
		text = text[len(text)-max:]
	}
	return text
}
