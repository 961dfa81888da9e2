package media

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/common"
	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

// DownloadResolver resolves a session through the chamber's own media portal:
// locate the broadcast, download it, and transcribe the extracted audio.
type DownloadResolver struct {
	browsers interfaces.BrowserFactory
	pipeline *audioPipeline
	loc      *time.Location
	logger   arbor.ILogger
}

var _ interfaces.MediaResolver = (*DownloadResolver)(nil)

// NewDownloadResolver creates the download-path resolver.
func NewDownloadResolver(browsers interfaces.BrowserFactory, transcriber interfaces.Transcriber, config common.MediaConfig, loc *time.Location, logger arbor.ILogger) *DownloadResolver {
	return &DownloadResolver{
		browsers: browsers,
		pipeline: &audioPipeline{
			config:      config,
			transcriber: transcriber,
			logger:      logger,
		},
		loc:    loc,
		logger: logger,
	}
}

// Resolve attaches a transcript produced from the downloaded broadcast audio.
func (r *DownloadResolver) Resolve(ctx context.Context, commission *models.Commission, session *models.Session) error {
	browserSession, err := r.browsers.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer browserSession.Close()

	var videoURL string
	switch commission.Chamber {
	case models.ChamberSenate:
		videoURL, err = r.locateSenateVideo(ctx, browserSession, commission, session)
	case models.ChamberDeputies:
		videoURL, err = r.locateDeputiesVideo(ctx, browserSession, commission, session)
	default:
		return fmt.Errorf("no media portal known for chamber %s", commission.Chamber)
	}
	if err != nil {
		return err
	}

	transcript, err := r.pipeline.produceTranscript(ctx, session, videoURL)
	if err != nil {
		return err
	}

	session.Transcript = transcript
	session.VideoURL = videoURL

	r.logger.Info().
		Str("session", session.Key).
		Int("transcript_chars", len(transcript)).
		Msg("Transcript resolved from downloaded broadcast")

	return nil
}
