package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/models"
	"github.com/parlascope/parlascope/internal/youtube"
)

// videoPlatform is the slice of the video platform client the caption path
// uses.
type videoPlatform interface {
	Search(ctx context.Context, query youtube.SearchQuery) ([]youtube.SearchResult, error)
	Captions(ctx context.Context, videoID string) ([]youtube.CaptionSegment, error)
}

// CaptionResolver resolves a session to its transcript through the chamber's
// video channel: a channel search bounded to the session's publish day, title
// disambiguation, then the hosted caption track.
type CaptionResolver struct {
	platform videoPlatform
	channels map[string]string
	loc      *time.Location
	logger   arbor.ILogger
}

// NewCaptionResolver creates the caption fast-path resolver. channels maps
// chamber tags to channel IDs.
func NewCaptionResolver(platform videoPlatform, channels map[string]string, loc *time.Location, logger arbor.ILogger) *CaptionResolver {
	return &CaptionResolver{
		platform: platform,
		channels: channels,
		loc:      loc,
		logger:   logger,
	}
}

// Resolve attaches a caption-derived transcript and the video URL to the
// session.
func (r *CaptionResolver) Resolve(ctx context.Context, commission *models.Commission, session *models.Session) error {
	channelID, ok := r.channels[string(commission.Chamber)]
	if !ok {
		return fmt.Errorf("no video channel configured for chamber %s", commission.Chamber)
	}

	query := youtube.SearchQuery{
		ChannelID:       channelID,
		Query:           SessionTypeToken + " " + strings.Join(commission.SearchKeywords, " "),
		PublishedAfter:  session.Start,
		PublishedBefore: session.Start.Add(24 * time.Hour),
	}

	results, err := r.platform.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("video search failed for session %s: %w", session.Key, err)
	}
	if len(results) == 0 {
		return &NotFoundError{SessionKey: session.Key, Reason: "channel search returned no videos"}
	}

	var match *youtube.SearchResult
	for i := range results {
		if TitleMatches(commission.Chamber, results[i].Title, session, r.loc) {
			match = &results[i]
			break
		}
	}
	if match == nil {
		return &NotFoundError{SessionKey: session.Key, Reason: "no candidate title matched the session"}
	}

	segments, err := r.platform.Captions(ctx, match.VideoID)
	if err != nil {
		return fmt.Errorf("caption fetch failed for session %s: %w", session.Key, err)
	}
	if len(segments) == 0 {
		return &NotFoundError{SessionKey: session.Key, Reason: "matched video carries no caption track"}
	}

	session.Transcript = youtube.JoinCaptions(segments)
	session.VideoURL = "https://www.youtube.com/watch?v=" + match.VideoID

	r.logger.Info().
		Str("session", session.Key).
		Str("video_id", match.VideoID).
		Int("caption_segments", len(segments)).
		Msg("Transcript resolved from captions")

	return nil
}
