package media

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/models"
	"github.com/parlascope/parlascope/internal/youtube"
)

type fakePlatform struct {
	results    []youtube.SearchResult
	captions   map[string][]youtube.CaptionSegment
	lastQuery  youtube.SearchQuery
	searchErr  error
	captionErr error
}

func (f *fakePlatform) Search(_ context.Context, query youtube.SearchQuery) ([]youtube.SearchResult, error) {
	f.lastQuery = query
	return f.results, f.searchErr
}

func (f *fakePlatform) Captions(_ context.Context, videoID string) ([]youtube.CaptionSegment, error) {
	if f.captionErr != nil {
		return nil, f.captionErr
	}
	return f.captions[videoID], nil
}

func captionTestCommission() *models.Commission {
	c := &models.Commission{
		SiteID:         178,
		Name:           "Comisión de Hacienda",
		Chamber:        models.ChamberSenate,
		SearchKeywords: []string{"hacienda"},
	}
	c.EnsureID()
	return c
}

func captionTestSession(t *testing.T, loc *time.Location) *models.Session {
	t.Helper()
	s := &models.Session{
		ID:           6921,
		CommissionID: "senate-178",
		Start:        time.Date(2024, 6, 4, 10, 0, 0, 0, loc).UTC(),
		Finish:       time.Date(2024, 6, 4, 12, 0, 0, 0, loc).UTC(),
	}
	s.EnsureKey()
	return s
}

func newCaptionResolver(platform *fakePlatform, loc *time.Location) *CaptionResolver {
	channels := map[string]string{"senate": "UC-senate", "deputies": "UC-deputies"}
	return NewCaptionResolver(platform, channels, loc, arbor.NewLogger())
}

func TestCaptionResolve(t *testing.T) {
	loc := santiago(t)

	t.Run("attaches transcript from first matching title", func(t *testing.T) {
		platform := &fakePlatform{
			results: []youtube.SearchResult{
				{VideoID: "wrong", Title: "Sesión de Sala - 4 de junio 2024"},
				{VideoID: "right", Title: "Comisión de Hacienda - 4 de junio 2024"},
			},
			captions: map[string][]youtube.CaptionSegment{
				"right": {
					{Start: 0, Dur: 4, Text: "Buenos días"},
					{Start: 4, Dur: 3, Text: "se abre la sesión"},
				},
			},
		}
		resolver := newCaptionResolver(platform, loc)

		commission := captionTestCommission()
		session := captionTestSession(t, loc)

		require.NoError(t, resolver.Resolve(context.Background(), commission, session))
		assert.Equal(t, "Buenos días se abre la sesión", session.Transcript)
		assert.Equal(t, "https://www.youtube.com/watch?v=right", session.VideoURL)

		assert.Equal(t, "UC-senate", platform.lastQuery.ChannelID)
		assert.Equal(t, "Comision hacienda", platform.lastQuery.Query)
		assert.Equal(t, session.Start, platform.lastQuery.PublishedAfter)
		assert.Equal(t, session.Start.Add(24*time.Hour), platform.lastQuery.PublishedBefore)
	})

	t.Run("zero search results is MediaNotFound", func(t *testing.T) {
		resolver := newCaptionResolver(&fakePlatform{}, loc)
		session := captionTestSession(t, loc)

		err := resolver.Resolve(context.Background(), captionTestCommission(), session)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, session.Key, notFound.SessionKey)
		assert.Empty(t, session.Transcript)
	})

	t.Run("no matching title is MediaNotFound", func(t *testing.T) {
		platform := &fakePlatform{
			results: []youtube.SearchResult{
				{VideoID: "v1", Title: "Otra cosa"},
			},
		}
		resolver := newCaptionResolver(platform, loc)

		err := resolver.Resolve(context.Background(), captionTestCommission(), captionTestSession(t, loc))
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("matched video without captions is MediaNotFound", func(t *testing.T) {
		platform := &fakePlatform{
			results: []youtube.SearchResult{
				{VideoID: "v1", Title: "Comisión de Hacienda - 4 de junio 2024"},
			},
		}
		resolver := newCaptionResolver(platform, loc)

		err := resolver.Resolve(context.Background(), captionTestCommission(), captionTestSession(t, loc))
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}
