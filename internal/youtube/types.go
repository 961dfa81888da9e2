package youtube

import (
	"fmt"
	"time"
)

// SearchQuery bounds a channel search to a publish window.
type SearchQuery struct {
	ChannelID       string
	Query           string
	PublishedAfter  time.Time
	PublishedBefore time.Time
	MaxResults      int
}

// SearchResult is one video hit, in platform order.
type SearchResult struct {
	VideoID     string
	Title       string
	PublishedAt time.Time
}

// CaptionSegment is one cue of a video's caption track.
type CaptionSegment struct {
	Start float64
	Dur   float64
	Text  string
}

// APIError represents an error response from the video platform.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube api error on %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// searchResponse mirrors the Data API v3 search.list payload.
type searchResponse struct {
	PageInfo struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}
