package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the YouTube Data API.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// DefaultCaptionBaseURL is the base URL of the timed-text caption endpoint.
	DefaultCaptionBaseURL = "https://video.google.com/timedtext"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5

	// DefaultMaxResults is the default page size for channel searches.
	DefaultMaxResults = 10
)

// Client is a YouTube Data API client covering the two calls the media
// resolver needs: bounded channel search and caption-track fetch.
type Client struct {
	baseURL        string
	captionBaseURL string
	apiKey         string
	language       string
	httpClient     *http.Client
	logger         arbor.ILogger
	limiter        *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom Data API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithCaptionBaseURL sets a custom caption endpoint.
func WithCaptionBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.captionBaseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithLanguage sets the caption language (default "es").
func WithLanguage(language string) ClientOption {
	return func(c *Client) {
		c.language = language
	}
}

// NewClient creates a new YouTube Data API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		captionBaseURL: DefaultCaptionBaseURL,
		apiKey:         apiKey,
		language:       "es",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Search runs a search.list call against one channel, bounded to the query's
// publish window. Results come back in platform order.
func (c *Client) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("channelId", query.ChannelID)
	params.Set("q", query.Query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	if !query.PublishedAfter.IsZero() {
		params.Set("publishedAfter", query.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if !query.PublishedBefore.IsZero() {
		params.Set("publishedBefore", query.PublishedBefore.UTC().Format(time.RFC3339))
	}

	var response searchResponse
	if err := c.get(ctx, "/search", params, &response); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(response.Items))
	for _, item := range response.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, SearchResult{
			VideoID:     item.ID.VideoID,
			Title:       item.Snippet.Title,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}

	return results, nil
}

// timedTextResponse mirrors the timed-text XML payload.
type timedTextResponse struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

// Captions fetches the caption track of a video in the configured language.
// An empty track means the video carries no captions.
func (c *Client) Captions(ctx context.Context, videoID string) ([]CaptionSegment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", c.language)

	reqURL := fmt.Sprintf("%s?%s", c.captionBaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().Str("video_id", videoID).Msg("Fetching caption track")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "timedtext",
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption track: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}

	var track timedTextResponse
	if err := xml.Unmarshal(body, &track); err != nil {
		return nil, fmt.Errorf("failed to parse caption track: %w", err)
	}

	segments := make([]CaptionSegment, 0, len(track.Texts))
	for _, text := range track.Texts {
		segments = append(segments, CaptionSegment{
			Start: text.Start,
			Dur:   text.Dur,
			Text:  strings.TrimSpace(html.UnescapeString(text.Body)),
		})
	}

	return segments, nil
}

// JoinCaptions concatenates caption segments in order with single spaces,
// skipping empty cues.
func JoinCaptions(segments []CaptionSegment) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment.Text == "" {
			continue
		}
		parts = append(parts, segment.Text)
	}
	return strings.Join(parts, " ")
}

// get performs a GET request to the Data API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("YouTube API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
