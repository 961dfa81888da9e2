package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/interfaces"
)

const (
	// DefaultBaseURL is the base URL for the transcription API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the default speech-to-text model.
	DefaultModel = "whisper-1"

	// DefaultTimeout is the per-chunk request timeout.
	DefaultTimeout = 2 * time.Minute

	// DefaultMaxRetries is the number of attempts per chunk.
	DefaultMaxRetries = 3
)

// Client transcribes audio files through the Whisper API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	language   string
	maxRetries int
	httpClient *http.Client
	logger     arbor.ILogger
}

var _ interfaces.Transcriber = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithModel sets the speech-to-text model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithLanguage sets the spoken language hint.
func WithLanguage(language string) ClientOption {
	return func(c *Client) {
		c.language = language
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithMaxRetries sets the attempt budget per chunk.
func WithMaxRetries(maxRetries int) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
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

// NewClient creates a new transcription client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		model:      DefaultModel,
		language:   "es",
		maxRetries: DefaultMaxRetries,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error response from the transcription API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription api error: status %d: %s", e.StatusCode, e.Message)
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends one audio file and returns its text. Transient API
// failures are retried up to the attempt budget; local I/O failures while
// assembling the upload are fatal immediately.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	payload, contentType, err := c.buildUploadForm(audioPath)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		text, err := c.transcribeOnce(ctx, payload, contentType)
		if err == nil {
			return text, nil
		}
		lastErr = err

		// Client-side errors will not heal on retry.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			break
		}
		if ctx.Err() != nil {
			break
		}

		if c.logger != nil {
			c.logger.Warn().
				Err(err).
				Str("file", filepath.Base(audioPath)).
				Int("attempt", attempt).
				Msg("Transcription attempt failed")
		}
	}
	return "", lastErr
}

// buildUploadForm reads the audio file into a multipart body once so retries
// re-send the same payload without touching the filesystem again.
func (c *Client) buildUploadForm(audioPath string) ([]byte, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to read audio file: %w", err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if c.language != "" {
		if err := writer.WriteField("language", c.language); err != nil {
			return nil, "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	return body.Bytes(), writer.FormDataContentType(), nil
}

func (c *Client) transcribeOnce(ctx context.Context, payload []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Text, nil
}
