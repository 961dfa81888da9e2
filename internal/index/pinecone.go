package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// apiVersion pins the index API revision the payloads are written for.
	apiVersion = "2025-01"
)

// PineconeIndex talks to a Pinecone serverless index with integrated
// embedding: records are upserted as text and embedded server-side, searches
// send the query text.
type PineconeIndex struct {
	host       string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

var _ interfaces.VectorIndex = (*PineconeIndex)(nil)

// IndexOption configures the PineconeIndex.
type IndexOption func(*PineconeIndex)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) IndexOption {
	return func(p *PineconeIndex) {
		p.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) IndexOption {
	return func(p *PineconeIndex) {
		p.logger = logger
	}
}

// NewPineconeIndex creates a client for one index host.
func NewPineconeIndex(host, apiKey string, opts ...IndexOption) *PineconeIndex {
	p := &PineconeIndex{
		host:   host,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// UpsertError reports a failed index upsert; the orchestrator still persists
// the session record itself.
type UpsertError struct {
	Namespace string
	Batch     int
	Err       error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("index upsert failed in namespace %s (batch %d): %v", e.Namespace, e.Batch, e.Err)
}

func (e *UpsertError) Unwrap() error {
	return e.Err
}

// record is the integrated-embedding upsert shape: the index embeds
// chunk_text server-side.
type record struct {
	ID           string `json:"_id"`
	ChunkText    string `json:"chunk_text"`
	SessionID    int    `json:"session_id"`
	CommissionID string `json:"commission_id"`
	Timestamp    int64  `json:"timestamp"`
}

// Upsert writes one batch of chunks into a namespace. Records are NDJSON,
// keyed by the chunk's deterministic ID so re-indexing overwrites.
func (p *PineconeIndex) Upsert(ctx context.Context, namespace string, chunks []models.TranscriptChunk) error {
	var body bytes.Buffer
	encoder := json.NewEncoder(&body)
	for _, chunk := range chunks {
		if err := encoder.Encode(record{
			ID:           chunk.ID,
			ChunkText:    chunk.Text,
			SessionID:    chunk.SessionID,
			CommissionID: chunk.CommissionID,
			Timestamp:    chunk.Timestamp,
		}); err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", chunk.ID, err)
		}
	}

	url := fmt.Sprintf("%s/records/namespaces/%s/upsert", p.host, namespace)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.Header.Set("X-Pinecone-API-Version", apiVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &UpsertError{Namespace: namespace, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return &UpsertError{
			Namespace: namespace,
			Err:       fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	if p.logger != nil {
		p.logger.Debug().
			Str("namespace", namespace).
			Int("records", len(chunks)).
			Msg("Index upsert completed")
	}
	return nil
}

type searchRequest struct {
	Query struct {
		Inputs struct {
			Text string `json:"text"`
		} `json:"inputs"`
		TopK   int            `json:"top_k"`
		Filter map[string]any `json:"filter,omitempty"`
	} `json:"query"`
	Fields []string `json:"fields"`
}

type searchResponse struct {
	Result struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Fields struct {
				ChunkText    string `json:"chunk_text"`
				SessionID    int    `json:"session_id"`
				CommissionID string `json:"commission_id"`
				Timestamp    int64  `json:"timestamp"`
			} `json:"fields"`
		} `json:"hits"`
	} `json:"result"`
}

// Search retrieves the topK chunks most relevant to the query text.
func (p *PineconeIndex) Search(ctx context.Context, namespace, query string, filters map[string]any, topK int) ([]interfaces.ChunkMatch, error) {
	var request searchRequest
	request.Query.Inputs.Text = query
	request.Query.TopK = topK
	request.Query.Filter = filters
	request.Fields = []string{"chunk_text", "session_id", "commission_id", "timestamp"}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	url := fmt.Sprintf("%s/records/namespaces/%s/search", p.host, namespace)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-API-Version", apiVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("index search failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	var response searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	matches := make([]interfaces.ChunkMatch, 0, len(response.Result.Hits))
	for _, hit := range response.Result.Hits {
		matches = append(matches, interfaces.ChunkMatch{
			ID:    hit.ID,
			Score: hit.Score,
			Chunk: models.TranscriptChunk{
				ID:           hit.ID,
				SessionID:    hit.Fields.SessionID,
				CommissionID: hit.Fields.CommissionID,
				Timestamp:    hit.Fields.Timestamp,
				Text:         hit.Fields.ChunkText,
			},
		})
	}
	return matches, nil
}
