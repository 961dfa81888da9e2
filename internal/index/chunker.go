package index

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultChunkSize is the token budget per passage.
	DefaultChunkSize = 500

	// DefaultOverlap is the token overlap between consecutive passages.
	DefaultOverlap = 50

	// encodingName is the tokenizer the chunk budget is defined against.
	encodingName = "cl100k_base"
)

// Chunker splits long transcripts into overlapping token-bounded passages.
// Chunking is deterministic: the same text always yields the same passages.
type Chunker struct {
	encoding *tiktoken.Tiktoken
	size     int
	overlap  int
}

// NewChunker creates a chunker with the given token budget and overlap.
// Non-positive values fall back to the defaults.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}

	return &Chunker{
		encoding: encoding,
		size:     size,
		overlap:  overlap,
	}, nil
}

// Split returns the overlapping passages of a text: passage k covers tokens
// [k*(size-overlap), k*(size-overlap)+size), with the final passage allowed
// to run short.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	tokens := c.encoding.Encode(text, nil, nil)
	stride := c.size - c.overlap

	var chunks []string
	for start := 0; start < len(tokens); start += stride {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, c.encoding.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
