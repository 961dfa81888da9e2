package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

const qaSystemPrompt = "Eres un chatbot experto en temas parlamentarios que responde preguntas sobre las actividades legislativas del Congreso de Chile."

// DefaultTopK is how many transcript passages are retrieved per question.
const DefaultTopK = 10

// Answer is a cited response to a user question. Citations maps the bracket
// markers used in the text ("[1]", "[2]", ...) to the session keys the cited
// passages came from.
type Answer struct {
	Text      string
	Citations map[string]string
}

// Service answers questions about parliamentary activity with
// retrieval-augmented generation over the transcript index.
type Service struct {
	index     interfaces.VectorIndex
	llm       interfaces.LLMService
	namespace string
	topK      int
	logger    arbor.ILogger
}

// NewService creates a question-answering service over the given index
// namespace.
func NewService(index interfaces.VectorIndex, llm interfaces.LLMService, namespace string, logger arbor.ILogger) *Service {
	return &Service{
		index:     index,
		llm:       llm,
		namespace: namespace,
		topK:      DefaultTopK,
		logger:    logger,
	}
}

// Ask retrieves the passages most relevant to the question, asks the model
// to answer from them alone, and returns the answer with its citation map.
// Filters are passed through to the index query (e.g. commission_id).
func (s *Service) Ask(ctx context.Context, question string, filters map[string]any) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	matches, err := s.index.Search(ctx, s.namespace, question, filters, s.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve passages: %w", err)
	}

	sessions, passages := groupBySession(matches)

	s.logger.Debug().
		Int("matches", len(matches)).
		Int("sessions", len(sessions)).
		Msg("Retrieved passages for question")

	text, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: qaSystemPrompt},
		{Role: "user", Content: buildPrompt(question, sessions, passages)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	citations := make(map[string]string, len(sessions))
	for i, key := range sessions {
		citations[fmt.Sprintf("[%d]", i+1)] = key
	}

	return &Answer{Text: text, Citations: citations}, nil
}

// groupBySession collects the retrieved passages per session, preserving
// retrieval order of first appearance. Each session becomes one numbered
// source fragment in the prompt.
func groupBySession(matches []interfaces.ChunkMatch) ([]string, map[string][]string) {
	var order []string
	passages := make(map[string][]string)

	for _, match := range matches {
		key := models.SessionKey(match.Chunk.CommissionID, match.Chunk.SessionID)
		if _, seen := passages[key]; !seen {
			order = append(order, key)
		}
		passages[key] = append(passages[key], match.Chunk.Text)
	}

	return order, passages
}

func buildPrompt(question string, sessions []string, passages map[string][]string) string {
	fragments := make([]string, 0, len(sessions))
	for i, key := range sessions {
		fragments = append(fragments, fmt.Sprintf("[%d] %s", i+1, strings.Join(passages[key], " ")))
	}

	return fmt.Sprintf(`A continuación se te proporcionan fragmentos de transcripciones del Congreso de Chile. Utiliza únicamente esta información para responder a la pregunta del usuario.

Utiliza la numeración de los fragmentos para citar el contenido, usando el mismo formato de numeración con corchetes ([1], [2], [3], etc).

Si la información proporcionada no es suficiente para dar una respuesta precisa, responde con "No tengo suficiente información para responder con certeza".

### Fragmentos del Congreso:
%s

### Pregunta del usuario:
%s

### Respuesta:
`, strings.Join(fragments, "\n"), question)
}
