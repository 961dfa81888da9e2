package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/parlascope/parlascope/internal/interfaces"
)

func TestConvertMessagesToClaude(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "Eres un asistente parlamentario."},
		{Role: "user", Content: "Resume la sesión."},
		{Role: "assistant", Content: "La sesión trató el presupuesto."},
		{Role: "user", Content: "¿Qué se acordó?"},
	}

	converted, system, err := convertMessagesToClaude(messages)
	require.NoError(t, err)
	assert.Equal(t, "Eres un asistente parlamentario.", system)
	assert.Len(t, converted, 3)
}

func TestConvertMessagesToClaudeRequiresUser(t *testing.T) {
	_, _, err := convertMessagesToClaude(nil)
	assert.Error(t, err)

	_, _, err = convertMessagesToClaude([]interfaces.Message{
		{Role: "system", Content: "solo sistema"},
	})
	assert.Error(t, err)
}

func TestConvertMessagesToGemini(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "Eres un asistente parlamentario."},
		{Role: "user", Content: "Resume la sesión."},
		{Role: "assistant", Content: "La sesión trató el presupuesto."},
	}

	contents, system, err := convertMessagesToGemini(messages)
	require.NoError(t, err)
	assert.Equal(t, "Eres un asistente parlamentario.", system)
	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
}

func TestConvertMessagesFirstSystemWins(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "primero"},
		{Role: "system", Content: "segundo"},
		{Role: "user", Content: "hola"},
	}

	_, system, err := convertMessagesToClaude(messages)
	require.NoError(t, err)
	assert.Equal(t, "primero", system)
}
