package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"aimigo/pkg/schema"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenkitGenerator_Generate(t *testing.T) {
	var captured ChatRequest
	server := chatServer(t, "ngl that sounds rough", &captured)

	client, err := NewClient(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	require.NoError(t, err)

	gen, err := NewGenkitGenerator(context.Background(), client)
	require.NoError(t, err)

	reply, err := gen.Generate(context.Background(), "SYSTEM", []schema.Turn{
		{Role: schema.RoleAssistant, Text: "hey"},
		{Role: schema.RoleUser, Text: "long week"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ngl that sounds rough", reply)

	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "SYSTEM", captured.Messages[0].Content)
	assert.Equal(t, "assistant", captured.Messages[1].Role)
	assert.Equal(t, "user", captured.Messages[2].Role)
	assert.Equal(t, "long week", captured.Messages[2].Content)
}

func TestGenkitGenerator_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := NewClient(&Config{APIKey: "test-key", BaseURL: server.URL})
	gen, err := NewGenkitGenerator(context.Background(), client)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "s", []schema.Turn{{Role: schema.RoleUser, Text: "hi"}})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeRemote, ErrorType(err))
}

func TestGenkitMessageConversion(t *testing.T) {
	msgs := toGenkitMessages("SYS", []schema.Turn{
		{Role: schema.RoleUser, Text: "hi"},
		{Role: schema.RoleAssistant, Text: "yo"},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, ai.RoleUser, msgs[1].Role)
	assert.Equal(t, ai.RoleModel, msgs[2].Role)

	back := toChatMessages(msgs)
	assert.Equal(t, []ChatMessage{
		{Role: "system", Content: "SYS"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "yo"},
	}, back)
}
