package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/teller/pkg/adapters/openai"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEndpoint serves /chat/completions with a fixed body and records the request.
func fakeEndpoint(t *testing.T, status int, body string, seen *map[string]any) *openai.Completer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(raw, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
}

const textBody = `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello John!"},"finish_reason":"stop"}]}`

const toolBody = `{"id":"2","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"",
"tool_calls":[{"id":"call_1","type":"function","function":{"name":"block_card","arguments":"{\"card_id\":\"card_001\"}"}}]},"finish_reason":"tool_calls"}]}`

func TestComplete_Text(t *testing.T) {
	var seen map[string]any
	c := fakeEndpoint(t, http.StatusOK, textBody, &seen)

	out, err := c.Complete(context.Background(), domain.CompletionRequest{
		Prompt:       "hi",
		SystemPrompt: "You are a bank assistant",
	})
	require.NoError(t, err)
	assert.False(t, out.HasToolCall())
	assert.Equal(t, "Hello John!", out.Text)

	assert.Equal(t, openai.DefaultModel, seen["model"])
	assert.InDelta(t, 0.3, seen["temperature"], 0.0001)
	assert.EqualValues(t, 1024, seen["max_tokens"])
	msgs := seen["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.NotContains(t, seen, "tools", "no catalog means no tools field")
}

func TestComplete_ToolCall(t *testing.T) {
	var seen map[string]any
	c := fakeEndpoint(t, http.StatusOK, toolBody, &seen)

	out, err := c.Complete(context.Background(), domain.CompletionRequest{
		Prompt: "block my visa",
		Tools: []domain.Tool{{
			Name:        "block_card",
			Description: "Block a specific card",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{"card_id": map[string]any{"type": "string"}}},
		}},
	})
	require.NoError(t, err)
	require.True(t, out.HasToolCall())
	assert.Equal(t, "block_card", out.ToolCall.Name)
	assert.Equal(t, "call_1", out.ToolCall.ID)
	assert.Equal(t, map[string]any{"card_id": "card_001"}, out.ToolCall.Args)

	assert.Equal(t, "auto", seen["tool_choice"])
	assert.Len(t, seen["tools"], 1)
}

func TestComplete_Failures(t *testing.T) {
	t.Run("Service Error", func(t *testing.T) {
		c := fakeEndpoint(t, http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, nil)
		_, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "hi"})
		assert.ErrorContains(t, err, "completion request failed")
	})

	t.Run("No Choices", func(t *testing.T) {
		c := fakeEndpoint(t, http.StatusOK, `{"id":"3","choices":[]}`, nil)
		_, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "hi"})
		assert.ErrorIs(t, err, domain.ErrEmptyCompletion)
	})

	t.Run("Bad Arguments", func(t *testing.T) {
		body := `{"id":"4","choices":[{"index":0,"message":{"role":"assistant","tool_calls":[{"id":"c","type":"function","function":{"name":"x","arguments":"{not json"}}]}}]}`
		c := fakeEndpoint(t, http.StatusOK, body, nil)
		_, err := c.Complete(context.Background(), domain.CompletionRequest{Prompt: "hi"})
		assert.ErrorContains(t, err, "failed to decode arguments of tool x")
	})
}
