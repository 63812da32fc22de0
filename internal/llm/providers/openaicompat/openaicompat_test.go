package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/TubeScribe/internal/llm"
)

type chatRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCompleteText(t *testing.T) {
	var seen chatRequest
	server := newChatServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-test",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Xin chào"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 5, "completion_tokens": 2, "total_tokens": 7}
	}`, &seen)

	provider, err := llm.GetProvider("deepseek", map[string]string{
		"api_key":       "test-key",
		"base_url":      server.URL + "/v1/",
		"default_model": "gpt-test",
	})
	require.NoError(t, err)

	temp := float32(0.2)
	resp, err := provider.CompleteText(context.Background(), llm.CompletionRequest{
		Prompt:       "Dịch đoạn này",
		SystemPrompt: "sys",
		Temperature:  &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "Xin chào", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 5, resp.PromptTokens)
	assert.Equal(t, 2, resp.OutputTokens)

	assert.Equal(t, "gpt-test", seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "user", seen.Messages[1].Role)
	assert.Equal(t, "Dịch đoạn này", seen.Messages[1].Content)
	require.NotNil(t, seen.Temperature)
	assert.InDelta(t, 0.2, *seen.Temperature, 1e-6)
}

func TestCompleteTextWithoutSystemPrompt(t *testing.T) {
	var seen chatRequest
	server := newChatServer(t, http.StatusOK, `{
		"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "m",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]
	}`, &seen)

	provider, err := llm.GetProvider("openai", map[string]string{"api_key": "test-key", "base_url": server.URL + "/v1/"})
	require.NoError(t, err)

	_, err = provider.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	require.Len(t, seen.Messages, 1)
	assert.Nil(t, seen.Temperature)
	assert.Equal(t, "gpt-4.1", seen.Model)
}

func TestCompleteTextErrors(t *testing.T) {
	t.Run("empty choices", func(t *testing.T) {
		server := newChatServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`, nil)
		provider, err := llm.GetProvider("openai", map[string]string{"api_key": "test-key", "base_url": server.URL + "/v1/"})
		require.NoError(t, err)

		_, err = provider.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "p"})
		assert.ErrorIs(t, err, llm.ErrEmptyResponse)
	})

	t.Run("api error", func(t *testing.T) {
		server := newChatServer(t, http.StatusBadRequest, `{"error":{"message":"bad request","type":"invalid_request_error"}}`, nil)
		provider, err := llm.GetProvider("openai", map[string]string{"api_key": "test-key", "base_url": server.URL + "/v1/"})
		require.NoError(t, err)

		_, err = provider.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "p"})
		assert.Error(t, err)
	})

	t.Run("missing api key", func(t *testing.T) {
		_, err := llm.GetProvider("openai", map[string]string{})
		assert.Error(t, err)
	})

	t.Run("not initialized", func(t *testing.T) {
		p := &Provider{endpoint: endpoints[0]}
		_, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "p"})
		assert.Error(t, err)
	})
}

func TestEndpointsAreRegistered(t *testing.T) {
	registered := llm.ListProviders()
	for _, ep := range endpoints {
		assert.Contains(t, registered, ep.name)
		assert.NotEmpty(t, llm.GetSupportedModelsForProvider(ep.name), ep.name)
	}
}
