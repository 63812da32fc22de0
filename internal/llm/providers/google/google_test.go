package google

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

func TestCompleteText(t *testing.T) {
	var seenPath string
	var seenBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&seenBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "Bí mật "}, {"text": "của cà phê"}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 4}
		}`))
	}))
	defer server.Close()

	provider, err := llm.GetProvider("google", map[string]string{
		"api_key":  "test-key",
		"base_url": server.URL,
	})
	require.NoError(t, err)

	resp, err := provider.CompleteText(context.Background(), llm.CompletionRequest{
		Prompt:       "Viết tiêu đề",
		SystemPrompt: "sys",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bí mật của cà phê", resp.Text)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, defaultModel, resp.ModelName)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 4, resp.OutputTokens)

	assert.True(t, strings.HasSuffix(seenPath, "/models/"+defaultModel+":generateContent"), seenPath)
	assert.Contains(t, seenBody, "systemInstruction")
}

func TestInitializeRequiresKey(t *testing.T) {
	_, err := llm.GetProvider("google", map[string]string{})
	assert.Error(t, err)

	p := &Provider{}
	_, err = p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "p"})
	assert.Error(t, err)
}

func TestSupportedModels(t *testing.T) {
	models := llm.GetSupportedModelsForProvider("google")
	require.NotEmpty(t, models)
	assert.Equal(t, defaultModel, models[0])
}
