package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/llm"
)

// stubProvider 可控的提供者
type stubProvider struct {
	mu      sync.Mutex
	text    string
	err     error
	wait    bool          // 阻塞到 ctx 结束
	sleep   time.Duration // 忽略 ctx 的慢响应
	lastReq llm.CompletionRequest
}

func (p *stubProvider) Initialize(map[string]string) error { return nil }
func (p *stubProvider) GetName() string                    { return "stub" }
func (p *stubProvider) GetSupportedModels() []string       { return []string{"stub-1"} }

func (p *stubProvider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.lastReq = req
	p.mu.Unlock()

	if p.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.sleep > 0 {
		time.Sleep(p.sleep)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Text: p.text, ModelName: "stub-1"}, nil
}

func TestLLMServiceGenerateText(t *testing.T) {
	ctx := context.Background()

	t.Run("passes prompt parts to the provider", func(t *testing.T) {
		provider := &stubProvider{text: "kết quả"}
		svc := NewLLMServiceWithProvider("stub", provider, time.Second)

		temp := float32(0.3)
		out, err := svc.GenerateText(ctx, "script", Prompt{System: "sys", User: "user", Temperature: &temp})
		require.NoError(t, err)
		assert.Equal(t, "kết quả", out)

		assert.Equal(t, "sys", provider.lastReq.SystemPrompt)
		assert.Equal(t, "user", provider.lastReq.Prompt)
		require.NotNil(t, provider.lastReq.Temperature)
		assert.InDelta(t, 0.3, *provider.lastReq.Temperature, 1e-6)
	})

	t.Run("deadline is a timeout error", func(t *testing.T) {
		svc := NewLLMServiceWithProvider("stub", &stubProvider{wait: true}, 20*time.Millisecond)

		_, err := svc.GenerateText(ctx, "title", Prompt{User: "u"})
		assert.True(t, apperrors.IsTimeoutError(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("provider error after the deadline is still a timeout", func(t *testing.T) {
		provider := &stubProvider{sleep: 60 * time.Millisecond, err: errors.New("connection reset")}
		svc := NewLLMServiceWithProvider("stub", provider, 10*time.Millisecond)

		_, err := svc.GenerateText(ctx, "title", Prompt{User: "u"})
		assert.True(t, apperrors.IsTimeoutError(err))
	})

	t.Run("provider error is an oracle failure", func(t *testing.T) {
		svc := NewLLMServiceWithProvider("stub", &stubProvider{err: errors.New("401 unauthorized")}, time.Second)

		_, err := svc.GenerateText(ctx, "tags", Prompt{User: "u"})
		assert.True(t, apperrors.IsOracleError(err))
	})

	t.Run("blank response is an oracle failure", func(t *testing.T) {
		svc := NewLLMServiceWithProvider("stub", &stubProvider{text: "  \n "}, time.Second)

		_, err := svc.GenerateText(ctx, "description", Prompt{User: "u"})
		assert.True(t, apperrors.IsOracleError(err))
		assert.ErrorIs(t, err, llm.ErrEmptyResponse)
	})

	t.Run("service without provider", func(t *testing.T) {
		svc := NewEmptyLLMService()
		assert.False(t, svc.IsReady())

		_, err := svc.GenerateText(ctx, "script", Prompt{User: "u"})
		assert.True(t, apperrors.IsOracleError(err))
		assert.ErrorIs(t, err, ErrLLMNotReady)
	})
}

func TestLLMServiceUpdateProvider(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		svc := NewEmptyLLMService()
		err := svc.UpdateProvider("google", map[string]string{})
		assert.True(t, apperrors.IsConfigurationError(err))
		assert.False(t, svc.IsReady())
		assert.Equal(t, "API key not configured", svc.GetReadyState())
	})

	t.Run("unknown provider keeps the previous one", func(t *testing.T) {
		svc := NewLLMServiceWithProvider("stub", &stubProvider{text: "x"}, time.Second)
		err := svc.UpdateProvider("nope", map[string]string{"api_key": "k"})
		assert.True(t, apperrors.IsConfigurationError(err))
		assert.ErrorIs(t, err, llm.ErrUnknownProvider)
		assert.Equal(t, "stub", svc.GetProviderName())
	})

	t.Run("mock provider needs no key", func(t *testing.T) {
		svc := NewEmptyLLMService()
		require.NoError(t, svc.UpdateProvider("mock", nil))
		assert.True(t, svc.IsReady())
		assert.Equal(t, []string{"mock-1"}, svc.GetSupportedModels())

		out, err := svc.GenerateText(context.Background(), "script", Prompt{User: "Xin chào\nphần còn lại"})
		require.NoError(t, err)
		assert.Equal(t, "[mock #1] Xin chào", out)
	})
}
