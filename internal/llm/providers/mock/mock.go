// internal/llm/providers/mock/mock.go
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/Corphon/TubeScribe/internal/llm"
)

func init() {
	llm.Register("mock", func() llm.Provider { return &Provider{} })
}

// Provider 本地调试用，不调用外部模型
type Provider struct {
	calls atomic.Int64
}

func (p *Provider) Initialize(map[string]string) error { return nil }

func (p *Provider) GetName() string { return "mock" }

func (p *Provider) GetSupportedModels() []string { return []string{"mock-1"} }

func (p *Provider) CompleteText(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	n := p.calls.Add(1)
	firstLine := req.Prompt
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	return &llm.CompletionResponse{
		Text:         fmt.Sprintf("[mock #%d] %s", n, strings.TrimSpace(firstLine)),
		FinishReason: "stop",
		ModelName:    "mock-1",
		ProviderName: p.GetName(),
	}, nil
}
