// internal/llm/providers/openaicompat/openaicompat.go
package openaicompat

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Corphon/TubeScribe/internal/llm"
)

// endpoint 描述一个兼容 OpenAI 接口的服务
type endpoint struct {
	name         string
	display      string
	baseURL      string
	defaultModel string
	models       []string
}

var endpoints = []endpoint{
	{name: "openai", display: "openai", defaultModel: "gpt-4.1", models: []string{"gpt-4.1", "gpt-4.1-mini", "gpt-4o"}},
	{name: "deepseek", display: "deepseek", baseURL: "https://api.deepseek.com/v1", defaultModel: "deepseek-chat", models: []string{"deepseek-chat", "deepseek-reasoner"}},
	{name: "openrouter", display: "openrouter", baseURL: "https://openrouter.ai/api/v1", defaultModel: "google/gemini-2.5-flash", models: []string{"google/gemini-2.5-flash", "x-ai/grok-4.1-fast:free", "qwen/qwen3-235b-a22b:free"}},
	{name: "grok", display: "xAI grok", baseURL: "https://api.x.ai/v1", defaultModel: "grok-4.1-fast", models: []string{"grok-4.1-fast", "grok-3-mini"}},
	{name: "qwen", display: "qwen", baseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1", defaultModel: "qwen3-max", models: []string{"qwen3-max", "qwen-plus"}},
	{name: "glm", display: "zhipu glm", baseURL: "https://open.bigmodel.cn/api/paas/v4", defaultModel: "glm-4.5-air", models: []string{"glm-4.5-air", "glm-4.5"}},
	{name: "githubmodels", display: "github models", baseURL: "https://models.inference.ai.azure.com", defaultModel: "gpt-4.1-mini", models: []string{"gpt-4.1-mini", "gpt-4.1"}},
}

func init() {
	for _, ep := range endpoints {
		ep := ep
		llm.Register(ep.name, func() llm.Provider {
			return &Provider{endpoint: ep}
		})
	}
}

// Provider 基于 openai-go SDK 的聊天补全提供者
type Provider struct {
	endpoint
	client openai.Client
	model  string
	ready  bool
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey := config["api_key"]
	if apiKey == "" {
		return fmt.Errorf("%s API密钥未提供", p.name)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	baseURL := p.baseURL
	if v := config["base_url"]; v != "" {
		baseURL = v
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	p.model = p.defaultModel
	if v := config["default_model"]; v != "" {
		p.model = v
	}

	p.client = openai.NewClient(opts...)
	p.ready = true
	return nil
}

func (p *Provider) GetName() string {
	return p.display
}

func (p *Provider) GetSupportedModels() []string {
	return append([]string(nil), p.models...)
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if !p.ready {
		return nil, errors.New(p.name + " 提供者尚未初始化")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	var msgs []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: msgs,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Temperature))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s API错误: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.CompletionResponse{
		Text:         resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		PromptTokens: int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		ModelName:    resp.Model,
		ProviderName: p.GetName(),
	}, nil
}
