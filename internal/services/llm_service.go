// internal/services/llm_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/TubeScribe/internal/config"
	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/llm"
	"github.com/Corphon/TubeScribe/internal/utils"
)

var ErrLLMNotReady = errors.New("llm service not ready")

// Oracle 文本生成服务，对调用方是一个不透明的函数
type Oracle interface {
	GenerateText(ctx context.Context, purpose string, prompt Prompt) (string, error)
}

// LLMService 包装当前配置的提供者，统一超时、错误分类、日志与指标
type LLMService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	providerName  string
	model         string
	readyState    string
	timeout       time.Duration

	logger  *utils.Logger
	metrics *utils.MetricsCollector
}

// NewLLMService 根据当前配置创建服务；提供者初始化失败时返回未就绪服务而不是错误
func NewLLMService() *LLMService {
	cfg := config.GetCurrentConfig()
	service := createBaseLLMService(cfg.OracleTimeout)

	if cfg.LLMProvider == "" {
		service.readyState = "LLM provider not configured"
		return service
	}
	if err := service.UpdateProvider(cfg.LLMProvider, cfg.LLMConfig); err != nil {
		service.readyState = fmt.Sprintf("Initialization failed: %v", err)
	}
	return service
}

// NewLLMServiceWithProvider 直接使用给定提供者（测试与嵌入场景）
func NewLLMServiceWithProvider(name string, provider llm.Provider, timeout time.Duration) *LLMService {
	service := createBaseLLMService(timeout)
	service.provider = provider
	service.providerName = name
	service.readyState = "Ready"
	return service
}

// NewEmptyLLMService 创建一个空的LLM服务实例作为后备方案
func NewEmptyLLMService() *LLMService {
	service := createBaseLLMService(0)
	service.providerName = "empty"
	service.readyState = "Standby Service Mode – Please configure the API key in settings"
	return service
}

func createBaseLLMService(timeout time.Duration) *LLMService {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &LLMService{
		readyState: "Uninitialized",
		timeout:    timeout,
		logger:     utils.GetLogger(),
		metrics:    utils.GetMetricsCollector(),
	}
}

// UpdateProvider 切换提供者，失败时保留原提供者
func (s *LLMService) UpdateProvider(name string, providerConfig map[string]string) error {
	if providerConfig == nil {
		providerConfig = map[string]string{}
	}
	if name != "mock" && providerConfig["api_key"] == "" {
		s.providerMutex.Lock()
		s.readyState = "API key not configured"
		s.providerMutex.Unlock()
		return apperrors.NewConfigurationError("API key not configured", nil)
	}

	provider, err := llm.GetProvider(name, providerConfig)
	if err != nil {
		return apperrors.NewConfigurationError(fmt.Sprintf("初始化提供者 %s 失败", name), err)
	}

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()
	s.provider = provider
	s.providerName = name
	s.model = providerConfig["default_model"]
	s.readyState = "Ready"

	s.logger.Info("LLM提供者已更新", map[string]interface{}{
		"provider": name,
		"model":    s.model,
	})
	return nil
}

// IsReady 返回服务是否已就绪
func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil
}

// GetReadyState 返回服务就绪状态描述
func (s *LLMService) GetReadyState() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.readyState
}

// GetProviderName 返回当前提供者名称
func (s *LLMService) GetProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// GetSupportedModels 返回当前提供者支持的模型
func (s *LLMService) GetSupportedModels() []string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	if s.provider == nil {
		return []string{}
	}
	return s.provider.GetSupportedModels()
}

// Timeout 返回单次调用超时
func (s *LLMService) Timeout() time.Duration {
	return s.timeout
}

// GenerateText 调用模型一次并返回完整文本。
// 超时返回 TimeoutError，其他失败（包括空响应）返回 OracleFailure；不做重试
func (s *LLMService) GenerateText(ctx context.Context, purpose string, prompt Prompt) (string, error) {
	s.providerMutex.RLock()
	provider := s.provider
	model := s.model
	providerName := s.providerName
	s.providerMutex.RUnlock()

	if provider == nil {
		return "", apperrors.NewOracleError("Dịch vụ AI chưa sẵn sàng.", ErrLLMNotReady)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := provider.CompleteText(callCtx, llm.CompletionRequest{
		Prompt:       prompt.User,
		SystemPrompt: prompt.System,
		Temperature:  prompt.Temperature,
		Model:        model,
	})
	elapsed := time.Since(start)

	if err == nil && (resp == nil || strings.TrimSpace(resp.Text) == "") {
		err = llm.ErrEmptyResponse
	}

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		classified := apperrors.FromOracle(err, "Lỗi khi gọi mô hình AI.")
		outcome := "failure"
		if apperrors.IsTimeoutError(classified) {
			outcome = "timeout"
		}
		s.metrics.RecordOracleCall(purpose, outcome, elapsed)
		s.logger.Error("模型调用失败", map[string]interface{}{
			"purpose":  purpose,
			"provider": providerName,
			"outcome":  outcome,
			"elapsed":  elapsed.String(),
			"error":    err.Error(),
		})
		return "", classified
	}

	s.metrics.RecordOracleCall(purpose, "success", elapsed)
	s.logger.Debug("模型调用完成", map[string]interface{}{
		"purpose":       purpose,
		"provider":      providerName,
		"model":         resp.ModelName,
		"elapsed":       elapsed.String(),
		"prompt_tokens": resp.PromptTokens,
		"output_tokens": resp.OutputTokens,
	})
	return resp.Text, nil
}
