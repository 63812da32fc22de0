// internal/services/config_service.go
package services

import (
	"sync"
	"time"

	"github.com/Corphon/TubeScribe/internal/config"
	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/llm"
	"github.com/Corphon/TubeScribe/internal/utils"
)

// maxChangeHistory 变更记录上限
const maxChangeHistory = 100

// ConfigService 管理运行时可修改的 LLM 设置
type ConfigService struct {
	llmService *LLMService

	// 配置变更历史，不含密钥
	changeHistory []ConfigChangeRecord
	mu            sync.RWMutex

	logger *utils.Logger
}

// ConfigChangeRecord 配置变更记录
type ConfigChangeRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	OldProvider string    `json:"old_provider"`
	NewProvider string    `json:"new_provider"`
	Model       string    `json:"model"`
}

// LLMStatus 当前模型服务状态
type LLMStatus struct {
	Ready     bool     `json:"ready"`
	State     string   `json:"state"`
	Provider  string   `json:"provider"`
	Model     string   `json:"model"`
	Timeout   string   `json:"timeout"`
	Available []string `json:"available_providers"`
	HasAPIKey bool     `json:"has_api_key"`
}

// NewConfigService 创建配置服务实例
func NewConfigService(llmService *LLMService) *ConfigService {
	return &ConfigService{
		llmService:    llmService,
		changeHistory: make([]ConfigChangeRecord, 0, maxChangeHistory),
		logger:        utils.GetLogger(),
	}
}

// Status 返回当前 LLM 状态
func (s *ConfigService) Status() LLMStatus {
	cfg := config.GetCurrentConfig()
	return LLMStatus{
		Ready:     s.llmService.IsReady(),
		State:     s.llmService.GetReadyState(),
		Provider:  s.llmService.GetProviderName(),
		Model:     cfg.LLMConfig["default_model"],
		Timeout:   s.llmService.Timeout().String(),
		Available: llm.ListProviders(),
		HasAPIKey: cfg.LLMConfig["api_key"] != "",
	}
}

// Models 返回指定提供者支持的模型；provider 为空时使用当前提供者
func (s *ConfigService) Models(provider string) ([]string, error) {
	if provider == "" {
		return s.llmService.GetSupportedModels(), nil
	}
	if !isRegisteredProvider(provider) {
		return nil, apperrors.NewConfigurationError("不支持的提供者: "+provider, llm.ErrUnknownProvider)
	}
	return llm.GetSupportedModelsForProvider(provider), nil
}

// UpdateLLMConfig 切换提供者并保存设置。
// api_key 为空时沿用当前密钥；初始化失败时保留原提供者，也不写入文件
func (s *ConfigService) UpdateLLMConfig(provider string, configMap map[string]string) error {
	if provider == "" {
		return apperrors.NewValidationError("provider cannot be empty", nil)
	}
	if !isRegisteredProvider(provider) {
		return apperrors.NewConfigurationError("不支持的提供者: "+provider, llm.ErrUnknownProvider)
	}

	oldConfig := config.GetCurrentConfig()
	merged := make(map[string]string, len(configMap)+2)
	for k, v := range configMap {
		merged[k] = v
	}
	if merged["api_key"] == "" {
		merged["api_key"] = oldConfig.LLMConfig["api_key"]
	}

	// 确保有默认模型
	if merged["default_model"] == "" {
		if models := llm.GetSupportedModelsForProvider(provider); len(models) > 0 {
			merged["default_model"] = models[0]
		}
	}

	if err := s.llmService.UpdateProvider(provider, merged); err != nil {
		return err
	}
	if err := config.UpdateLLMConfig(provider, merged); err != nil {
		return apperrors.NewProcessingError("保存配置失败", err)
	}

	s.recordChange(oldConfig.LLMProvider, provider, merged["default_model"])
	return nil
}

// GetChangeHistory 获取最近的配置变更
func (s *ConfigService) GetChangeHistory(limit int) []ConfigChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.changeHistory) {
		limit = len(s.changeHistory)
	}

	history := make([]ConfigChangeRecord, limit)
	copy(history, s.changeHistory[len(s.changeHistory)-limit:])
	return history
}

func (s *ConfigService) recordChange(oldProvider, newProvider, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.changeHistory) >= maxChangeHistory {
		s.changeHistory = s.changeHistory[1:]
	}
	s.changeHistory = append(s.changeHistory, ConfigChangeRecord{
		Timestamp:   time.Now(),
		OldProvider: oldProvider,
		NewProvider: newProvider,
		Model:       model,
	})

	s.logger.Info("LLM配置已更新", map[string]interface{}{
		"old_provider": oldProvider,
		"new_provider": newProvider,
		"model":        model,
	})
}

func isRegisteredProvider(name string) bool {
	for _, p := range llm.ListProviders() {
		if p == name {
			return true
		}
	}
	return false
}
