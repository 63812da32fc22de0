// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Corphon/TubeScribe/internal/utils"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
	configSecret  string
)

// Config 存储从环境变量读取的基础配置
type Config struct {
	Port          string        `envconfig:"PORT" default:"8080"`
	DataDir       string        `envconfig:"DATA_DIR" default:"data"`
	LogDir        string        `envconfig:"LOG_DIR" default:"logs"`
	DebugMode     bool          `envconfig:"DEBUG_MODE" default:"true"`
	LLMProvider   string        `envconfig:"LLM_PROVIDER" default:"google"`
	LLMAPIKey     string        `envconfig:"LLM_API_KEY"`
	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	LegacyAPIKey  string        `envconfig:"API_KEY"`
	LLMModel      string        `envconfig:"LLM_MODEL"`
	LLMBaseURL    string        `envconfig:"LLM_BASE_URL"`
	OracleTimeout time.Duration `envconfig:"ORACLE_TIMEOUT" default:"90s"`
	MaxSessions   int           `envconfig:"MAX_SESSIONS" default:"512"`
	ConfigSecret  string        `envconfig:"CONFIG_SECRET"`
}

// AppConfig 包含应用程序运行时使用的全部配置
type AppConfig struct {
	Port          string        `json:"port"`
	DataDir       string        `json:"data_dir"`
	LogDir        string        `json:"log_dir"`
	DebugMode     bool          `json:"debug_mode"`
	OracleTimeout time.Duration `json:"oracle_timeout"`
	MaxSessions   int           `json:"max_sessions"`

	// LLM相关配置，可通过设置接口修改并保存到 config.json
	LLMProvider string            `json:"llm_provider"`
	LLMConfig   map[string]string `json:"llm_config"`
}

// Load 从 .env 与环境变量加载配置
func Load() (*Config, error) {
	// .env 文件可选
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}

	if cfg.OracleTimeout <= 0 {
		return nil, fmt.Errorf("ORACLE_TIMEOUT 必须为正数")
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 512
	}

	if cfg.APIKey() == "" {
		utils.GetLogger().Warn("未设置 LLM API 密钥，需要在设置接口中配置后才能生成内容", map[string]interface{}{
			"provider": cfg.LLMProvider,
		})
	}

	return &cfg, nil
}

// APIKey 按优先级返回可用的密钥
func (c *Config) APIKey() string {
	for _, key := range []string{c.LLMAPIKey, c.GeminiAPIKey, c.LegacyAPIKey} {
		if key != "" {
			return key
		}
	}
	return ""
}

func (c *Config) llmConfigMap() map[string]string {
	m := map[string]string{"api_key": c.APIKey()}
	if c.LLMModel != "" {
		m["default_model"] = c.LLMModel
	}
	if c.LLMBaseURL != "" {
		m["base_url"] = c.LLMBaseURL
	}
	return m
}

func (c *Config) toAppConfig() *AppConfig {
	return &AppConfig{
		Port:          c.Port,
		DataDir:       c.DataDir,
		LogDir:        c.LogDir,
		DebugMode:     c.DebugMode,
		OracleTimeout: c.OracleTimeout,
		MaxSessions:   c.MaxSessions,
		LLMProvider:   c.LLMProvider,
		LLMConfig:     c.llmConfigMap(),
	}
}

// savedSettings 是写入 config.json 的内容，只包含 LLM 设置
type savedSettings struct {
	LLMProvider string            `json:"llm_provider"`
	LLMConfig   map[string]string `json:"llm_config"`
}

// InitConfig 初始化配置管理器
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}
	baseConfig.DataDir = dataDir

	configMutex.Lock()
	defer configMutex.Unlock()

	configSecret = baseConfig.ConfigSecret

	currentConfig = baseConfig.toAppConfig()

	// 文件中保存的 LLM 设置优先于环境变量
	if data, err := os.ReadFile(configFile); err == nil {
		var saved savedSettings
		if json.Unmarshal(data, &saved) == nil && saved.LLMProvider != "" {
			currentConfig.LLMProvider = saved.LLMProvider
			currentConfig.LLMConfig = decryptSecrets(saved.LLMConfig, configSecret)
			if currentConfig.LLMConfig["api_key"] == "" {
				currentConfig.LLMConfig["api_key"] = baseConfig.APIKey()
			}
		}
	}

	return saveLocked()
}

// SetCurrentConfig 直接替换当前配置（用于测试和嵌入场景）
func SetCurrentConfig(cfg *AppConfig) {
	configMutex.Lock()
	defer configMutex.Unlock()
	currentConfig = cfg
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		baseConfig, err := Load()
		if err != nil {
			return &AppConfig{Port: "8080", OracleTimeout: 90 * time.Second, MaxSessions: 512}
		}
		return baseConfig.toAppConfig()
	}

	configCopy := *currentConfig
	configCopy.LLMConfig = make(map[string]string, len(currentConfig.LLMConfig))
	for k, v := range currentConfig.LLMConfig {
		configCopy.LLMConfig[k] = v
	}
	return &configCopy
}

// UpdateLLMConfig 更新LLM配置并持久化
func UpdateLLMConfig(provider string, llmConfig map[string]string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	currentConfig.LLMProvider = provider
	currentConfig.LLMConfig = llmConfig

	return saveLocked()
}

// saveLocked 保存当前 LLM 设置，调用方必须持有写锁
func saveLocked() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}
	if configFile == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	saved := savedSettings{
		LLMProvider: currentConfig.LLMProvider,
		LLMConfig:   encryptSecrets(currentConfig.LLMConfig, configSecret),
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0600)
}

// encryptSecrets 在有密钥时加密 api_key，未设置密钥则不保存 api_key
func encryptSecrets(in map[string]string, secret string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	key, ok := out["api_key"]
	if !ok || key == "" {
		return out
	}
	if secret == "" {
		delete(out, "api_key")
		return out
	}
	enc, err := utils.EncryptSecret(key, secret)
	if err != nil {
		delete(out, "api_key")
		return out
	}
	out["api_key"] = enc
	return out
}

func decryptSecrets(in map[string]string, secret string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	enc := out["api_key"]
	if enc == "" || secret == "" {
		out["api_key"] = ""
		return out
	}
	plain, err := utils.DecryptSecret(enc, secret)
	if err != nil {
		utils.GetLogger().Warn("无法解密已保存的 API 密钥，将使用环境变量", map[string]interface{}{"error": err.Error()})
		out["api_key"] = ""
		return out
	}
	out["api_key"] = plain
	return out
}
