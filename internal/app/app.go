// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Corphon/TubeScribe/internal/api"
	"github.com/Corphon/TubeScribe/internal/catalog"
	"github.com/Corphon/TubeScribe/internal/config"
	"github.com/Corphon/TubeScribe/internal/di"
	"github.com/Corphon/TubeScribe/internal/services"
	"github.com/Corphon/TubeScribe/internal/utils"

	// 注册模型提供者
	_ "github.com/Corphon/TubeScribe/internal/llm/providers/google"
	_ "github.com/Corphon/TubeScribe/internal/llm/providers/mock"
	_ "github.com/Corphon/TubeScribe/internal/llm/providers/openaicompat"
)

// shutdownTimeout 优雅关闭等待时间，需覆盖一次模型调用
const shutdownTimeout = 30 * time.Second

// App 应用程序实例
type App struct {
	config    *config.AppConfig
	container *di.Container
	server    *http.Server
	logger    *utils.Logger
}

// New 按当前配置组装应用；调用前需要 config.InitConfig
func New(container *di.Container) (*App, error) {
	cfg := config.GetCurrentConfig()

	if err := InitServices(container, cfg); err != nil {
		return nil, err
	}

	router, err := api.SetupRouter(container)
	if err != nil {
		return nil, fmt.Errorf("设置路由失败: %w", err)
	}

	return &App{
		config:    cfg,
		container: container,
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: utils.GetLogger(),
	}, nil
}

// InitServices 按依赖顺序创建服务并注册到容器
func InitServices(container *di.Container, cfg *config.AppConfig) error {
	logger := utils.GetLogger()

	// 1. 目录
	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("加载目录失败: %w", err)
	}
	container.Register(di.ServiceCatalog, cat)

	// 2. 模型服务：未配置密钥时以未就绪状态启动，可通过设置接口补全
	llmService := services.NewLLMService()
	if !llmService.IsReady() {
		logger.Warn("LLM服务未就绪", map[string]interface{}{
			"provider": cfg.LLMProvider,
			"state":    llmService.GetReadyState(),
		})
	}
	container.Register(di.ServiceLLM, llmService)

	// 3. 生成与翻译
	generation := services.NewGenerationService(llmService, cat)
	translation := services.NewTranslationService(llmService, cat)
	container.Register(di.ServiceGeneration, generation)
	container.Register(di.ServiceTranslation, translation)

	// 4. 会话、导出、配置
	sessions, err := services.NewSessionService(cfg.MaxSessions, generation, translation)
	if err != nil {
		return err
	}
	container.Register(di.ServiceSession, sessions)
	container.Register(di.ServiceExport, services.NewExportService())
	container.Register(di.ServiceConfig, services.NewConfigService(llmService))

	logger.Info("服务初始化完成", map[string]interface{}{
		"services": container.GetNames(),
	})
	return nil
}

// InitLogger 初始化日志文件与级别
func InitLogger(cfg *config.AppConfig) error {
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}
	logFile := filepath.Join(cfg.LogDir, fmt.Sprintf("tubescribe_%s.log", time.Now().Format("2006-01-02")))
	if err := utils.InitLogger(logFile); err != nil {
		return err
	}
	if cfg.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	} else {
		utils.GetLogger().SetLogLevel(utils.INFO)
	}
	return nil
}

// Handler 返回 HTTP 处理器（测试用）
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run 启动服务器并阻塞到收到 SIGINT/SIGTERM 或 ctx 结束
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("服务器启动", map[string]interface{}{"addr": a.server.Addr})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("启动服务器失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("正在关闭服务器...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器强制关闭: %w", err)
	}
	a.logger.Info("服务器已关闭", nil)
	return nil
}
