// internal/api/router.go
package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Corphon/TubeScribe/internal/catalog"
	"github.com/Corphon/TubeScribe/internal/config"
	"github.com/Corphon/TubeScribe/internal/di"
	"github.com/Corphon/TubeScribe/internal/services"
	"github.com/Corphon/TubeScribe/internal/utils"
)

// SetupRouter 配置HTTP路由，所需服务全部从容器中获取
func SetupRouter(container *di.Container) (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()

	sessionService, err := di.Resolve[*services.SessionService](container, di.ServiceSession)
	if err != nil {
		return nil, fmt.Errorf("会话服务未正确初始化: %w", err)
	}
	exportService, err := di.Resolve[*services.ExportService](container, di.ServiceExport)
	if err != nil {
		return nil, fmt.Errorf("导出服务未正确初始化: %w", err)
	}
	configService, err := di.Resolve[*services.ConfigService](container, di.ServiceConfig)
	if err != nil {
		return nil, fmt.Errorf("配置服务未正确初始化: %w", err)
	}
	llmService, err := di.Resolve[*services.LLMService](container, di.ServiceLLM)
	if err != nil {
		return nil, fmt.Errorf("LLM服务未正确初始化: %w", err)
	}
	cat, err := di.Resolve[*catalog.Catalog](container, di.ServiceCatalog)
	if err != nil {
		return nil, fmt.Errorf("目录未正确初始化: %w", err)
	}

	handler := NewHandler(sessionService, exportService, configService, llmService, cat)
	return newRouter(handler, cfg.DebugMode), nil
}

func newRouter(handler *Handler, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger())

	// 启用CORS
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(utils.GetMetricsCollector().Handler()))

	// WebSocket 支持
	r.GET("/ws/sessions/:id", handler.SessionWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	{
		catalogGroup := api.Group("/catalog")
		{
			catalogGroup.GET("/styles", handler.GetStyles)
			catalogGroup.GET("/languages", handler.GetLanguages)
		}

		// ===============================
		// 会话与内容
		// ===============================
		sessionsGroup := api.Group("/sessions")
		{
			sessionsGroup.GET("", handler.ListSessions)
			sessionsGroup.POST("", handler.CreateSession)
			sessionsGroup.GET("/:id", handler.GetSession)
			sessionsGroup.DELETE("/:id", handler.DeleteSession)
			sessionsGroup.POST("/:id/generate", handler.Generate)
			sessionsGroup.POST("/:id/artifacts/:kind/regenerate", handler.Regenerate)
			sessionsGroup.POST("/:id/artifacts/:kind/translate", handler.Translate)
			sessionsGroup.GET("/:id/export", handler.Export)
		}

		// ===============================
		// LLM配置相关路由
		// ===============================
		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/status", handler.GetLLMStatus)
			llmGroup.GET("/models", handler.GetLLMModels)
			llmGroup.PUT("/config", handler.UpdateLLMConfig)
			llmGroup.GET("/history", handler.GetLLMHistory)
		}

		api.GET("/ws/status", handler.GetWebSocketStatus)
	}

	r.NoRoute(func(c *gin.Context) {
		handler.Response.NotFound(c, "接口不存在", c.Request.URL.Path)
	})

	return r
}
