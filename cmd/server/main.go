// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os"

	"github.com/Corphon/TubeScribe/internal/app"
	"github.com/Corphon/TubeScribe/internal/config"
	"github.com/Corphon/TubeScribe/internal/di"
	"github.com/Corphon/TubeScribe/internal/utils"
)

func main() {
	// 1. 首先加载基础配置
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 创建必要的目录
	createDirectories(baseConfig)

	// 3. 初始化配置系统（读取 DATA_DIR/config.json 中保存的 LLM 设置）
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("初始化配置系统失败: %v", err)
	}
	cfg := config.GetCurrentConfig()

	// 4. 日志
	if err := app.InitLogger(cfg); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logger := utils.GetLogger()
	defer logger.Close()

	// 5. 初始化服务和路由
	application, err := app.New(di.GetContainer())
	if err != nil {
		logger.Error("初始化应用失败", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	logger.Info("TubeScribe 启动", map[string]interface{}{
		"port":         cfg.Port,
		"llm_provider": cfg.LLMProvider,
		"debug":        cfg.DebugMode,
	})

	// 6. 启动服务器，收到中断信号后优雅关闭
	if err := application.Run(context.Background()); err != nil {
		logger.Error("服务器异常退出", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

// createDirectories 创建数据与日志目录
func createDirectories(cfg *config.Config) {
	for _, dir := range []string{cfg.DataDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("创建目录失败 %s: %v", dir, err)
		}
	}
}
