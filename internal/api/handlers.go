// internal/api/handlers.go
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/TubeScribe/internal/catalog"
	"github.com/Corphon/TubeScribe/internal/models"
	"github.com/Corphon/TubeScribe/internal/services"
	"github.com/Corphon/TubeScribe/internal/utils"
)

// Handler 处理API请求
type Handler struct {
	SessionService *services.SessionService // 会话服务
	ExportService  *services.ExportService  // 导出服务
	ConfigService  *services.ConfigService  // LLM 设置
	LLMService     *services.LLMService     // 模型服务
	Catalog        *catalog.Catalog         // 风格与语言目录
	Response       *ResponseHelper          // 响应助手

	wsManager *WebSocketManager
	metrics   *utils.MetricsCollector
	logger    *utils.Logger
	startedAt time.Time
}

// ScriptOptionsRequest 脚本参数，省略的字段沿用会话中的当前值
type ScriptOptionsRequest struct {
	WordCount   *int     `json:"word_count"`
	Style       *string  `json:"style"`
	Temperature *float32 `json:"temperature"`
}

// mergeInto 用请求中给出的字段覆盖 base
func (r *ScriptOptionsRequest) mergeInto(base models.ScriptOptions) models.ScriptOptions {
	if r == nil {
		return base
	}
	if r.WordCount != nil {
		base.WordCount = *r.WordCount
	}
	if r.Style != nil {
		base.Style = *r.Style
	}
	if r.Temperature != nil {
		base.Temperature = *r.Temperature
	}
	return base
}

// GenerateRequest 完整生成请求
type GenerateRequest struct {
	Idea          string                `json:"idea"`
	Kinds         []string              `json:"kinds"`
	ScriptOptions *ScriptOptionsRequest `json:"script_options"`
}

// RegenerateRequest 重新生成请求。Idea 省略时使用会话中保存的想法
type RegenerateRequest struct {
	Idea          *string               `json:"idea"`
	ScriptOptions *ScriptOptionsRequest `json:"script_options"`
}

// TranslateRequest 翻译请求，language 为目录中的代码或 "original"
type TranslateRequest struct {
	Language string `json:"language" binding:"required"`
}

// UpdateLLMConfigRequest 更新 LLM 设置
type UpdateLLMConfigRequest struct {
	Provider string            `json:"provider" binding:"required"`
	Config   map[string]string `json:"config"`
}

// SessionView 会话响应，Translated 标记展示文本已是译文的类型
type SessionView struct {
	ID         string                       `json:"id"`
	State      services.ContentState        `json:"state"`
	Translated map[models.ArtifactKind]bool `json:"translated"`
}

func newSessionView(id string, state services.ContentState) SessionView {
	translated := make(map[models.ArtifactKind]bool, len(models.AllArtifactKinds))
	for _, kind := range models.AllArtifactKinds {
		translated[kind] = state.Blocks[kind].IsTranslated()
	}
	return SessionView{ID: id, State: state, Translated: translated}
}

// detach 生成类操作不随客户端断开而取消，每次模型调用仍受 ORACLE_TIMEOUT 限制
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// NewHandler 创建API处理器
func NewHandler(
	sessionService *services.SessionService,
	exportService *services.ExportService,
	configService *services.ConfigService,
	llmService *services.LLMService,
	cat *catalog.Catalog,
) *Handler {
	return &Handler{
		SessionService: sessionService,
		ExportService:  exportService,
		ConfigService:  configService,
		LLMService:     llmService,
		Catalog:        cat,
		Response:       NewResponseHelper(),
		wsManager:      NewWebSocketManager(),
		metrics:        utils.GetMetricsCollector(),
		logger:         utils.GetLogger(),
		startedAt:      time.Now(),
	}
}

// ------------------------------------------------
// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"llm_ready": h.LLMService.IsReady(),
		"sessions":  h.SessionService.Count(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// GetStyles 写作风格列表
func (h *Handler) GetStyles(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"styles":  h.Catalog.Styles(),
		"default": models.DefaultScriptOptions(),
	})
}

// GetLanguages 翻译语言列表，第一项是恢复原文
func (h *Handler) GetLanguages(c *gin.Context) {
	languages := append([]models.Language{models.OriginalLanguageOption}, h.Catalog.Languages()...)
	h.Response.Success(c, languages)
}

// ------------------------------------------------
// CreateSession 新建会话
func (h *Handler) CreateSession(c *gin.Context) {
	ws := h.SessionService.Create()
	h.Response.Created(c, newSessionView(ws.ID, ws.Snapshot()))
}

// ListSessions 列出内存中的会话
func (h *Handler) ListSessions(c *gin.Context) {
	h.Response.Success(c, h.SessionService.List())
}

// GetSession 获取会话状态
func (h *Handler) GetSession(c *gin.Context) {
	ws, err := h.SessionService.Get(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err, nil)
		return
	}
	h.Response.Success(c, newSessionView(ws.ID, ws.Snapshot()))
}

// DeleteSession 删除会话
func (h *Handler) DeleteSession(c *gin.Context) {
	if _, err := h.SessionService.Get(c.Param("id")); err != nil {
		h.Response.FromError(c, err, nil)
		return
	}
	if err := h.SessionService.Delete(c.Param("id")); err != nil {
		h.Response.FromError(c, err, nil)
		return
	}
	h.Response.Success(c, nil, "会话已删除")
}

// Generate 完整生成。部分步骤失败时仍返回 200，状态中带有提示和各类型错误
func (h *Handler) Generate(c *gin.Context) {
	ws, err := h.SessionService.Get(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err, nil)
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	selection := make(models.Selection, len(req.Kinds))
	for _, raw := range req.Kinds {
		kind, err := models.ParseArtifactKind(raw)
		if err != nil {
			h.Response.Error(c, http.StatusBadRequest, ErrorInvalidKind, "未知的内容类型", err.Error())
			return
		}
		selection[kind] = true
	}

	opts := req.ScriptOptions.mergeInto(ws.Snapshot().Options)

	state, err := ws.Submit(detach(c), req.Idea, selection, opts)
	if err != nil {
		h.Response.FromError(c, err, newSessionView(ws.ID, state))
		return
	}
	h.Response.Success(c, newSessionView(ws.ID, state))
}

// Regenerate 重新生成单个类型
func (h *Handler) Regenerate(c *gin.Context) {
	ws, kind, ok := h.resolveArtifact(c)
	if !ok {
		return
	}

	// 请求体可以为空
	var req RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	current := ws.Snapshot()
	idea := current.Idea
	if req.Idea != nil {
		idea = *req.Idea
	}
	opts := req.ScriptOptions.mergeInto(current.Options)

	state, err := ws.Regenerate(detach(c), kind, idea, opts)
	if err != nil {
		h.Response.FromError(c, err, newSessionView(ws.ID, state))
		return
	}
	h.Response.Success(c, newSessionView(ws.ID, state))
}

// Translate 翻译或恢复某类型
func (h *Handler) Translate(c *gin.Context) {
	ws, kind, ok := h.resolveArtifact(c)
	if !ok {
		return
	}

	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	state, err := ws.Translate(detach(c), kind, req.Language)
	if err != nil {
		h.Response.FromError(c, err, newSessionView(ws.ID, state))
		return
	}
	h.Response.Success(c, newSessionView(ws.ID, state))
}

// Export 导出会话内容。json 默认放在响应信封中，download=true 或其他格式作为附件
func (h *Handler) Export(c *gin.Context) {
	ws, err := h.SessionService.Get(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err, nil)
		return
	}

	result, err := h.ExportService.Export(ws.ID, ws.Snapshot(), c.DefaultQuery("format", models.ExportFormatMarkdown))
	if err != nil {
		h.Response.FromError(c, err, nil)
		return
	}

	download := c.Query("download") == "true" || result.Format != models.ExportFormatJSON
	h.Response.ExportResponse(c, result, download)
}

func (h *Handler) resolveArtifact(c *gin.Context) (*services.Workspace, models.ArtifactKind, bool) {
	ws, err := h.SessionService.Get(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err, nil)
		return nil, "", false
	}
	kind, err := models.ParseArtifactKind(c.Param("kind"))
	if err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorInvalidKind, "未知的内容类型", err.Error())
		return nil, "", false
	}
	return ws, kind, true
}

// ------------------------------------------------
// GetLLMStatus 获取LLM服务状态
func (h *Handler) GetLLMStatus(c *gin.Context) {
	h.Response.Success(c, h.ConfigService.Status())
}

// GetLLMModels 获取提供者支持的模型，provider 省略时为当前提供者
func (h *Handler) GetLLMModels(c *gin.Context) {
	provider := c.Query("provider")
	modelList, err := h.ConfigService.Models(provider)
	if err != nil {
		h.Response.FromError(c, err, nil)
		return
	}
	if provider == "" {
		provider = h.LLMService.GetProviderName()
	}
	h.Response.Success(c, gin.H{
		"provider": provider,
		"models":   modelList,
	})
}

// UpdateLLMConfig 更新LLM设置
func (h *Handler) UpdateLLMConfig(c *gin.Context) {
	var req UpdateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "无效的请求格式", err.Error())
		return
	}

	if err := h.ConfigService.UpdateLLMConfig(req.Provider, req.Config); err != nil {
		h.Response.FromError(c, err, nil)
		return
	}
	h.Response.Success(c, h.ConfigService.Status(), "LLM配置更新成功")
}

// GetLLMHistory 最近的 LLM 设置变更，limit 省略时返回全部
func (h *Handler) GetLLMHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.Response.BadRequest(c, "无效的 limit 参数", raw)
			return
		}
		limit = n
	}
	h.Response.Success(c, h.ConfigService.GetChangeHistory(limit))
}

// GetWebSocketStatus 获取 WebSocket 连接状态
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	status := h.wsManager.GetStatus()
	status["timestamp"] = time.Now().Format(time.RFC3339)
	h.Response.Success(c, status)
}
