// internal/services/export_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/models"
)

var supportedExportFormats = []string{
	models.ExportFormatJSON,
	models.ExportFormatMarkdown,
	models.ExportFormatText,
	models.ExportFormatHTML,
}

// exportHeadings 各内容类型在导出文档中的标题
var exportHeadings = map[models.ArtifactKind]string{
	models.KindScript:      "Kịch bản",
	models.KindTitle:       "Tiêu đề",
	models.KindDescription: "Mô tả",
	models.KindTags:        "Thẻ tags",
}

// ExportService 把工作区当前展示的内容导出为文档，不写入磁盘
type ExportService struct {
	markdown goldmark.Markdown
}

func NewExportService() *ExportService {
	return &ExportService{markdown: goldmark.New()}
}

// Export相关方法--------------------------
// Export 导出当前状态。导出的是 display 文本，即用户正在看到的版本
func (s *ExportService) Export(sessionID string, state ContentState, format string) (*models.ExportResult, error) {
	// 1. 验证格式
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = models.ExportFormatMarkdown
	}
	if format == "md" {
		format = models.ExportFormatMarkdown
	}
	if !contains(supportedExportFormats, format) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("不支持的导出格式: %s，支持的格式: %v", format, supportedExportFormats), nil)
	}

	// 2. 根据格式生成内容
	title := exportTitle(state)
	content, contentType, err := s.formatExportContent(title, state, format)
	if err != nil {
		return nil, apperrors.NewProcessingError("格式化导出内容失败", err)
	}

	return &models.ExportResult{
		SessionID:   sessionID,
		Title:       title,
		Format:      format,
		ContentType: contentType,
		Filename:    exportFilename(sessionID, format),
		Content:     content,
		GeneratedAt: time.Now(),
	}, nil
}

func (s *ExportService) formatExportContent(title string, state ContentState, format string) (string, string, error) {
	switch format {
	case models.ExportFormatJSON:
		content, err := formatAsJSON(title, state)
		return content, "application/json; charset=utf-8", err
	case models.ExportFormatText:
		return formatAsText(title, state), "text/plain; charset=utf-8", nil
	case models.ExportFormatHTML:
		content, err := s.formatAsHTML(title, state)
		return content, "text/html; charset=utf-8", err
	default:
		return formatAsMarkdown(title, state), "text/markdown; charset=utf-8", nil
	}
}

func formatAsJSON(title string, state ContentState) (string, error) {
	artifacts := make(map[string]string, len(models.AllArtifactKinds))
	for _, kind := range models.AllArtifactKinds {
		artifacts[string(kind)] = state.Blocks[kind].Display
	}
	payload := map[string]interface{}{
		"title":          title,
		"idea":           state.Idea,
		"script_options": state.Options,
		"artifacts":      artifacts,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatAsMarkdown(title string, state ContentState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if state.Idea != "" {
		fmt.Fprintf(&b, "> %s\n\n", state.Idea)
	}
	for _, kind := range models.AllArtifactKinds {
		text := strings.TrimSpace(state.Blocks[kind].Display)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", exportHeadings[kind], text)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func formatAsText(title string, state ContentState) string {
	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len([]rune(title))) + "\n\n")
	for _, kind := range models.AllArtifactKinds {
		text := strings.TrimSpace(state.Blocks[kind].Display)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n%s\n\n", strings.ToUpper(exportHeadings[kind]), text)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// formatAsHTML 先生成 Markdown 再用 goldmark 渲染
func (s *ExportService) formatAsHTML(title string, state ContentState) (string, error) {
	var body bytes.Buffer
	if err := s.markdown.Convert([]byte(formatAsMarkdown(title, state)), &body); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"vi\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// exportTitle 使用生成的标题，没有时退回到想法
func exportTitle(state ContentState) string {
	if t := strings.TrimSpace(state.Blocks[models.KindTitle].Display); t != "" {
		return t
	}
	if idea := strings.TrimSpace(state.Idea); idea != "" {
		return truncateRunes(idea, 80)
	}
	return "TubeScribe"
}

func exportFilename(sessionID, format string) string {
	ext := format
	if format == models.ExportFormatMarkdown {
		ext = "md"
	}
	id := sessionID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("tubescribe-%s-%s.%s", id, time.Now().Format("20060102-150405"), ext)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
