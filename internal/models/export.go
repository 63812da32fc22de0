// internal/models/export.go
package models

import "time"

// 支持的导出格式
const (
	ExportFormatJSON     = "json"
	ExportFormatMarkdown = "markdown"
	ExportFormatText     = "txt"
	ExportFormatHTML     = "html"
)

// ExportResult 导出结果
type ExportResult struct {
	SessionID   string    `json:"session_id"`
	Title       string    `json:"title"`
	Format      string    `json:"format"`
	ContentType string    `json:"content_type"`
	Filename    string    `json:"filename"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}
