// internal/models/catalog.go
package models

// OriginalLanguage 是"恢复原文"的特殊语言选项，不调用模型
const OriginalLanguage = "original"

// OriginalLanguageOption 在语言列表中展示的恢复选项
var OriginalLanguageOption = Language{Code: OriginalLanguage, Name: "Original (Tiếng Việt)"}

// WritingStyle 写作风格目录项
type WritingStyle struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// Language 翻译语言目录项
type Language struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}
