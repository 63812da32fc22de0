// internal/models/content.go
package models

import (
	"fmt"
	"strings"
)

// ArtifactKind 表示一种生成内容
type ArtifactKind string

const (
	KindScript      ArtifactKind = "script"
	KindTitle       ArtifactKind = "title"
	KindDescription ArtifactKind = "description"
	KindTags        ArtifactKind = "tags"
)

// AllArtifactKinds 按生成顺序排列
var AllArtifactKinds = []ArtifactKind{KindScript, KindTitle, KindDescription, KindTags}

// vietnameseLabels 用于面向用户的错误信息
var vietnameseLabels = map[ArtifactKind]string{
	KindScript:      "kịch bản",
	KindTitle:       "tiêu đề",
	KindDescription: "mô tả",
	KindTags:        "thẻ tags",
}

// Valid 检查是否为已知类型
func (k ArtifactKind) Valid() bool {
	_, ok := vietnameseLabels[k]
	return ok
}

// Label 返回越南语名称
func (k ArtifactKind) Label() string {
	if label, ok := vietnameseLabels[k]; ok {
		return label
	}
	return string(k)
}

// ParseArtifactKind 解析请求中的类型名
func ParseArtifactKind(s string) (ArtifactKind, error) {
	k := ArtifactKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown artifact kind %q", s)
	}
	return k, nil
}

// ContentBlock 保存模型生成的原文和当前展示的文本（可能是译文）
type ContentBlock struct {
	Original string `json:"original"`
	Display  string `json:"display"`
}

// NewContentBlock 返回 display 与 original 相同的块
func NewContentBlock(text string) ContentBlock {
	return ContentBlock{Original: text, Display: text}
}

// IsTranslated 表示 display 是否偏离 original
func (b ContentBlock) IsTranslated() bool {
	return b.Display != b.Original
}

// GenerationResult 始终包含四种类型的内容块
type GenerationResult map[ArtifactKind]ContentBlock

// NewGenerationResult 返回四个空内容块
func NewGenerationResult() GenerationResult {
	r := make(GenerationResult, len(AllArtifactKinds))
	for _, k := range AllArtifactKinds {
		r[k] = ContentBlock{}
	}
	return r
}

// Clone 复制结果
func (r GenerationResult) Clone() GenerationResult {
	out := NewGenerationResult()
	for k, b := range r {
		out[k] = b
	}
	return out
}

// Original 返回某类型的原文，不存在时为空字符串
func (r GenerationResult) Original(kind ArtifactKind) string {
	return r[kind].Original
}

// Selection 用户勾选的内容类型集合
type Selection map[ArtifactKind]bool

// NewSelection 从类型列表构造集合
func NewSelection(kinds ...ArtifactKind) Selection {
	s := make(Selection, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// Has 是否选中
func (s Selection) Has(kind ArtifactKind) bool {
	return s[kind]
}

// Empty 是否没有选中任何类型
func (s Selection) Empty() bool {
	for _, k := range AllArtifactKinds {
		if s[k] {
			return false
		}
	}
	return true
}

// ScriptOptions 脚本生成参数
type ScriptOptions struct {
	WordCount   int     `json:"word_count"`
	Style       string  `json:"style"`
	Temperature float32 `json:"temperature"`
}

const (
	DefaultWordCount   = 1500
	DefaultStyle       = "creative_freedom"
	DefaultTemperature = 0.8
)

// DefaultScriptOptions 界面初始值
func DefaultScriptOptions() ScriptOptions {
	return ScriptOptions{
		WordCount:   DefaultWordCount,
		Style:       DefaultStyle,
		Temperature: DefaultTemperature,
	}
}

// Validate 检查字数与温度范围，风格由目录校验
func (o ScriptOptions) Validate() error {
	if o.WordCount <= 0 {
		return fmt.Errorf("word count must be positive, got %d", o.WordCount)
	}
	if o.Temperature < 0 || o.Temperature > 1 {
		return fmt.Errorf("temperature must be within [0,1], got %v", o.Temperature)
	}
	return nil
}
