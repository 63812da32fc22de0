// internal/catalog/catalog.go
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog 只读的风格与语言目录
type Catalog struct {
	styles    []models.WritingStyle
	languages []models.Language
	styleByID map[string]models.WritingStyle
	langByKey map[string]models.Language
}

type catalogFile struct {
	Styles    []models.WritingStyle `yaml:"styles"`
	Languages []models.Language     `yaml:"languages"`
}

var (
	defaultCatalog *Catalog
	defaultErr     error
	loadOnce       sync.Once
)

// Default 返回内嵌目录，只解析一次
func Default() (*Catalog, error) {
	loadOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

// MustDefault 与 Default 相同，解析失败时 panic
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse 解析 YAML 目录
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("解析目录失败: %w", err)
	}

	c := &Catalog{
		styles:    file.Styles,
		languages: file.Languages,
		styleByID: make(map[string]models.WritingStyle, len(file.Styles)),
		langByKey: make(map[string]models.Language, len(file.Languages)),
	}
	for _, s := range file.Styles {
		if s.ID == "" || s.Label == "" {
			return nil, fmt.Errorf("风格条目缺少 id 或 label")
		}
		if _, dup := c.styleByID[s.ID]; dup {
			return nil, fmt.Errorf("重复的风格: %s", s.ID)
		}
		c.styleByID[s.ID] = s
	}
	for _, l := range file.Languages {
		if l.Code == "" || l.Code == models.OriginalLanguage {
			return nil, fmt.Errorf("非法的语言代码: %q", l.Code)
		}
		if _, dup := c.langByKey[l.Code]; dup {
			return nil, fmt.Errorf("重复的语言: %s", l.Code)
		}
		c.langByKey[l.Code] = l
	}
	return c, nil
}

// Styles 返回风格列表副本
func (c *Catalog) Styles() []models.WritingStyle {
	return append([]models.WritingStyle(nil), c.styles...)
}

// Languages 返回语言列表副本
func (c *Catalog) Languages() []models.Language {
	return append([]models.Language(nil), c.languages...)
}

// Style 按 id 查找风格
func (c *Catalog) Style(id string) (models.WritingStyle, error) {
	s, ok := c.styleByID[id]
	if !ok {
		return models.WritingStyle{}, apperrors.NewConfigurationError(
			fmt.Sprintf("Phong cách viết không hợp lệ: %s", id), nil)
	}
	return s, nil
}

// Language 按代码查找语言
func (c *Catalog) Language(code string) (models.Language, error) {
	l, ok := c.langByKey[code]
	if !ok {
		return models.Language{}, apperrors.NewConfigurationError(
			fmt.Sprintf("Ngôn ngữ không được hỗ trợ: %s", code), nil)
	}
	return l, nil
}
