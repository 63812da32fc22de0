// internal/services/translation_service.go
package services

import (
	"context"
	"strings"

	"github.com/Corphon/TubeScribe/internal/catalog"
	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/models"
	"github.com/Corphon/TubeScribe/internal/utils"
)

const (
	msgTranslationFailed  = "Không thể dịch nội dung."
	msgNothingToTranslate = "Không có nội dung để dịch."
)

// TranslationService 把原文翻译成目录中的语言。只返回译文，不修改任何状态
type TranslationService struct {
	oracle  Oracle
	catalog *catalog.Catalog
	logger  *utils.Logger
	metrics *utils.MetricsCollector
}

// NewTranslationService 创建翻译服务
func NewTranslationService(oracle Oracle, cat *catalog.Catalog) *TranslationService {
	if cat == nil {
		cat = catalog.MustDefault()
	}
	return &TranslationService{
		oracle:  oracle,
		catalog: cat,
		logger:  utils.GetLogger(),
		metrics: utils.GetMetricsCollector(),
	}
}

// ResolveLanguage 按代码查找目标语言；不在目录中返回 ConfigurationError。
// "original" 不是可翻译的语言，由调用方作为恢复原文处理
func (s *TranslationService) ResolveLanguage(code string) (models.Language, error) {
	return s.catalog.Language(code)
}

// Translate 翻译 text 到 code 对应的语言
func (s *TranslationService) Translate(ctx context.Context, text, code string) (string, error) {
	lang, err := s.ResolveLanguage(code)
	if err != nil {
		s.metrics.RecordOperation("translate", "invalid")
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		s.metrics.RecordOperation("translate", "invalid")
		return "", apperrors.NewValidationError(msgNothingToTranslate, nil)
	}

	translated, err := s.oracle.GenerateText(ctx, "translate", ComposeTranslationPrompt(text, lang.Name))
	if err != nil {
		s.metrics.RecordOperation("translate", "failure")
		s.logger.Warn("翻译失败", map[string]interface{}{
			"language": lang.Code,
			"error":    err.Error(),
		})
		return "", apperrors.ForKind(err, msgTranslationFailed, "")
	}

	s.metrics.RecordOperation("translate", "success")
	return translated, nil
}
