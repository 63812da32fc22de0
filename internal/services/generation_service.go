// internal/services/generation_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Corphon/TubeScribe/internal/catalog"
	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/models"
	"github.com/Corphon/TubeScribe/internal/utils"
)

const (
	msgEmptyIdea           = "Vui lòng nhập ý tưởng video của bạn."
	msgEmptyRegenerateIdea = "Vui lòng nhập ý tưởng để sáng tạo lại."
	// MsgGenerationFailed 完整生成中任一步骤失败时的全局提示
	MsgGenerationFailed = "Đã xảy ra lỗi không mong muốn khi tạo nội dung."
)

// GenerationHooks 完整生成过程中每个步骤开始/结束时的回调，均可为 nil
type GenerationHooks struct {
	OnStepStart func(kind models.ArtifactKind)
	OnStepDone  func(kind models.ArtifactKind, text string, err error)
}

// GenerationReport 完整生成的结果。Result 总是四个条目，未选择或失败的类型为空块
type GenerationReport struct {
	Result   models.GenerationResult        `json:"result"`
	Failures map[models.ArtifactKind]string `json:"failures,omitempty"`
}

// Failed 是否有步骤失败
func (r *GenerationReport) Failed() bool {
	return len(r.Failures) > 0
}

// GenerationService 按固定流水线调用模型生成内容
type GenerationService struct {
	oracle  Oracle
	catalog *catalog.Catalog
	logger  *utils.Logger
	metrics *utils.MetricsCollector
}

// NewGenerationService 创建生成服务
func NewGenerationService(oracle Oracle, cat *catalog.Catalog) *GenerationService {
	if cat == nil {
		cat = catalog.MustDefault()
	}
	return &GenerationService{
		oracle:  oracle,
		catalog: cat,
		logger:  utils.GetLogger(),
		metrics: utils.GetMetricsCollector(),
	}
}

// ValidateRequest 在任何模型调用之前校验想法与脚本参数，返回规范化后的想法和风格
func (s *GenerationService) ValidateRequest(idea string, opts models.ScriptOptions, regenerate bool) (string, models.WritingStyle, error) {
	trimmed := strings.TrimSpace(idea)
	if trimmed == "" {
		msg := msgEmptyIdea
		if regenerate {
			msg = msgEmptyRegenerateIdea
		}
		return "", models.WritingStyle{}, apperrors.NewValidationError(msg, nil)
	}
	if err := opts.Validate(); err != nil {
		return "", models.WritingStyle{}, apperrors.NewValidationError(err.Error(), err)
	}
	style, err := s.catalog.Style(opts.Style)
	if err != nil {
		return "", models.WritingStyle{}, err
	}
	return trimmed, style, nil
}

// RunFullGeneration 严格按 script → title → description → tags 顺序生成所选类型。
// 单个步骤失败不会中断后续步骤，失败的类型以空串参与后续提示
func (s *GenerationService) RunFullGeneration(ctx context.Context, idea string, selection models.Selection, opts models.ScriptOptions, hooks GenerationHooks) (*GenerationReport, error) {
	// 1. 校验输入
	idea, style, err := s.ValidateRequest(idea, opts, false)
	if err != nil {
		s.metrics.RecordOperation("generate", "invalid")
		return nil, err
	}

	report := &GenerationReport{
		Result:   models.NewGenerationResult(),
		Failures: map[models.ArtifactKind]string{},
	}
	texts := func(kind models.ArtifactKind) string {
		return report.Result.Original(kind)
	}
	if selection.Empty() {
		s.metrics.RecordOperation("generate", "empty")
		s.logger.Info("未选择任何内容类型，跳过生成", nil)
		return report, nil
	}

	// 2. 依次执行流水线
	for _, step := range generationPipeline {
		if !selection.Has(step.Kind) {
			continue
		}
		if hooks.OnStepStart != nil {
			hooks.OnStepStart(step.Kind)
		}

		text, stepErr := s.runStep(ctx, step, step.Input(idea, opts, style, false, texts))
		if stepErr != nil {
			report.Failures[step.Kind] = stepErr.Error()
			s.logger.Warn("生成步骤失败，继续后续步骤", map[string]interface{}{
				"kind":  string(step.Kind),
				"error": stepErr.Error(),
			})
			text = ""
		}
		report.Result[step.Kind] = models.NewContentBlock(text)

		if hooks.OnStepDone != nil {
			hooks.OnStepDone(step.Kind, text, stepErr)
		}
	}

	// 3. 记录结果
	outcome := "success"
	if report.Failed() {
		outcome = "partial"
	}
	s.metrics.RecordOperation("generate", outcome)
	s.logger.Info("完整生成结束", map[string]interface{}{
		"selected": len(selection),
		"failures": len(report.Failures),
	})
	return report, nil
}

// Regenerate 重新生成单个类型。依赖使用 current 中已存储的原文，提示要求给出不同的结果
func (s *GenerationService) Regenerate(ctx context.Context, kind models.ArtifactKind, idea string, current models.GenerationResult, opts models.ScriptOptions) (string, error) {
	step, ok := StepFor(kind)
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("未知的内容类型: %s", kind), nil)
	}

	idea, style, err := s.ValidateRequest(idea, opts, true)
	if err != nil {
		s.metrics.RecordOperation("regenerate", "invalid")
		return "", err
	}

	text, err := s.runStep(ctx, step, step.Input(idea, opts, style, true, current.Original))
	if err != nil {
		s.metrics.RecordOperation("regenerate", "failure")
		return "", apperrors.ForKind(err, fmt.Sprintf("Không thể tạo lại %s.", kind.Label()), string(kind))
	}

	s.metrics.RecordOperation("regenerate", "success")
	return text, nil
}

func (s *GenerationService) runStep(ctx context.Context, step PipelineStep, in StepInput) (string, error) {
	text, err := s.oracle.GenerateText(ctx, string(step.Kind), step.Compose(in))
	if err != nil {
		return "", err
	}
	text = step.Finish(text)

	if step.Kind == models.KindTags {
		if n := utf8.RuneCountInString(text); n < TagsMinLength || n > TagsMaxLength {
			s.logger.Warn("标签长度超出目标区间", map[string]interface{}{
				"length": n,
				"min":    TagsMinLength,
				"max":    TagsMaxLength,
			})
		}
	}
	return text, nil
}
