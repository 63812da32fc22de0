// internal/services/pipeline.go
package services

import (
	"strings"

	"github.com/Corphon/TubeScribe/internal/models"
)

// StepInput 某一步骤组装提示所需的输入
type StepInput struct {
	Idea       string
	Options    models.ScriptOptions
	Style      models.WritingStyle
	Regenerate bool

	// prior 依赖步骤的文本；缺失或失败的依赖为空字符串
	prior map[models.ArtifactKind]string
}

// Text 返回依赖的文本
func (in StepInput) Text(kind models.ArtifactKind) string {
	return in.prior[kind]
}

// PipelineStep 生成流水线中的一个步骤
type PipelineStep struct {
	Kind        models.ArtifactKind
	DependsOn   []models.ArtifactKind
	Compose     func(in StepInput) Prompt
	PostProcess func(text string) string
}

// Input 从已有文本中挑出本步骤声明的依赖
func (s PipelineStep) Input(idea string, opts models.ScriptOptions, style models.WritingStyle, regenerate bool, texts func(models.ArtifactKind) string) StepInput {
	prior := make(map[models.ArtifactKind]string, len(s.DependsOn))
	for _, dep := range s.DependsOn {
		prior[dep] = texts(dep)
	}
	return StepInput{
		Idea:       idea,
		Options:    opts,
		Style:      style,
		Regenerate: regenerate,
		prior:      prior,
	}
}

// Finish 对模型输出做后处理
func (s PipelineStep) Finish(text string) string {
	if s.PostProcess == nil {
		return text
	}
	return s.PostProcess(text)
}

// generationPipeline 顺序固定：script → title → description → tags。
// 后续步骤使用同一次运行中前序步骤的结果（失败或跳过时为空串）
var generationPipeline = []PipelineStep{
	{
		Kind: models.KindScript,
		Compose: func(in StepInput) Prompt {
			return ComposeScriptPrompt(in.Idea, in.Options.WordCount, in.Style, in.Options.Temperature)
		},
	},
	{
		Kind:      models.KindTitle,
		DependsOn: []models.ArtifactKind{models.KindScript},
		Compose: func(in StepInput) Prompt {
			return ComposeTitlePrompt(in.Idea, in.Text(models.KindScript), in.Regenerate)
		},
		PostProcess: stripQuotes,
	},
	{
		Kind:      models.KindDescription,
		DependsOn: []models.ArtifactKind{models.KindScript},
		Compose: func(in StepInput) Prompt {
			return ComposeDescriptionPrompt(in.Idea, in.Text(models.KindScript), in.Regenerate)
		},
	},
	{
		Kind:      models.KindTags,
		DependsOn: []models.ArtifactKind{models.KindTitle, models.KindDescription},
		Compose: func(in StepInput) Prompt {
			return ComposeTagsPrompt(in.Idea, in.Text(models.KindTitle), in.Text(models.KindDescription), in.Regenerate)
		},
	},
}

// GenerationPipeline 返回流水线步骤副本
func GenerationPipeline() []PipelineStep {
	return append([]PipelineStep(nil), generationPipeline...)
}

// StepFor 返回某类型对应的步骤
func StepFor(kind models.ArtifactKind) (PipelineStep, bool) {
	for _, s := range generationPipeline {
		if s.Kind == kind {
			return s, true
		}
	}
	return PipelineStep{}, false
}

func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
