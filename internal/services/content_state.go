// internal/services/content_state.go
package services

import (
	"github.com/Corphon/TubeScribe/internal/models"
)

// ContentState 一个会话的全部界面状态：内容块、忙碌标记、错误信息。
// 所有转换函数返回新值，不修改接收者
type ContentState struct {
	Idea       string                         `json:"idea"`
	Options    models.ScriptOptions           `json:"script_options"`
	Blocks     models.GenerationResult        `json:"blocks"`
	Busy       map[models.ArtifactKind]bool   `json:"busy"`
	Errors     map[models.ArtifactKind]string `json:"errors,omitempty"`
	Notice     string                         `json:"notice,omitempty"`
	Generating bool                           `json:"generating"`
	Version    uint64                         `json:"version"`
}

// NewContentState 初始状态：四个空内容块，默认脚本参数
func NewContentState() ContentState {
	return ContentState{
		Options: models.DefaultScriptOptions(),
		Blocks:  models.NewGenerationResult(),
		Busy:    newBusyFlags(),
		Errors:  map[models.ArtifactKind]string{},
	}
}

func newBusyFlags() map[models.ArtifactKind]bool {
	busy := make(map[models.ArtifactKind]bool, len(models.AllArtifactKinds))
	for _, k := range models.AllArtifactKinds {
		busy[k] = false
	}
	return busy
}

// Clone 深拷贝
func (s ContentState) Clone() ContentState {
	out := s
	out.Blocks = s.Blocks.Clone()
	out.Busy = newBusyFlags()
	for k, v := range s.Busy {
		out.Busy[k] = v
	}
	out.Errors = make(map[models.ArtifactKind]string, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	return out
}

func (s ContentState) next() ContentState {
	out := s.Clone()
	out.Version++
	return out
}

// Submitted 开始一次完整生成：清空所有内容块与错误
func (s ContentState) Submitted(idea string, opts models.ScriptOptions) ContentState {
	out := s.next()
	out.Idea = idea
	out.Options = opts
	out.Blocks = models.NewGenerationResult()
	out.Errors = map[models.ArtifactKind]string{}
	out.Notice = ""
	out.Generating = true
	return out
}

// Finished 完整生成结束
func (s ContentState) Finished() ContentState {
	out := s.next()
	out.Generating = false
	return out
}

// WithGenerated 用新生成的文本整体替换内容块（丢弃已有译文）
func (s ContentState) WithGenerated(kind models.ArtifactKind, text string) ContentState {
	out := s.next()
	out.Blocks[kind] = models.NewContentBlock(text)
	delete(out.Errors, kind)
	return out
}

// WithDisplay 只更新展示文本，original 不变
func (s ContentState) WithDisplay(kind models.ArtifactKind, text string) ContentState {
	out := s.next()
	b := out.Blocks[kind]
	b.Display = text
	out.Blocks[kind] = b
	delete(out.Errors, kind)
	return out
}

// Reverted 恢复原文
func (s ContentState) Reverted(kind models.ArtifactKind) ContentState {
	out := s.next()
	b := out.Blocks[kind]
	b.Display = b.Original
	out.Blocks[kind] = b
	delete(out.Errors, kind)
	return out
}

// WithBusy 设置某类型的忙碌标记
func (s ContentState) WithBusy(kind models.ArtifactKind, busy bool) ContentState {
	out := s.next()
	out.Busy[kind] = busy
	return out
}

// WithError 记录某类型的错误信息
func (s ContentState) WithError(kind models.ArtifactKind, message string) ContentState {
	out := s.next()
	out.Errors[kind] = message
	return out
}

// WithNotice 设置全局提示
func (s ContentState) WithNotice(message string) ContentState {
	out := s.next()
	out.Notice = message
	return out
}

// WithOptions 记录最近使用的脚本参数
func (s ContentState) WithOptions(opts models.ScriptOptions) ContentState {
	out := s.next()
	out.Options = opts
	return out
}
