// internal/services/workspace.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/models"
	"github.com/Corphon/TubeScribe/internal/utils"
)

// StateUpdate 推送给订阅者的状态快照
type StateUpdate struct {
	SessionID string       `json:"session_id"`
	Event     string       `json:"event"`
	State     ContentState `json:"state"`
}

// Workspace 一个用户会话的内容工作区。
// 状态只通过 ContentState 的转换函数修改，每次修改都会通知订阅者
type Workspace struct {
	ID        string
	CreatedAt time.Time

	mutex       sync.Mutex
	state       ContentState
	updatedAt   time.Time
	closed      bool
	subscribers map[chan StateUpdate]bool
	reverts     map[models.ArtifactKind]uint64 // 各类型恢复原文的次数，只在状态锁内读写

	locks      *LockManager
	generator  *GenerationService
	translator *TranslationService
	logger     *utils.Logger
}

// NewWorkspace 创建空工作区
func NewWorkspace(id string, generator *GenerationService, translator *TranslationService) *Workspace {
	now := time.Now()
	return &Workspace{
		ID:          id,
		CreatedAt:   now,
		state:       NewContentState(),
		updatedAt:   now,
		subscribers: make(map[chan StateUpdate]bool),
		reverts:     make(map[models.ArtifactKind]uint64),
		locks:       NewLockManager(),
		generator:   generator,
		translator:  translator,
		logger:      utils.GetLogger(),
	}
}

// Snapshot 返回当前状态的副本
func (w *Workspace) Snapshot() ContentState {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.state.Clone()
}

// UpdatedAt 最后一次状态变更时间
func (w *Workspace) UpdatedAt() time.Time {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.updatedAt
}

// apply 在锁内执行一次转换并广播结果
func (w *Workspace) apply(event string, transition func(ContentState) ContentState) ContentState {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.state = transition(w.state)
	w.updatedAt = time.Now()
	snapshot := w.state.Clone()

	if !w.closed {
		update := StateUpdate{SessionID: w.ID, Event: event, State: snapshot}
		for subscriber := range w.subscribers {
			// 非阻塞发送，慢订阅者会丢失中间状态
			select {
			case subscriber <- update:
			default:
			}
		}
	}
	return snapshot
}

// Submit 完整生成。空想法返回 ValidationError 且不改变状态；
// 任一类型正在重新生成或翻译时返回 ConflictError
func (w *Workspace) Submit(ctx context.Context, idea string, selection models.Selection, opts models.ScriptOptions) (ContentState, error) {
	// 1. 校验，不触碰状态
	trimmed, _, err := w.generator.ValidateRequest(idea, opts, false)
	if err != nil {
		return w.Snapshot(), err
	}

	// 2. 占用全部类型：生成会清空所有内容块
	release, ok := w.locks.TryAcquire("generate", models.AllArtifactKinds...)
	if !ok {
		return w.Snapshot(), apperrors.NewConflictError("Nội dung đang được xử lý, vui lòng thử lại sau.", nil)
	}
	defer release()

	w.apply("generation_started", func(s ContentState) ContentState {
		return s.Submitted(trimmed, opts)
	})

	// 3. 执行流水线，每一步更新忙碌标记和内容块
	report, err := w.generator.RunFullGeneration(ctx, idea, selection, opts, GenerationHooks{
		OnStepStart: func(kind models.ArtifactKind) {
			w.apply("step_started", func(s ContentState) ContentState {
				return s.WithBusy(kind, true)
			})
		},
		OnStepDone: func(kind models.ArtifactKind, text string, stepErr error) {
			w.apply("step_finished", func(s ContentState) ContentState {
				s = s.WithGenerated(kind, text)
				if stepErr != nil {
					s = s.WithError(kind, fmt.Sprintf("Không thể tạo %s.", kind.Label()))
				}
				return s.WithBusy(kind, false)
			})
		},
	})
	if err != nil {
		return w.apply("generation_finished", func(s ContentState) ContentState {
			return s.Finished()
		}), err
	}

	return w.apply("generation_finished", func(s ContentState) ContentState {
		if report.Failed() {
			s = s.WithNotice(MsgGenerationFailed)
		}
		return s.Finished()
	}), nil
}

// Regenerate 重新生成单个类型，成功时整体替换该内容块（丢弃译文），失败时保留原内容
func (w *Workspace) Regenerate(ctx context.Context, kind models.ArtifactKind, idea string, opts models.ScriptOptions) (ContentState, error) {
	if !kind.Valid() {
		return w.Snapshot(), apperrors.NewValidationError(fmt.Sprintf("未知的内容类型: %s", kind), nil)
	}
	if _, _, err := w.generator.ValidateRequest(idea, opts, true); err != nil {
		return w.Snapshot(), apperrors.ForKind(err, apperrors.MessageOf(err), string(kind))
	}

	release, ok := w.locks.TryAcquire("regenerate", kind)
	if !ok {
		return w.Snapshot(), w.busyError(kind)
	}
	defer release()

	before := w.apply("regenerate_started", func(s ContentState) ContentState {
		return s.WithBusy(kind, true)
	})

	text, err := w.generator.Regenerate(ctx, kind, idea, before.Blocks, opts)
	if err != nil {
		return w.apply("regenerate_failed", func(s ContentState) ContentState {
			return s.WithError(kind, apperrors.MessageOf(err)).WithBusy(kind, false)
		}), err
	}

	return w.apply("regenerate_finished", func(s ContentState) ContentState {
		return s.WithGenerated(kind, text).WithOptions(opts).WithBusy(kind, false)
	}), nil
}

// Translate 翻译某类型的原文并只更新展示文本。
// language 为 "original" 时直接恢复原文，不调用模型，也不受占用限制；
// 进行中的同类型翻译结束后不会覆盖已恢复的原文
func (w *Workspace) Translate(ctx context.Context, kind models.ArtifactKind, language string) (ContentState, error) {
	if !kind.Valid() {
		return w.Snapshot(), apperrors.NewValidationError(fmt.Sprintf("未知的内容类型: %s", kind), nil)
	}

	if language == models.OriginalLanguage {
		return w.apply("reverted", func(s ContentState) ContentState {
			w.reverts[kind]++
			return s.Reverted(kind)
		}), nil
	}

	if _, err := w.translator.ResolveLanguage(language); err != nil {
		return w.Snapshot(), apperrors.ForKind(err, apperrors.MessageOf(err), string(kind))
	}

	release, ok := w.locks.TryAcquire("translate", kind)
	if !ok {
		return w.Snapshot(), w.busyError(kind)
	}
	defer release()

	var revertsAtStart uint64
	before := w.apply("translate_started", func(s ContentState) ContentState {
		revertsAtStart = w.reverts[kind]
		return s.WithBusy(kind, true)
	})

	translated, err := w.translator.Translate(ctx, before.Blocks.Original(kind), language)
	if err != nil {
		err = apperrors.ForKind(err, apperrors.MessageOf(err), string(kind))
		return w.apply("translate_failed", func(s ContentState) ContentState {
			return s.WithError(kind, apperrors.MessageOf(err)).WithBusy(kind, false)
		}), err
	}

	// 翻译期间用户已恢复原文时丢弃译文
	return w.apply("translate_finished", func(s ContentState) ContentState {
		if w.reverts[kind] != revertsAtStart {
			w.logger.Debug("翻译完成前已恢复原文，丢弃译文", map[string]interface{}{
				"session": w.ID,
				"kind":    string(kind),
			})
			return s.WithBusy(kind, false)
		}
		return s.WithDisplay(kind, translated).WithBusy(kind, false)
	}), nil
}

func (w *Workspace) busyError(kind models.ArtifactKind) error {
	msg := fmt.Sprintf("%s đang được xử lý, vui lòng đợi.", kind.Label())
	if holder, ok := w.locks.Holder(kind); ok {
		w.logger.Debug("内容类型已被占用", map[string]interface{}{
			"session":   w.ID,
			"kind":      string(kind),
			"operation": holder.Operation,
			"since":     holder.AcquiredAt.Format(time.RFC3339),
		})
	}
	return apperrors.NewConflictError(msg, nil).WithKind(string(kind))
}

// Subscribe 订阅状态更新，立即收到一次当前状态
func (w *Workspace) Subscribe() chan StateUpdate {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	// 缓冲区设为16以避免阻塞
	subscriber := make(chan StateUpdate, 16)
	if w.closed {
		close(subscriber)
		return subscriber
	}
	w.subscribers[subscriber] = true
	subscriber <- StateUpdate{SessionID: w.ID, Event: "snapshot", State: w.state.Clone()}
	return subscriber
}

// Unsubscribe 取消订阅
func (w *Workspace) Unsubscribe(subscriber chan StateUpdate) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if _, ok := w.subscribers[subscriber]; ok {
		delete(w.subscribers, subscriber)
		close(subscriber)
	}
}

// Close 关闭所有订阅通道，会话被淘汰时调用
func (w *Workspace) Close() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	for subscriber := range w.subscribers {
		close(subscriber)
	}
	w.subscribers = make(map[chan StateUpdate]bool)
}
