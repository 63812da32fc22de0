// internal/services/session_service.go
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	apperrors "github.com/Corphon/TubeScribe/internal/errors"
	"github.com/Corphon/TubeScribe/internal/utils"
)

// DefaultMaxSessions 未配置时的会话上限
const DefaultMaxSessions = 512

// SessionInfo 会话概要
type SessionInfo struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	State     ContentState `json:"state"`
}

// SessionService 内存中的会话表，超过上限时淘汰最久未使用的会话
type SessionService struct {
	sessions   *lru.Cache[string, *Workspace]
	generator  *GenerationService
	translator *TranslationService
	logger     *utils.Logger
	metrics    *utils.MetricsCollector
}

// NewSessionService 创建会话服务
func NewSessionService(maxSessions int, generator *GenerationService, translator *TranslationService) (*SessionService, error) {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}

	s := &SessionService{
		generator:  generator,
		translator: translator,
		logger:     utils.GetLogger(),
		metrics:    utils.GetMetricsCollector(),
	}

	cache, err := lru.NewWithEvict[string, *Workspace](maxSessions, s.onEvicted)
	if err != nil {
		return nil, fmt.Errorf("创建会话缓存失败: %w", err)
	}
	s.sessions = cache
	return s, nil
}

// onEvicted 在会话被淘汰或删除后关闭其订阅
func (s *SessionService) onEvicted(id string, ws *Workspace) {
	ws.Close()
	s.logger.Debug("会话已移除", map[string]interface{}{"session": id})
}

// Create 新建会话
func (s *SessionService) Create() *Workspace {
	ws := NewWorkspace(uuid.NewString(), s.generator, s.translator)
	s.sessions.Add(ws.ID, ws)
	s.metrics.SetActiveSessions(s.sessions.Len())

	s.logger.Info("会话已创建", map[string]interface{}{"session": ws.ID})
	return ws
}

// Get 按ID获取会话，同时刷新其最近使用时间
func (s *SessionService) Get(id string) (*Workspace, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewValidationError("ID phiên không hợp lệ.", err)
	}
	ws, ok := s.sessions.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("Không tìm thấy phiên làm việc.", nil)
	}
	return ws, nil
}

// Delete 删除会话
func (s *SessionService) Delete(id string) error {
	if !s.sessions.Remove(id) {
		return apperrors.NewNotFoundError("Không tìm thấy phiên làm việc.", nil)
	}
	s.metrics.SetActiveSessions(s.sessions.Len())
	return nil
}

// Count 当前会话数
func (s *SessionService) Count() int {
	return s.sessions.Len()
}

// List 返回所有会话的快照，按创建时间排序
func (s *SessionService) List() []SessionInfo {
	workspaces := s.sessions.Values()
	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].CreatedAt.Before(workspaces[j].CreatedAt)
	})

	infos := make([]SessionInfo, 0, len(workspaces))
	for _, ws := range workspaces {
		infos = append(infos, SessionInfo{
			ID:        ws.ID,
			CreatedAt: ws.CreatedAt,
			UpdatedAt: ws.UpdatedAt(),
			State:     ws.Snapshot(),
		})
	}
	return infos
}
