// internal/services/lock_manager.go
package services

import (
	"sync"
	"time"

	"github.com/Corphon/TubeScribe/internal/models"
	"github.com/Corphon/TubeScribe/internal/utils"
)

// LockManager 每种内容类型同一时间只允许一个生成或翻译请求。
// 不排队：已被占用时直接拒绝
type LockManager struct {
	mu      sync.Mutex
	holders map[models.ArtifactKind]*LockInfo
	metrics *utils.MetricsCollector
}

// LockInfo 记录占用者
type LockInfo struct {
	Operation  string
	AcquiredAt time.Time
}

// NewLockManager 创建锁管理器
func NewLockManager() *LockManager {
	return &LockManager{
		holders: make(map[models.ArtifactKind]*LockInfo),
		metrics: utils.GetMetricsCollector(),
	}
}

// TryAcquire 原子地占用全部给定类型；任一类型已被占用则什么都不占用并返回 false。
// 成功时返回的 release 只能调用一次
func (lm *LockManager) TryAcquire(operation string, kinds ...models.ArtifactKind) (release func(), ok bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	for _, k := range kinds {
		if _, held := lm.holders[k]; held {
			return nil, false
		}
	}

	now := time.Now()
	for _, k := range kinds {
		lm.holders[k] = &LockInfo{Operation: operation, AcquiredAt: now}
		lm.metrics.AddInFlight(string(k), 1)
	}

	var once sync.Once
	return func() {
		once.Do(func() { lm.release(kinds) })
	}, true
}

func (lm *LockManager) release(kinds []models.ArtifactKind) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for _, k := range kinds {
		if _, held := lm.holders[k]; held {
			delete(lm.holders, k)
			lm.metrics.AddInFlight(string(k), -1)
		}
	}
}

// Holder 返回当前占用某类型的操作
func (lm *LockManager) Holder(kind models.ArtifactKind) (LockInfo, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	info, ok := lm.holders[kind]
	if !ok {
		return LockInfo{}, false
	}
	return *info, true
}
