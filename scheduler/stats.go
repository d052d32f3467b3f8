package scheduler

import (
	"sync"
	"time"
)

// TaskStats 任务执行统计.
type TaskStats struct {
	mu            sync.RWMutex
	ID            string        // 任务实例 ID
	Kind          Kind          // 任务类型
	Cancelled     bool          // 是否已终止
	InvokeCount   int64         // 回调调用次数
	PanicCount    int64         // 回调 panic 次数
	SkipCount     int64         // 被前置钩子跳过的次数
	AbortCount    int64         // 被取消的定时等待次数
	LastInvokeAt  time.Time     // 上次调用时间（引擎时钟）
	LastDuration  time.Duration // 上次调用耗时
	TotalDuration time.Duration // 总调用耗时
	LastPanic     any           // 上次 panic 值
}

// Clone 返回统计信息副本.
func (s *TaskStats) Clone() TaskStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TaskStats{
		ID:            s.ID,
		Kind:          s.Kind,
		Cancelled:     s.Cancelled,
		InvokeCount:   s.InvokeCount,
		PanicCount:    s.PanicCount,
		SkipCount:     s.SkipCount,
		AbortCount:    s.AbortCount,
		LastInvokeAt:  s.LastInvokeAt,
		LastDuration:  s.LastDuration,
		TotalDuration: s.TotalDuration,
		LastPanic:     s.LastPanic,
	}
}

// recordInvoke 记录一次调用.
func (s *TaskStats) recordInvoke(at time.Time, duration time.Duration, panicValue any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InvokeCount++
	s.LastInvokeAt = at
	s.LastDuration = duration
	s.TotalDuration += duration
	if panicValue != nil {
		s.PanicCount++
		s.LastPanic = panicValue
	}
}

// recordSkip 记录一次跳过.
func (s *TaskStats) recordSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SkipCount++
}

// recordAbort 记录一次被取消的等待.
func (s *TaskStats) recordAbort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AbortCount++
}

// recordCancel 记录任务终止.
func (s *TaskStats) recordCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cancelled = true
}
