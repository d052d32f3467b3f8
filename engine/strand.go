package engine

import "github.com/eapache/queue"

// Strand 串行化域.
//
// 通过同一个 Strand 投递的事件按 FIFO 顺序逐个执行，永远不会并发，
// 即使引擎由多个 goroutine 驱动. 不同 Strand 之间没有顺序保证.
//
// 任意时刻一个 Strand 在引擎中最多只有一个未完成的事件，
// 每个排队的函数都作为独立的引擎事件执行，因此 PollOne 每次只推进一个函数.
type Strand struct {
	e         *Engine
	pending   *queue.Queue // 元素类型为 func()，由 e.mu 保护
	scheduled bool         // 是否已有事件在引擎中排队或执行，由 e.mu 保护
}

// NewStrand 创建串行化域.
func (e *Engine) NewStrand() *Strand {
	return &Strand{
		e:       e,
		pending: queue.New(),
	}
}

// Post 在串行化域中投递一个工作项. 引擎停止后返回 ErrStopped.
func (s *Strand) Post(fn func()) error {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()

	if s.e.stopped {
		return ErrStopped
	}
	s.postLocked(fn)
	return nil
}

// postLocked 调用方需持有 s.e.mu.
func (s *Strand) postLocked(fn func()) {
	s.pending.Add(fn)
	if !s.scheduled {
		s.scheduled = true
		s.e.postLocked(s.run)
	}
}

// run 执行队首函数，之后若仍有排队函数则再投递一个事件.
func (s *Strand) run() {
	s.e.mu.Lock()
	fn := s.pending.Remove().(func())
	s.e.mu.Unlock()

	defer func() {
		s.e.mu.Lock()
		if s.pending.Length() > 0 {
			s.e.postLocked(s.run)
		} else {
			s.scheduled = false
		}
		s.e.mu.Unlock()
	}()

	fn()
}
