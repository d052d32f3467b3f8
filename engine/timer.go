package engine

import (
	"container/heap"
	"time"
)

// waitState 等待状态.
type waitState int

const (
	waitPending waitState = iota // 在定时器堆中
	waitFired                    // 已到期，完成事件已入队
	waitAborted                  // 已取消，完成事件已入队
	waitDone                     // 已分发或已丢弃
)

// wait 一次异步等待.
type wait struct {
	timer    *Timer
	strand   *Strand
	handler  func(error)
	deadline time.Time
	seq      uint64
	index    int
	state    waitState
}

// waitHeap 按到期时间排序的最小堆，到期时间相同时按入堆顺序.
type waitHeap []*wait

func (h waitHeap) Len() int { return len(h) }

func (h waitHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h waitHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *waitHeap) Push(x any) {
	w := x.(*wait)
	w.index = len(*h)
	*h = append(*h, w)
}

func (h *waitHeap) Pop() any {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.index = -1
	*h = old[:n-1]
	return w
}

// Timer 引擎定时器.
//
// 一个定时器有一个到期时间，可以挂起任意数量的异步等待.
// 修改到期时间或取消都会使所有未开始执行的等待以 ErrAborted 完成.
type Timer struct {
	e        *Engine
	deadline time.Time
	waits    map[*wait]struct{}
}

// NewTimer 创建定时器. 初始到期时间为创建时刻.
func (e *Engine) NewTimer() *Timer {
	return &Timer{
		e:        e,
		deadline: e.opts.clock.Now(),
		waits:    make(map[*wait]struct{}),
	}
}

// ExpiresAt 返回当前到期时间.
func (t *Timer) ExpiresAt() time.Time {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	return t.deadline
}

// ExpiresAfter 将到期时间设置为从现在起 d 之后，返回被取消的等待数.
func (t *Timer) ExpiresAfter(d time.Duration) int {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()

	n := t.cancelLocked()
	t.deadline = t.e.opts.clock.Now().Add(d)
	return n
}

// ExpiresAtTime 将到期时间设置为绝对时间 at，返回被取消的等待数.
func (t *Timer) ExpiresAtTime(at time.Time) int {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()

	n := t.cancelLocked()
	t.deadline = at
	return n
}

// Wait 异步等待定时器到期.
//
// 到期时 handler 收到 nil；等待被取消时收到 ErrAborted.
// strand 不为空时 handler 在该串行化域中执行. 引擎停止后返回 ErrStopped.
func (t *Timer) Wait(strand *Strand, handler func(error)) error {
	e := t.e
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return ErrStopped
	}

	w := &wait{
		timer:    t,
		strand:   strand,
		handler:  handler,
		deadline: t.deadline,
		seq:      e.nextSeq(),
	}
	t.waits[w] = struct{}{}
	heap.Push(&e.timers, w)

	if w.index == 0 {
		// 新的最早到期时间，唤醒休眠中的驱动方重新计算
		e.signal()
	}
	return nil
}

// Cancel 取消所有未开始执行的等待，返回被取消的等待数.
func (t *Timer) Cancel() int {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	return t.cancelLocked()
}

// cancelLocked 调用方需持有 t.e.mu.
func (t *Timer) cancelLocked() int {
	n := 0
	for w := range t.waits {
		switch w.state {
		case waitPending:
			heap.Remove(&t.e.timers, w.index)
			w.state = waitAborted
			t.e.dispatchLocked(w)
			n++
		case waitFired:
			// 完成事件已入队，分发时会看到取消状态
			w.state = waitAborted
			n++
		}
	}
	if n > 0 {
		t.e.logDebugf("定时等待已取消 [count:%d]", n)
	}
	return n
}
