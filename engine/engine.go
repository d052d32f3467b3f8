// Package engine 提供单逻辑事件循环执行引擎.
//
// 引擎维护一个就绪事件队列和一个按到期时间排序的定时器堆，
// 可以由任意数量的 goroutine 调用 Run/RunOne 驱动，也可以由调用方反复调用 PollOne 单步驱动.
//
// 特性：
//   - Post 投递立即执行的工作
//   - Timer 支持相对/绝对到期时间，取消时挂起的等待以 ErrAborted 完成
//   - Strand 串行化域：同一 Strand 上的事件按 FIFO 顺序执行且互不重叠
//   - Stop 停止接受新工作，排空已就绪事件后退出
//
// 示例：
//
//	e := engine.New()
//	strand := e.NewStrand()
//	timer := e.NewTimer()
//
//	timer.ExpiresAfter(time.Second)
//	_ = timer.Wait(strand, func(err error) {
//	    if errors.Is(err, engine.ErrAborted) {
//	        return
//	    }
//	    // 定时器到期
//	})
//
//	go e.Run(ctx)
//	defer e.Stop()
package engine

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/Tsukikage7/taskscheduler/logger"
	"github.com/Tsukikage7/taskscheduler/recovery"
)

// Engine 执行引擎.
type Engine struct {
	opts *options

	mu      sync.Mutex
	ready   *queue.Queue // 就绪事件，元素类型为 func()
	timers  waitHeap
	seq     uint64
	stopped bool

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New 创建执行引擎.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Engine{
		opts:  o,
		ready: queue.New(),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Now 返回引擎时钟的当前时间.
func (e *Engine) Now() time.Time {
	return e.opts.clock.Now()
}

// Post 投递一个立即执行的工作项.
func (e *Engine) Post(fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return ErrStopped
	}
	e.postLocked(fn)
	return nil
}

// PollOne 执行一个就绪事件，不阻塞.
//
// 已到期的定时器会先被转为就绪事件. 返回是否执行了事件.
func (e *Engine) PollOne() bool {
	return e.runOne(context.Background(), false)
}

// RunOne 阻塞直到执行了一个事件，或引擎停止且已排空，或 ctx 结束.
func (e *Engine) RunOne(ctx context.Context) bool {
	return e.runOne(ctx, true)
}

// Run 持续执行事件，直到引擎停止并排空或 ctx 结束.
//
// 可以由多个 goroutine 同时调用.
func (e *Engine) Run(ctx context.Context) error {
	for e.runOne(ctx, true) {
	}
	return ctx.Err()
}

// Stop 停止引擎.
//
// 停止后不再接受新的工作和定时等待，挂起的定时等待被丢弃；
// 已就绪的事件仍会被驱动方排空，随后 Run 返回. 可重复调用.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.stopped = true
		for _, w := range e.timers {
			w.index = -1
			w.state = waitDone
			delete(w.timer.waits, w)
		}
		e.timers = nil
		e.mu.Unlock()

		close(e.done)
		e.logDebug("引擎已停止")
	})
}

// Stopped 检查引擎是否已停止.
func (e *Engine) Stopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// Pending 返回就绪事件与挂起定时等待的总数.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready.Length() + len(e.timers)
}

// runOne 取出并执行一个事件.
func (e *Engine) runOne(ctx context.Context, block bool) bool {
	for {
		if ctx.Err() != nil {
			return false
		}

		e.mu.Lock()
		now := e.opts.clock.Now()
		e.promoteLocked(now)

		if e.ready.Length() > 0 {
			fn := e.ready.Remove().(func())
			if e.ready.Length() > 0 {
				// 唤醒其他驱动方处理剩余事件
				e.signal()
			}
			e.mu.Unlock()
			e.execute(fn)
			return true
		}

		if e.stopped || !block {
			e.mu.Unlock()
			return false
		}

		var (
			sleep  *time.Timer
			sleepC <-chan time.Time
		)
		if len(e.timers) > 0 {
			sleep = time.NewTimer(e.timers[0].deadline.Sub(now))
			sleepC = sleep.C
		}
		e.mu.Unlock()

		select {
		case <-e.wake:
		case <-sleepC:
		case <-e.done:
		case <-ctx.Done():
		}
		if sleep != nil {
			sleep.Stop()
		}
	}
}

// execute 执行事件，事件中的 panic 不会逃逸到分发循环.
func (e *Engine) execute(fn func()) {
	err := recovery.Do(fn, recovery.WithLogger(e.opts.logger))
	if pe, ok := recovery.AsPanic(err); ok && e.opts.panicHandler != nil {
		e.opts.panicHandler(pe.Value, pe.Stack)
	}
}

// postLocked 入队就绪事件. 调用方需持有 e.mu.
func (e *Engine) postLocked(fn func()) {
	e.ready.Add(fn)
	e.signal()
}

// promoteLocked 将到期的等待转为就绪事件. 调用方需持有 e.mu.
func (e *Engine) promoteLocked(now time.Time) {
	for len(e.timers) > 0 && !e.timers[0].deadline.After(now) {
		w := heap.Pop(&e.timers).(*wait)
		w.state = waitFired
		e.dispatchLocked(w)
	}
}

// dispatchLocked 投递等待的完成事件. 调用方需持有 e.mu.
func (e *Engine) dispatchLocked(w *wait) {
	fn := func() { e.complete(w) }
	if w.strand != nil {
		w.strand.postLocked(fn)
		return
	}
	e.postLocked(fn)
}

// complete 在处理函数真正开始前确定等待结果.
//
// 在此之前发生的取消（包括已到期但尚未分发的等待）都以 ErrAborted 完成.
func (e *Engine) complete(w *wait) {
	e.mu.Lock()
	aborted := w.state == waitAborted
	w.state = waitDone
	delete(w.timer.waits, w)
	e.mu.Unlock()

	var err error
	if aborted {
		err = ErrAborted
	}
	w.handler(err)
}

// signal 非阻塞地唤醒一个驱动方.
func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// nextSeq 返回递增序号. 调用方需持有 e.mu.
func (e *Engine) nextSeq() uint64 {
	e.seq++
	return e.seq
}

// 日志辅助方法.

func (e *Engine) logDebug(msg string) {
	if log := e.logger(); log != nil {
		log.Debug("[Engine] " + msg)
	}
}

func (e *Engine) logDebugf(format string, args ...any) {
	if log := e.logger(); log != nil {
		log.Debugf("[Engine] "+format, args...)
	}
}

func (e *Engine) logger() logger.Logger {
	return e.opts.logger
}
