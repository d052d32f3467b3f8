// Package scheduler 提供基于键的任务调度功能.
//
// 特性：
//   - 三种任务类型：Once（延迟一次）、Periodic（周期，无漂移）、Trigger（按需触发）
//   - 每个任务拥有独立的串行化域，同一任务的事件永远不会重叠
//   - 取消无竞态：已取消任务不会再调用回调
//   - 先注册者优先：重复的键不会替换已有任务
//   - 回调 panic 隔离，不影响其他任务
//   - Hook 机制：BeforeInvoke/AfterInvoke/OnPanic/OnSkip
//   - 可由工作协程驱动，也可通过 PollOne 单步驱动
//
// 示例：
//
//	s := scheduler.MustNew[string](
//	    scheduler.WithLogger(log),
//	    scheduler.WithWorkers(4),
//	)
//
//	_ = s.AddTask("heartbeat", 10*time.Second, scheduler.KindPeriodic, sendHeartbeat)
//	_ = s.AddTask("flush", time.Second, scheduler.KindTrigger, flush)
//
//	s.Start()
//	defer s.Close()
//
//	// 数据变更后延迟 1 秒刷新，重复触发会重置等待窗口
//	s.Interrupt("flush")
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Tsukikage7/taskscheduler/engine"
	"github.com/Tsukikage7/taskscheduler/logger"
)

// Scheduler 基于键的任务调度器.
type Scheduler[K comparable] struct {
	opts   *options
	engine *engine.Engine

	mu      sync.Mutex
	tasks   map[K]*task
	closed  bool
	started bool

	wg sync.WaitGroup
}

// New 创建调度器.
func New[K comparable](opts ...Option) (*Scheduler[K], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.workers < 1 {
		return nil, ErrWorkersInvalid
	}

	s := &Scheduler[K]{
		opts:  o,
		tasks: make(map[K]*task),
	}

	s.engine = o.engine
	if s.engine == nil {
		engineOpts := []engine.Option{
			engine.WithLogger(o.logger),
			engine.WithPanicHandler(func(p any, _ []byte) {
				s.logErrorf("引擎事件 panic [panic:%v]", p)
			}),
		}
		if o.clock != nil {
			engineOpts = append(engineOpts, engine.WithClock(o.clock))
		}
		s.engine = engine.New(engineOpts...)
	}

	return s, nil
}

// MustNew 创建调度器，失败时 panic.
func MustNew[K comparable](opts ...Option) *Scheduler[K] {
	s, err := New[K](opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// AddTask 注册任务.
//
// 键已存在时不做任何修改并返回 ErrTaskExists，原任务保持不变.
// Once 与 Periodic 注册后自动启动，Trigger 需要通过 Interrupt 启动.
func (s *Scheduler[K]) AddTask(key K, interval time.Duration, kind Kind, fn func()) error {
	if fn == nil {
		return ErrCallbackNil
	}
	if !kind.Valid() {
		return ErrKindInvalid
	}
	if interval < 0 || (kind == KindPeriodic && interval == 0) {
		return fmt.Errorf("%w: %v", ErrIntervalInvalid, interval)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	if _, exists := s.tasks[key]; exists {
		s.mu.Unlock()
		s.logDebugf("任务已存在，忽略注册 [key:%v]", key)
		return ErrTaskExists
	}
	t := newTask(s.engine, s.opts, fmt.Sprint(key), kind, interval, fn)
	s.tasks[key] = t
	n := len(s.tasks)
	s.mu.Unlock()

	s.setTasks(n)
	s.logDebugf("任务已添加 [key:%v] [kind:%s] [interval:%v] [id:%s]", key, kind, interval, t.id)

	t.activate()
	return nil
}

// Interrupt 在任务的串行化域中调用 start.
//
// Trigger 任务以此启动；Once/Periodic 任务以此提前重新启动.
// 键不存在时什么也不做.
func (s *Scheduler[K]) Interrupt(key K) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	s.mu.Unlock()

	if !ok {
		return
	}
	t.post()
}

// RemoveTask 终止并移除任务. 键不存在时什么也不做.
//
// 取消是异步的：返回时正在执行的回调可能尚未结束，但之后不会再有新的调用.
func (s *Scheduler[K]) RemoveTask(key K) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if ok {
		t.cancel()
		delete(s.tasks, key)
	}
	n := len(s.tasks)
	s.mu.Unlock()

	if !ok {
		return
	}
	s.setTasks(n)
	s.logDebugf("任务已移除 [key:%v]", key)
}

// Stop 停止执行引擎.
//
// 不再接受新任务，已就绪的事件会被排空，挂起的定时等待被丢弃.
// 不会逐个取消任务，需要清理时使用 RemoveTask 或 Close.
func (s *Scheduler[K]) Stop() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.engine.Stop()
	s.logDebug("调度器已停止")
}

// PollOne 同步执行一个就绪事件，返回是否执行了事件.
func (s *Scheduler[K]) PollOne() bool {
	return s.engine.PollOne()
}

// Start 启动工作协程驱动引擎. 重复调用无效果.
func (s *Scheduler[K]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	if s.started {
		return nil
	}
	s.started = true

	for i := 0; i < s.opts.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = s.engine.Run(context.Background())
		}()
	}

	s.logDebugf("调度器已启动 [workers:%d]", s.opts.workers)
	return nil
}

// Run 在当前协程驱动引擎，直到引擎停止或 ctx 结束.
func (s *Scheduler[K]) Run(ctx context.Context) error {
	return s.engine.Run(ctx)
}

// Close 终止所有任务，清空注册表并停止引擎. 可重复调用.
func (s *Scheduler[K]) Close() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[K]*task)
	s.closed = true
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	if len(tasks) > 0 {
		s.setTasks(0)
	}

	s.engine.Stop()
	s.logDebugf("调度器已关闭 [cancelled:%d]", len(tasks))
}

// Shutdown 关闭调度器并等待工作协程退出.
func (s *Scheduler[K]) Shutdown(ctx context.Context) error {
	s.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logDebug("调度器优雅关闭完成")
		return nil
	case <-ctx.Done():
		s.logWarn("等待工作协程退出超时")
		return ctx.Err()
	}
}

// Has 检查键是否已注册.
func (s *Scheduler[K]) Has(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// Len 返回已注册任务数.
func (s *Scheduler[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Keys 返回所有已注册的键，顺序不确定.
func (s *Scheduler[K]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]K, 0, len(s.tasks))
	for k := range s.tasks {
		keys = append(keys, k)
	}
	return keys
}

// Stats 返回任务统计信息.
func (s *Scheduler[K]) Stats(key K) (TaskStats, bool) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	s.mu.Unlock()

	if !ok {
		return TaskStats{}, false
	}
	return t.stats.Clone(), true
}

// Engine 返回调度器使用的执行引擎.
func (s *Scheduler[K]) Engine() *engine.Engine {
	return s.engine
}

func (s *Scheduler[K]) setTasks(n int) {
	if m := s.opts.metrics; m != nil {
		m.SetTasks(n)
		m.SetPendingEvents(s.engine.Pending())
	}
}

// 日志辅助方法.

func (s *Scheduler[K]) logger() logger.Logger {
	return s.opts.logger
}

func (s *Scheduler[K]) logDebug(msg string) {
	if log := s.logger(); log != nil {
		log.Debug("[Scheduler] " + msg)
	}
}

func (s *Scheduler[K]) logDebugf(format string, args ...any) {
	if log := s.logger(); log != nil {
		log.Debugf("[Scheduler] "+format, args...)
	}
}

func (s *Scheduler[K]) logWarn(msg string) {
	if log := s.logger(); log != nil {
		log.Warn("[Scheduler] " + msg)
	}
}

func (s *Scheduler[K]) logErrorf(format string, args ...any) {
	if log := s.logger(); log != nil {
		log.Errorf("[Scheduler] "+format, args...)
	}
}
