package server

import "context"

// Runner 可由工作协程驱动并优雅关闭的调度器.
//
// *scheduler.Scheduler[K] 实现了此接口.
type Runner interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// Scheduler 驱动调度器的组件.
type Scheduler struct {
	opts   *schedulerOptions
	runner Runner
}

// NewScheduler 创建调度器组件.
func NewScheduler(r Runner, opts ...SchedulerOption) (*Scheduler, error) {
	if r == nil {
		return nil, ErrNilRunner
	}

	o := &schedulerOptions{name: "scheduler"}
	for _, opt := range opts {
		opt(o)
	}

	return &Scheduler{opts: o, runner: r}, nil
}

// Start 启动调度器工作协程，阻塞直到 ctx 结束.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.runner.Start(); err != nil {
		return err
	}
	s.logDebug("调度器组件已启动")

	<-ctx.Done()
	return nil
}

// Stop 关闭调度器并等待工作协程退出.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logDebug("调度器组件停止中...")
	return s.runner.Shutdown(ctx)
}

// Name 返回组件名称.
func (s *Scheduler) Name() string {
	return s.opts.name
}

func (s *Scheduler) logDebug(msg string) {
	if log := s.opts.logger; log != nil {
		log.Debug("[Scheduler] " + msg)
	}
}
