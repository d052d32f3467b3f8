// Package app 提供进程生命周期管理.
//
// Application 统一启动注册的组件（调度器、指标 HTTP 服务等）与后台循环，
// 在收到信号或上下文结束后按超时优雅关闭，并按优先级执行清理任务.
//
// 示例：
//
//	a, _ := app.New(
//	    app.Name("schedulerd"),
//	    app.Logger(log),
//	    app.On(app.BeforeStart, registerTasks),
//	    app.Go("reload", watchReloads),
//	    app.RegisterCloser("logger", log, 100),
//	)
//	sched, _ := server.NewScheduler(s)
//	metricsSrv, _ := server.NewHTTP(metrics.Handler(c))
//	a.Use(sched, metricsSrv)
//	if err := a.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/Tsukikage7/taskscheduler/logger"
)

// 预定义错误.
var (
	// ErrRunning 应用正在运行.
	ErrRunning = errors.New("app: application is already running")

	// ErrNilLogger 未设置日志记录器.
	ErrNilLogger = errors.New("app: logger is required")
)

// Component 由 Application 管理生命周期的组件.
type Component interface {
	// Start 启动组件，阻塞直到 ctx 结束或组件失败.
	Start(ctx context.Context) error
	// Stop 停止组件.
	Stop(ctx context.Context) error
	// Name 组件名称.
	Name() string
}

// Application 应用程序，管理多个组件的生命周期.
type Application struct {
	opts       *options
	components []Component
	mu         sync.Mutex
	running    bool
}

// New 创建应用程序.
func New(opts ...Option) (*Application, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		return nil, ErrNilLogger
	}

	return &Application{opts: o}, nil
}

// Use 注册组件.
func (a *Application) Use(components ...Component) *Application {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.components = append(a.components, components...)
	return a
}

// Run 启动所有组件并阻塞，直到收到信号、ctx 结束或某个组件启动失败，随后优雅关闭.
//
// 返回第一个失败组件的错误.
func (a *Application) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrRunning
	}
	a.running = true
	components := append([]Component(nil), a.components...)
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.opts.hooks.run(runCtx, BeforeStart, a.opts.logger); err != nil {
		return err
	}

	a.opts.logger.With(
		logger.String("name", a.opts.name),
		logger.String("version", a.opts.version),
	).Info("[App] starting")

	errCh := a.start(runCtx, components)
	workers := a.startWorkers(runCtx)
	_ = a.opts.hooks.run(runCtx, AfterStart, a.opts.logger)

	runErr := a.wait(runCtx, errCh)
	cancel()
	a.shutdown(components, workers)
	return runErr
}

func (a *Application) start(ctx context.Context, components []Component) <-chan error {
	errCh := make(chan error, len(components))
	if len(components) == 0 {
		a.opts.logger.Warn("[App] no components registered")
		return errCh
	}

	for _, c := range components {
		go func(c Component) {
			a.opts.logger.With(logger.String("component", c.Name())).Info("[App] starting component")
			if err := c.Start(ctx); err != nil {
				a.opts.logger.With(
					logger.String("component", c.Name()),
					logger.Err(err),
				).Error("[App] component failed")
				errCh <- err
			}
		}(c)
	}
	return errCh
}

// startWorkers 启动后台循环，返回的 WaitGroup 在全部循环返回后完成.
func (a *Application) startWorkers(ctx context.Context) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, w := range a.opts.workers {
		wg.Add(1)
		go func(w worker) {
			defer wg.Done()
			w.fn(ctx)
			a.opts.logger.With(logger.String("worker", w.name)).Debug("[App] worker exited")
		}(w)
	}
	return &wg
}

func (a *Application) wait(ctx context.Context, errCh <-chan error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.opts.logger.With(logger.String("signal", sig.String())).Info("[App] received signal")
	case <-ctx.Done():
		a.opts.logger.Info("[App] context cancelled")
	case err := <-errCh:
		return err
	}
	return nil
}

func (a *Application) shutdown(components []Component, workers *sync.WaitGroup) {
	a.opts.logger.With(
		logger.Duration("timeout", a.opts.gracefulTimeout),
	).Info("[App] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.opts.gracefulTimeout)
	defer cancel()

	_ = a.opts.hooks.run(shutdownCtx, BeforeStop, a.opts.logger)

	var wg sync.WaitGroup
	for _, c := range components {
		wg.Add(1)
		go func(c Component) {
			defer wg.Done()
			a.opts.logger.With(logger.String("component", c.Name())).Info("[App] stopping component")
			if err := c.Stop(shutdownCtx); err != nil {
				a.opts.logger.With(
					logger.String("component", c.Name()),
					logger.Err(err),
				).Error("[App] component stop failed")
			}
		}(c)
	}

	if waitGroup(shutdownCtx, &wg) {
		a.opts.logger.Info("[App] all components stopped")
	} else {
		a.opts.logger.Warn("[App] shutdown timeout")
	}
	if !waitGroup(shutdownCtx, workers) {
		a.opts.logger.Warn("[App] workers did not exit before timeout")
	}

	a.runCleanups(shutdownCtx)

	_ = a.opts.hooks.run(context.Background(), AfterStop, a.opts.logger)

	a.opts.logger.Info("[App] stopped")
}

func (a *Application) runCleanups(ctx context.Context) {
	if len(a.opts.cleanups) == 0 {
		return
	}

	cleanups := make([]Cleanup, len(a.opts.cleanups))
	copy(cleanups, a.opts.cleanups)
	sort.SliceStable(cleanups, func(i, j int) bool {
		return cleanups[i].Priority < cleanups[j].Priority
	})

	for _, c := range cleanups {
		if err := c.Fn(ctx); err != nil {
			a.opts.logger.With(
				logger.String("cleanup", c.Name),
				logger.Err(err),
			).Error("[App] cleanup failed")
		}
	}
}

// waitGroup 等待 wg 完成，ctx 先结束时返回 false.
func waitGroup(ctx context.Context, wg *sync.WaitGroup) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// GracefulTimeout 返回优雅关闭超时时间.
func (a *Application) GracefulTimeout() time.Duration {
	return a.opts.gracefulTimeout
}

// Name 获取应用名称.
func (a *Application) Name() string {
	return a.opts.name
}

// Version 获取应用版本.
func (a *Application) Version() string {
	return a.opts.version
}
