package app

import (
	"context"
	"time"

	"github.com/Tsukikage7/taskscheduler/logger"
)

// CleanupFunc 清理函数.
type CleanupFunc func(ctx context.Context) error

// Cleanup 清理任务.
type Cleanup struct {
	Name     string
	Fn       CleanupFunc
	Priority int // 数字越小越先执行
}

// worker 随应用运行的后台循环.
type worker struct {
	name string
	fn   func(ctx context.Context)
}

type options struct {
	name            string
	version         string
	logger          logger.Logger
	hooks           hookSet
	workers         []worker
	gracefulTimeout time.Duration
	cleanups        []Cleanup
}

func defaultOptions() *options {
	return &options{
		name:            "taskscheduler",
		version:         "dev",
		hooks:           make(hookSet),
		gracefulTimeout: 30 * time.Second,
	}
}

// Option 配置选项.
type Option func(*options)

// Name 设置应用名称.
func Name(name string) Option {
	return func(o *options) { o.name = name }
}

// Version 设置应用版本.
func Version(version string) Option {
	return func(o *options) { o.version = version }
}

// Logger 设置日志记录器（必需）.
func Logger(log logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// On 在生命周期阶段 p 注册钩子，同一阶段的钩子按注册顺序执行.
func On(p Phase, hook Hook) Option {
	return func(o *options) { o.hooks[p] = append(o.hooks[p], hook) }
}

// Go 注册后台循环，如信号触发任务、配置热加载.
//
// fn 在组件启动后运行，ctx 在关闭开始时结束；
// Run 在执行清理任务前等待 fn 返回，受优雅关闭超时约束.
func Go(name string, fn func(ctx context.Context)) Option {
	return func(o *options) { o.workers = append(o.workers, worker{name: name, fn: fn}) }
}

// GracefulTimeout 设置优雅关闭超时时间，非正值被忽略.
func GracefulTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}

// RegisterCleanup 注册清理任务.
func RegisterCleanup(name string, fn CleanupFunc, priority int) Option {
	return func(o *options) {
		o.cleanups = append(o.cleanups, Cleanup{Name: name, Fn: fn, Priority: priority})
	}
}

// RegisterCloser 注册 Close 方法作为清理任务，如日志记录器.
func RegisterCloser(name string, closer interface{ Close() error }, priority int) Option {
	return RegisterCleanup(name, func(context.Context) error {
		return closer.Close()
	}, priority)
}
