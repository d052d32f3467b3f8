package scheduler

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/Tsukikage7/taskscheduler/engine"
	"github.com/Tsukikage7/taskscheduler/logger"
	"github.com/Tsukikage7/taskscheduler/metrics"
)

// Option 调度器配置选项.
type Option func(*options)

// options 调度器内部配置.
type options struct {
	logger  logger.Logger
	hooks   *Hooks
	workers int
	clock   engine.Clock
	metrics metrics.Recorder
	tracer  trace.Tracer
	engine  *engine.Engine
}

// defaultOptions 返回默认配置.
func defaultOptions() *options {
	return &options{
		workers: 1,
	}
}

// WithLogger 设置日志记录器.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithHooks 设置全局钩子.
//
// 对所有任务生效.
func WithHooks(hooks *Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithWorkers 设置 Start 启动的工作协程数.
//
// 默认: 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithClock 设置引擎时钟.
//
// 主要用于测试：配合 engine.ManualClock 与 PollOne 单步驱动.
// 与 WithEngine 同时使用时被忽略.
func WithClock(c engine.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithMetrics 设置指标记录器.
func WithMetrics(m metrics.Recorder) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer 设置链路追踪器.
//
// 设置后每次回调调用都会创建一个 scheduler.invoke span.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithEngine 使用外部执行引擎.
//
// 多个调度器可以共享同一个引擎. 默认为每个调度器创建独立引擎.
func WithEngine(e *engine.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}
