package engine

import "github.com/Tsukikage7/taskscheduler/logger"

// Option 引擎配置选项.
type Option func(*options)

// options 引擎内部配置.
type options struct {
	clock        Clock
	logger       logger.Logger
	panicHandler func(p any, stack []byte)
}

// defaultOptions 返回默认配置.
func defaultOptions() *options {
	return &options{
		clock: SystemClock(),
	}
}

// WithClock 设置时间来源.
//
// 默认: 系统时钟.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger 设置日志记录器.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithPanicHandler 设置事件 panic 处理函数.
//
// 事件中逃逸的 panic 总会被引擎恢复，不会中断事件分发；
// 此处理函数用于额外的上报.
func WithPanicHandler(h func(p any, stack []byte)) Option {
	return func(o *options) {
		o.panicHandler = h
	}
}
