package server

import (
	"time"

	"github.com/Tsukikage7/taskscheduler/logger"
)

// HTTPOption HTTP 服务器配置选项.
type HTTPOption func(*httpOptions)

// httpOptions HTTP 服务器内部配置.
type httpOptions struct {
	name         string
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
	logger       logger.Logger
}

// defaultHTTPOptions 返回默认 HTTP 配置.
func defaultHTTPOptions() *httpOptions {
	return &httpOptions{
		name:         "metrics",
		addr:         ":9090",
		readTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
		idleTimeout:  60 * time.Second,
	}
}

// WithHTTPName 设置 HTTP 服务器名称.
func WithHTTPName(name string) HTTPOption {
	return func(o *httpOptions) {
		o.name = name
	}
}

// WithHTTPAddr 设置 HTTP 监听地址.
//
// 默认: :9090.
func WithHTTPAddr(addr string) HTTPOption {
	return func(o *httpOptions) {
		o.addr = addr
	}
}

// WithHTTPTimeouts 设置读取、写入与空闲超时.
func WithHTTPTimeouts(read, write, idle time.Duration) HTTPOption {
	return func(o *httpOptions) {
		o.readTimeout = read
		o.writeTimeout = write
		o.idleTimeout = idle
	}
}

// WithHTTPLogger 设置日志记录器.
func WithHTTPLogger(log logger.Logger) HTTPOption {
	return func(o *httpOptions) {
		o.logger = log
	}
}

// SchedulerOption 调度器组件配置选项.
type SchedulerOption func(*schedulerOptions)

// schedulerOptions 调度器组件内部配置.
type schedulerOptions struct {
	name   string
	logger logger.Logger
}

// WithSchedulerName 设置组件名称.
//
// 默认: scheduler.
func WithSchedulerName(name string) SchedulerOption {
	return func(o *schedulerOptions) {
		o.name = name
	}
}

// WithSchedulerLogger 设置日志记录器.
func WithSchedulerLogger(log logger.Logger) SchedulerOption {
	return func(o *schedulerOptions) {
		o.logger = log
	}
}
