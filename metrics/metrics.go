// Package metrics 提供调度器的 Prometheus 指标收集功能.
package metrics

import (
	"net/http"
	"time"
)

// Recorder 调度器指标记录接口.
//
// kind 为任务类型（once/periodic/trigger）.
type Recorder interface {
	// RecordInvocation 记录一次回调调用及其耗时.
	RecordInvocation(kind string, duration time.Duration)

	// RecordAbort 记录一次被取消的定时等待.
	RecordAbort(kind string)

	// RecordPanic 记录一次回调 panic.
	RecordPanic(kind string)

	// SetTasks 设置已注册任务数.
	SetTasks(count int)

	// SetPendingEvents 设置引擎中的挂起事件数，在任务注册、调用与取消时采样.
	SetPendingEvents(count int)
}

// NewMetrics 创建指标收集器.
func NewMetrics(cfg *Config) (*PrometheusCollector, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	return NewPrometheus(cfg)
}

// MustNewMetrics 创建指标收集器，失败时 panic.
func MustNewMetrics(cfg *Config) *PrometheusCollector {
	c, err := NewMetrics(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Handler 返回暴露 c 的 HTTP 处理器，挂载在 c.GetPath() 上.
func Handler(c *PrometheusCollector) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(c.GetPath(), c.GetHandler())
	return mux
}
