package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector Prometheus 指标收集器实现.
type PrometheusCollector struct {
	config *Config

	// 调度器指标
	tasks              prometheus.Gauge
	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	abortsTotal        *prometheus.CounterVec
	panicsTotal        *prometheus.CounterVec

	// 引擎指标
	pendingEvents prometheus.Gauge

	registry *prometheus.Registry
}

var _ Recorder = (*PrometheusCollector)(nil)

// NewPrometheus 创建 Prometheus 指标收集器.
func NewPrometheus(cfg *Config) (*PrometheusCollector, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "taskscheduler"
	}

	// 创建新的注册表，避免与默认注册表冲突
	registry := prometheus.NewRegistry()

	c := &PrometheusCollector{
		config:   cfg,
		registry: registry,
	}

	c.tasks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tasks",
			Help:      "Number of registered tasks",
		},
	)

	c.invocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "invocations_total",
			Help:      "Total number of task callback invocations",
		},
		[]string{"kind"},
	)

	c.invocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "invocation_duration_seconds",
			Help:      "Task callback duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	c.abortsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "aborts_total",
			Help:      "Total number of aborted timer waits",
		},
		[]string{"kind"},
	)

	c.panicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "panics_total",
			Help:      "Total number of panics recovered from task callbacks",
		},
		[]string{"kind"},
	)

	c.pendingEvents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "pending_events",
			Help:      "Number of ready events and pending timer waits, sampled on task registration, invocation and abort",
		},
	)

	collectors := []prometheus.Collector{
		c.tasks,
		c.invocationsTotal,
		c.invocationDuration,
		c.abortsTotal,
		c.panicsTotal,
		c.pendingEvents,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRegisterMetric, err)
		}
	}

	return c, nil
}

// RecordInvocation 记录一次回调调用.
func (c *PrometheusCollector) RecordInvocation(kind string, duration time.Duration) {
	c.invocationsTotal.WithLabelValues(kind).Inc()
	c.invocationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordAbort 记录一次被取消的定时等待.
func (c *PrometheusCollector) RecordAbort(kind string) {
	c.abortsTotal.WithLabelValues(kind).Inc()
}

// RecordPanic 记录一次回调 panic.
func (c *PrometheusCollector) RecordPanic(kind string) {
	c.panicsTotal.WithLabelValues(kind).Inc()
}

// SetTasks 设置已注册任务数.
func (c *PrometheusCollector) SetTasks(count int) {
	c.tasks.Set(float64(count))
}

// SetPendingEvents 设置引擎中的挂起事件数.
func (c *PrometheusCollector) SetPendingEvents(count int) {
	c.pendingEvents.Set(float64(count))
}

// Registry 返回底层注册表.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// GetHandler 返回 metrics 的 HTTP 处理器.
func (c *PrometheusCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetPath 返回 metrics 路径.
func (c *PrometheusCollector) GetPath() string {
	if c.config.Path == "" {
		return "/metrics"
	}
	return c.config.Path
}
