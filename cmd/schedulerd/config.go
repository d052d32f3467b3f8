package main

import (
	"time"

	"github.com/Tsukikage7/taskscheduler/logger"
	"github.com/Tsukikage7/taskscheduler/metrics"
	"github.com/Tsukikage7/taskscheduler/scheduler"
	"github.com/Tsukikage7/taskscheduler/tracing"
)

// Config schedulerd 配置.
type Config struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`

	// ShutdownTimeout 优雅关闭超时，包含等待调度器工作协程退出.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Logger    logger.Config         `mapstructure:"logger"`
	Metrics   metrics.Config        `mapstructure:"metrics"`
	Tracing   tracing.TracingConfig `mapstructure:"tracing"`
	Scheduler scheduler.Config      `mapstructure:"scheduler"`
}

// Validate 验证配置.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	return c.Scheduler.Validate()
}

// defaults 配置默认值.
func defaults() map[string]any {
	return map[string]any{
		"name":              "schedulerd",
		"version":           "dev",
		"shutdown_timeout":  "15s",
		"logger.level":      logger.LevelInfo,
		"logger.format":     logger.FormatConsole,
		"metrics.enabled":   true,
		"metrics.path":      "/metrics",
		"metrics.addr":      ":9090",
		"metrics.namespace": "taskscheduler",
		"scheduler.workers": 2,
	}
}
