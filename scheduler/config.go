package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config 调度器配置.
type Config struct {
	// Workers 工作协程数，默认 1
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
	// Tasks 配置定义的任务
	Tasks []TaskConfig `json:"tasks" yaml:"tasks" mapstructure:"tasks"`
}

// TaskConfig 任务配置.
type TaskConfig struct {
	// Key 任务键，同时用于查找回调
	Key string `json:"key" yaml:"key" mapstructure:"key"`
	// Kind 任务类型: once, periodic, trigger
	Kind string `json:"kind" yaml:"kind" mapstructure:"kind"`
	// Interval 间隔，支持 Go duration（如 1m30s）或 @every 描述符
	Interval string `json:"interval" yaml:"interval" mapstructure:"interval"`
}

// Validate 验证配置.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return ErrWorkersInvalid
	}
	seen := make(map[string]struct{}, len(c.Tasks))
	for _, tc := range c.Tasks {
		if _, _, err := tc.Parse(); err != nil {
			return err
		}
		if _, dup := seen[tc.Key]; dup {
			return fmt.Errorf("%w: %s", ErrTaskExists, tc.Key)
		}
		seen[tc.Key] = struct{}{}
	}
	return nil
}

// Options 返回配置对应的调度器选项.
func (c *Config) Options() []Option {
	if c.Workers > 0 {
		return []Option{WithWorkers(c.Workers)}
	}
	return nil
}

// Parse 解析任务类型与间隔.
func (tc TaskConfig) Parse() (Kind, time.Duration, error) {
	if tc.Key == "" {
		return 0, 0, ErrKeyEmpty
	}
	kind, err := ParseKind(tc.Kind)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s [key:%s]", err, tc.Kind, tc.Key)
	}
	interval, err := ParseInterval(tc.Interval)
	if err != nil {
		return 0, 0, fmt.Errorf("%w [key:%s]", err, tc.Key)
	}
	if kind == KindPeriodic && interval == 0 {
		return 0, 0, fmt.Errorf("%w: periodic task needs a positive interval [key:%s]", ErrIntervalInvalid, tc.Key)
	}
	return kind, interval, nil
}

// ParseInterval 解析间隔.
//
// 支持 Go duration（"1m30s"）与 cron 的 "@every <duration>" 描述符，
// 后者按 cron 规则取整到秒且不小于 1 秒. 空字符串表示 0.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if strings.HasPrefix(s, "@every") {
		schedule, err := cron.ParseStandard(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrIntervalInvalid, err)
		}
		every, ok := schedule.(cron.ConstantDelaySchedule)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrIntervalInvalid, s)
		}
		return every.Delay, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIntervalInvalid, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s", ErrIntervalInvalid, s)
	}
	return d, nil
}

// Register 将配置定义的任务注册到调度器.
//
// 每个任务的回调通过 Key 在 handlers 中查找. 所有任务都会尝试注册，
// 返回的错误汇总了全部失败项.
func Register(s *Scheduler[string], tasks []TaskConfig, handlers map[string]func()) error {
	var errs []error
	for _, tc := range tasks {
		if err := register(s, tc, handlers); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Apply 使调度器中的任务与配置一致.
//
// 移除配置中不再存在的键，注册新增的键；已存在的键保持不变.
// 适用于配置热更新.
func Apply(s *Scheduler[string], tasks []TaskConfig, handlers map[string]func()) error {
	wanted := make(map[string]struct{}, len(tasks))
	for _, tc := range tasks {
		wanted[tc.Key] = struct{}{}
	}
	for _, key := range s.Keys() {
		if _, ok := wanted[key]; !ok {
			s.RemoveTask(key)
		}
	}

	var errs []error
	for _, tc := range tasks {
		if err := register(s, tc, handlers); err != nil && !errors.Is(err, ErrTaskExists) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func register(s *Scheduler[string], tc TaskConfig, handlers map[string]func()) error {
	kind, interval, err := tc.Parse()
	if err != nil {
		return err
	}
	fn, ok := handlers[tc.Key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, tc.Key)
	}
	if err := s.AddTask(tc.Key, interval, kind, fn); err != nil {
		return fmt.Errorf("%w [key:%s]", err, tc.Key)
	}
	return nil
}
