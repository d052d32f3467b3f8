package app

import (
	"context"

	"github.com/Tsukikage7/taskscheduler/logger"
)

// Phase 生命周期阶段.
type Phase int

const (
	// BeforeStart 组件启动前，如注册配置中的任务. 钩子失败会中止 Run.
	BeforeStart Phase = iota
	// AfterStart 组件启动后.
	AfterStart
	// BeforeStop 组件停止前.
	BeforeStop
	// AfterStop 清理任务执行后.
	AfterStop
)

// String 返回阶段名称.
func (p Phase) String() string {
	switch p {
	case BeforeStart:
		return "before_start"
	case AfterStart:
		return "after_start"
	case BeforeStop:
		return "before_stop"
	case AfterStop:
		return "after_stop"
	default:
		return "unknown"
	}
}

// Hook 生命周期钩子函数.
type Hook func(ctx context.Context) error

// hookSet 按阶段分组的钩子.
type hookSet map[Phase][]Hook

// run 按注册顺序执行某个阶段的钩子.
//
// BeforeStart 阶段遇到第一个错误即返回；其他阶段记录错误后继续执行剩余钩子.
func (h hookSet) run(ctx context.Context, p Phase, log logger.Logger) error {
	for _, hook := range h[p] {
		err := hook(ctx)
		if err == nil {
			continue
		}
		if p == BeforeStart {
			return err
		}
		log.With(
			logger.String("phase", p.String()),
			logger.Err(err),
		).Error("[App] hook failed")
	}
	return nil
}
