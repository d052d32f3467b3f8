package scheduler

import (
	"context"
	"time"
)

// TaskContext 任务调用上下文.
type TaskContext struct {
	// Key 任务键（格式化为字符串）.
	Key string

	// ID 任务实例 ID.
	ID string

	// Kind 任务类型.
	Kind Kind

	// StartTime 开始调用时间（引擎时钟）.
	StartTime time.Time

	// Duration 调用耗时（仅在 AfterInvoke/OnPanic 中有值）.
	Duration time.Duration

	// Panic 回调 panic 的值（仅在 AfterInvoke/OnPanic 中有值）.
	Panic any

	// Stack panic 堆栈（仅在 OnPanic 中有值）.
	Stack []byte

	// Skipped 是否被跳过.
	Skipped bool

	// SkipReason 跳过原因.
	SkipReason string
}

// BeforeInvokeHook 回调调用前执行.
// 返回 error 将跳过本次调用，但不影响任务的后续调度.
type BeforeInvokeHook func(ctx context.Context, tc *TaskContext) error

// AfterInvokeHook 回调调用后执行.
type AfterInvokeHook func(ctx context.Context, tc *TaskContext)

// OnPanicHook 回调 panic 时执行.
type OnPanicHook func(ctx context.Context, tc *TaskContext)

// OnSkipHook 调用被跳过时执行.
type OnSkipHook func(ctx context.Context, tc *TaskContext)

// Hooks 任务钩子集合.
//
// 钩子在任务的串行化域中执行，同一任务的钩子不会并发.
type Hooks struct {
	// BeforeInvoke 调用前回调列表.
	BeforeInvoke []BeforeInvokeHook

	// AfterInvoke 调用后回调列表（无论是否 panic 都会调用）.
	AfterInvoke []AfterInvokeHook

	// OnPanic panic 回调列表.
	OnPanic []OnPanicHook

	// OnSkip 跳过回调列表.
	OnSkip []OnSkipHook
}

// runBeforeHooks 执行前置钩子.
func (h *Hooks) runBeforeHooks(ctx context.Context, tc *TaskContext) error {
	if h == nil {
		return nil
	}
	for _, hook := range h.BeforeInvoke {
		if err := hook(ctx, tc); err != nil {
			return err
		}
	}
	return nil
}

// runAfterHooks 执行后置钩子.
func (h *Hooks) runAfterHooks(ctx context.Context, tc *TaskContext) {
	if h == nil {
		return
	}
	for _, hook := range h.AfterInvoke {
		hook(ctx, tc)
	}
}

// runPanicHooks 执行 panic 钩子.
func (h *Hooks) runPanicHooks(ctx context.Context, tc *TaskContext) {
	if h == nil {
		return
	}
	for _, hook := range h.OnPanic {
		hook(ctx, tc)
	}
}

// runSkipHooks 执行跳过钩子.
func (h *Hooks) runSkipHooks(ctx context.Context, tc *TaskContext) {
	if h == nil {
		return
	}
	for _, hook := range h.OnSkip {
		hook(ctx, tc)
	}
}

// HooksBuilder 钩子构建器.
type HooksBuilder struct {
	hooks *Hooks
}

// NewHooks 创建钩子构建器.
func NewHooks() *HooksBuilder {
	return &HooksBuilder{
		hooks: &Hooks{},
	}
}

// BeforeInvoke 添加前置钩子.
func (b *HooksBuilder) BeforeInvoke(hook BeforeInvokeHook) *HooksBuilder {
	b.hooks.BeforeInvoke = append(b.hooks.BeforeInvoke, hook)
	return b
}

// AfterInvoke 添加后置钩子.
func (b *HooksBuilder) AfterInvoke(hook AfterInvokeHook) *HooksBuilder {
	b.hooks.AfterInvoke = append(b.hooks.AfterInvoke, hook)
	return b
}

// OnPanic 添加 panic 钩子.
func (b *HooksBuilder) OnPanic(hook OnPanicHook) *HooksBuilder {
	b.hooks.OnPanic = append(b.hooks.OnPanic, hook)
	return b
}

// OnSkip 添加跳过钩子.
func (b *HooksBuilder) OnSkip(hook OnSkipHook) *HooksBuilder {
	b.hooks.OnSkip = append(b.hooks.OnSkip, hook)
	return b
}

// Build 构建钩子.
func (b *HooksBuilder) Build() *Hooks {
	return b.hooks
}
