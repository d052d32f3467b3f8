package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tsukikage7/taskscheduler/engine"
	"github.com/Tsukikage7/taskscheduler/logger"
	"github.com/Tsukikage7/taskscheduler/recovery"
	"github.com/Tsukikage7/taskscheduler/tracing"
)

// variant 任务类型的调度策略.
//
// start 与 fired 都在任务的串行化域中执行.
type variant interface {
	// autoStart 创建后是否自动启动.
	autoStart() bool
	// start 启动或重新启动任务.
	start(t *task)
	// fired 定时器正常到期.
	fired(t *task)
}

// task 一个已注册的调度单元.
//
// 状态: Idle → Waiting → Invoking → Waiting/Idle，或 Terminal（cancelled 为 true）.
type task struct {
	id       string
	key      string
	kind     Kind
	interval time.Duration
	callback func()

	cancelled atomic.Bool
	timer     *engine.Timer
	strand    *engine.Strand
	policy    variant
	stats     *TaskStats

	eng  *engine.Engine
	opts *options
}

// newTask 创建任务，不会启动.
func newTask(eng *engine.Engine, opts *options, key string, kind Kind, interval time.Duration, fn func()) *task {
	t := &task{
		id:       uuid.NewString(),
		key:      key,
		kind:     kind,
		interval: interval,
		callback: fn,
		timer:    eng.NewTimer(),
		strand:   eng.NewStrand(),
		eng:      eng,
		opts:     opts,
	}
	t.stats = &TaskStats{ID: t.id, Kind: kind}

	switch kind {
	case KindOnce:
		t.policy = onceVariant{}
	case KindPeriodic:
		t.policy = periodicVariant{}
	case KindTrigger:
		t.policy = triggerVariant{}
	}
	return t
}

// activate 自动启动类型在此投递 start，与构造分离.
func (t *task) activate() {
	if t.policy.autoStart() {
		t.post()
	}
}

// post 在串行化域中投递 start.
func (t *task) post() {
	if err := t.strand.Post(t.start); err != nil {
		t.logDebugf("任务启动被忽略 [key:%s] [error:%v]", t.key, err)
	}
}

// start 按类型策略启动任务. 已终止的任务不会重新启动.
func (t *task) start() {
	if t.cancelled.Load() {
		return
	}
	t.policy.start(t)
}

// wait 在定时器上挂起一次等待.
func (t *task) wait() {
	if t.cancelled.Load() {
		return
	}
	if err := t.timer.Wait(t.strand, t.execute); err != nil {
		t.logDebugf("定时等待未挂起 [key:%s] [error:%v]", t.key, err)
	}
}

// execute 定时器完成处理.
//
// 被取消的等待既不调用回调也不重新挂起，保证取消与到期之间没有竞态.
func (t *task) execute(err error) {
	if errors.Is(err, engine.ErrAborted) {
		t.stats.recordAbort()
		if m := t.opts.metrics; m != nil {
			m.RecordAbort(t.kind.String())
			m.SetPendingEvents(t.eng.Pending())
		}
		return
	}
	if t.cancelled.Load() {
		return
	}
	t.policy.fired(t)
}

// cancel 终止任务，可重复调用.
func (t *task) cancel() {
	if !t.cancelled.CompareAndSwap(false, true) {
		return
	}
	t.stats.recordCancel()
	t.timer.Cancel()
	t.logDebugf("任务已终止 [key:%s] [id:%s]", t.key, t.id)
}

// invoke 调用回调.
//
// 回调、钩子与指标记录中的 panic 都在此被捕获，
// 调用方随后的重新挂起或终止总会执行.
func (t *task) invoke() {
	_ = recovery.Do(t.run, recovery.WithLogger(t.log(context.Background())))
}

// run 执行一次调用：前置钩子、回调、统计、指标与后置钩子.
func (t *task) run() {
	ctx := context.Background()
	if t.opts.tracer != nil {
		var span trace.Span
		ctx, span = t.opts.tracer.Start(ctx, "scheduler.invoke",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("task.key", t.key),
				attribute.String("task.kind", t.kind.String()),
				attribute.String("task.id", t.id),
			),
		)
		defer span.End()
		ctx = tracing.ContextWithSpan(ctx, span)
	}

	tc := &TaskContext{
		Key:       t.key,
		ID:        t.id,
		Kind:      t.kind,
		StartTime: t.eng.Now(),
	}

	if err := t.opts.hooks.runBeforeHooks(ctx, tc); err != nil {
		tc.Skipped = true
		tc.SkipReason = err.Error()
		t.stats.recordSkip()
		t.opts.hooks.runSkipHooks(ctx, tc)
		t.logDebugf("前置钩子跳过本次调用 [key:%s] [error:%v]", t.key, err)
		return
	}

	begin := time.Now()
	err := recovery.Do(t.callback, recovery.WithLogger(t.log(ctx)))
	tc.Duration = time.Since(begin)

	pe, panicked := recovery.AsPanic(err)
	if panicked {
		tc.Panic = pe.Value
		tc.Stack = pe.Stack
	}
	t.stats.recordInvoke(tc.StartTime, tc.Duration, tc.Panic)

	if m := t.opts.metrics; m != nil {
		m.RecordInvocation(t.kind.String(), tc.Duration)
		if panicked {
			m.RecordPanic(t.kind.String())
		}
		m.SetPendingEvents(t.eng.Pending())
	}

	if panicked {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprint(pe.Value))
		t.opts.hooks.runPanicHooks(ctx, tc)
	}
	t.opts.hooks.runAfterHooks(ctx, tc)
}

// onceVariant 到期调用一次后终止.
type onceVariant struct{}

func (onceVariant) autoStart() bool { return true }

func (onceVariant) start(t *task) {
	t.timer.ExpiresAfter(t.interval)
	t.wait()
}

func (onceVariant) fired(t *task) {
	t.invoke()
	t.cancel()
}

// periodicVariant 启动时立即调用，之后按上一次到期时间累加 interval 重新挂起.
type periodicVariant struct{}

func (periodicVariant) autoStart() bool { return true }

func (periodicVariant) start(t *task) {
	t.invoke()
	t.timer.ExpiresAfter(t.interval)
	t.wait()
}

func (periodicVariant) fired(t *task) {
	// 以上一次的到期时间为基准，回调耗时与调度抖动不会累积
	t.timer.ExpiresAtTime(t.timer.ExpiresAt().Add(t.interval))
	t.invoke()
	t.wait()
}

// triggerVariant 每次启动后延迟 interval 调用一次，不自动重新挂起.
type triggerVariant struct{}

func (triggerVariant) autoStart() bool { return false }

func (triggerVariant) start(t *task) {
	t.timer.ExpiresAfter(t.interval)
	t.wait()
}

func (triggerVariant) fired(t *task) {
	t.invoke()
}

// 日志辅助方法.

func (t *task) log(ctx context.Context) logger.Logger {
	if t.opts.logger == nil {
		return nil
	}
	return t.opts.logger.WithContext(ctx).With(
		logger.String("task.key", t.key),
		logger.String("task.kind", t.kind.String()),
	)
}

func (t *task) logDebugf(format string, args ...any) {
	if log := t.opts.logger; log != nil {
		log.Debugf("[Scheduler] "+format, args...)
	}
}
