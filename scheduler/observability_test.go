package scheduler

import (
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tsukikage7/taskscheduler/engine"
	"github.com/Tsukikage7/taskscheduler/logger"
	"github.com/Tsukikage7/taskscheduler/metrics"
)

// fakeRecorder 记录指标调用.
type fakeRecorder struct {
	mu          sync.Mutex
	invocations map[string]int
	aborts      map[string]int
	panics      map[string]int
	tasks       int
	pending     int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		invocations: make(map[string]int),
		aborts:      make(map[string]int),
		panics:      make(map[string]int),
	}
}

func (r *fakeRecorder) RecordInvocation(kind string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations[kind]++
}

func (r *fakeRecorder) RecordAbort(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborts[kind]++
}

func (r *fakeRecorder) RecordPanic(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics[kind]++
}

func (r *fakeRecorder) SetTasks(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = count
}

func (r *fakeRecorder) SetPendingEvents(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = count
}

func drainAll(s *Scheduler[string]) {
	for s.PollOne() {
	}
}

func TestScheduler_Metrics(t *testing.T) {
	clock := engine.NewManualClock(epoch)
	rec := newFakeRecorder()
	s := MustNew[string](WithClock(clock), WithMetrics(rec))
	defer s.Close()

	require.NoError(t, s.AddTask("tick", time.Second, KindPeriodic, func() {}))
	require.NoError(t, s.AddTask("bad", time.Second, KindOnce, func() { panic("boom") }))
	require.NoError(t, s.AddTask("trig", time.Second, KindTrigger, func() {}))
	assert.Equal(t, 3, rec.tasks)

	drainAll(s)
	s.Interrupt("trig")
	drainAll(s)
	s.Interrupt("trig")
	drainAll(s)

	clock.Advance(time.Second)
	drainAll(s)

	assert.Equal(t, 2, rec.invocations["periodic"])
	assert.Equal(t, 1, rec.invocations["once"])
	assert.Equal(t, 1, rec.invocations["trigger"])
	assert.Equal(t, 1, rec.panics["once"])
	assert.Equal(t, 1, rec.aborts["trigger"])
	assert.Equal(t, 1, rec.pending, "only the periodic wait remains")

	s.RemoveTask("tick")
	assert.Equal(t, 2, rec.tasks)

	drainAll(s)
	assert.Equal(t, 0, rec.pending, "removed wait is no longer counted")
	assert.Equal(t, 1, rec.aborts["periodic"])
}

func TestScheduler_PrometheusCollector(t *testing.T) {
	clock := engine.NewManualClock(epoch)
	collector := metrics.MustNewMetrics(metrics.DefaultConfig())
	s := MustNew[string](WithClock(clock), WithMetrics(collector))
	defer s.Close()

	require.NoError(t, s.AddTask("tick", time.Second, KindPeriodic, func() {}))
	drainAll(s)

	srv := httptest.NewServer(metrics.Handler(collector))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + collector.GetPath())
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `taskscheduler_scheduler_invocations_total{kind="periodic"} 1`)
	assert.Contains(t, string(body), "taskscheduler_scheduler_tasks 1")
}

func TestScheduler_Tracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	clock := engine.NewManualClock(epoch)
	s := MustNew[string](WithClock(clock), WithTracer(tp.Tracer("scheduler-test")))
	defer s.Close()

	require.NoError(t, s.AddTask("ok", time.Second, KindPeriodic, func() {}))
	require.NoError(t, s.AddTask("bad", 0, KindOnce, func() { panic("boom") }))
	drainAll(s)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	byKey := make(map[string]sdktrace.ReadOnlySpan)
	for _, span := range spans {
		assert.Equal(t, "scheduler.invoke", span.Name())
		for _, kv := range span.Attributes() {
			if kv.Key == "task.key" {
				byKey[kv.Value.AsString()] = span
			}
		}
	}

	require.Contains(t, byKey, "ok")
	require.Contains(t, byKey, "bad")

	okSpan := byKey["ok"]
	assert.Contains(t, okSpan.Attributes(), attribute.String("task.kind", "periodic"))
	assert.NotEqual(t, codes.Error, okSpan.Status().Code)

	badSpan := byKey["bad"]
	assert.Contains(t, badSpan.Attributes(), attribute.String("task.kind", "once"))
	assert.Equal(t, codes.Error, badSpan.Status().Code)
	assert.Equal(t, "boom", badSpan.Status().Description)
	assert.NotEmpty(t, badSpan.Events(), "panic recorded as span event")

	stats, _ := s.Stats("bad")
	assert.Contains(t, badSpan.Attributes(), attribute.String("task.id", stats.ID))
}

func TestScheduler_PanicLoggedWithTraceContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	clock := engine.NewManualClock(epoch)
	s := MustNew[string](
		WithClock(clock),
		WithLogger(log),
		WithTracer(tp.Tracer("scheduler-test")),
	)
	defer s.Close()

	require.NoError(t, s.AddTask("bad", 0, KindOnce, func() { panic("boom") }))
	drainAll(s)

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "[Recovery] panic recovered [panic:boom]")

	fields := entries[0].ContextMap()
	assert.Equal(t, "bad", fields["task.key"])
	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, sr.Ended()[0].SpanContext().TraceID().String(), fields["traceId"])
}
