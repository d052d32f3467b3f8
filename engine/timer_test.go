package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// result 记录等待完成的结果.
type result struct {
	errs []error
}

func (r *result) handler(err error) { r.errs = append(r.errs, err) }

func TestTimer_FiresAtDeadline(t *testing.T) {
	clock := NewManualClock(epoch)
	e := New(WithClock(clock))

	timer := e.NewTimer()
	assert.Equal(t, epoch, timer.ExpiresAt())

	timer.ExpiresAfter(5 * time.Second)
	assert.Equal(t, epoch.Add(5*time.Second), timer.ExpiresAt())

	var r result
	require.NoError(t, timer.Wait(nil, r.handler))

	clock.Advance(4 * time.Second)
	assert.False(t, e.PollOne())
	assert.Empty(t, r.errs)

	clock.Advance(time.Second)
	assert.True(t, e.PollOne())
	assert.Equal(t, []error{nil}, r.errs)
	assert.Equal(t, 0, e.Pending())
}

func TestTimer_OrderByDeadlineThenSeq(t *testing.T) {
	clock := NewManualClock(epoch)
	e := New(WithClock(clock))

	var order []string
	arm := func(name string, at time.Duration) {
		timer := e.NewTimer()
		timer.ExpiresAtTime(epoch.Add(at))
		require.NoError(t, timer.Wait(nil, func(error) { order = append(order, name) }))
	}

	arm("c", 3*time.Second)
	arm("a1", time.Second)
	arm("b", 2*time.Second)
	arm("a2", time.Second)

	clock.Advance(time.Minute)
	assert.Equal(t, 4, drain(e))
	assert.Equal(t, []string{"a1", "a2", "b", "c"}, order)
}

func TestTimer_CancelAbortsPendingWaits(t *testing.T) {
	clock := NewManualClock(epoch)
	e := New(WithClock(clock))

	timer := e.NewTimer()
	timer.ExpiresAfter(time.Second)

	var r result
	require.NoError(t, timer.Wait(nil, r.handler))
	require.NoError(t, timer.Wait(nil, r.handler))

	assert.Equal(t, 2, timer.Cancel())
	assert.Equal(t, 0, timer.Cancel())

	assert.Equal(t, 2, drain(e))
	require.Len(t, r.errs, 2)
	for _, err := range r.errs {
		assert.ErrorIs(t, err, ErrAborted)
	}

	clock.Advance(time.Minute)
	assert.False(t, e.PollOne())
}

func TestTimer_ResetAbortsPendingWait(t *testing.T) {
	clock := NewManualClock(epoch)
	e := New(WithClock(clock))

	timer := e.NewTimer()
	timer.ExpiresAfter(time.Second)

	var first, second result
	require.NoError(t, timer.Wait(nil, first.handler))

	assert.Equal(t, 1, timer.ExpiresAfter(3*time.Second))
	require.NoError(t, timer.Wait(nil, second.handler))

	drain(e)
	require.Len(t, first.errs, 1)
	assert.True(t, errors.Is(first.errs[0], ErrAborted))

	clock.Advance(time.Second)
	assert.False(t, e.PollOne())

	clock.Advance(2 * time.Second)
	assert.True(t, e.PollOne())
	assert.Equal(t, []error{nil}, second.errs)
}

func TestTimer_CancelAfterFireBeforeDispatch(t *testing.T) {
	clock := NewManualClock(epoch)
	e := New(WithClock(clock))
	strand := e.NewStrand()

	timer := e.NewTimer()
	var r result
	require.NoError(t, timer.Wait(strand, r.handler))

	// 串行化域中排在前面的事件在等待已到期、尚未分发时取消定时器
	var cancelled int
	require.NoError(t, strand.Post(func() {
		cancelled = timer.Cancel()
	}))

	assert.True(t, e.PollOne())
	assert.Equal(t, 1, cancelled)
	assert.Empty(t, r.errs)

	assert.True(t, e.PollOne())
	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], ErrAborted)
	assert.False(t, e.PollOne())
}

func TestTimer_ExpiresAtTimeInPast(t *testing.T) {
	clock := NewManualClock(epoch)
	e := New(WithClock(clock))

	timer := e.NewTimer()
	timer.ExpiresAtTime(epoch.Add(-time.Hour))

	var r result
	require.NoError(t, timer.Wait(nil, r.handler))

	assert.True(t, e.PollOne())
	assert.Equal(t, []error{nil}, r.errs)
}

func TestTimer_RewaitFromHandler(t *testing.T) {
	clock := NewManualClock(epoch)
	e := New(WithClock(clock))
	strand := e.NewStrand()
	timer := e.NewTimer()

	var ticks []time.Time
	var handler func(error)
	handler = func(err error) {
		if err != nil {
			return
		}
		ticks = append(ticks, timer.ExpiresAt())
		assert.Equal(t, 0, timer.ExpiresAtTime(timer.ExpiresAt().Add(time.Second)))
		_ = timer.Wait(strand, handler)
	}

	timer.ExpiresAfter(time.Second)
	require.NoError(t, timer.Wait(strand, handler))

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		drain(e)
	}

	assert.Equal(t, []time.Time{
		epoch.Add(time.Second),
		epoch.Add(2 * time.Second),
		epoch.Add(3 * time.Second),
	}, ticks)
	assert.Equal(t, 1, e.Pending())
}
