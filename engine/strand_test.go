package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrand_FIFOAndOneEventPerPoll(t *testing.T) {
	e := New()
	s := e.NewStrand()

	var got []int
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Post(func() { got = append(got, i) }))
	}

	// 同一时刻只有一个事件在引擎中排队
	assert.Equal(t, 1, e.Pending())

	assert.True(t, e.PollOne())
	assert.Equal(t, []int{0}, got)
	assert.True(t, e.PollOne())
	assert.True(t, e.PollOne())
	assert.False(t, e.PollOne())
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestStrand_InterleavesWithOtherWork(t *testing.T) {
	e := New()
	s := e.NewStrand()

	var order []string
	_ = s.Post(func() { order = append(order, "s1") })
	_ = s.Post(func() { order = append(order, "s2") })
	_ = e.Post(func() { order = append(order, "e1") })

	drain(e)
	assert.Equal(t, []string{"s1", "e1", "s2"}, order)
}

func TestStrand_PostAfterStop(t *testing.T) {
	e := New()
	s := e.NewStrand()
	e.Stop()

	assert.ErrorIs(t, s.Post(func() {}), ErrStopped)
}

func TestStrand_ContinuesAfterPanic(t *testing.T) {
	e := New()
	s := e.NewStrand()

	var ran bool
	_ = s.Post(func() { panic("boom") })
	_ = s.Post(func() { ran = true })

	assert.NotPanics(t, func() { drain(e) })
	assert.True(t, ran)
}

func TestStrand_NoOverlapUnderWorkers(t *testing.T) {
	e := New()

	const (
		strands   = 4
		perStrand = 200
	)

	var (
		wg      sync.WaitGroup
		overlap atomic.Bool
		total   atomic.Int64
	)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.Run(context.Background())
		}()
	}

	for i := 0; i < strands; i++ {
		s := e.NewStrand()
		var active atomic.Int32
		var last atomic.Int64
		last.Store(-1)
		for j := 0; j < perStrand; j++ {
			require.NoError(t, s.Post(func() {
				if active.Add(1) != 1 {
					overlap.Store(true)
				}
				if last.Swap(int64(j)) != int64(j-1) {
					overlap.Store(true)
				}
				active.Add(-1)
				total.Add(1)
			}))
		}
	}

	assert.Eventually(t, func() bool {
		return total.Load() == strands*perStrand
	}, 5*time.Second, time.Millisecond)

	e.Stop()
	wg.Wait()

	assert.False(t, overlap.Load(), "strand events overlapped or ran out of order")
}
