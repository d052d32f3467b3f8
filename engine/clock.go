package engine

import (
	"sync"
	"time"
)

// Clock 时间来源.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 返回系统时钟.
func SystemClock() Clock { return systemClock{} }

// ManualClock 手动推进的时钟.
//
// 配合 PollOne 使用可以逐步驱动引擎，得到确定性的测试结果.
// 阻塞式的 Run/RunOne 仍按真实时间休眠，不适合与 ManualClock 一起使用.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock 创建从 start 开始的手动时钟.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now 返回当前时间.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance 将时钟向前推进 d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set 将时钟设置为 t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
