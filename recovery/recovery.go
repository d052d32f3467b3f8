// Package recovery 提供 panic 恢复功能.
//
// 用于回调调用边界：回调中的 panic 被捕获为 *PanicError，
// 记录日志后返回给调用方，永远不会逃逸到事件分发循环.
//
// 示例:
//
//	err := recovery.Do(callback, recovery.WithLogger(log))
//	if pe, ok := recovery.AsPanic(err); ok {
//	    // pe.Value, pe.Stack
//	}
package recovery

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Tsukikage7/taskscheduler/logger"
)

// Handler 是 panic 处理函数.
//
// 参数:
//   - p: panic 值
//   - stack: 堆栈信息
type Handler func(p any, stack []byte)

// Options 配置选项.
type Options struct {
	// Logger 日志记录器，为空时不记录日志.
	Logger logger.Logger

	// Handler 自定义 panic 处理函数.
	Handler Handler

	// StackSize 堆栈大小，默认 64KB.
	StackSize int

	// StackAll 是否捕获所有 goroutine 的堆栈，默认 false.
	StackAll bool
}

// Option 是配置函数.
type Option func(*Options)

// WithLogger 设置日志记录器.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithHandler 设置自定义 panic 处理函数.
func WithHandler(h Handler) Option {
	return func(o *Options) {
		o.Handler = h
	}
}

// WithStackSize 设置堆栈大小.
func WithStackSize(size int) Option {
	return func(o *Options) {
		o.StackSize = size
	}
}

// WithStackAll 设置是否捕获所有 goroutine 的堆栈.
func WithStackAll(all bool) Option {
	return func(o *Options) {
		o.StackAll = all
	}
}

// defaultOptions 返回默认配置.
func defaultOptions() *Options {
	return &Options{
		StackSize: 64 * 1024, // 64KB
		StackAll:  false,
	}
}

// applyOptions 应用配置选项.
func applyOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.StackSize <= 0 {
		o.StackSize = 64 * 1024
	}
	return o
}

// Do 执行 fn 并捕获 panic.
//
// fn 正常返回时返回 nil；发生 panic 时返回 *PanicError.
func Do(fn func(), opts ...Option) (err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}

		o := applyOptions(opts)
		stack := captureStack(o.StackSize, o.StackAll)

		if o.Logger != nil {
			o.Logger.Errorf("[Recovery] panic recovered [panic:%v]\n%s", p, stack)
		}
		if o.Handler != nil {
			o.Handler(p, stack)
		}

		err = &PanicError{Value: p, Stack: stack}
	}()

	fn()
	return nil
}

// AsPanic 判断 err 是否为 *PanicError.
func AsPanic(err error) (*PanicError, bool) {
	if err == nil {
		return nil, false
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// captureStack 捕获堆栈信息.
func captureStack(size int, all bool) []byte {
	stack := make([]byte, size)
	n := runtime.Stack(stack, all)
	return stack[:n]
}

// PanicError 表示 panic 错误.
type PanicError struct {
	// Value 是 panic 的值.
	Value any
	// Stack 是堆栈信息.
	Stack []byte
}

// Error 实现 error 接口.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap 返回原始错误（如果 panic 值是 error）.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
