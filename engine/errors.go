package engine

import "errors"

// 预定义错误.
var (
	// ErrAborted 等待被取消（定时器被取消或重新设置了到期时间）.
	//
	// 这不是失败，而是正常的取消通知.
	ErrAborted = errors.New("engine: operation aborted")

	// ErrStopped 引擎已停止，不再接受新的工作.
	ErrStopped = errors.New("engine: engine is stopped")
)
