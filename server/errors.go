package server

import "errors"

// 预定义错误.
var (
	// ErrAddrEmpty 地址为空.
	ErrAddrEmpty = errors.New("server: address is empty")

	// ErrNilHandler 处理器为空.
	ErrNilHandler = errors.New("server: handler is nil")

	// ErrNilRunner 调度器为空.
	ErrNilRunner = errors.New("server: runner is nil")
)
