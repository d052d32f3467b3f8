package scheduler

import "errors"

// 预定义错误.
var (
	// ErrTaskExists 任务已存在，本次注册被忽略.
	ErrTaskExists = errors.New("scheduler: task already exists")

	// ErrKeyEmpty 配置中的任务键为空.
	ErrKeyEmpty = errors.New("scheduler: task key is required")

	// ErrCallbackNil 任务回调为空.
	ErrCallbackNil = errors.New("scheduler: task callback is required")

	// ErrIntervalInvalid 无效的任务间隔.
	ErrIntervalInvalid = errors.New("scheduler: invalid task interval")

	// ErrKindInvalid 无效的任务类型.
	ErrKindInvalid = errors.New("scheduler: invalid task kind")

	// ErrSchedulerClosed 调度器已关闭.
	ErrSchedulerClosed = errors.New("scheduler: scheduler is closed")

	// ErrHandlerNotFound 配置中的任务没有对应的回调.
	ErrHandlerNotFound = errors.New("scheduler: handler not found")

	// ErrWorkersInvalid 无效的工作协程数.
	ErrWorkersInvalid = errors.New("scheduler: workers must be positive")
)
