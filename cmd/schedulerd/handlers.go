package main

import (
	"sync/atomic"

	"github.com/Tsukikage7/taskscheduler/logger"
)

// handlers 返回按任务键注册的回调.
//
// 配置文件中的任务键需要在此有对应的回调.
func handlers(log logger.Logger) map[string]func() {
	var beats atomic.Int64

	return map[string]func(){
		"heartbeat": func() {
			log.With(logger.Int("beat", int(beats.Add(1)))).Info("heartbeat")
		},
		"warmup": func() {
			log.Info("warmup finished")
		},
		"flush": func() {
			log.Info("flushing buffered writes")
		},
	}
}
