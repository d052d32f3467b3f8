// Package server 提供可由 app.Application 管理的组件：
// 暴露指标的 HTTP 服务器与驱动任务调度器的组件.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/Tsukikage7/taskscheduler/logger"
)

// HTTP HTTP 服务器.
type HTTP struct {
	opts    *httpOptions
	handler http.Handler

	mu     sync.Mutex
	server *http.Server
	addr   string
}

// NewHTTP 创建 HTTP 服务器.
//
// 示例:
//
//	srv := server.NewHTTP(metrics.Handler(collector),
//	    server.WithHTTPAddr(":9090"),
//	    server.WithHTTPLogger(log),
//	)
func NewHTTP(handler http.Handler, opts ...HTTPOption) (*HTTP, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	o := defaultHTTPOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.addr == "" {
		return nil, ErrAddrEmpty
	}

	return &HTTP{
		opts:    o,
		handler: handler,
		addr:    o.addr,
	}, nil
}

// Start 启动 HTTP 服务器，阻塞直到 ctx 结束或服务器出错.
func (s *HTTP) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.opts.readTimeout,
		WriteTimeout: s.opts.writeTimeout,
		IdleTimeout:  s.opts.idleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	s.logDebugf("HTTP 服务器启动 [name:%s] [addr:%s]", s.opts.name, ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	return nil
}

// Stop 停止 HTTP 服务器.
func (s *HTTP) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logDebug("HTTP 服务器停止中...")
	return srv.Shutdown(ctx)
}

// Name 返回服务器名称.
func (s *HTTP) Name() string {
	return s.opts.name
}

// Addr 返回服务器地址，启动后为实际监听地址.
func (s *HTTP) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// 日志辅助方法.

func (s *HTTP) logger() logger.Logger {
	return s.opts.logger
}

func (s *HTTP) logDebug(msg string) {
	if log := s.logger(); log != nil {
		log.Debug("[HTTP] " + msg)
	}
}

func (s *HTTP) logDebugf(format string, args ...any) {
	if log := s.logger(); log != nil {
		log.Debugf("[HTTP] "+format, args...)
	}
}
