// schedulerd 从配置文件加载任务并运行调度器.
//
// 配置变更会被热加载：新增的任务被注册，删除的任务被移除.
// 发送 SIGUSR1 会触发 flush 任务.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tsukikage7/taskscheduler/app"
	"github.com/Tsukikage7/taskscheduler/config"
	"github.com/Tsukikage7/taskscheduler/logger"
	"github.com/Tsukikage7/taskscheduler/metrics"
	"github.com/Tsukikage7/taskscheduler/scheduler"
	"github.com/Tsukikage7/taskscheduler/server"
	"github.com/Tsukikage7/taskscheduler/tracing"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	changes := make(chan reloadEvent, 1)
	cfg, err := config.Watch[Config](cfgPath, func(c *Config, err error) {
		select {
		case changes <- reloadEvent{cfg: c, err: err}:
		default:
		}
	}, config.WithEnvPrefix("SCHEDULERD"), config.WithDefaults(defaults()))
	if err != nil {
		return err
	}

	cfg.Logger.ServiceName = cfg.Name
	log, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		return err
	}

	tp, err := tracing.NewTracer(&cfg.Tracing, cfg.Name, cfg.Version)
	if err != nil {
		return err
	}

	opts := append(cfg.Scheduler.Options(),
		scheduler.WithLogger(log),
		scheduler.WithTracer(tp.Tracer("github.com/Tsukikage7/taskscheduler/scheduler")),
	)

	var collector *metrics.PrometheusCollector
	if cfg.Metrics.Enabled {
		collector, err = metrics.NewMetrics(&cfg.Metrics)
		if err != nil {
			return err
		}
		opts = append(opts, scheduler.WithMetrics(collector))
	}

	s, err := scheduler.New[string](opts...)
	if err != nil {
		return err
	}

	fns := handlers(log)

	a, err := app.New(
		app.Name(cfg.Name),
		app.Version(cfg.Version),
		app.Logger(log),
		app.GracefulTimeout(cfg.ShutdownTimeout),
		app.On(app.BeforeStart, func(context.Context) error {
			if err := scheduler.Register(s, cfg.Scheduler.Tasks, fns); err != nil {
				log.With(logger.Err(err)).Warn("some configured tasks were not registered")
			}
			return nil
		}),
		app.Go("flush-signal", func(ctx context.Context) {
			interruptOnSignal(ctx, s, "flush", syscall.SIGUSR1)
		}),
		app.Go("config-reload", func(ctx context.Context) {
			applyReloads(ctx, changes, s, fns, log)
		}),
		app.RegisterCleanup("tracer", tp.Shutdown, 10),
		app.RegisterCloser("logger", log, 100),
	)
	if err != nil {
		return err
	}

	component, err := server.NewScheduler(s, server.WithSchedulerLogger(log))
	if err != nil {
		return err
	}
	a.Use(component)

	if collector != nil {
		httpSrv, err := server.NewHTTP(metrics.Handler(collector),
			server.WithHTTPAddr(cfg.Metrics.Addr),
			server.WithHTTPLogger(log),
		)
		if err != nil {
			return err
		}
		a.Use(httpSrv)
	}

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// interruptOnSignal 收到 sig 时触发 key 对应的任务.
func interruptOnSignal(ctx context.Context, s *scheduler.Scheduler[string], key string, sig os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			s.Interrupt(key)
		}
	}
}

// reloadEvent 一次配置变更.
type reloadEvent struct {
	cfg *Config
	err error
}

// applyReloads 将配置变更同步到调度器.
func applyReloads(ctx context.Context, changes <-chan reloadEvent, s *scheduler.Scheduler[string], fns map[string]func(), log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-changes:
			if ev.err != nil {
				log.With(logger.Err(ev.err)).Error("config reload failed")
				continue
			}
			if err := scheduler.Apply(s, ev.cfg.Scheduler.Tasks, fns); err != nil {
				log.With(logger.Err(err)).Warn("config reload partially applied")
			}
			log.With(logger.Int("tasks", s.Len())).Info("config reloaded")
		}
	}
}
