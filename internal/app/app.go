// Package app wires configuration, logging, the record store, the Telegram
// transport and the pipeline into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"efrsbmon/internal/classify"
	"efrsbmon/internal/config"
	"efrsbmon/internal/dispatch"
	"efrsbmon/internal/extract"
	"efrsbmon/internal/format"
	"efrsbmon/internal/observability/metrics"
	"efrsbmon/internal/observability/server"
	"efrsbmon/internal/pipeline"
	rtsup "efrsbmon/internal/runtime/supervisor"
	"efrsbmon/internal/storage"
	telegram "efrsbmon/internal/transport/telegram/adapter"
	logx "efrsbmon/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service

	store   storage.Store
	adapter *telegram.Adapter
	orch    *pipeline.Orchestrator
	ops     *server.Server
	systemd *notifier

	// lastCycleErr holds the error of the most recent cycle (nil box when healthy).
	lastCycleErr atomic.Value
}

type cycleResult struct{ err error }

// New loads the config at cfgPath (optional, environment fills the rest)
// and builds every component. Nothing runs until Start.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	set, err := mapSettings(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	ad, err := telegram.New(set.telegram, bootLog)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	// Bootstrap with Telegram logging off, set the target, then apply the
	// final config so Apply never sees an enabled sink without a target.
	bootCfg := set.logging
	bootCfg.Telegram.Enabled = false
	logSvc, log := logx.New(bootCfg, ad)
	if !set.logChat.IsZero() {
		logSvc.SetTelegramTarget(set.logChat)
	}
	logSvc.Apply(set.logging)
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	openCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := storage.Open(openCtx, set.storage, log)
	cancel()
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	classifier, err := classify.New(cfg.CategoryTable())
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, fmt.Errorf("categories: %w", err)
	}
	engine := extract.NewEngine(set.fetch, extract.NewParser(extract.DefaultRules(), classifier), nil)

	formatter := format.New(format.Options{Markup: set.markup})
	dcfg := set.dispatch
	dcfg.ParseMode = formatter.ParseMode()
	disp := dispatch.New(dcfg, ad, log.With(logx.String("comp", "dispatch")), dispatch.WithMetrics(m))

	a := &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		adapter: ad,
		systemd: newNotifier(log.With(logx.String("comp", "systemd"))),
	}
	a.lastCycleErr.Store(cycleResult{})
	a.orch = pipeline.New(set.pipeline, store, engine, formatter, disp, log,
		pipeline.WithMetrics(m),
		pipeline.WithCycleHook(a.cycleDone),
	)
	if set.ops != nil {
		a.ops = server.New(*set.ops, reg, a.health, log)
	}

	log.Info("configured",
		logx.String("channel", set.channel.String()),
		logx.String("storage", strings.ToLower(set.storage.Driver)),
		logx.String("markup", string(set.markup)),
		logx.Int("categories", len(classifier.Table())),
		logx.Bool("ops", a.ops != nil),
	)
	return a, nil
}

func (a *App) cycleDone(err error) {
	a.lastCycleErr.Store(cycleResult{err: err})
	if err == nil {
		a.systemd.Alive()
	}
}

// health fails when the supervisor recorded a fatal error or the last cycle
// could not reach the store.
func (a *App) health() error {
	if a.sup != nil {
		if err := a.sup.Err(); err != nil {
			return err
		}
	}
	if r, ok := a.lastCycleErr.Load().(cycleResult); ok && r.err != nil {
		return r.err
	}
	return nil
}

// Done is closed when the app context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	if err := a.adapter.Start(a.sup.Context()); err != nil {
		return err
	}
	a.sup.GoRestart("pipeline", a.orch.Run, rtsup.WithRestartBackoff(time.Second, time.Minute))

	if a.ops != nil {
		// The ops server is optional; its failure never stops the pipeline.
		a.sup.Go0("ops.server", func(c context.Context) {
			if err := a.ops.Run(c); err != nil {
				a.log.Error("ops server stopped", logx.Err(err))
			}
		})
	}

	sub := a.cfgm.Subscribe(4)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.systemd.Ready()
	a.log.Info("app started")
	return nil
}

// reloadLoop applies logging changes live and reports sections that need a restart.
func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	applied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-sub:
			if !ok {
				return
			}
			live, restart := config.Changes(applied, next)
			if len(restart) > 0 {
				a.log.Warn("config changed; restart required for changes to take effect", logx.String("sections", strings.Join(restart, ",")))
			}
			for _, section := range live {
				if section == "logging" {
					a.applyLogging(next)
				}
			}
			applied = next
		}
	}
}

func (a *App) applyLogging(cfg *config.Config) {
	set, err := mapSettings(cfg)
	if err != nil {
		a.log.Warn("invalid logging config; keeping previous", logx.Err(err))
		return
	}
	// Update the target first so Apply does not warn about a missing chat.
	a.logs.SetTelegramTarget(set.logChat)
	a.logs.Apply(set.logging)
	a.log.Info("logging reconfigured", logx.String("level", set.logging.Level))
}

// Stop cancels every goroutine and releases resources, bounding each step.
func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.systemd.Stopping()
	a.log.Info("stopping")
	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		start := time.Now()
		if err := fn(stepCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err), logx.Duration("took", time.Since(start)))
			return
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}
	step("adapter", 3*time.Second, a.adapter.Stop)
	step("supervisor", 5*time.Second, a.sup.Wait)
	step("storage", time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	return a.logs.Close()
}
