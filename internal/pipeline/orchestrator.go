// Package pipeline drives the poll, extract, filter, format and dispatch loop.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"efrsbmon/internal/extract"
	"efrsbmon/internal/notice"
	"efrsbmon/internal/observability/metrics"
	"efrsbmon/internal/storage"
	logx "efrsbmon/pkg/logx"
)

type Extractor interface {
	Extract(ctx context.Context, link string) ([]notice.Lot, error)
}

type Formatter interface {
	Format(lot notice.Lot) string
}

type Dispatcher interface {
	Dispatch(ctx context.Context, text string) error
}

type Config struct {
	PageSize     int           // default 100
	Interval     time.Duration // idle time after a cycle; default 60s
	MessageDelay time.Duration // minimum gap between sends; default 1.5s
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

func WithMetrics(m *metrics.Pipeline) Option { return func(o *Orchestrator) { o.metrics = m } }

// WithPacer replaces the limiter wait that spaces consecutive sends.
func WithPacer(wait func(ctx context.Context) error) Option {
	return func(o *Orchestrator) { o.pace = wait }
}

// WithCycleHook registers fn to run after every cycle, successful or not.
func WithCycleHook(fn func(err error)) Option { return func(o *Orchestrator) { o.onCycle = fn } }

// Orchestrator processes unsent notices one at a time. It is not safe for
// concurrent RunCycle calls.
type Orchestrator struct {
	cfg        Config
	store      storage.Store
	extractor  Extractor
	formatter  Formatter
	dispatcher Dispatcher
	log        logx.Logger
	metrics    *metrics.Pipeline

	now     func() time.Time
	pace    func(ctx context.Context) error
	onCycle func(err error)
}

func New(cfg Config, store storage.Store, ex Extractor, f Formatter, d Dispatcher, log logx.Logger, opts ...Option) *Orchestrator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.MessageDelay <= 0 {
		cfg.MessageDelay = 1500 * time.Millisecond
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	o := &Orchestrator{
		cfg: cfg, store: store, extractor: ex, formatter: f, dispatcher: d,
		log: log.With(logx.String("comp", "pipeline")),
		now: time.Now,
	}
	limiter := rate.NewLimiter(rate.Every(cfg.MessageDelay), 1)
	o.pace = limiter.Wait
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run repeats RunCycle with Interval between cycles until ctx is done.
// Cycle errors are logged and never stop the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log.Info("pipeline started", logx.Duration("interval", o.cfg.Interval), logx.Int("page_size", o.cfg.PageSize))
	for {
		if err := o.RunCycle(ctx); err != nil && ctx.Err() == nil {
			o.log.Error("cycle aborted", logx.Err(err))
		}
		t := time.NewTimer(o.cfg.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			o.log.Info("pipeline stopped")
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RunCycle makes one pass over the unsent notices, paging by id. A store
// failure while fetching ends the cycle and is returned; every other failure
// is confined to the record it happened on.
func (o *Orchestrator) RunCycle(ctx context.Context) (err error) {
	started := o.now()
	defer func() {
		o.metrics.CycleDone(started)
		if o.onCycle != nil {
			o.onCycle(err)
		}
	}()

	var after int64
	processed := 0
	for {
		page, err := o.store.FetchUnsent(ctx, after, o.cfg.PageSize)
		if err != nil {
			return fmt.Errorf("fetch unsent after id %d: %w", after, err)
		}
		for _, n := range page {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			after = n.ID
			o.processSafe(ctx, n)
			processed++
		}
		if len(page) < o.cfg.PageSize {
			break
		}
	}
	o.log.Debug("cycle finished", logx.Int("notices", processed), logx.Duration("took", o.now().Sub(started)))
	return nil
}

func (o *Orchestrator) processSafe(ctx context.Context, n notice.Notice) {
	log := o.log.With(logx.Int64("notice_id", n.ID), logx.String("link", n.Link))
	defer func() {
		if r := recover(); r != nil {
			o.metrics.Notice("panic")
			log.Error("notice processing panicked", logx.Any("panic", r))
		}
	}()
	o.process(ctx, n, log)
}

func (o *Orchestrator) process(ctx context.Context, n notice.Notice, log logx.Logger) {
	log.Info("processing notice", logx.String("type", string(n.Type)))

	fetchStarted := o.now()
	lots, err := o.extractor.Extract(ctx, n.Link)
	o.metrics.Fetched(o.now().Sub(fetchStarted))
	if err != nil {
		// Every row malformed means the table layout changed, not a bad row.
		if !extract.OnlyMalformed(err) || len(lots) == 0 {
			o.metrics.Notice("skipped")
			log.Error("extraction failed; notice left unsent", logx.Err(err))
			return
		}
		o.metrics.Lot("malformed", countJoined(err))
		log.Warn("malformed lot rows skipped", logx.Err(err))
	}

	current := FilterCurrentMonth(lots, o.now())
	o.metrics.Lot("filtered", len(lots)-len(current))

	for i, lot := range current {
		if err := o.pace(ctx); err != nil {
			return
		}
		if err := o.dispatcher.Dispatch(ctx, o.formatter.Format(lot)); err != nil {
			if ctx.Err() != nil {
				return
			}
			o.metrics.Lot("failed", 1)
			o.metrics.Notice("undelivered")
			log.Error("lot not delivered; notice left unsent", logx.Int("lot_index", i), logx.Err(err))
			return
		}
		o.metrics.Lot("sent", 1)
		log.Debug("lot sent", logx.Int("lot_index", i))
	}

	if err := o.store.MarkSent(ctx, n.ID); err != nil {
		o.metrics.Notice("mark_failed")
		log.Error("mark sent failed; notice will be retried", logx.Err(err))
		return
	}
	o.metrics.Notice("sent")
	log.Info("notice published", logx.Int("lots", len(current)), logx.Int("extracted", len(lots)))
}

func countJoined(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}
