// Package dispatch delivers rendered notices to the broadcast channel.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"efrsbmon/internal/observability/metrics"
	"efrsbmon/internal/transport"
	logx "efrsbmon/pkg/logx"
)

// ErrDeliveryFailed is returned for any send that did not reach the channel:
// non-throttle transport errors and throttling beyond the retry bounds.
var ErrDeliveryFailed = errors.New("delivery failed")

// Config controls a Dispatcher. Zero values take the defaults shown.
type Config struct {
	Target         transport.ChatTarget
	ParseMode      string
	DisablePreview bool

	MaxRetries  int           // throttle retries after the first attempt; default 5
	Deadline    time.Duration // overall bound across retries; default 5m
	DefaultWait time.Duration // wait used when the throttle hint is missing; default 10s
	SendTimeout time.Duration // per-attempt timeout; default 15s
}

type Option func(*Dispatcher)

// WithSleep replaces the context-aware sleep used between throttle retries.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Dispatcher) { d.sleep = fn }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher sends one text to one statically configured channel.
type Dispatcher struct {
	cfg     Config
	sender  transport.Sender
	log     logx.Logger
	metrics *metrics.Pipeline

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func New(cfg Config, sender transport.Sender, log logx.Logger, opts ...Option) *Dispatcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = 5 * time.Minute
	}
	if cfg.DefaultWait <= 0 {
		cfg.DefaultWait = 10 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{cfg: cfg, sender: sender, log: log, sleep: sleepCtx, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Dispatch sends text, waiting out flood control.
//
// A throttle response is followed by a wait of the suggested duration and a
// resend of the identical text, repeated at most MaxRetries times and never
// past Deadline. Any other error fails immediately. Failures wrap
// ErrDeliveryFailed; context cancellation returns the context error.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) error {
	opt := &transport.SendOptions{ParseMode: d.cfg.ParseMode, DisablePreview: d.cfg.DisablePreview}
	deadline := d.now().Add(d.cfg.Deadline)

	for retries := 0; ; retries++ {
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		_, err := d.sender.SendText(sendCtx, d.cfg.Target, text, opt)
		cancel()
		if err == nil {
			if retries > 0 {
				d.log.Info("message sent after flood control", logx.Int("retries", retries))
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		te, ok := transport.AsThrottle(err)
		if !ok {
			d.log.Error("message send failed", logx.Err(err))
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		d.metrics.Throttled()

		wait := te.RetryAfter
		if wait <= 0 {
			wait = d.cfg.DefaultWait
		}
		if retries >= d.cfg.MaxRetries {
			d.log.Error("flood control persisted; giving up", logx.Int("retries", retries), logx.Err(err))
			return fmt.Errorf("%w: still throttled after %d retries: %v", ErrDeliveryFailed, retries, err)
		}
		if d.now().Add(wait).After(deadline) {
			d.log.Error("flood control wait exceeds deadline; giving up", logx.Duration("wait", wait), logx.Duration("deadline", d.cfg.Deadline))
			return fmt.Errorf("%w: throttle wait %s exceeds deadline: %v", ErrDeliveryFailed, wait, err)
		}

		d.log.Warn("flood control: waiting before resend", logx.Duration("wait", wait), logx.Int("retry", retries+1))
		if err := d.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
