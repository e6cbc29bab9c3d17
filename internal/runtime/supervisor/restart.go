package supervisor

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	logx "efrsbmon/pkg/logx"
)

// healthyRun resets the backoff: a run that lasted this long was not a crash loop.
const healthyRun = 30 * time.Second

// RestartOption configures GoRestart.
type RestartOption func(*restartPolicy)

type restartPolicy struct {
	min, max    time.Duration
	maxRestarts int // <=0 means unlimited
}

// WithRestartBackoff sets the exponential backoff window between restarts.
func WithRestartBackoff(min, max time.Duration) RestartOption {
	return func(p *restartPolicy) {
		if min > 0 {
			p.min = min
		}
		if max > 0 {
			p.max = max
		}
	}
}

// WithMaxRestarts limits restarts before giving up; the initial run is not counted.
// Giving up records the last error as the supervisor error.
func WithMaxRestarts(n int) RestartOption { return func(p *restartPolicy) { p.maxRestarts = n } }

// next returns the wait after cur with up to 20% jitter, and the doubled base.
func (p restartPolicy) next(cur time.Duration) (wait, base time.Duration) {
	wait = cur
	if j := int64(cur) / 5; j > 0 {
		wait += time.Duration(rand.Int64N(j + 1))
	}
	return wait, min(cur*2, p.max)
}

// GoRestart runs fn and restarts it on error or panic with exponential
// backoff. A clean return or cancellation ends the loop.
func (s *Supervisor) GoRestart(name string, fn func(ctx context.Context) error, opts ...RestartOption) {
	if fn == nil {
		return
	}
	p := restartPolicy{min: 250 * time.Millisecond, max: 30 * time.Second}
	for _, o := range opts {
		o(&p)
	}
	p.max = max(p.max, p.min)

	s.Go(name, func(ctx context.Context) error {
		backoff := p.min
		for n := 1; ; n++ {
			started := time.Now()
			err := s.guard(name, fn)
			if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if p.maxRestarts > 0 && n > p.maxRestarts {
				s.log.Error("goroutine gave up after restarts", logx.String("name", name), logx.Int("restarts", n-1), logx.Err(err))
				return err
			}
			s.restarts.Add(1)
			if time.Since(started) >= healthyRun {
				backoff = p.min
			}

			var wait time.Duration
			wait, backoff = p.next(backoff)
			s.log.Warn("goroutine restarting", logx.String("name", name), logx.Duration("backoff", wait), logx.Err(err))

			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
		}
	})
}
