package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"efrsbmon/internal/transport"
)

const (
	alertQueueSize   = 256
	alertMaxLen      = 3500
	alertMaxField    = 600
	alertSendTimeout = 10 * time.Second
)

type alert struct {
	to  transport.ChatTarget
	msg string
}

// alertSink is a zerolog writer that forwards records to a Telegram chat.
// Writes never block: records over the rate limit or a full queue are
// counted and reported with the next delivered alert.
type alertSink struct {
	sender transport.Sender
	queue  chan alert

	mu       sync.Mutex
	target   transport.ChatTarget
	limiter  *rate.Limiter
	minLevel zerolog.Level

	suppressed atomic.Int64

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

func newAlertSink(sender transport.Sender) *alertSink {
	ctx, cancel := context.WithCancel(context.Background())
	a := &alertSink{
		sender:   sender,
		queue:    make(chan alert, alertQueueSize),
		limiter:  rate.NewLimiter(1, 1),
		minLevel: zerolog.WarnLevel,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	return a
}

func (a *alertSink) setTarget(to transport.ChatTarget) {
	a.mu.Lock()
	a.target = to
	a.mu.Unlock()
}

func (a *alertSink) configure(cfg TelegramConfig) {
	rps := max(cfg.RatePerSec, 1)
	a.mu.Lock()
	a.minLevel = parseLevel(cfg.MinLevel, zerolog.WarnLevel)
	a.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	a.mu.Unlock()
	if cfg.Enabled {
		a.startOnce.Do(func() { go a.run(a.ctx) })
	}
}

func (a *alertSink) stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		started := true
		a.startOnce.Do(func() { started = false })
		if started {
			<-a.done
		}
	})
}

func (a *alertSink) run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-a.queue:
			sctx, cancel := context.WithTimeout(ctx, alertSendTimeout)
			_, _ = a.sender.SendText(sctx, it.to, it.msg, &transport.SendOptions{DisablePreview: true})
			cancel()
		}
	}
}

func (a *alertSink) Write(p []byte) (int, error) { return a.WriteLevel(zerolog.InfoLevel, p) }

func (a *alertSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	a.mu.Lock()
	to, lim, minLevel := a.target, a.limiter, a.minLevel
	a.mu.Unlock()

	if to.IsZero() || level < minLevel {
		return len(p), nil
	}
	if !lim.Allow() {
		a.suppressed.Add(1)
		return len(p), nil
	}
	msg := renderAlert(p)
	if msg == "" {
		return len(p), nil
	}
	n := a.suppressed.Swap(0)
	if n > 0 {
		msg = clip(fmt.Sprintf("%s\n(+%d suppressed)", msg, n), alertMaxLen)
	}
	select {
	case a.queue <- alert{to: to, msg: msg}:
	default:
		a.suppressed.Add(n + 1)
	}
	return len(p), nil
}

// renderAlert turns one zerolog JSON line into plain text: the level and
// message on the first line, then one "- key=value" line per field in key
// order.
func renderAlert(p []byte) string {
	line := strings.TrimSpace(string(p))
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return clip(line, alertMaxLen)
	}

	var b strings.Builder
	if lvl, _ := rec["level"].(string); lvl != "" {
		fmt.Fprintf(&b, "[%s] ", strings.ToUpper(lvl))
	}
	msg, _ := rec["message"].(string)
	b.WriteString(msg)

	delete(rec, "time")
	delete(rec, "level")
	delete(rec, "message")
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n- %s=%s", k, clip(fmt.Sprint(rec[k]), alertMaxField))
	}
	return clip(b.String(), alertMaxLen)
}

func clip(s string, n int) string {
	switch {
	case n <= 0 || len(s) <= n:
		return s
	case n < 10:
		return s[:n]
	default:
		return s[:n-3] + "..."
	}
}
