// Package adapter connects the transport API to Telegram through telebot.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	rtsup "efrsbmon/internal/runtime/supervisor"
	kit "efrsbmon/internal/transport"
	logx "efrsbmon/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
	// StartEnabled turns on the long poller and the /start reply.
	StartEnabled bool
	// Channel is named in the /start greeting.
	Channel string
}

const (
	defaultPollTimeout = 10 * time.Second
	stopGrace          = 2 * time.Second
)

const startGreeting = "👋 Привет! Я бот ЕФРСБ Монитор.\n" +
	"Я публикую объявления и оценки с ЕФРСБ в наш Telegram-канал.\n" +
	"Подписывайтесь: %s"

func greeting(channel string) string { return fmt.Sprintf(startGreeting, channel) }

// Adapter implements kit.Sender on a telebot.Bot. Sending needs no poller;
// Start only matters for answering /start.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot

	mu   sync.Mutex
	poll *rtsup.Supervisor // non-nil while polling
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	bot.Handle("/start", func(c tele.Context) error {
		return c.Send(greeting(cfg.Channel))
	})
	return &Adapter{cfg: cfg, log: log, bot: bot}, nil
}

// Start runs the long poller when StartEnabled is set. Calling it twice is a no-op.
func (a *Adapter) Start(ctx context.Context) error {
	if !a.cfg.StartEnabled {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.poll != nil {
		return nil
	}
	sup := rtsup.New(ctx, rtsup.WithLogger(a.log))
	a.poll = sup

	sup.Go0("telebot.stop_on_cancel", func(c context.Context) {
		<-c.Done()
		a.bot.Stop()
	})
	// bot.Start blocks until bot.Stop; an early return is restarted.
	sup.GoRestart("telebot.poll", func(c context.Context) error {
		a.log.Info("polling started")
		a.bot.Start()
		if c.Err() != nil {
			a.log.Info("polling stopped")
			return nil
		}
		return errors.New("poller exited")
	}, rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second))
	return nil
}

// Stop ends polling, waiting at most stopGrace for getUpdates to return.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	sup := a.poll
	a.poll = nil
	a.mu.Unlock()
	if sup == nil {
		return nil
	}
	sup.Cancel()

	wctx, cancel := context.WithTimeout(ctx, stopGrace)
	defer cancel()
	if err := sup.Wait(wctx); err != nil {
		a.log.Warn("telegram stop timed out", logx.Err(err))
	}
	return nil
}

// SendText sends text to the target, splitting it at Telegram's size limit,
// and returns the first message. Flood-control rejections come back as
// *kit.ThrottleError.
func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if to.IsZero() {
		return kit.MessageRef{}, errors.New("telegram: empty chat target")
	}
	var so kit.SendOptions
	if opt != nil {
		so = *opt
	}
	send := &tele.SendOptions{
		ParseMode:             tele.ParseMode(so.ParseMode),
		DisableWebPagePreview: so.DisablePreview,
		ThreadID:              to.ThreadID,
	}

	first := kit.MessageRef{Chat: to}
	for i, chunk := range splitText(text, textLimit, so.ParseMode) {
		if err := ctx.Err(); err != nil {
			return first, err
		}
		msg, err := a.bot.Send(to, chunk, send)
		if err != nil {
			return first, mapSendError(err)
		}
		if i == 0 {
			first.MessageID = msg.ID
		}
	}
	return first, nil
}
