package app

import (
	"time"

	"efrsbmon/internal/config"
	"efrsbmon/internal/dispatch"
	"efrsbmon/internal/extract"
	"efrsbmon/internal/format"
	"efrsbmon/internal/observability/server"
	"efrsbmon/internal/pipeline"
	"efrsbmon/internal/storage"
	"efrsbmon/internal/transport"
	telegram "efrsbmon/internal/transport/telegram/adapter"
	logx "efrsbmon/pkg/logx"
)

// settings is the typed form of a validated config.Config.
type settings struct {
	telegram telegram.Config
	channel  transport.ChatTarget
	logChat  transport.ChatTarget
	logging  logx.Config
	storage  storage.Config
	fetch    extract.EngineConfig
	markup   format.Markup
	dispatch dispatch.Config
	pipeline pipeline.Config
	ops      *server.Config
}

func mapSettings(cfg *config.Config) (settings, error) {
	var (
		s   settings
		err error
	)
	dur := func(path, raw string, def time.Duration) time.Duration {
		if err != nil {
			return 0
		}
		var d time.Duration
		d, err = config.ParseDurationOrDefault(path, raw, def)
		return d
	}

	s.channel, err = transport.ParseChatTarget(cfg.Telegram.ChannelID)
	if err != nil {
		return s, err
	}
	if cfg.Telegram.LogChatID != "" {
		if s.logChat, err = transport.ParseChatTarget(cfg.Telegram.LogChatID); err != nil {
			return s, err
		}
	}
	if s.markup, err = format.ParseMarkup(cfg.Pipeline.Markup); err != nil {
		return s, err
	}

	s.telegram = telegram.Config{
		Token:        cfg.Telegram.Token,
		PollTimeout:  dur("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second),
		StartEnabled: cfg.Telegram.StartEnabled,
		Channel:      cfg.Telegram.ChannelID,
	}
	s.logging = mapLogging(cfg)
	s.storage = storage.Config{
		Driver:   cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		Host:     cfg.Storage.Host,
		Port:     cfg.Storage.Port,
		Name:     cfg.Storage.Name,
		User:     cfg.Storage.User,
		Password: cfg.Storage.Password,
		Path:     cfg.Storage.Path,
	}
	s.fetch = extract.EngineConfig{
		Method:    cfg.Fetch.Method,
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   dur("fetch.timeout", cfg.Fetch.Timeout, 30*time.Second),
	}
	s.dispatch = dispatch.Config{
		Target:         s.channel,
		DisablePreview: true,
		MaxRetries:     cfg.Pipeline.DispatchRetryMax,
		Deadline:       dur("pipeline.dispatch_deadline", cfg.Pipeline.DispatchDeadline, 5*time.Minute),
		DefaultWait:    dur("pipeline.throttle_default_wait", cfg.Pipeline.ThrottleDefaultWait, 10*time.Second),
		SendTimeout:    dur("pipeline.send_timeout", cfg.Pipeline.SendTimeout, 15*time.Second),
	}
	s.pipeline = pipeline.Config{
		PageSize:     cfg.Storage.PageSize,
		Interval:     dur("pipeline.interval", cfg.Pipeline.Interval, 60*time.Second),
		MessageDelay: dur("pipeline.message_delay", cfg.Pipeline.MessageDelay, 1500*time.Millisecond),
	}
	if cfg.Ops.Enabled {
		s.ops = &server.Config{Addr: cfg.Ops.Addr, Pprof: cfg.Ops.Pprof}
	}
	return s, err
}

func mapLogging(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}
