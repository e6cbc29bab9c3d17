package config

import (
	"errors"
	"fmt"
	"strings"

	"efrsbmon/internal/classify"
	"efrsbmon/internal/format"
	"efrsbmon/internal/transport"
	logx "efrsbmon/pkg/logx"
)

// Validate reports every problem that would stop the process from starting.
func (c *Config) Validate() error {
	var errs []error
	add := func(msg string, args ...any) { errs = append(errs, fmt.Errorf(msg, args...)) }

	if strings.TrimSpace(c.Telegram.Token) == "" {
		add("telegram.token is required (or BOT_TOKEN)")
	}
	if strings.TrimSpace(c.Telegram.ChannelID) == "" {
		add("telegram.channel_id is required (or CHANNEL_ID)")
	} else if _, err := transport.ParseChatTarget(c.Telegram.ChannelID); err != nil {
		add("telegram.channel_id: %v", err)
	}
	if c.Telegram.LogChatID != "" {
		if _, err := transport.ParseChatTarget(c.Telegram.LogChatID); err != nil {
			add("telegram.log_chat_id: %v", err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "postgres", "postgresql", "pgx":
		if c.Storage.DSN == "" && (c.Storage.Host == "" || c.Storage.Name == "") {
			add("storage: postgres needs dsn (DATABASE_URL) or host and name (DB_HOST, DB_NAME)")
		}
	case "sqlite", "sqlite3":
		if strings.TrimSpace(c.Storage.Path) == "" {
			add("storage.path is required for sqlite")
		}
	default:
		add("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if c.Storage.PageSize < 0 {
		add("storage.page_size must be >= 0")
	}

	switch strings.ToUpper(strings.TrimSpace(c.Fetch.Method)) {
	case "", "GET", "POST":
	default:
		add("fetch.method: must be GET or POST, got %q", c.Fetch.Method)
	}
	if _, err := format.ParseMarkup(c.Pipeline.Markup); err != nil {
		add("pipeline.markup: %v", err)
	}
	if c.Pipeline.DispatchRetryMax < 0 {
		add("pipeline.dispatch_retry_max must be >= 0")
	}

	for path, raw := range map[string]string{
		"telegram.poll_timeout":          c.Telegram.PollTimeout,
		"fetch.timeout":                  c.Fetch.Timeout,
		"pipeline.interval":              c.Pipeline.Interval,
		"pipeline.message_delay":         c.Pipeline.MessageDelay,
		"pipeline.dispatch_deadline":     c.Pipeline.DispatchDeadline,
		"pipeline.throttle_default_wait": c.Pipeline.ThrottleDefaultWait,
		"pipeline.send_timeout":          c.Pipeline.SendTimeout,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Categories != nil {
		if err := classify.Table(c.Categories).Validate(); err != nil {
			add("categories: %v", err)
		}
	}

	if !logx.ValidLevel(c.Logging.Level) {
		add("logging.level: unknown level %q", c.Logging.Level)
	}
	if !logx.ValidLevel(c.Logging.Telegram.MinLevel) {
		add("logging.telegram.min_level: unknown level %q", c.Logging.Telegram.MinLevel)
	}
	if c.Logging.Telegram.Enabled && c.Telegram.LogChatID == "" {
		add("logging.telegram.enabled requires telegram.log_chat_id")
	}
	return errors.Join(errs...)
}

// CategoryTable returns the configured categories, or the built-in table.
func (c *Config) CategoryTable() classify.Table {
	if c.Categories == nil {
		return classify.Default()
	}
	return classify.Table(c.Categories)
}
