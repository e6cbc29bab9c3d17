package config

import "efrsbmon/internal/classify"

// Config is the process configuration. Durations are Go duration strings
// (e.g. "500ms", "10s", "1m"); empty means the component default.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Storage  StorageConfig  `json:"storage"`
	Fetch    FetchConfig    `json:"fetch"`
	Pipeline PipelineConfig `json:"pipeline"`

	// Categories replaces the built-in category table when set. Order is priority.
	Categories []classify.Category `json:"categories,omitempty"`

	Logging LoggingConfig `json:"logging"`
	Ops     OpsConfig     `json:"ops"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChannelID is the broadcast channel: "@name" or a numeric chat id.
	ChannelID string `json:"channel_id"`
	// LogChatID receives WARN+ log records when logging.telegram is enabled.
	LogChatID   string `json:"log_chat_id,omitempty"`
	PollTimeout string `json:"poll_timeout,omitempty"`
	// StartEnabled runs the long poller so the bot answers /start.
	StartEnabled bool `json:"start_enabled,omitempty"`
}

// StorageConfig selects the record store.
//
// Example:
//
//	"storage": { "driver": "postgres", "host": "db", "port": "5432", "name": "efrsb", "user": "bot" }
type StorageConfig struct {
	Driver   string `json:"driver,omitempty"` // postgres (default) | sqlite
	DSN      string `json:"dsn,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     string `json:"port,omitempty"`
	Name     string `json:"name,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"` // do not log
	Path     string `json:"path,omitempty"`     // sqlite
	PageSize int    `json:"page_size,omitempty"`
}

type FetchConfig struct {
	Timeout   string `json:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Method    string `json:"method,omitempty"` // POST (default) | GET
}

type PipelineConfig struct {
	Interval     string `json:"interval,omitempty"`      // default 60s
	MessageDelay string `json:"message_delay,omitempty"` // default 1.5s
	Markup       string `json:"markup,omitempty"`        // html (default) | markdownv2

	DispatchRetryMax    int    `json:"dispatch_retry_max,omitempty"`    // default 5
	DispatchDeadline    string `json:"dispatch_deadline,omitempty"`     // default 5m
	ThrottleDefaultWait string `json:"throttle_default_wait,omitempty"` // default 10s
	SendTimeout         string `json:"send_timeout,omitempty"`          // default 15s
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// OpsConfig controls the optional operations HTTP server (/metrics, /healthz, pprof).
//
// Prefer binding to localhost; pprof exposes process internals.
type OpsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:9102"
	Pprof   bool   `json:"pprof,omitempty"`
}
