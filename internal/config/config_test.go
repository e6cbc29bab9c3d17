package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"efrsbmon/internal/classify"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

const yamlConfig = `
telegram:
  token: file-token
  channel_id: "@efrsb_lots"
storage:
  driver: postgres
  host: db
  name: efrsb
pipeline:
  interval: 30s
  markup: markdownv2
categories:
  - name: Недвижимость
    keywords: [квартира, дом]
logging:
  level: debug
  console: true
`

func TestParseYAMLWithEnvOverrides(t *testing.T) {
	m := NewConfigManager(writeFile(t, "config.yaml", yamlConfig))
	m.SetLookup(envMap(map[string]string{"BOT_TOKEN": "env-token", "DB_PORT": "6432", "DB_HOST": " "}))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q, env should win", cfg.Telegram.Token)
	}
	if cfg.Storage.Host != "db" || cfg.Storage.Port != "6432" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Pipeline.Interval != "30s" || cfg.Pipeline.Markup != "markdownv2" {
		t.Fatalf("pipeline = %+v", cfg.Pipeline)
	}
	if tbl := cfg.CategoryTable(); len(tbl) != 1 || tbl[0].Name != "Недвижимость" {
		t.Fatalf("categories = %+v", tbl)
	}
	if m.Get() != cfg {
		t.Fatalf("Load did not commit")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	m := NewConfigManager(writeFile(t, "config.json", `{"telegram":{"token":"x","chanel_id":"@a"}}`))
	m.SetLookup(envMap(nil))
	if _, err := m.Parse(); err == nil || !strings.Contains(err.Error(), "chanel_id") {
		t.Fatalf("err = %v, want unknown field error", err)
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	m := NewConfigManager(writeFile(t, "config.json", `{} {}`))
	m.SetLookup(envMap(nil))
	if _, err := m.Parse(); err == nil {
		t.Fatalf("expected trailing data error")
	}
}

func TestEnvOnlyWhenFileMissing(t *testing.T) {
	m := NewConfigManager(filepath.Join(t.TempDir(), "absent.yaml"))
	m.SetLookup(envMap(map[string]string{
		"BOT_TOKEN": "t", "CHANNEL_ID": "-100123", "DATABASE_URL": "postgres://u@h/db", "LOG_LEVEL": "warn",
	}))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.DSN != "postgres://u@h/db" || cfg.Logging.Level != "warn" || cfg.Telegram.ChannelID != "-100123" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.CategoryTable()) == 0 {
		t.Fatalf("expected built-in categories")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Telegram: TelegramConfig{Token: "t", ChannelID: "@lots"},
			Storage:  StorageConfig{Host: "db", Name: "efrsb"},
		}
	}
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "sqlite ok", mutate: func(c *Config) { c.Storage = StorageConfig{Driver: "sqlite", Path: "x.db"} }},
		{name: "no token", mutate: func(c *Config) { c.Telegram.Token = "" }, want: "telegram.token"},
		{name: "no channel", mutate: func(c *Config) { c.Telegram.ChannelID = "" }, want: "telegram.channel_id"},
		{name: "bad channel", mutate: func(c *Config) { c.Telegram.ChannelID = "lots channel" }, want: "telegram.channel_id"},
		{name: "no store", mutate: func(c *Config) { c.Storage = StorageConfig{} }, want: "storage"},
		{name: "sqlite no path", mutate: func(c *Config) { c.Storage = StorageConfig{Driver: "sqlite"} }, want: "storage.path"},
		{name: "bad driver", mutate: func(c *Config) { c.Storage.Driver = "mysql" }, want: "storage.driver"},
		{name: "bad duration", mutate: func(c *Config) { c.Pipeline.Interval = "soon" }, want: "pipeline.interval"},
		{name: "bad markup", mutate: func(c *Config) { c.Pipeline.Markup = "bbcode" }, want: "pipeline.markup"},
		{name: "bad method", mutate: func(c *Config) { c.Fetch.Method = "PUT" }, want: "fetch.method"},
		{name: "empty categories", mutate: func(c *Config) { c.Categories = []classify.Category{} }, want: "categories"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, want: "logging.level"},
		{name: "tg log without chat", mutate: func(c *Config) { c.Logging.Telegram.Enabled = true }, want: "log_chat_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestChanges(t *testing.T) {
	a := &Config{Logging: LoggingConfig{Level: "info"}, Pipeline: PipelineConfig{Interval: "60s"}}
	b := &Config{Logging: LoggingConfig{Level: "debug"}, Pipeline: PipelineConfig{Interval: "30s"}}
	live, restart := Changes(a, b)
	if !reflect.DeepEqual(live, []string{"logging"}) || !reflect.DeepEqual(restart, []string{"pipeline"}) {
		t.Fatalf("live=%v restart=%v", live, restart)
	}
	c := *a
	c.Telegram.LogChatID = "@ops"
	live, restart = Changes(a, &c)
	if !reflect.DeepEqual(live, []string{"logging"}) || restart != nil {
		t.Fatalf("log chat change: live=%v restart=%v", live, restart)
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "", want: 5 * time.Second},
		{raw: "0s", want: 5 * time.Second},
		{raw: "1500ms", want: 1500 * time.Millisecond},
		{raw: "90", want: 90 * time.Second},
		{raw: "-1s", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "soon", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			d, err := ParseDurationOrDefault("x", tc.raw, 5*time.Second)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", d)
				}
				return
			}
			if err != nil || d != tc.want {
				t.Fatalf("d=%s err=%v want %s", d, err, tc.want)
			}
		})
	}
}

func TestDecodeEmptyYAML(t *testing.T) {
	var cfg Config
	if err := decodeStrict("config.yaml", []byte("# nothing yet\n"), &cfg); err != nil {
		t.Fatalf("empty yaml: %v", err)
	}
}

func TestWatchPublishesReload(t *testing.T) {
	path := writeFile(t, "config.json", `{"telegram":{"token":"t","channel_id":"@a"},"storage":{"host":"h","name":"n"},"logging":{"level":"info"}}`)
	m := NewConfigManager(path)
	m.SetLookup(envMap(nil))
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)
	next := `{"telegram":{"token":"t","channel_id":"@a"},"storage":{"host":"h","name":"n"},"logging":{"level":"debug"}}`
	if err := os.WriteFile(path, []byte(next), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case cfg := <-ch:
		if cfg.Logging.Level != "debug" {
			t.Fatalf("level = %q", cfg.Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload published")
	}
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Watch: %v", err)
	}
}
