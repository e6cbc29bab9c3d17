package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"efrsbmon/internal/transport"
)

func TestNewWriterFiltersLevelAndAddsFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "WARN").With(String("comp", "test"))

	log.Info("dropped")
	log.Warn("kept", Int("n", 3), Err(errors.New("boom")), Err(nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if m["message"] != "kept" || m["comp"] != "test" || m["n"] != float64(3) || m["err"] != "boom" {
		t.Fatalf("unexpected record: %v", m)
	}
	if c, _ := m["caller"].(string); !strings.HasPrefix(c, "logx_test.go:") {
		t.Fatalf("caller=%q", c)
	}
}

func TestZeroAndNopLoggers(t *testing.T) {
	var zero Logger
	if !zero.IsZero() {
		t.Fatalf("zero logger should report IsZero")
	}
	zero.Error("must not panic")
	if Nop().IsZero() {
		t.Fatalf("Nop should not be the zero value")
	}
	Nop().With(String("k", "v")).Info("quiet")
}

func TestRenderAlert(t *testing.T) {
	in := `{"level":"error","time":"2024-06-01T00:00:00Z","message":"send failed","zeta":"z","alpha":1}`
	got := renderAlert([]byte(in))
	want := "[ERROR] send failed\n- alpha=1\n- zeta=z"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := renderAlert([]byte("not json\n")); got != "not json" {
		t.Fatalf("non-json passthrough: %q", got)
	}
}

func TestClip(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdefghijklmnop", 12, "abcdefghi..."},
		{"abcdefgh", 4, "abcd"},
		{"abc", 0, "abc"},
	}
	for _, tc := range cases {
		if got := clip(tc.in, tc.n); got != tc.want {
			t.Fatalf("clip(%q,%d)=%q want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestLevels(t *testing.T) {
	for _, s := range []string{"", "debug", " INFO ", "warning", "Error", "trace"} {
		if !ValidLevel(s) {
			t.Fatalf("%q should be valid", s)
		}
	}
	if ValidLevel("verbose") {
		t.Fatalf("verbose should be invalid")
	}
	if got := parseLevel("nope", LevelWarn); got != LevelWarn {
		t.Fatalf("default level not used: %v", got)
	}
}

type chanSender struct{ ch chan string }

func (s chanSender) SendText(_ context.Context, to transport.ChatTarget, text string, _ *transport.SendOptions) (transport.MessageRef, error) {
	s.ch <- to.String() + "|" + text
	return transport.MessageRef{Chat: to}, nil
}

func TestServiceFileAndTelegramSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	sender := chanSender{ch: make(chan string, 4)}

	svc, log := New(Config{
		Level: "DEBUG",
		File:  FileConfig{Enabled: true, Path: path},
		Telegram: TelegramConfig{
			Enabled:    true,
			MinLevel:   "ERROR",
			RatePerSec: 1,
		},
	}, sender)
	svc.SetTelegramTarget(transport.ChatTarget{ChatID: -100123})

	log.Warn("below telegram level")
	log.Error("delivery failed", String("record", "7"))

	select {
	case got := <-sender.ch:
		if !strings.HasPrefix(got, "-100123|[ERROR] delivery failed") || !strings.Contains(got, "- record=7") {
			t.Fatalf("unexpected telegram message: %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("telegram sink did not deliver")
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case got := <-sender.ch:
		t.Fatalf("warn record must not reach telegram: %q", got)
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "below telegram level") || !strings.Contains(string(data), "delivery failed") {
		t.Fatalf("file sink missing records: %q", data)
	}
}

func TestServiceApplyRaisesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	svc, log := New(Config{Level: "DEBUG", File: FileConfig{Enabled: true, Path: path}}, nil)
	defer svc.Close()

	child := log.With(String("comp", "x"))
	child.Debug("first")
	svc.Apply(Config{Level: "ERROR", File: FileConfig{Enabled: true, Path: path}})
	child.Info("second")

	if child.Enabled(LevelInfo) {
		t.Fatalf("child logger should follow Apply")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "first") || strings.Contains(string(data), "second") {
		t.Fatalf("unexpected file content: %q", data)
	}
}

func TestAlertSinkReportsSuppressed(t *testing.T) {
	a := newAlertSink(chanSender{ch: make(chan string, 1)})
	defer a.stop()
	a.configure(TelegramConfig{MinLevel: "WARN", RatePerSec: 1})
	a.setTarget(transport.ChatTarget{ChatID: 42})

	rec := []byte(`{"level":"error","message":"boom"}`)
	for i := 0; i < 3; i++ {
		_, _ = a.WriteLevel(zerolog.ErrorLevel, rec)
	}
	_, _ = a.WriteLevel(zerolog.InfoLevel, rec)

	if got := (<-a.queue).msg; got != "[ERROR] boom" {
		t.Fatalf("first alert=%q", got)
	}
	if n := a.suppressed.Load(); n != 2 {
		t.Fatalf("suppressed=%d want 2", n)
	}

	a.mu.Lock()
	a.limiter = rate.NewLimiter(rate.Inf, 1)
	a.mu.Unlock()
	_, _ = a.WriteLevel(zerolog.WarnLevel, []byte(`{"level":"warn","message":"again"}`))
	if got := (<-a.queue).msg; got != "[WARN] again\n(+2 suppressed)" {
		t.Fatalf("second alert=%q", got)
	}
	if n := a.suppressed.Load(); n != 0 {
		t.Fatalf("suppressed not reset: %d", n)
	}
}

func TestAlertSinkMutedWithoutTarget(t *testing.T) {
	a := newAlertSink(chanSender{ch: make(chan string, 1)})
	defer a.stop()
	a.configure(TelegramConfig{RatePerSec: 5})
	_, _ = a.WriteLevel(zerolog.ErrorLevel, []byte(`{"level":"error","message":"x"}`))
	select {
	case it := <-a.queue:
		t.Fatalf("unexpected alert %+v", it)
	default:
	}
}

func TestServiceApplyKeepsStaleLoggersSafe(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")
	svc, _ := New(Config{Level: "INFO", File: FileConfig{Enabled: true, Path: first}}, nil)
	defer svc.Close()

	stale := fixed(svc.current())
	stale.Info("before swap")
	svc.Apply(Config{Level: "INFO", File: FileConfig{Enabled: true, Path: second}})

	// The old root's file is closed; writing through it must be dropped quietly.
	stale.Info("after swap")
	svc.Logger().Info("on new file")

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if !strings.Contains(string(a), "before swap") || strings.Contains(string(a), "after swap") {
		t.Fatalf("first file: %q", a)
	}
	if !strings.Contains(string(b), "on new file") || strings.Contains(string(b), "after swap") {
		t.Fatalf("second file: %q", b)
	}
}

func TestFileSinkWriteAfterClose(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.log"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w := &fileSink{f: f}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n, err := w.Write([]byte("late")); err != nil || n != 4 {
		t.Fatalf("write after close: n=%d err=%v", n, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
