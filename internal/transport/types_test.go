package transport

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseChatTarget(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw      string
		wantID   int64
		wantUser string
		wantErr  bool
	}{
		{raw: "-1001234567890", wantID: -1001234567890},
		{raw: " 42 ", wantID: 42},
		{raw: "@efrsb_monitor", wantUser: "@efrsb_monitor"},
		{raw: "", wantErr: true},
		{raw: "@", wantErr: true},
		{raw: "channel", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseChatTarget(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseChatTarget(%q) expected error, got %+v", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChatTarget(%q) error: %v", tt.raw, err)
			}
			if got.ChatID != tt.wantID || got.Username != tt.wantUser {
				t.Fatalf("ParseChatTarget(%q) = %+v", tt.raw, got)
			}
		})
	}
}

func TestRecipient(t *testing.T) {
	t.Parallel()
	if got := (ChatTarget{ChatID: -100}).Recipient(); got != "-100" {
		t.Fatalf("Recipient = %q", got)
	}
	if got := (ChatTarget{Username: "@x"}).Recipient(); got != "@x" {
		t.Fatalf("Recipient = %q", got)
	}
}

func TestAsThrottleWrapped(t *testing.T) {
	t.Parallel()
	base := &ThrottleError{RetryAfter: 5 * time.Second, Err: errors.New("429")}
	err := fmt.Errorf("send: %w", base)
	te, ok := AsThrottle(err)
	if !ok || te.RetryAfter != 5*time.Second {
		t.Fatalf("AsThrottle = %v, %v", te, ok)
	}
	if _, ok := AsThrottle(errors.New("other")); ok {
		t.Fatal("plain error must not be a throttle")
	}
}
