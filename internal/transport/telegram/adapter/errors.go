package adapter

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "efrsbmon/internal/transport"
)

var retryAfterRe = regexp.MustCompile(`(?i)retry after (\d+)`)

// mapSendError turns Telegram flood control into *kit.ThrottleError. The
// wait comes from telebot's FloodError, else from a "retry after N" hint in
// the text; a bare "too many requests" is a throttle with no hint.
func mapSendError(err error) error {
	if err == nil {
		return nil
	}
	if sec, ok := floodSeconds(err); ok {
		return &kit.ThrottleError{RetryAfter: time.Duration(sec) * time.Second, Err: err}
	}
	text := err.Error()
	if m := retryAfterRe.FindStringSubmatch(text); m != nil {
		sec, _ := strconv.Atoi(m[1])
		return &kit.ThrottleError{RetryAfter: time.Duration(sec) * time.Second, Err: err}
	}
	if strings.Contains(strings.ToLower(text), "too many requests") {
		return &kit.ThrottleError{Err: err}
	}
	return err
}

func floodSeconds(err error) (int, bool) {
	var fe tele.FloodError
	if errors.As(err, &fe) {
		return fe.RetryAfter, true
	}
	var pfe *tele.FloodError
	if errors.As(err, &pfe) && pfe != nil {
		return pfe.RetryAfter, true
	}
	return 0, false
}
