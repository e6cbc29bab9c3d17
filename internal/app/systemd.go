package app

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "efrsbmon/pkg/logx"
)

// notifier reports service state to systemd. Outside a notify unit every
// call is a no-op.
type notifier struct {
	log      logx.Logger
	watchdog time.Duration
}

func newNotifier(log logx.Logger) *notifier {
	n := &notifier{log: log}
	if d, err := daemon.SdWatchdogEnabled(false); err == nil && d > 0 {
		n.watchdog = d
		log.Info("systemd watchdog enabled", logx.Duration("interval", d))
	}
	return n
}

func (n *notifier) send(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.log.Warn("systemd notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		n.log.Debug("systemd notified", logx.String("state", state))
	}
}

func (n *notifier) Ready()    { n.send(daemon.SdNotifyReady) }
func (n *notifier) Stopping() { n.send(daemon.SdNotifyStopping) }

func (n *notifier) Alive() {
	if n.watchdog > 0 {
		n.send(daemon.SdNotifyWatchdog)
	}
}
