// Package systemd reports service state to systemd through sd_notify.
// Outside a systemd unit (no NOTIFY_SOCKET) every call is a no-op.
package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "jumbotron/pkg/logx"
)

type Notifier struct {
	log      logx.Logger
	watchdog time.Duration
	// send is daemon.SdNotify; tests replace it.
	send func(state string) (bool, error)
}

func NewNotifier(log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	n := &Notifier{
		log:  log,
		send: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}
	if d, err := daemon.SdWatchdogEnabled(false); err != nil {
		log.Warn("systemd watchdog settings invalid", logx.Err(err))
	} else {
		n.watchdog = d
	}
	return n
}

func (n *Notifier) notify(state string) {
	ok, err := n.send(state)
	switch {
	case err != nil:
		n.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
	case ok:
		n.log.Debug("sd_notify sent", logx.String("state", state))
	}
}

func (n *Notifier) Ready()    { n.notify(daemon.SdNotifyReady) }
func (n *Notifier) Stopping() { n.notify(daemon.SdNotifyStopping) }

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(s string) { n.notify("STATUS=" + s) }

// WatchdogInterval is WATCHDOG_USEC, or 0 when the unit has no watchdog.
func (n *Notifier) WatchdogInterval() time.Duration { return n.watchdog }

// RunWatchdog pings the watchdog at half the interval while alive reports true.
// A stalled event loop therefore lets systemd restart the unit.
func (n *Notifier) RunWatchdog(ctx context.Context, alive func() bool) error {
	if n.watchdog <= 0 {
		return nil
	}
	t := time.NewTicker(n.watchdog / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if alive == nil || alive() {
				n.notify(daemon.SdNotifyWatchdog)
			} else {
				n.log.Warn("event loop stalled; withholding watchdog ping")
			}
		}
	}
}
