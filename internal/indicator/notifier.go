// Package indicator mirrors session status transitions into desktop
// notifications over DBus.
package indicator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/whisperclip/whisperclip/internal/config"
	"github.com/whisperclip/whisperclip/internal/session"
)

const (
	// activeTimeoutMS keeps in-progress states visible until replaced.
	activeTimeoutMS = 300000
	// settledTimeoutMS lets terminal states fade on their own.
	settledTimeoutMS = 2500
	notifyDeadline   = 2 * time.Second
)

// Notifier maintains one replaceable desktop notification reflecting the
// latest session status. Notification failures are logged and swallowed;
// dictation never depends on the notification surface.
type Notifier struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger

	mu             sync.Mutex
	notificationID uint32
}

// NewNotifier creates a status notifier from config.
func NewNotifier(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{cfg: cfg, logger: logger}
}

// Notify routes one status event. It satisfies the session notify callback.
func (n *Notifier) Notify(status session.Status) {
	if !n.cfg.Enable {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyDeadline)
	defer cancel()

	if status.Kind == session.KindIdle {
		n.dismiss(ctx)
		return
	}

	summary := status.Message
	if summary == "" {
		summary = string(status.Kind)
	}
	n.show(ctx, summary, n.timeoutFor(status.Kind))
}

func (n *Notifier) timeoutFor(kind session.Kind) int {
	switch kind {
	case session.KindError:
		if n.cfg.ErrorTimeoutMS > 0 {
			return n.cfg.ErrorTimeoutMS
		}
		return 1600
	case session.KindLoading, session.KindRecording, session.KindTranscribing, session.KindCorrecting:
		return activeTimeoutMS
	default:
		return settledTimeoutMS
	}
}

func (n *Notifier) show(ctx context.Context, summary string, timeoutMS int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id, err := desktopNotify(ctx, n.appName(), n.notificationID, summary, timeoutMS)
	if err != nil {
		n.logger.Debug("desktop notification failed", "error", err)
		return
	}
	n.notificationID = id
}

func (n *Notifier) dismiss(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.notificationID == 0 {
		return
	}
	if err := desktopDismiss(ctx, n.notificationID); err != nil {
		n.logger.Debug("desktop dismiss failed", "error", err)
		return
	}
	n.notificationID = 0
}

func (n *Notifier) appName() string {
	if n.cfg.AppName != "" {
		return n.cfg.AppName
	}
	return "whisperclip"
}
