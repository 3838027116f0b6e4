// Package notify surfaces alerts as desktop notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
	appName    = "Weekfitter"

	expireMillis = 8000
)

type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

type bus interface {
	Notify(ctx context.Context, summary, body string, urgency Urgency) error
	Close() error
}

type Notifier struct {
	enabled  bool
	fallback io.Writer
	logger   *zap.Logger
	connect  func() (bus, error)
}

// New returns a notifier that posts to the session bus when enabled and
// writes to fallback otherwise or when the bus is unavailable.
func New(enabled bool, fallback io.Writer, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		enabled:  enabled,
		fallback: fallback,
		logger:   logger,
		connect:  connectSessionBus,
	}
}

func (n *Notifier) Info(ctx context.Context, summary, body string) {
	n.send(ctx, summary, body, UrgencyNormal)
}

func (n *Notifier) Alert(ctx context.Context, summary, body string) {
	n.send(ctx, summary, body, UrgencyCritical)
}

func (n *Notifier) send(ctx context.Context, summary, body string, urgency Urgency) {
	summary = strings.TrimSpace(summary)
	body = strings.TrimSpace(body)

	if n.enabled {
		err := n.post(ctx, summary, body, urgency)
		if err == nil {
			return
		}
		n.logger.Debug("desktop notification failed", zap.Error(err))
	}

	if n.fallback == nil {
		return
	}
	if body == "" {
		_, _ = fmt.Fprintln(n.fallback, summary)
		return
	}
	_, _ = fmt.Fprintf(n.fallback, "%s: %s\n", summary, body)
}

func (n *Notifier) post(ctx context.Context, summary, body string, urgency Urgency) error {
	conn, err := n.connect()
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()
	return conn.Notify(ctx, summary, body, urgency)
}

type sessionBus struct {
	conn *dbus.Conn
}

func connectSessionBus() (bus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &sessionBus{conn: conn}, nil
}

func (b *sessionBus) Notify(ctx context.Context, summary, body string, urgency Urgency) error {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(urgency)),
	}

	var id uint32
	call := b.conn.Object(busName, dbus.ObjectPath(objectPath)).CallWithContext(
		ctx,
		busName+".Notify",
		0,
		appName,
		uint32(0),
		"",
		summary,
		body,
		[]string{},
		hints,
		int32(expireMillis),
	)
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

func (b *sessionBus) Close() error {
	return b.conn.Close()
}
