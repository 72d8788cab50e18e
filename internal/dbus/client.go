package dbus

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/lockind/internal/indicator"
)

// caller is the subset of dbus.BusObject the notifier uses.
type caller interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Notifier implements indicator.Display with desktop notifications.
// Each status replaces the previous notification through replaces_id, so at
// most one is ever visible. Calls are queued to a worker goroutine so Show
// and Hide never wait on the bus.
type Notifier struct {
	conn    *dbus.Conn
	obj     caller
	logger  *slog.Logger
	appName string

	mu       sync.Mutex
	id       uint32
	hideTime time.Duration

	ops     chan func()
	signals chan *dbus.Signal
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

var _ indicator.Display = (*Notifier)(nil)

// NewNotifier connects to the session bus and returns a running notifier.
func NewNotifier(appName string, hideTime time.Duration, logger *slog.Logger) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	n := newNotifier(conn.Object(DBusBusName, DBusPath), appName, hideTime, logger)
	n.conn = conn

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(DBusPath),
		dbus.WithMatchInterface(DBusInterface),
		dbus.WithMatchMember("NotificationClosed"),
	); err != nil {
		n.logger.Warn("failed to subscribe to NotificationClosed", "error", err)
	} else {
		conn.Signal(n.signals)
	}

	info, err := n.ServerInformation()
	if err != nil {
		_ = n.Close()
		return nil, fmt.Errorf("no notification server on the session bus: %w", err)
	}
	n.logger.Info("notification server found",
		"name", info.Name,
		"vendor", info.Vendor,
		"version", info.Version,
		"spec_version", info.SpecVersion,
	)

	return n, nil
}

func newNotifier(obj caller, appName string, hideTime time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		obj:      obj,
		logger:   logger,
		appName:  appName,
		hideTime: hideTime,
		ops:      make(chan func(), 32),
		signals:  make(chan *dbus.Signal, 8),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go n.run()
	return n
}

// Show implements indicator.Display.
func (n *Notifier) Show(status indicator.Status) {
	n.enqueue(func() { n.notify(status) })
}

// Hide implements indicator.Display.
func (n *Notifier) Hide() {
	n.enqueue(n.closeCurrent)
}

// SetHideTime changes the expire timeout sent with later notifications.
func (n *Notifier) SetHideTime(d time.Duration) {
	n.mu.Lock()
	n.hideTime = d
	n.mu.Unlock()
}

// CurrentID returns the server id of the visible notification, or 0.
func (n *Notifier) CurrentID() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.id
}

// ServerInformation queries GetServerInformation.
func (n *Notifier) ServerInformation() (ServerInfo, error) {
	var info ServerInfo
	err := n.obj.Call(DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("GetServerInformation failed: %w", err)
	}
	return info, nil
}

// Capabilities queries GetCapabilities.
func (n *Notifier) Capabilities() ([]string, error) {
	var caps []string
	if err := n.obj.Call(DBusInterface+".GetCapabilities", 0).Store(&caps); err != nil {
		return nil, fmt.Errorf("GetCapabilities failed: %w", err)
	}
	return caps, nil
}

// Close drains queued calls, closes the visible notification and the bus
// connection. It is safe to call more than once.
func (n *Notifier) Close() error {
	n.once.Do(func() {
		close(n.stopCh)
		<-n.doneCh
		n.closeCurrent()
		if n.conn != nil {
			n.conn.RemoveSignal(n.signals)
		}
	})
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

func (n *Notifier) enqueue(op func()) {
	select {
	case <-n.stopCh:
		return
	default:
	}

	select {
	case n.ops <- op:
	default:
		n.logger.Warn("notification queue full, dropping update")
	}
}

// run executes queued calls in order and tracks server-side closes.
func (n *Notifier) run() {
	defer close(n.doneCh)

	for {
		select {
		case op := <-n.ops:
			op()
		case sig := <-n.signals:
			n.handleSignal(sig)
		case <-n.stopCh:
			for {
				select {
				case op := <-n.ops:
					op()
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) notify(status indicator.Status) {
	n.mu.Lock()
	notification := NewStatusNotification(n.appName, status, n.hideTime)
	notification.ReplacesID = n.id
	n.mu.Unlock()

	var id uint32
	if err := n.obj.Call(DBusInterface+".Notify", 0, notification.Args()...).Store(&id); err != nil {
		n.logger.Warn("failed to send notification", "status", status.Text, "error", err)
		return
	}

	n.mu.Lock()
	n.id = id
	n.mu.Unlock()

	n.logger.Debug("notification sent", "id", id, "replaces_id", notification.ReplacesID, "status", status.Text)
}

func (n *Notifier) closeCurrent() {
	n.mu.Lock()
	id := n.id
	n.id = 0
	n.mu.Unlock()

	if id == 0 {
		return
	}
	if err := n.obj.Call(DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		n.logger.Debug("failed to close notification", "id", id, "error", err)
	}
}

// handleSignal forgets the current id when the server closes it on its own.
func (n *Notifier) handleSignal(sig *dbus.Signal) {
	if sig == nil || sig.Name != DBusInterface+".NotificationClosed" || len(sig.Body) < 2 {
		return
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}
	reason, _ := sig.Body[1].(uint32)

	n.mu.Lock()
	if n.id == id {
		n.id = 0
	}
	n.mu.Unlock()

	n.logger.Debug("notification closed by server", "id", id, "reason", CloseReason(reason).String())
}

// Send delivers a single notification on the shared session bus and returns
// the server id.
func Send(notification *Notification) (uint32, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return 0, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return send(conn.Object(DBusBusName, DBusPath), notification)
}

func send(obj caller, notification *Notification) (uint32, error) {
	var id uint32
	if err := obj.Call(DBusInterface+".Notify", 0, notification.Args()...).Store(&id); err != nil {
		return 0, fmt.Errorf("Notify failed: %w", err)
	}
	return id, nil
}
