package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/lockind/internal/indicator"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the notification service bus name.
	DBusBusName = "org.freedesktop.Notifications"
)

// Notification urgency levels.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// CategoryDevice is the notification category for hardware state changes.
const CategoryDevice = "device"

// CloseReason represents the reason for closing a notification.
// Values match the freedesktop NotificationClosed signal.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Notification holds the parameters of an outgoing Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// NewStatusNotification builds the notification for an indicator status.
// The notification is transient so servers keep it out of their history.
func NewStatusNotification(appName string, status indicator.Status, hideTime time.Duration) *Notification {
	return &Notification{
		AppName: appName,
		AppIcon: "input-keyboard",
		Summary: status.Text,
		Actions: []string{},
		Hints: map[string]dbus.Variant{
			"category":       dbus.MakeVariant(CategoryDevice),
			"transient":      dbus.MakeVariant(true),
			"urgency":        dbus.MakeVariant(UrgencyLow),
			"suppress-sound": dbus.MakeVariant(true),
			// dunst replaces notifications sharing a stack tag.
			"x-dunst-stack-tag": dbus.MakeVariant(appName),
		},
		ExpireTimeout: expireTimeout(hideTime),
	}
}

// Args returns the Notify method arguments in wire order (susssasa{sv}i).
func (n *Notification) Args() []any {
	return []any{
		n.AppName,
		n.ReplacesID,
		n.AppIcon,
		n.Summary,
		n.Body,
		n.Actions,
		n.Hints,
		n.ExpireTimeout,
	}
}

// Urgency extracts the urgency hint. Returns UrgencyNormal if not specified.
func (n *Notification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return b
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint.
func (n *Notification) Category() string {
	if v, ok := n.Hints["category"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// Transient returns true if the transient hint is set.
func (n *Notification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// StackTag extracts the stack-tag hint.
func (n *Notification) StackTag() string {
	if v, ok := n.Hints["x-dunst-stack-tag"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// expireTimeout converts a hide time to the Notify expire timeout in ms.
func expireTimeout(d time.Duration) int32 {
	ms := d.Milliseconds()
	switch {
	case ms <= 0:
		return -1
	case ms > int64(^uint32(0)>>1):
		return int32(^uint32(0) >> 1)
	default:
		return int32(ms)
	}
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}
