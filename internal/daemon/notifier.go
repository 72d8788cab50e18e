package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/lockind/internal/dbus"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// String returns the level name used in logs.
func (l NotificationLevel) String() string {
	switch l {
	case NotificationLevelInfo:
		return "info"
	case NotificationLevelWarning:
		return "warning"
	case NotificationLevelError:
		return "error"
	default:
		return "unknown"
	}
}

// urgency maps the level to a notification urgency.
func (l NotificationLevel) urgency() byte {
	switch l {
	case NotificationLevelInfo:
		return dbus.UrgencyLow
	case NotificationLevelError:
		return dbus.UrgencyCritical
	default:
		return dbus.UrgencyNormal
	}
}

// icon maps the level to a freedesktop icon name.
func (l NotificationLevel) icon() string {
	switch l {
	case NotificationLevelInfo:
		return "dialog-information"
	case NotificationLevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// internalExpireTimeout is how long self-notifications stay up, in ms.
const internalExpireTimeout = 5000

// InternalNotifier sends desktop notifications about lockind's own events.
// The same key is rate limited so a flapping config file cannot flood the desktop.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	appName       string
	notifyHandler func(notification *dbus.Notification)

	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration
	now            func() time.Time

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(appName string, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		appName:        appName,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// SetNotifyHandler sets the function that delivers a notification.
func (n *InternalNotifier) SetNotifyHandler(handler func(notification *dbus.Notification)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifyHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends an internal notification unless the same key was sent within
// the minimum interval. It reports whether the notification was handed off.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()

	if !n.enabled {
		n.mu.Unlock()
		return false
	}

	handler := n.notifyHandler
	if handler == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return false
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return false
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	notification := &dbus.Notification{
		AppName: n.appName,
		AppIcon: level.icon(),
		Summary: summary,
		Body:    body,
		Actions: []string{},
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(level.urgency()),
			"category":      godbus.MakeVariant(dbus.CategoryDevice),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant(n.appName),
		},
		ExpireTimeout: internalExpireTimeout,
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	handler(notification)
	return true
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		n.appName+" configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyThemeReloaded sends a notification about theme being reloaded.
func (n *InternalNotifier) NotifyThemeReloaded(themeName string) {
	n.Notify(
		"theme-reload",
		"Theme Reloaded",
		"Theme '"+themeName+"' has been reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyThemeError sends a notification about theme loading error.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify(
		"theme-error",
		"Theme Error",
		"Failed to load theme: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyAudioError sends a notification about audio playback error.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify(
		"audio-error",
		"Audio Error",
		"Failed to play change sound: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyUnsupported tells the user no lock key state can be read here.
func (n *InternalNotifier) NotifyUnsupported() {
	n.Notify(
		"unsupported",
		"Lock keys unavailable",
		"Lock key state cannot be read on this system; the indicator will stay hidden.",
		NotificationLevelError,
	)
}
