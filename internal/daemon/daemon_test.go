package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/lockind/internal/config"
	"github.com/jmylchreest/lockind/internal/dbus"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func startWatcher(t *testing.T, path string) (*ConfigWatcher, chan *config.Config, chan error) {
	t.Helper()

	w, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)

	reloaded := make(chan *config.Config, 4)
	failed := make(chan error, 4)
	w.SetReloadCallback(func(cfg *config.Config) { reloaded <- cfg })
	w.SetErrorCallback(func(err error) { failed <- err })

	require.NoError(t, w.Start(context.Background(), config.DefaultConfig()))
	t.Cleanup(w.Stop)
	return w, reloaded, failed
}

func TestConfigWatcher_ReloadsValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockind.toml")
	writeConfig(t, path, "[indicator]\nhide_time = \"1s\"\n")

	w, reloaded, _ := startWatcher(t, path)
	assert.True(t, w.IsRunning())
	assert.Equal(t, path, w.Path())

	writeConfig(t, path, "[indicator]\nhide_time = \"1000\"\npolling_rate = \"100\"\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, time.Second, cfg.Indicator.HideTime.Duration())
		assert.Equal(t, 100*time.Millisecond, cfg.Indicator.PollingRate.Duration())
		assert.Same(t, cfg, w.GetCurrentConfig())
	case <-time.After(2 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestConfigWatcher_InvalidConfigKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockind.toml")
	writeConfig(t, path, "")

	w, reloaded, failed := startWatcher(t, path)
	initial := w.GetCurrentConfig()

	writeConfig(t, path, "[display]\nopacity = 5.0\n")

	select {
	case err := <-failed:
		assert.Contains(t, err.Error(), "opacity")
	case <-reloaded:
		t.Fatal("invalid config must not be applied")
	case <-time.After(2 * time.Second):
		t.Fatal("config error was not reported")
	}
	assert.Same(t, initial, w.GetCurrentConfig())
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lockind.toml")

	_, reloaded, failed := startWatcher(t, path)

	writeConfig(t, filepath.Join(dir, "other.toml"), "garbage = [")

	select {
	case <-reloaded:
		t.Fatal("unrelated file triggered a reload")
	case <-failed:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConfigWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockind.toml")
	w, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background(), nil))
	require.NoError(t, w.Start(context.Background(), nil))
	w.Stop()
	w.Stop()
	assert.False(t, w.IsRunning())
}

func TestConfigWatcher_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "lockind.toml")
	w, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background(), nil))
	assert.False(t, w.IsRunning())
}

type sentRecorder struct {
	mu   sync.Mutex
	sent []*dbus.Notification
}

func (r *sentRecorder) handle(n *dbus.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func TestInternalNotifier_Levels(t *testing.T) {
	tests := []struct {
		name    string
		send    func(n *InternalNotifier)
		summary string
		urgency byte
		icon    string
	}{
		{"reload", func(n *InternalNotifier) { n.NotifyConfigReloaded() }, "Configuration Reloaded", dbus.UrgencyLow, "dialog-information"},
		{"config error", func(n *InternalNotifier) { n.NotifyConfigError(errors.New("bad")) }, "Configuration Error", dbus.UrgencyNormal, "dialog-warning"},
		{"theme", func(n *InternalNotifier) { n.NotifyThemeReloaded("minimal") }, "Theme Reloaded", dbus.UrgencyLow, "dialog-information"},
		{"theme error", func(n *InternalNotifier) { n.NotifyThemeError(errors.New("bad")) }, "Theme Error", dbus.UrgencyNormal, "dialog-warning"},
		{"audio error", func(n *InternalNotifier) { n.NotifyAudioError(errors.New("bad")) }, "Audio Error", dbus.UrgencyNormal, "dialog-warning"},
		{"unsupported", func(n *InternalNotifier) { n.NotifyUnsupported() }, "Lock keys unavailable", dbus.UrgencyCritical, "dialog-error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &sentRecorder{}
			n := NewInternalNotifier("lockind", nil)
			n.SetNotifyHandler(rec.handle)

			tt.send(n)

			require.Len(t, rec.sent, 1)
			got := rec.sent[0]
			assert.Equal(t, tt.summary, got.Summary)
			assert.Equal(t, tt.urgency, got.Urgency())
			assert.Equal(t, tt.icon, got.AppIcon)
			assert.Equal(t, "lockind", got.AppName)
			assert.True(t, got.Transient())
			assert.Equal(t, int32(internalExpireTimeout), got.ExpireTimeout)
		})
	}
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	rec := &sentRecorder{}
	n := NewInternalNotifier("lockind", nil)
	n.SetNotifyHandler(rec.handle)

	now := time.Unix(1000, 0)
	n.now = func() time.Time { return now }

	assert.True(t, n.Notify("k", "a", "", NotificationLevelInfo))
	assert.False(t, n.Notify("k", "a", "", NotificationLevelInfo))
	assert.True(t, n.Notify("other", "b", "", NotificationLevelInfo))

	now = now.Add(5 * time.Second)
	assert.True(t, n.Notify("k", "a", "", NotificationLevelInfo))
	assert.Len(t, rec.sent, 3)

	n.SetMinInterval(0)
	assert.True(t, n.Notify("k", "a", "", NotificationLevelInfo))
}

func TestInternalNotifier_DisabledOrNoHandler(t *testing.T) {
	n := NewInternalNotifier("lockind", nil)
	assert.False(t, n.Notify("k", "a", "", NotificationLevelInfo))

	rec := &sentRecorder{}
	n.SetNotifyHandler(rec.handle)
	n.SetEnabled(false)
	assert.False(t, n.Notify("k", "a", "", NotificationLevelInfo))
	assert.Empty(t, rec.sent)
}

func TestNotificationLevel_String(t *testing.T) {
	assert.Equal(t, "info", NotificationLevelInfo.String())
	assert.Equal(t, "warning", NotificationLevelWarning.String())
	assert.Equal(t, "error", NotificationLevelError.String())
	assert.Equal(t, "unknown", NotificationLevel(9).String())
}
