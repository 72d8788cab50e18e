package dbus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/lockind/internal/indicator"
	"github.com/jmylchreest/lockind/internal/lockkeys"
)

type recordedCall struct {
	method string
	args   []any
}

// fakeBus answers notification method calls in memory.
type fakeBus struct {
	mu      sync.Mutex
	calls   []recordedCall
	nextID  uint32
	failAll bool
}

func (b *fakeBus) Call(method string, flags dbus.Flags, args ...any) *dbus.Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, recordedCall{method: method, args: args})
	if b.failAll {
		return &dbus.Call{Err: errors.New("bus unavailable")}
	}

	switch method {
	case DBusInterface + ".Notify":
		replaces := args[1].(uint32)
		if replaces != 0 {
			return &dbus.Call{Body: []any{replaces}}
		}
		b.nextID++
		return &dbus.Call{Body: []any{b.nextID}}
	case DBusInterface + ".GetServerInformation":
		return &dbus.Call{Body: []any{"fake", "lockind-tests", "1.0", "1.2"}}
	case DBusInterface + ".GetCapabilities":
		return &dbus.Call{Body: []any{[]string{"body", "persistence"}}}
	default:
		return &dbus.Call{}
	}
}

func (b *fakeBus) Calls(method string) []recordedCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedCall
	for _, c := range b.calls {
		if c.method == DBusInterface+"."+method {
			out = append(out, c)
		}
	}
	return out
}

func capsOn() indicator.Status {
	return indicator.NewStatus(lockkeys.NewState(true, false, false), lockkeys.AllKeys)
}

func TestNotifier_ShowReplacesInPlace(t *testing.T) {
	bus := &fakeBus{}
	n := newNotifier(bus, "lockind", 1500*time.Millisecond, nil)
	defer func() { _ = n.Close() }()

	n.Show(capsOn())
	n.Show(indicator.NewStatus(0, lockkeys.AllKeys))

	require.Eventually(t, func() bool { return len(bus.Calls("Notify")) == 2 }, time.Second, 5*time.Millisecond)

	calls := bus.Calls("Notify")
	assert.Equal(t, uint32(0), calls[0].args[1], "first notification is new")
	assert.Equal(t, uint32(1), calls[1].args[1], "second replaces the first")
	assert.Equal(t, "CAPS: ON | NUM: OFF | SCROLL: OFF", calls[0].args[3])
	assert.Equal(t, "CAPS: OFF | NUM: OFF | SCROLL: OFF", calls[1].args[3])
	assert.Equal(t, int32(1500), calls[0].args[7])
	assert.Equal(t, uint32(1), n.CurrentID())
}

func TestNotifier_HideClosesNotification(t *testing.T) {
	bus := &fakeBus{}
	n := newNotifier(bus, "lockind", time.Second, nil)
	defer func() { _ = n.Close() }()

	n.Hide() // nothing visible yet
	n.Show(capsOn())
	n.Hide()

	require.Eventually(t, func() bool { return len(bus.Calls("CloseNotification")) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint32(1), bus.Calls("CloseNotification")[0].args[0])
	assert.Equal(t, uint32(0), n.CurrentID())
}

func TestNotifier_ServerClosedNotification(t *testing.T) {
	bus := &fakeBus{}
	n := newNotifier(bus, "lockind", time.Second, nil)
	defer func() { _ = n.Close() }()

	n.Show(capsOn())
	require.Eventually(t, func() bool { return n.CurrentID() == 1 }, time.Second, 5*time.Millisecond)

	n.signals <- &dbus.Signal{
		Name: DBusInterface + ".NotificationClosed",
		Body: []any{uint32(1), uint32(CloseReasonExpired)},
	}
	require.Eventually(t, func() bool { return n.CurrentID() == 0 }, time.Second, 5*time.Millisecond)

	// The next status starts a fresh notification.
	n.Show(capsOn())
	require.Eventually(t, func() bool { return len(bus.Calls("Notify")) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint32(0), bus.Calls("Notify")[1].args[1])
}

func TestNotifier_FailuresAreNotFatal(t *testing.T) {
	bus := &fakeBus{failAll: true}
	n := newNotifier(bus, "lockind", time.Second, nil)

	n.Show(capsOn())
	n.Hide()
	require.NoError(t, n.Close())

	assert.Len(t, bus.Calls("Notify"), 1)
	assert.Equal(t, uint32(0), n.CurrentID())

	_, err := n.ServerInformation()
	assert.Error(t, err)
}

func TestNotifier_CloseDrainsQueue(t *testing.T) {
	bus := &fakeBus{}
	n := newNotifier(bus, "lockind", time.Second, nil)

	n.Show(capsOn())
	require.NoError(t, n.Close())
	require.NoError(t, n.Close())

	assert.Len(t, bus.Calls("Notify"), 1)
	assert.Len(t, bus.Calls("CloseNotification"), 1, "visible notification is closed on shutdown")

	// Calls after Close are dropped.
	n.Show(capsOn())
	assert.Len(t, bus.Calls("Notify"), 1)
}

func TestNotifier_ServerQueries(t *testing.T) {
	bus := &fakeBus{}
	n := newNotifier(bus, "lockind", time.Second, nil)
	defer func() { _ = n.Close() }()

	info, err := n.ServerInformation()
	require.NoError(t, err)
	assert.Equal(t, ServerInfo{Name: "fake", Vendor: "lockind-tests", Version: "1.0", SpecVersion: "1.2"}, info)

	caps, err := n.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "persistence"}, caps)
}

func TestNotifier_SetHideTime(t *testing.T) {
	bus := &fakeBus{}
	n := newNotifier(bus, "lockind", time.Second, nil)
	defer func() { _ = n.Close() }()

	n.SetHideTime(250 * time.Millisecond)
	n.Show(capsOn())

	require.Eventually(t, func() bool { return len(bus.Calls("Notify")) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(250), bus.Calls("Notify")[0].args[7])
}

func TestSend(t *testing.T) {
	bus := &fakeBus{}
	id, err := send(bus, &Notification{AppName: "lockind", Summary: "Configuration Reloaded"})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)
	require.Len(t, bus.Calls("Notify"), 1)
	assert.Equal(t, "Configuration Reloaded", bus.Calls("Notify")[0].args[3])

	_, err = send(&fakeBus{failAll: true}, &Notification{})
	assert.Error(t, err)
}
