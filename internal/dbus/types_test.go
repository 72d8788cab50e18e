package dbus

import (
	"math"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/lockind/internal/indicator"
	"github.com/jmylchreest/lockind/internal/lockkeys"
)

func TestCloseReasonString(t *testing.T) {
	tests := []struct {
		reason   CloseReason
		expected string
	}{
		{CloseReasonExpired, "expired"},
		{CloseReasonDismissed, "dismissed"},
		{CloseReasonClosed, "closed"},
		{CloseReasonUndefined, "undefined"},
		{CloseReason(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reason.String())
		})
	}
}

func TestNewStatusNotification(t *testing.T) {
	status := indicator.NewStatus(lockkeys.NewState(false, true, false), lockkeys.AllKeys)
	n := NewStatusNotification("lockind", status, 1500*time.Millisecond)

	assert.Equal(t, "lockind", n.AppName)
	assert.Equal(t, "CAPS: OFF | NUM: ON | SCROLL: OFF", n.Summary)
	assert.Equal(t, int32(1500), n.ExpireTimeout)
	assert.Equal(t, CategoryDevice, n.Category())
	assert.True(t, n.Transient())
	assert.Equal(t, UrgencyLow, n.Urgency())
	assert.Equal(t, "lockind", n.StackTag())
	assert.NotNil(t, n.Actions, "actions must marshal as an empty array")
}

func TestNotification_Args(t *testing.T) {
	n := &Notification{
		AppName:       "lockind",
		ReplacesID:    7,
		AppIcon:       "input-keyboard",
		Summary:       "CAPS: ON",
		Actions:       []string{},
		Hints:         map[string]dbus.Variant{},
		ExpireTimeout: 1000,
	}

	args := n.Args()
	require.Len(t, args, 8)
	assert.Equal(t, "lockind", args[0])
	assert.Equal(t, uint32(7), args[1])
	assert.Equal(t, "CAPS: ON", args[3])
	assert.Equal(t, int32(1000), args[7])
}

func TestNotification_HintDefaults(t *testing.T) {
	n := &Notification{Hints: map[string]dbus.Variant{
		"urgency":  dbus.MakeVariant("not a byte"),
		"category": dbus.MakeVariant(42),
	}}

	assert.Equal(t, UrgencyNormal, n.Urgency())
	assert.Equal(t, "", n.Category())
	assert.False(t, n.Transient())
	assert.Equal(t, "", n.StackTag())
}

func TestExpireTimeout(t *testing.T) {
	assert.Equal(t, int32(-1), expireTimeout(0))
	assert.Equal(t, int32(250), expireTimeout(250*time.Millisecond))
	assert.Equal(t, int32(math.MaxInt32), expireTimeout(1000*time.Hour))
}
