package display

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/lockind/internal/config"
	"github.com/jmylchreest/lockind/internal/indicator"
)

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "active", statusClass(true))
	assert.Equal(t, "inactive", statusClass(false))
}

func TestSchemeClass(t *testing.T) {
	dark := func() bool { return true }
	light := func() bool { return false }

	tests := []struct {
		name   string
		scheme config.ColorScheme
		system func() bool
		want   string
	}{
		{"forced light", config.ColorSchemeLight, dark, "light"},
		{"forced dark", config.ColorSchemeDark, light, "dark"},
		{"system dark", config.ColorSchemeSystem, dark, "dark"},
		{"system light", config.ColorSchemeSystem, light, "light"},
		{"no detector", config.ColorSchemeSystem, nil, "light"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schemeClass(tt.scheme, tt.system))
		})
	}
}

func TestFontCSS(t *testing.T) {
	assert.Equal(t, ".lock-indicator-label { font-size: 24pt; }", fontCSS(24))
	assert.Equal(t, ".lock-indicator-label { font-size: 18pt; }", fontCSS(0))
}

func TestWindowSize(t *testing.T) {
	w, h := windowSize(config.DisplayConfig{Width: 640, Height: 90})
	assert.Equal(t, 640, w)
	assert.Equal(t, 90, h)

	w, h = windowSize(config.DisplayConfig{})
	assert.Equal(t, config.DefaultWidth, w)
	assert.Equal(t, config.DefaultHeight, h)
}

func TestOverlay_IgnoresCallsAfterStop(t *testing.T) {
	o := NewOverlay(nil, nil, nil)

	var queued []func()
	o.runOnMain = func(f func()) { queued = append(queued, f) }

	o.Stop()
	o.Show(indicator.Status{Text: "CAPS: ON"})
	o.Hide()

	assert.Len(t, queued, 2, "calls are still scheduled in order")
	for _, f := range queued {
		f() // must not touch GTK once stopped
	}
	assert.Nil(t, o.window)
}

func TestDisplayError(t *testing.T) {
	cause := errors.New("boom")
	err := &DisplayError{Message: "no display available", Cause: cause}

	assert.Equal(t, "no display available: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "no display available", (&DisplayError{Message: "no display available"}).Error())
}

func TestRequireLayerShell(t *testing.T) {
	assert.NoError(t, requireLayerShell(func() bool { return true }))

	for name, supported := range map[string]func() bool{
		"unsupported": func() bool { return false },
		"unknown":     nil,
	} {
		t.Run(name, func(t *testing.T) {
			err := requireLayerShell(supported)
			assert.ErrorIs(t, err, ErrLayerShellUnsupported)

			var displayErr *DisplayError
			assert.ErrorAs(t, err, &displayErr)
			assert.Equal(t, "overlay unavailable: layer shell not supported", err.Error())
		})
	}
}
