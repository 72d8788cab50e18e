package lockkeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Format(t *testing.T) {
	tests := []struct {
		name  string
		state State
		keys  []Key
		want  string
	}{
		{"all off", NewState(false, false, false), AllKeys, "CAPS: OFF | NUM: OFF | SCROLL: OFF"},
		{"caps on", NewState(true, false, false), AllKeys, "CAPS: ON | NUM: OFF | SCROLL: OFF"},
		{"all on", NewState(true, true, true), AllKeys, "CAPS: ON | NUM: ON | SCROLL: ON"},
		{"subset", NewState(false, true, false), []Key{Num}, "NUM: ON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Format(tt.keys))
		})
	}
}

func TestState_WithAndOn(t *testing.T) {
	var s State
	assert.False(t, s.On(Caps))

	s = s.With(Caps, true).With(Scroll, true)
	assert.True(t, s.On(Caps))
	assert.False(t, s.On(Num))
	assert.True(t, s.On(Scroll))
	assert.Equal(t, []Key{Caps, Scroll}, s.Keys())

	s = s.With(Caps, false)
	assert.False(t, s.On(Caps))
	assert.Equal(t, NewState(false, false, true), s)
}

func TestState_MaskAndAnyOn(t *testing.T) {
	s := NewState(false, true, false)

	assert.True(t, s.AnyOn(AllKeys))
	assert.False(t, s.AnyOn([]Key{Caps, Scroll}))
	assert.Equal(t, State(0), s.Mask([]Key{Caps}))
	assert.Equal(t, s, s.Mask([]Key{Num}))
}

func TestState_Values(t *testing.T) {
	s := NewState(true, false, true)
	assert.Equal(t, map[string]bool{"caps": true, "num": false, "scroll": true}, s.Values(AllKeys))
}

func TestParseKey(t *testing.T) {
	for _, name := range []string{"caps", "CAPS", "capslock", "caps_lock", "caps-lock", " Caps "} {
		k, err := ParseKey(name)
		require.NoError(t, err, name)
		assert.Equal(t, Caps, k, name)
	}

	k, err := ParseKey("scroll")
	require.NoError(t, err)
	assert.Equal(t, Scroll, k)

	_, err = ParseKey("shift")
	assert.Error(t, err)
}

func TestParseKeys(t *testing.T) {
	keys, err := ParseKeys([]string{"scroll", "caps", "caps"})
	require.NoError(t, err)
	assert.Equal(t, []Key{Caps, Scroll}, keys)

	_, err = ParseKeys(nil)
	assert.Error(t, err)

	_, err = ParseKeys([]string{"caps", "meta"})
	assert.Error(t, err)
}

func TestKey_Strings(t *testing.T) {
	assert.Equal(t, "CAPS", Caps.Label())
	assert.Equal(t, "num", Num.String())
	assert.Equal(t, "UNKNOWN", Key(9).Label())
	assert.Equal(t, "key(9)", Key(9).String())
}
