package lockkeys

import (
	"fmt"
	"strings"
)

// Key identifies a monitored toggle key.
type Key uint8

const (
	Caps Key = iota
	Num
	Scroll
)

// AllKeys lists every supported key in display order.
var AllKeys = []Key{Caps, Num, Scroll}

var keyLabels = map[Key]string{
	Caps:   "CAPS",
	Num:    "NUM",
	Scroll: "SCROLL",
}

var keyNames = map[Key]string{
	Caps:   "caps",
	Num:    "num",
	Scroll: "scroll",
}

// Label returns the short upper-case label used in status text.
func (k Key) Label() string {
	if l, ok := keyLabels[k]; ok {
		return l
	}
	return "UNKNOWN"
}

// String returns the config name of the key.
func (k Key) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("key(%d)", uint8(k))
}

// ParseKey converts a config name ("caps", "num", "scroll") to a Key.
// Matching is case-insensitive and accepts the "lock" suffixed forms.
func ParseKey(name string) (Key, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "lock"), "_")
	s = strings.TrimSuffix(s, "-")
	switch s {
	case "caps":
		return Caps, nil
	case "num":
		return Num, nil
	case "scroll":
		return Scroll, nil
	default:
		return 0, fmt.Errorf("unknown lock key %q, must be one of: caps, num, scroll", name)
	}
}

// ParseKeys parses a list of key names, dropping duplicates.
// The result is in canonical display order.
func ParseKeys(names []string) ([]Key, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one lock key must be monitored")
	}
	var mask State
	for _, name := range names {
		k, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		mask = mask.With(k, true)
	}
	return mask.Keys(), nil
}

// State is an immutable snapshot of lock key states: the set of keys that
// are on. The zero value is all-off. States are comparable with ==.
type State uint8

// NewState builds a State from explicit key values.
func NewState(caps, num, scroll bool) State {
	return State(0).With(Caps, caps).With(Num, num).With(Scroll, scroll)
}

// On reports whether k is on.
func (s State) On(k Key) bool {
	return s&(1<<k) != 0
}

// With returns a copy of s with k set to on.
func (s State) With(k Key, on bool) State {
	if on {
		return s | 1<<k
	}
	return s &^ (1 << k)
}

// Keys returns the keys that are on, in display order.
func (s State) Keys() []Key {
	var keys []Key
	for _, k := range AllKeys {
		if s.On(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Mask restricts s to the given keys.
func (s State) Mask(keys []Key) State {
	var m State
	for _, k := range keys {
		m = m.With(k, true)
	}
	return s & m
}

// AnyOn reports whether any of keys is on.
func (s State) AnyOn(keys []Key) bool {
	return s.Mask(keys) != 0
}

// Format renders the status line for keys, e.g.
// "CAPS: ON | NUM: OFF | SCROLL: OFF".
func (s State) Format(keys []Key) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := "OFF"
		if s.On(k) {
			v = "ON"
		}
		parts = append(parts, k.Label()+": "+v)
	}
	return strings.Join(parts, " | ")
}

// String renders all keys.
func (s State) String() string {
	return s.Format(AllKeys)
}

// Values returns a name -> on map for serialization.
func (s State) Values(keys []Key) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k.String()] = s.On(k)
	}
	return m
}
