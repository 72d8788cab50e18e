package lockkeys

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultLEDClassDir is where the kernel exposes keyboard LEDs.
const DefaultLEDClassDir = "/sys/class/leds"

var ledSuffixes = map[Key]string{
	Caps:   "::capslock",
	Num:    "::numlock",
	Scroll: "::scrolllock",
}

// SysfsSource reads lock state from kernel LED class devices such as
// /sys/class/leds/input3::capslock/brightness. It works without a display
// server, which makes it the fallback under Wayland and on the console.
type SysfsSource struct {
	dir  string
	leds map[Key][]string
}

// NewSysfsSource scans dir for keyboard LEDs. It returns an error if no
// lock key LED is present.
func NewSysfsSource(dir string) (*SysfsSource, error) {
	if dir == "" {
		dir = DefaultLEDClassDir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read LED class directory: %w", err)
	}

	s := &SysfsSource{dir: dir, leds: make(map[Key][]string)}
	for _, entry := range entries {
		name := entry.Name()
		for k, suffix := range ledSuffixes {
			if strings.HasSuffix(name, suffix) {
				s.leds[k] = append(s.leds[k], filepath.Join(dir, name, "brightness"))
			}
		}
	}
	if len(s.leds) == 0 {
		return nil, fmt.Errorf("no lock key LEDs found in %s", dir)
	}
	return s, nil
}

// Name implements Source.
func (s *SysfsSource) Name() string {
	return "sysfs"
}

// Query implements Source. A key is on if any of its LEDs is lit; keyboards
// share lock state so normally they agree.
func (s *SysfsSource) Query() (State, error) {
	var state State
	var lastErr error
	read := 0
	for k, paths := range s.leds {
		for _, path := range paths {
			on, err := readBrightness(path)
			if err != nil {
				lastErr = err
				continue
			}
			read++
			if on {
				state = state.With(k, true)
			}
		}
	}
	if read == 0 && lastErr != nil {
		return 0, lastErr
	}
	return state, nil
}

// Close implements Source.
func (s *SysfsSource) Close() error {
	return nil
}

func readBrightness(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, fmt.Errorf("invalid brightness in %s: %w", path, err)
	}
	return v > 0, nil
}
