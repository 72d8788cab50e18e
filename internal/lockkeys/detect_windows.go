//go:build windows

package lockkeys

import (
	"log/slog"

	"golang.org/x/sys/windows"
)

// Virtual key codes of the lock keys.
const (
	vkCapital = 0x14
	vkNumLock = 0x90
	vkScroll  = 0x91
)

var windowsVK = map[Key]uintptr{
	Caps:   vkCapital,
	Num:    vkNumLock,
	Scroll: vkScroll,
}

// Win32Source reads the toggle bit reported by GetKeyState.
type Win32Source struct {
	getKeyState *windows.LazyProc
}

// NewWin32Source loads user32.dll.
func NewWin32Source() (*Win32Source, error) {
	proc := windows.NewLazySystemDLL("user32.dll").NewProc("GetKeyState")
	if err := proc.Find(); err != nil {
		return nil, err
	}
	return &Win32Source{getKeyState: proc}, nil
}

// Name implements Source.
func (s *Win32Source) Name() string {
	return "win32"
}

// Query implements Source. The low-order bit of GetKeyState is the toggle state.
func (s *Win32Source) Query() (State, error) {
	var state State
	for k, vk := range windowsVK {
		r, _, _ := s.getKeyState.Call(vk)
		state = state.With(k, r&0x0001 != 0)
	}
	return state, nil
}

// Close implements Source.
func (s *Win32Source) Close() error {
	return nil
}

func detectSource(logger *slog.Logger) Source {
	src, err := NewWin32Source()
	if err != nil {
		logger.Debug("win32 lock key source unavailable", "error", err)
		return nil
	}
	return src
}
