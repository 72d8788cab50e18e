//go:build linux

package lockkeys

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// X servers number keyboard LEDs from 1; the conventional assignment puts
// Caps Lock on LED 1, Num Lock on LED 2 and Scroll Lock on LED 3.
var x11LEDBits = map[Key]uint32{
	Caps:   1 << 0,
	Num:    1 << 1,
	Scroll: 1 << 2,
}

// X11Source reads the LED mask from the core keyboard control.
type X11Source struct {
	mu   sync.Mutex
	conn *xgb.Conn
}

// NewX11Source connects to the X server named by $DISPLAY.
func NewX11Source() (*X11Source, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	return &X11Source{conn: conn}, nil
}

// Name implements Source.
func (s *X11Source) Name() string {
	return "x11"
}

// Query implements Source.
func (s *X11Source) Query() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return 0, fmt.Errorf("x11 connection closed")
	}
	reply, err := xproto.GetKeyboardControl(s.conn).Reply()
	if err != nil {
		return 0, fmt.Errorf("GetKeyboardControl: %w", err)
	}
	return stateFromLEDMask(reply.LedMask), nil
}

// Close implements Source.
func (s *X11Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	return nil
}

func stateFromLEDMask(mask uint32) State {
	var s State
	for k, bit := range x11LEDBits {
		s = s.With(k, mask&bit != 0)
	}
	return s
}
