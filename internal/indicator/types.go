package indicator

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/lockind/internal/lockkeys"
)

// Status is what a Display renders.
type Status struct {
	Text   string         // e.g. "CAPS: ON | NUM: OFF | SCROLL: OFF"
	Active bool           // Any monitored key is on
	State  lockkeys.State // Full snapshot
}

// NewStatus builds the Status for state restricted to keys.
func NewStatus(state lockkeys.State, keys []lockkeys.Key) Status {
	return Status{
		Text:   state.Format(keys),
		Active: state.AnyOn(keys),
		State:  state,
	}
}

// Change describes one detected lock key change.
type Change struct {
	ID       string // ULID
	At       time.Time
	Previous lockkeys.State
	Current  lockkeys.State
	Status   Status
}

// Display renders the indicator. Implementations are responsible for
// marshalling onto their own UI loop; Show and Hide may be called from the
// controller's goroutines.
type Display interface {
	// Show displays status, replacing any visible status in place.
	Show(status Status)
	// Hide dismisses the indicator. Hiding an already hidden indicator is a no-op.
	Hide()
}

// ChangeHook is called after each detected change.
type ChangeHook func(change Change)

// Timer is a stoppable one-shot timer.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func newChangeID(at time.Time) string {
	id, err := ulid.New(ulid.Timestamp(at), rand.Reader)
	if err != nil {
		return ""
	}
	return id.String()
}

// DisplayFunc adapts a pair of functions to Display.
type DisplayFunc struct {
	ShowFunc func(Status)
	HideFunc func()
}

// Show implements Display.
func (d DisplayFunc) Show(s Status) {
	if d.ShowFunc != nil {
		d.ShowFunc(s)
	}
}

// Hide implements Display.
func (d DisplayFunc) Hide() {
	if d.HideFunc != nil {
		d.HideFunc()
	}
}
