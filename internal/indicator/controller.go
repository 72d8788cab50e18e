package indicator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jmylchreest/lockind/internal/lockkeys"
)

// Default timings.
const (
	DefaultPollingRate = 250 * time.Millisecond
	DefaultHideTime    = 1500 * time.Millisecond
)

// ErrAlreadyRunning is returned by Start on a running controller.
var ErrAlreadyRunning = errors.New("indicator already running")

// Option configures a Controller.
type Option func(*Controller)

// WithPollingRate sets the polling interval.
func WithPollingRate(d time.Duration) Option {
	return func(c *Controller) { c.pollingRate = d }
}

// WithHideTime sets how long a shown status stays visible without further changes.
func WithHideTime(d time.Duration) Option {
	return func(c *Controller) { c.hideTime = d }
}

// WithKeys sets the monitored keys.
func WithKeys(keys []lockkeys.Key) Option {
	return func(c *Controller) { c.keys = slices.Clone(keys) }
}

// WithShowOnStartup shows the initial state once when Start is called.
func WithShowOnStartup(show bool) Option {
	return func(c *Controller) { c.showOnStartup = show }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithChangeHook registers a hook called after each detected change.
func WithChangeHook(hook ChangeHook) Option {
	return func(c *Controller) { c.hooks = append(c.hooks, hook) }
}

// WithAfterFunc replaces the hide timer factory.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = f }
}

// WithClock replaces the time source used for change timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller polls lock key state and drives a Display.
//
// The previous snapshot, visibility and hide timer are owned by the
// controller and guarded by mu; the poll loop and the hide timer callback
// never run the diff concurrently. Display methods are called with mu held,
// so a Display must not block or call back into the controller.
type Controller struct {
	reader  lockkeys.Reader
	display Display
	logger  *slog.Logger

	afterFunc AfterFunc
	now       func() time.Time

	mu            sync.Mutex
	keys          []lockkeys.Key
	pollingRate   time.Duration
	hideTime      time.Duration
	showOnStartup bool
	hooks         []ChangeHook

	previous   lockkeys.State
	visible    bool
	hideTimer  Timer
	generation uint64

	running bool
	stopped bool
	resetCh chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a controller over reader and display.
func New(reader lockkeys.Reader, display Display, opts ...Option) (*Controller, error) {
	if reader == nil {
		return nil, errors.New("indicator: reader is required")
	}
	if display == nil {
		return nil, errors.New("indicator: display is required")
	}

	c := &Controller{
		reader:      reader,
		display:     display,
		logger:      slog.Default(),
		afterFunc:   realAfterFunc,
		now:         time.Now,
		keys:        slices.Clone(lockkeys.AllKeys),
		pollingRate: DefaultPollingRate,
		hideTime:    DefaultHideTime,
		resetCh:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := validateTiming(c.pollingRate, c.hideTime); err != nil {
		return nil, err
	}
	if len(c.keys) == 0 {
		return nil, errors.New("indicator: at least one key must be monitored")
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

func validateTiming(pollingRate, hideTime time.Duration) error {
	if pollingRate <= 0 {
		return fmt.Errorf("indicator: polling rate must be positive, got %s", pollingRate)
	}
	if hideTime <= 0 {
		return fmt.Errorf("indicator: hide time must be positive, got %s", hideTime)
	}
	return nil
}

// Start primes the previous snapshot with a first read and starts polling.
// Polling stops when ctx is cancelled or Stop is called.
func (c *Controller) Start(ctx context.Context) error {
	initial := c.reader.Read()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}
	c.running = true
	c.stopped = false
	c.previous = initial
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	supported := readerSupported(c.reader)
	if c.showOnStartup && supported {
		c.showLocked(NewStatus(initial, c.keys))
	}

	go c.pollLoop(ctx, c.pollingRate, c.stopCh, c.doneCh)

	c.logger.Info("indicator started",
		"polling_rate", c.pollingRate,
		"hide_time", c.hideTime,
		"keys", keyNames(c.keys),
		"supported", supported,
		"initial", initial.Format(c.keys),
	)
	return nil
}

// Stop stops polling, cancels the hide timer and hides the display.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.stopped = true
	close(c.stopCh)
	c.cancelHideLocked()
	if c.visible {
		c.visible = false
		c.display.Hide()
	}
	done := c.doneCh
	c.mu.Unlock()

	<-done
	c.logger.Debug("indicator stopped")
}

// pollLoop ticks at the polling rate until stopped.
func (c *Controller) pollLoop(ctx context.Context, rate time.Duration, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-c.resetCh:
			c.mu.Lock()
			rate = c.pollingRate
			c.mu.Unlock()
			ticker.Reset(rate)
			c.logger.Debug("polling rate updated", "polling_rate", rate)
		case <-ticker.C:
			c.Poll()
		}
	}
}

// Poll performs one read and diff. It reports whether a display was triggered.
// Only monitored keys are compared, but the snapshot always tracks every key.
// A read that completes after Stop is discarded.
func (c *Controller) Poll() bool {
	current := c.reader.Read()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return false
	}

	previous := c.previous
	c.previous = current
	if current.Mask(c.keys) == previous.Mask(c.keys) {
		c.mu.Unlock()
		return false
	}

	status := NewStatus(current, c.keys)
	c.showLocked(status)
	hooks := slices.Clone(c.hooks)
	c.mu.Unlock()

	at := c.now()
	change := Change{
		ID:       newChangeID(at),
		At:       at,
		Previous: previous,
		Current:  current,
		Status:   status,
	}

	c.logger.Debug("lock key state changed",
		"change_id", change.ID,
		"status", status.Text,
		"active", status.Active,
	)

	for _, hook := range hooks {
		hook(change)
	}
	return true
}

// showLocked shows status and (re)arms the hide timer. Caller must hold mu.
func (c *Controller) showLocked(status Status) {
	c.display.Show(status)
	c.visible = true

	c.cancelHideLocked()
	gen := c.generation
	c.hideTimer = c.afterFunc(c.hideTime, func() {
		c.expire(gen)
	})
}

// cancelHideLocked stops the pending hide timer and invalidates any expiry
// already in flight. Caller must hold mu.
func (c *Controller) cancelHideLocked() {
	c.generation++
	if c.hideTimer != nil {
		c.hideTimer.Stop()
		c.hideTimer = nil
	}
}

// expire hides the display if gen is still the current timer generation.
// An expiry that lost the race against a newer change is dropped.
func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || gen != c.generation || !c.visible {
		return
	}
	c.visible = false
	c.hideTimer = nil
	c.display.Hide()
}

// UpdateTiming changes the polling rate and hide time. A running poll loop
// picks up the new rate immediately; the new hide time applies from the
// next change.
func (c *Controller) UpdateTiming(pollingRate, hideTime time.Duration) error {
	if err := validateTiming(pollingRate, hideTime); err != nil {
		return err
	}

	c.mu.Lock()
	changed := c.pollingRate != pollingRate
	c.pollingRate = pollingRate
	c.hideTime = hideTime
	running := c.running
	c.mu.Unlock()

	if changed && running {
		select {
		case c.resetCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// SetKeys changes the monitored keys.
func (c *Controller) SetKeys(keys []lockkeys.Key) error {
	if len(keys) == 0 {
		return errors.New("indicator: at least one key must be monitored")
	}
	c.mu.Lock()
	c.keys = slices.Clone(keys)
	c.mu.Unlock()
	return nil
}

// Snapshot returns the previous snapshot.
func (c *Controller) Snapshot() lockkeys.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previous
}

// Visible reports whether the display is currently showing a status.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// PollingRate returns the current polling interval.
func (c *Controller) PollingRate() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollingRate
}

// HideTime returns the current hide time.
func (c *Controller) HideTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hideTime
}

// Keys returns the monitored keys.
func (c *Controller) Keys() []lockkeys.Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.keys)
}

func keyNames(keys []lockkeys.Key) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return names
}

// readerSupported reports whether reader can query the host.
// Readers that do not say otherwise are assumed supported.
func readerSupported(reader lockkeys.Reader) bool {
	if s, ok := reader.(interface{ Supported() bool }); ok {
		return s.Supported()
	}
	return true
}
