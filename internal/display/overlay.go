package display

import (
	"errors"
	"log/slog"
	"sync"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/lockind/internal/config"
	"github.com/jmylchreest/lockind/internal/indicator"
)

// Overlay implements indicator.Display with a single layer-shell window.
// Show and Hide may be called from any goroutine; the work is scheduled on
// the GTK main loop in call order.
type Overlay struct {
	app    *gtk.Application
	logger *slog.Logger

	// runOnMain schedules f on the GTK main loop.
	runOnMain func(f func())
	// layerShellSupported reports whether the compositor speaks wlr-layer-shell.
	layerShellSupported func() bool

	mu      sync.Mutex
	config  *config.Config
	stopped bool

	// Owned by the GTK main loop.
	layout *LayoutManager
	window *Window
}

var _ indicator.Display = (*Overlay)(nil)

// NewOverlay creates an overlay display. Call Start on the GTK main loop
// before the first Show.
func NewOverlay(app *gtk.Application, cfg *config.Config, logger *slog.Logger) *Overlay {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Overlay{
		app:       app,
		config:    cfg,
		logger:    logger,
		runOnMain: func(f func()) { glib.IdleAdd(f) },

		layerShellSupported: layershell.IsSupported,
	}
}

// Start checks for a display and prepares monitor tracking.
// Without layer-shell the overlay cannot be centred or kept above other
// windows, so Start fails with ErrLayerShellUnsupported.
func (o *Overlay) Start() error {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return &DisplayError{Message: "no display available"}
	}
	if err := requireLayerShell(o.layerShellSupported); err != nil {
		return err
	}

	o.mu.Lock()
	o.layout = NewLayoutManager(o.config.Display, o.logger)
	o.mu.Unlock()

	if monitors := display.Monitors(); monitors != nil {
		monitors.ConnectItemsChanged(func(position, removed, added uint) {
			o.layout.HandleMonitorChange()
			if o.window != nil {
				o.layout.Place(o.window.window)
			}
		})
	}

	o.logger.Info("overlay display started")
	return nil
}

// Show implements indicator.Display.
func (o *Overlay) Show(status indicator.Status) {
	o.schedule(func() {
		w := o.ensureWindow()
		w.SetStatus(status)
		if !w.Visible() {
			w.Present()
		}
		o.logger.Debug("overlay shown", "status", status.Text)
	})
}

// Hide implements indicator.Display.
func (o *Overlay) Hide() {
	o.schedule(func() {
		if o.window == nil || !o.window.Visible() {
			return
		}
		o.window.Hide()
		o.logger.Debug("overlay hidden")
	})
}

// UpdateConfig applies new display and theme settings. This is called when
// the config file is hot-reloaded.
func (o *Overlay) UpdateConfig(cfg *config.Config) {
	o.mu.Lock()
	o.config = cfg
	o.mu.Unlock()

	o.schedule(func() {
		if o.layout != nil {
			o.layout.SetConfig(cfg.Display)
		}
		if o.window != nil {
			o.window.Configure(cfg)
		}
	})
}

// Stop hides and destroys the window. Later Show and Hide calls are ignored.
// Must be called on the GTK main loop.
func (o *Overlay) Stop() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()

	if o.window != nil {
		o.window.Hide()
		o.window.Destroy()
		o.window = nil
	}
	o.logger.Info("overlay display stopped")
}

func (o *Overlay) schedule(f func()) {
	o.runOnMain(func() {
		o.mu.Lock()
		stopped := o.stopped
		o.mu.Unlock()
		if stopped {
			return
		}
		f()
	})
}

// ensureWindow creates the window on first use. Main loop only.
func (o *Overlay) ensureWindow() *Window {
	if o.window != nil {
		return o.window
	}

	o.mu.Lock()
	cfg := o.config
	o.mu.Unlock()

	if o.layout == nil {
		o.layout = NewLayoutManager(cfg.Display, o.logger)
	}
	o.window = NewWindow(o.app, cfg, o.layout, o.logger)
	return o.window
}

// ErrLayerShellUnsupported means the compositor has no wlr-layer-shell,
// as on X11 and GNOME.
var ErrLayerShellUnsupported = errors.New("layer shell not supported")

func requireLayerShell(supported func() bool) error {
	if supported != nil && supported() {
		return nil
	}
	return &DisplayError{Message: "overlay unavailable", Cause: ErrLayerShellUnsupported}
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
