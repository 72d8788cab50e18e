package display

import (
	"log/slog"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/lockind/internal/config"
)

// LayoutNamespace is the layer-shell namespace compositors see for the overlay.
const LayoutNamespace = "lockind"

// LayoutManager handles overlay placement and monitor selection.
type LayoutManager struct {
	config  config.DisplayConfig
	display *gdk.Display
	logger  *slog.Logger
}

// NewLayoutManager creates a new layout manager.
func NewLayoutManager(cfg config.DisplayConfig, logger *slog.Logger) *LayoutManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayoutManager{
		config:  cfg,
		display: gdk.DisplayGetDefault(),
		logger:  logger,
	}
}

// SetConfig replaces the display settings used for placement.
func (l *LayoutManager) SetConfig(cfg config.DisplayConfig) {
	l.config = cfg
}

// InitWindow turns window into a layer-shell surface on the overlay layer.
// No edge is anchored, so the compositor centers the surface on its output.
func (l *LayoutManager) InitWindow(window *gtk.Window) {
	layershell.InitForWindow(window)
	layershell.SetLayer(window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(window, 0) // Don't reserve space
	layershell.SetKeyboardMode(window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(window, LayoutNamespace)

	for _, edge := range []layershell.LayerShellEdge{
		layershell.LayerShellEdgeTop,
		layershell.LayerShellEdgeBottom,
		layershell.LayerShellEdgeLeft,
		layershell.LayerShellEdgeRight,
	} {
		layershell.SetAnchor(window, edge, false)
	}

	l.Place(window)
}

// Place applies size and monitor settings to window.
func (l *LayoutManager) Place(window *gtk.Window) {
	width, height := l.Size()
	window.SetDefaultSize(width, height)
	window.SetSizeRequest(width, height)
	l.SetMonitor(window, l.GetMonitor())
}

// Size returns the overlay size in pixels.
func (l *LayoutManager) Size() (int, int) {
	return windowSize(l.config)
}

func windowSize(cfg config.DisplayConfig) (int, int) {
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = config.DefaultWidth
	}
	if height <= 0 {
		height = config.DefaultHeight
	}
	return width, height
}

// GetMonitor returns the monitor to show the overlay on based on config.
// Config values:
// - 0: compositor default (returns nil)
// - 1+: Specific monitor (1-indexed)
//
// Returns the first monitor if the configured one is not available.
func (l *LayoutManager) GetMonitor() *gdk.Monitor {
	if l.display == nil {
		return nil
	}

	monitorNum := l.config.Monitor
	if monitorNum == 0 {
		return nil
	}

	monitors := l.display.Monitors()
	if monitors == nil {
		l.logger.Warn("no monitors list available")
		return nil
	}

	// Convert to 0-indexed
	index := uint(monitorNum - 1)

	if index >= monitors.NItems() {
		l.logger.Warn("configured monitor not available, using first",
			"configured", monitorNum,
			"available", monitors.NItems(),
		)
		return firstMonitor(l.display)
	}

	return wrapMonitor(monitors.Item(index))
}

// firstMonitor returns the first available monitor.
// GTK4 has no primary monitor concept.
func firstMonitor(display *gdk.Display) *gdk.Monitor {
	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return nil
	}
	return wrapMonitor(monitors.Item(0))
}

// wrapMonitor wraps a coreglib.Object as a gdk.Monitor.
// gotk4 doesn't export its own wrapMonitor.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// gdk.Monitor embeds a *coreglib.Object, same as gotk4's internal wrapper.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

// SetMonitor configures a window to appear on the specified monitor.
func (l *LayoutManager) SetMonitor(window *gtk.Window, monitor *gdk.Monitor) {
	if monitor == nil {
		return
	}
	layershell.SetMonitor(window, monitor)
}

// HandleMonitorChange refreshes the display reference after outputs change.
func (l *LayoutManager) HandleMonitorChange() {
	l.display = gdk.DisplayGetDefault()
	if l.display == nil {
		l.logger.Warn("no display available after monitor change")
		return
	}

	if monitors := l.display.Monitors(); monitors != nil {
		l.logger.Info("monitor configuration changed", "count", monitors.NItems())
	}
}
