package display

import (
	"fmt"
	"log/slog"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/lockind/internal/config"
	"github.com/jmylchreest/lockind/internal/indicator"
)

// CSS classes set on the overlay widgets for theming.
const (
	ClassWindow      = "lock-indicator-window"
	ClassIndicator   = "lock-indicator"
	ClassLabel       = "lock-indicator-label"
	ClassActive      = "active"
	ClassInactive    = "inactive"
	ClassTranslucent = "translucent"
)

// Window is the overlay window. It must only be used on the GTK main loop.
type Window struct {
	window *gtk.Window
	box    *gtk.Box
	label  *gtk.Label
	font   *gtk.CSSProvider

	layout *LayoutManager
	config *config.Config
	logger *slog.Logger
}

// NewWindow builds the overlay window. It is not shown until Present.
func NewWindow(app *gtk.Application, cfg *config.Config, layout *LayoutManager, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Window{
		config: cfg,
		layout: layout,
		logger: logger,
		font:   gtk.NewCSSProvider(),
	}

	w.window = gtk.NewWindow()
	w.window.SetApplication(app)
	w.window.SetDecorated(false)
	w.window.SetResizable(false)
	w.window.SetCanFocus(false)
	w.window.AddCSSClass(ClassWindow)

	layout.InitWindow(w.window)

	w.box = gtk.NewBox(gtk.OrientationHorizontal, 0)
	w.box.AddCSSClass(ClassIndicator)
	w.box.SetHExpand(true)
	w.box.SetVExpand(true)

	w.label = gtk.NewLabel("")
	w.label.AddCSSClass(ClassLabel)
	w.label.SetHExpand(true)
	w.label.SetHAlign(gtk.AlignCenter)
	w.label.SetVAlign(gtk.AlignCenter)
	w.box.Append(w.label)

	w.window.SetChild(w.box)

	if display := gdk.DisplayGetDefault(); display != nil {
		// One above the theme so font_size from config wins.
		gtk.StyleContextAddProviderForDisplay(display, w.font, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION+1)
	}

	w.applyConfig()
	return w
}

// SetStatus updates the label text and state classes in place.
func (w *Window) SetStatus(status indicator.Status) {
	w.label.SetText(status.Text)

	w.box.RemoveCSSClass(ClassActive)
	w.box.RemoveCSSClass(ClassInactive)
	w.box.AddCSSClass(statusClass(status.Active))
}

// Present shows the window.
func (w *Window) Present() {
	w.window.Present()
}

// Hide hides the window without destroying it.
func (w *Window) Hide() {
	w.window.SetVisible(false)
}

// Visible reports whether the window is mapped.
func (w *Window) Visible() bool {
	return w.window.IsVisible()
}

// Configure applies new settings to the existing window.
func (w *Window) Configure(cfg *config.Config) {
	w.config = cfg
	w.layout.SetConfig(cfg.Display)
	w.layout.Place(w.window)
	w.applyConfig()
}

// Destroy releases the window.
func (w *Window) Destroy() {
	w.window.Destroy()
}

func (w *Window) applyConfig() {
	w.window.SetOpacity(w.config.Display.Opacity)
	w.font.LoadFromString(fontCSS(w.config.Display.FontSize))

	for _, class := range []string{"light", "dark", ClassTranslucent} {
		w.box.RemoveCSSClass(class)
	}
	w.box.AddCSSClass(schemeClass(config.ColorScheme(w.config.Theme.ColorScheme), systemPrefersDark))
	if w.config.Display.Opacity < 1.0 {
		w.box.AddCSSClass(ClassTranslucent)
	}

	w.logger.Debug("overlay window configured",
		"width", w.config.Display.Width,
		"height", w.config.Display.Height,
		"font_size", w.config.Display.FontSize,
		"opacity", w.config.Display.Opacity,
	)
}

// statusClass returns the CSS class for the active flag of a status.
func statusClass(active bool) string {
	if active {
		return ClassActive
	}
	return ClassInactive
}

// schemeClass returns "light" or "dark" based on config or system preference.
func schemeClass(scheme config.ColorScheme, prefersDark func() bool) string {
	switch scheme {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		if prefersDark != nil && prefersDark() {
			return "dark"
		}
		return "light"
	}
}

// systemPrefersDark checks libadwaita for the system dark mode preference.
func systemPrefersDark() bool {
	return adw.StyleManagerGetDefault().Dark()
}

// fontCSS returns the stylesheet that sets the label font size.
func fontCSS(size int) string {
	if size <= 0 {
		size = config.DefaultFontSize
	}
	return fmt.Sprintf(".%s { font-size: %dpt; }", ClassLabel, size)
}
