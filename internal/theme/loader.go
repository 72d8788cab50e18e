package theme

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/lockind/internal/config"
)

// Loader loads CSS themes into a GTK provider with hot-reload support.
type Loader struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	provider    *gtk.CSSProvider
	themesDir   string
	currentName string
	theme       *Theme
	watcher     *Watcher
	display     *gdk.Display
}

// NewLoader creates a new theme loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	themesDir, err := ThemesDir()
	if err != nil {
		logger.Warn("failed to get themes directory", "error", err)
		themesDir = ""
	}

	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		themesDir: themesDir,
	}
}

// Resolve finds a theme by name without touching GTK.
// Resolution order:
//  1. User themes directory (~/.config/lockind/themes/)
//  2. Bundled themes
//  3. The bundled default theme
func Resolve(themesDir, name string, logger *slog.Logger) *Theme {
	if logger == nil {
		logger = slog.Default()
	}
	if name == "" {
		name = DefaultThemeName
	}

	if themesDir != "" {
		themePath := filepath.Join(themesDir, name+".css")
		if _, err := os.Stat(themePath); err == nil {
			theme, err := NewTheme(name, themePath)
			if err == nil {
				return theme
			}
			logger.Warn("failed to load user theme, trying bundled", "theme", name, "error", err)
		}
	}

	if theme, found := NewBundledTheme(name); found {
		return theme
	}

	logger.Warn("theme not found, using default", "theme", name)
	theme, _ := NewBundledTheme(DefaultThemeName)
	return theme
}

// LoadTheme loads a theme by name into the provider.
func (l *Loader) LoadTheme(name string) error {
	theme := Resolve(l.themesDir, name, l.logger)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.provider.LoadFromString(theme.CSS)
	l.currentName = theme.Name
	l.theme = theme

	if l.watcher != nil {
		l.watcher.UpdateTheme(theme)
	}

	if theme.Path != "" {
		l.logger.Info("loaded user theme", "name", theme.Name, "path", theme.Path)
	} else {
		l.logger.Info("loaded bundled theme", "name", theme.Name)
	}
	return nil
}

// GetTheme returns the currently loaded theme.
func (l *Loader) GetTheme() *Theme {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.theme
}

// Apply attaches the provider to a display.
// This should be called after the GTK application is initialized.
func (l *Loader) Apply(display *gdk.Display) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	l.display = display
	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
	l.logger.Debug("applied theme to display", "name", l.currentName)
}

// ApplyColorScheme forces libadwaita's light or dark style, or follows the system.
func (l *Loader) ApplyColorScheme(scheme config.ColorScheme) {
	manager := adw.StyleManagerGetDefault()
	switch scheme {
	case config.ColorSchemeLight:
		manager.SetColorScheme(adw.ColorSchemeForceLight)
	case config.ColorSchemeDark:
		manager.SetColorScheme(adw.ColorSchemeForceDark)
	default:
		manager.SetColorScheme(adw.ColorSchemeDefault)
	}
	l.logger.Debug("applied color scheme", "scheme", scheme)
}

// Reload reloads the current theme from disk.
func (l *Loader) Reload() error {
	l.mu.RLock()
	name := l.currentName
	l.mu.RUnlock()
	return l.LoadTheme(name)
}

// StartHotReload starts watching the current user theme for changes.
// Changes are applied to the provider on the GTK main loop via onMain.
func (l *Loader) StartHotReload(ctx context.Context, onMain func(func())) {
	l.StopHotReload()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.theme == nil || l.theme.Path == "" {
		l.logger.Debug("not starting hot-reload for bundled theme")
		return
	}

	l.watcher = NewWatcher(l.theme, l.logger)
	l.watcher.SetChangeCallback(func(css string) {
		apply := func() {
			l.mu.Lock()
			l.provider.LoadFromString(css)
			name := l.currentName
			l.mu.Unlock()
			l.logger.Info("hot-reloaded theme", "name", name)
		}
		if onMain != nil {
			onMain(apply)
			return
		}
		apply()
	})

	if err := l.watcher.Start(ctx); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
	}
}

// StopHotReload stops watching the theme for changes.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	watcher := l.watcher
	l.watcher = nil
	l.mu.Unlock()

	if watcher != nil {
		watcher.Stop()
	}
}

// Provider returns the underlying CSS provider.
func (l *Loader) Provider() *gtk.CSSProvider {
	return l.provider
}

// CurrentTheme returns the name of the currently loaded theme.
func (l *Loader) CurrentTheme() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentName
}

// ListThemes returns the names of all available themes.
func (l *Loader) ListThemes() []string {
	infos, err := listThemes(l.themesDir)
	if err != nil {
		l.logger.Debug("failed to read themes directory", "error", err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names
}
