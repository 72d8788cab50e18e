// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/lockind/internal/lockkeys"
)

// Default configuration values.
const (
	DefaultPollingRate = 250 * time.Millisecond
	DefaultHideTime    = 1500 * time.Millisecond
	DefaultWidth       = 500
	DefaultHeight      = 80
	DefaultFontSize    = 18
	DefaultOpacity     = 0.92
	DefaultVolume      = 80
)

// Config is the configuration for lockind.
// Loaded from ~/.config/lockind/lockind.toml
type Config struct {
	Indicator IndicatorConfig `toml:"indicator"`
	Display   DisplayConfig   `toml:"display"`
	Theme     ThemeConfig     `toml:"theme"`
	Audio     AudioConfig     `toml:"audio"`
}

// IndicatorConfig contains polling and auto-hide settings.
type IndicatorConfig struct {
	PollingRate   Duration `toml:"polling_rate"`    // e.g. "250ms" or "250"
	HideTime      Duration `toml:"hide_time"`       // e.g. "1500ms" or "1.5s"
	Keys          []string `toml:"keys"`            // "caps", "num", "scroll"
	ShowOnStartup bool     `toml:"show_on_startup"` // Show current state once at startup
	Backend       string   `toml:"backend"`         // "overlay" or "notify"
}

// DisplayConfig contains overlay window settings.
type DisplayConfig struct {
	Width    int     `toml:"width"`     // Overlay width in pixels
	Height   int     `toml:"height"`    // Overlay height in pixels
	FontSize int     `toml:"font_size"` // Label font size in points
	Opacity  float64 `toml:"opacity"`   // 0.1-1.0 window opacity
	Monitor  int     `toml:"monitor"`   // 0 = compositor default, 1+ = specific monitor
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name        string `toml:"name"`         // Theme name without .css extension
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// AudioConfig contains change sound settings.
type AudioConfig struct {
	Enabled  bool   `toml:"enabled"`
	Volume   int    `toml:"volume"`    // 0-100
	SoundOn  string `toml:"sound_on"`  // Played when a change leaves any key on
	SoundOff string `toml:"sound_off"` // Played when a change leaves every key off
}

// Backend selects how the indicator is rendered.
type Backend string

const (
	BackendOverlay Backend = "overlay"
	BackendNotify  Backend = "notify"
)

// ValidBackends returns all valid backend values.
func ValidBackends() []Backend {
	return []Backend{BackendOverlay, BackendNotify}
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Indicator: IndicatorConfig{
			PollingRate:   Duration(DefaultPollingRate),
			HideTime:      Duration(DefaultHideTime),
			Keys:          []string{"caps", "num", "scroll"},
			ShowOnStartup: true,
			Backend:       string(BackendOverlay),
		},
		Display: DisplayConfig{
			Width:    DefaultWidth,
			Height:   DefaultHeight,
			FontSize: DefaultFontSize,
			Opacity:  DefaultOpacity,
			Monitor:  0,
		},
		Theme: ThemeConfig{
			Name:        "default",
			ColorScheme: string(ColorSchemeSystem),
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  DefaultVolume,
		},
	}
}

// Dir returns the lockind config directory.
// Uses XDG_CONFIG_HOME if set, otherwise the OS user config dir.
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lockind"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lockind"), nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lockind.toml"), nil
}

// Load loads configuration from path, or the default path if empty.
// If the file doesn't exist, returns the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, or the default path if empty.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Indicator.PollingRate.Duration() < time.Millisecond {
		return fmt.Errorf("polling_rate must be at least 1ms, got %s", c.Indicator.PollingRate.Duration())
	}
	if c.Indicator.HideTime.Duration() < time.Millisecond {
		return fmt.Errorf("hide_time must be at least 1ms, got %s", c.Indicator.HideTime.Duration())
	}

	if _, err := lockkeys.ParseKeys(c.Indicator.Keys); err != nil {
		return err
	}

	if !slices.Contains(ValidBackends(), Backend(c.Indicator.Backend)) {
		return fmt.Errorf("invalid backend %q, must be one of: %v", c.Indicator.Backend, ValidBackends())
	}

	if c.Display.Width < 100 || c.Display.Width > 2000 {
		return fmt.Errorf("width must be between 100 and 2000, got %d", c.Display.Width)
	}
	if c.Display.Height < 20 || c.Display.Height > 1000 {
		return fmt.Errorf("height must be between 20 and 1000, got %d", c.Display.Height)
	}
	if c.Display.FontSize < 6 || c.Display.FontSize > 96 {
		return fmt.Errorf("font_size must be between 6 and 96, got %d", c.Display.FontSize)
	}
	if c.Display.Opacity < 0.1 || c.Display.Opacity > 1.0 {
		return fmt.Errorf("opacity must be between 0.1 and 1.0, got %g", c.Display.Opacity)
	}
	if c.Display.Monitor < 0 {
		return fmt.Errorf("monitor must be 0 or a 1-based monitor index, got %d", c.Display.Monitor)
	}

	if !slices.Contains(ValidColorSchemes(), ColorScheme(c.Theme.ColorScheme)) {
		return fmt.Errorf("invalid color_scheme %q, must be one of: %v", c.Theme.ColorScheme, ValidColorSchemes())
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// MonitoredKeys returns the parsed monitored keys.
// Call Validate first; invalid names fall back to every key.
func (c *Config) MonitoredKeys() []lockkeys.Key {
	keys, err := lockkeys.ParseKeys(c.Indicator.Keys)
	if err != nil {
		return lockkeys.AllKeys
	}
	return keys
}

// SoundPath returns the configured sound for the resulting state of a change.
// Expands ~ to the home directory.
func (c *Config) SoundPath(anyOn bool) string {
	if anyOn {
		return expandPath(c.Audio.SoundOn)
	}
	return expandPath(c.Audio.SoundOff)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
