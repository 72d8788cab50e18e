package audio

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/lockind/internal/config"
	"github.com/jmylchreest/lockind/internal/indicator"
)

// Cue identifies which sound a change plays.
type Cue int

const (
	// CueOn plays when a change leaves any monitored key on.
	CueOn Cue = iota
	// CueOff plays when a change leaves every monitored key off.
	CueOff
)

// String returns the cue name used in logs.
func (c Cue) String() string {
	if c == CueOn {
		return "on"
	}
	return "off"
}

// CueFor returns the cue for the resulting state of a change.
func CueFor(anyOn bool) Cue {
	if anyOn {
		return CueOn
	}
	return CueOff
}

// Generated tones used when no file is configured for a cue.
var cueTones = map[Cue]float64{
	CueOn:  880,
	CueOff: 440,
}

const toneDuration = 80 * time.Millisecond

// speakerPlayer is the playback surface the manager needs. *Player implements it.
type speakerPlayer interface {
	Play(path string) error
	PlayTone(freq float64, d time.Duration) error
	Preload(path string) error
	SetVolume(volume float64)
	InvalidateCache(path string)
	ClearCache()
	Close()
}

// Manager plays change cues according to the audio config.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  speakerPlayer
	watcher *Watcher
	config  config.AudioConfig

	// Cue to validated sound path
	sounds map[Cue]string
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return newManager(cfg, NewPlayer(logger), logger)
}

func newManager(cfg *config.Config, player speakerPlayer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m := &Manager{
		logger: logger,
		player: player,
		sounds: make(map[Cue]string),
	}
	m.watcher = NewWatcher(m.handleFileChanged, logger)
	m.applyConfig(cfg)
	return m
}

// applyConfig resolves sound paths and volume from cfg.
func (m *Manager) applyConfig(cfg *config.Config) {
	sounds := make(map[Cue]string)
	for _, cue := range []Cue{CueOn, CueOff} {
		path := cfg.SoundPath(cue == CueOn)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("sound file not found, using tone", "cue", cue, "path", path)
			continue
		}
		sounds[cue] = path
		m.logger.Debug("loaded sound", "cue", cue, "path", path)
	}

	m.mu.Lock()
	m.config = cfg.Audio
	m.sounds = sounds
	m.mu.Unlock()

	// Config uses 0-100, the player 0.0-1.0
	m.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)
}

// Start preloads configured sounds and starts the file watcher.
func (m *Manager) Start(ctx context.Context) error {
	paths := m.Sounds()

	m.mu.RLock()
	enabled := m.config.Enabled
	m.mu.RUnlock()

	if enabled {
		m.preload(paths)
	}
	m.watcher.SetPaths(mapValues(paths)...)

	if err := m.watcher.Start(ctx); err != nil {
		return err
	}

	m.logger.Info("audio manager started", "enabled", enabled, "sounds", len(paths))
	return nil
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// PlayForChange plays the cue for the resulting state of a change.
// It is a no-op while audio is disabled.
func (m *Manager) PlayForChange(anyOn bool) error {
	cue := CueFor(anyOn)

	m.mu.RLock()
	enabled := m.config.Enabled
	path, ok := m.sounds[cue]
	m.mu.RUnlock()

	if !enabled {
		return nil
	}
	if ok {
		return m.player.Play(path)
	}
	return m.player.PlayTone(cueTones[cue], toneDuration)
}

// OnChange is an indicator.ChangeHook. Playback errors are logged, never returned.
func (m *Manager) OnChange(change indicator.Change) {
	if err := m.PlayForChange(change.Status.Active); err != nil {
		m.logger.Debug("failed to play change sound", "change_id", change.ID, "error", err)
	}
}

// Sounds returns the configured sound per cue.
func (m *Manager) Sounds() map[Cue]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[Cue]string, len(m.sounds))
	for cue, path := range m.sounds {
		out[cue] = path
	}
	return out
}

// Enabled reports whether cues are played.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Enabled
}

// UpdateConfig applies a hot-reloaded configuration.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.player.ClearCache()
	m.applyConfig(cfg)

	paths := m.Sounds()
	if cfg.Audio.Enabled {
		m.preload(paths)
	}
	m.watcher.SetPaths(mapValues(paths)...)

	m.logger.Debug("audio manager config updated", "enabled", cfg.Audio.Enabled, "volume", cfg.Audio.Volume)
}

func (m *Manager) preload(paths map[Cue]string) {
	for cue, path := range paths {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "cue", cue, "path", path, "error", err)
		}
	}
}

// handleFileChanged drops the stale decode so the next cue reads the new file.
func (m *Manager) handleFileChanged(path string) {
	m.player.InvalidateCache(path)
	if m.Enabled() {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to reload sound", "path", path, "error", err)
		}
	}
}

func mapValues(m map[Cue]string) []string {
	values := make([]string, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	return values
}
