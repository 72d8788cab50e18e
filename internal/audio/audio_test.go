package audio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/lockind/internal/config"
	"github.com/jmylchreest/lockind/internal/indicator"
)

// fakePlayer records playback instead of using a speaker.
type fakePlayer struct {
	mu          sync.Mutex
	played      []string
	tones       []float64
	preloaded   []string
	invalidated []string
	volume      float64
	closed      bool
}

func (p *fakePlayer) Play(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, path)
	return nil
}

func (p *fakePlayer) PlayTone(freq float64, d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tones = append(p.tones, freq)
	return nil
}

func (p *fakePlayer) Preload(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preloaded = append(p.preloaded, path)
	return nil
}

func (p *fakePlayer) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
}

func (p *fakePlayer) InvalidateCache(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated = append(p.invalidated, path)
}

func (p *fakePlayer) ClearCache() {}

func (p *fakePlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePlayer) Invalidated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.invalidated...)
}

func writeSound(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))
	return path
}

func TestManager_DisabledIsSilent(t *testing.T) {
	player := &fakePlayer{}
	m := newManager(config.DefaultConfig(), player, nil)

	require.NoError(t, m.PlayForChange(true))
	require.NoError(t, m.PlayForChange(false))

	assert.Empty(t, player.played)
	assert.Empty(t, player.tones)
	assert.InDelta(t, 0.8, player.volume, 0.0001)
}

func TestManager_PlaysConfiguredCue(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.SoundOn = writeSound(t, dir, "on.wav")
	cfg.Audio.SoundOff = writeSound(t, dir, "off.ogg")

	player := &fakePlayer{}
	m := newManager(cfg, player, nil)

	require.NoError(t, m.PlayForChange(true))
	require.NoError(t, m.PlayForChange(false))

	assert.Equal(t, []string{cfg.Audio.SoundOn, cfg.Audio.SoundOff}, player.played)
	assert.Empty(t, player.tones)
}

func TestManager_FallsBackToTone(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.SoundOn = filepath.Join(t.TempDir(), "missing.wav")

	player := &fakePlayer{}
	m := newManager(cfg, player, nil)

	assert.Empty(t, m.Sounds(), "missing files are not used")

	require.NoError(t, m.PlayForChange(true))
	require.NoError(t, m.PlayForChange(false))
	assert.Equal(t, []float64{880, 440}, player.tones)
}

func TestManager_OnChange(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true

	player := &fakePlayer{}
	m := newManager(cfg, player, nil)

	m.OnChange(indicator.Change{ID: "01TEST", Status: indicator.Status{Active: true}})
	assert.Equal(t, []float64{880}, player.tones)
}

func TestManager_StartPreloadsAndStop(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.SoundOn = writeSound(t, dir, "on.wav")

	player := &fakePlayer{}
	m := newManager(cfg, player, nil)

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, []string{cfg.Audio.SoundOn}, player.preloaded)
	assert.Equal(t, []string{cfg.Audio.SoundOn}, m.watcher.Paths())

	m.Stop()
	assert.True(t, player.closed)
	assert.False(t, m.watcher.IsRunning())
}

func TestManager_UpdateConfig(t *testing.T) {
	dir := t.TempDir()
	player := &fakePlayer{}
	m := newManager(config.DefaultConfig(), player, nil)
	assert.False(t, m.Enabled())

	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.Volume = 25
	cfg.Audio.SoundOff = writeSound(t, dir, "off.mp3")
	m.UpdateConfig(cfg)

	assert.True(t, m.Enabled())
	assert.InDelta(t, 0.25, player.volume, 0.0001)
	assert.Equal(t, map[Cue]string{CueOff: cfg.Audio.SoundOff}, m.Sounds())
	assert.Equal(t, []string{cfg.Audio.SoundOff}, player.preloaded)
}

func TestManager_FileChangeInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = true
	cfg.Audio.SoundOn = writeSound(t, dir, "on.wav")

	player := &fakePlayer{}
	m := newManager(cfg, player, nil)
	m.watcher.SetPollInterval(10 * time.Millisecond)

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(cfg.Audio.SoundOn, future, future))

	assert.Eventually(t, func() bool {
		return len(player.Invalidated()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCue(t *testing.T) {
	assert.Equal(t, CueOn, CueFor(true))
	assert.Equal(t, CueOff, CueFor(false))
	assert.Equal(t, "on", CueOn.String())
	assert.Equal(t, "off", CueOff.String())
}

func TestDecoderFor(t *testing.T) {
	for _, name := range []string{"a.wav", "b.OGG", "c.mp3"} {
		_, err := decoderFor(name)
		assert.NoError(t, err, name)
	}
	_, err := decoderFor("d.flac")
	assert.Error(t, err)
}

func TestVolume(t *testing.T) {
	assert.Equal(t, 0.0, clampVolume(-1))
	assert.Equal(t, 1.0, clampVolume(3))
	assert.Equal(t, 0.5, clampVolume(0.5))

	assert.InDelta(t, -1.0, volumeToExponent(0.5), 1e-9)
	assert.InDelta(t, 0.0, volumeToExponent(1), 1e-9)
	assert.Equal(t, -100.0, volumeToExponent(0))
	assert.False(t, math.IsInf(volumeToExponent(1e-9), 0))
}

func TestPlayer_VolumeAndCache(t *testing.T) {
	p := NewPlayer(nil)
	p.SetVolume(2)
	assert.Equal(t, 1.0, p.GetVolume())

	assert.NoError(t, p.Play(""))
	assert.NoError(t, p.Preload(""))
	assert.Error(t, p.Preload(filepath.Join(t.TempDir(), "missing.wav")))
	assert.Error(t, p.Play("sound.flac"))
}
