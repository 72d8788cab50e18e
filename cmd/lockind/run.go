package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/lockind/internal/audio"
	"github.com/jmylchreest/lockind/internal/config"
	"github.com/jmylchreest/lockind/internal/daemon"
	"github.com/jmylchreest/lockind/internal/dbus"
	"github.com/jmylchreest/lockind/internal/display"
	"github.com/jmylchreest/lockind/internal/indicator"
	"github.com/jmylchreest/lockind/internal/lockkeys"
	"github.com/jmylchreest/lockind/internal/singleinstance"
	"github.com/jmylchreest/lockind/internal/theme"
)

// services are the components shared by both backends.
type services struct {
	reader        *lockkeys.HostReader
	audioManager  *audio.Manager
	notifier      *daemon.InternalNotifier
	configWatcher *daemon.ConfigWatcher
	controller    *indicator.Controller
}

// runIndicator runs the lock key indicator until interrupted.
func runIndicator(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	lock, err := singleinstance.Acquire(appName)
	if err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			return fmt.Errorf("%s is already running: %w", appName, err)
		}
		logger.Warn("single instance check failed, continuing", "error", err)
	}
	defer func() { _ = lock.Release() }()

	logger.Info("starting lockind",
		"version", version,
		"backend", cfg.Indicator.Backend,
		"polling_rate", cfg.Indicator.PollingRate.Duration(),
		"hide_time", cfg.Indicator.HideTime.Duration(),
	)

	svc := newServices(cfg)
	defer func() { _ = svc.reader.Close() }()

	if config.Backend(cfg.Indicator.Backend) == config.BackendNotify {
		return runNotifyBackend(ctx, cfg, svc)
	}
	return runOverlayBackend(ctx, cfg, svc)
}

func newServices(cfg *config.Config) *services {
	svc := &services{
		reader:       lockkeys.NewReader(logger),
		audioManager: audio.NewManager(cfg, logger),
		notifier:     daemon.NewInternalNotifier(appName, logger),
	}

	// Self-notifications go straight to the notification server.
	svc.notifier.SetNotifyHandler(func(n *dbus.Notification) {
		go func() {
			if _, err := dbus.Send(n); err != nil {
				logger.Debug("failed to send internal notification", "summary", n.Summary, "error", err)
			}
		}()
	})

	if !svc.reader.Supported() {
		svc.notifier.NotifyUnsupported()
	}
	return svc
}

// controllerOptions maps the config onto indicator options.
func controllerOptions(cfg *config.Config, hooks ...indicator.ChangeHook) []indicator.Option {
	opts := []indicator.Option{
		indicator.WithPollingRate(cfg.Indicator.PollingRate.Duration()),
		indicator.WithHideTime(cfg.Indicator.HideTime.Duration()),
		indicator.WithKeys(cfg.MonitoredKeys()),
		indicator.WithShowOnStartup(cfg.Indicator.ShowOnStartup),
		indicator.WithLogger(logger),
	}
	for _, hook := range hooks {
		opts = append(opts, indicator.WithChangeHook(hook))
	}
	return opts
}

// start runs polling, audio and config hot-reload for disp.
// onReload runs backend-specific updates after the shared ones.
func (s *services) start(ctx context.Context, cfg *config.Config, disp indicator.Display, onReload func(*config.Config)) error {
	audioHook := func(change indicator.Change) {
		go func() {
			if err := s.audioManager.PlayForChange(change.Status.Active); err != nil {
				logger.Debug("failed to play change sound", "change_id", change.ID, "error", err)
				s.notifier.NotifyAudioError(err)
			}
		}()
	}
	logHook := func(change indicator.Change) {
		logger.Info("lock keys changed", "change_id", change.ID, "status", change.Status.Text)
	}

	controller, err := indicator.New(s.reader, disp, controllerOptions(cfg, logHook, audioHook)...)
	if err != nil {
		return err
	}
	s.controller = controller

	if err := s.audioManager.Start(ctx); err != nil {
		logger.Warn("failed to start audio manager", "error", err)
	}

	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start indicator: %w", err)
	}

	configWatcher, err := daemon.NewConfigWatcher(globalOpts.configPath, logger)
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
		return nil
	}
	configWatcher.SetReloadCallback(func(newConfig *config.Config) {
		// Command line overrides survive reloads.
		if err := applyFlags(rootCmd, newConfig); err != nil {
			logger.Warn("reloaded config rejected", "error", err)
			s.notifier.NotifyConfigError(err)
			return
		}
		if err := controller.UpdateTiming(newConfig.Indicator.PollingRate.Duration(), newConfig.Indicator.HideTime.Duration()); err != nil {
			logger.Warn("failed to apply new timings", "error", err)
		}
		if err := controller.SetKeys(newConfig.MonitoredKeys()); err != nil {
			logger.Warn("failed to apply monitored keys", "error", err)
		}
		s.audioManager.UpdateConfig(newConfig)
		if newConfig.Indicator.Backend != cfg.Indicator.Backend {
			logger.Warn("backend changes take effect after restart", "backend", newConfig.Indicator.Backend)
		}
		if onReload != nil {
			onReload(newConfig)
		}
		s.notifier.NotifyConfigReloaded()
	})
	configWatcher.SetErrorCallback(func(err error) {
		s.notifier.NotifyConfigError(err)
	})
	if err := configWatcher.Start(ctx, cfg); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
		return nil
	}
	s.configWatcher = configWatcher
	return nil
}

// stop shuts components down in reverse start order.
func (s *services) stop() {
	if s.configWatcher != nil {
		s.configWatcher.Stop()
	}
	if s.controller != nil {
		s.controller.Stop()
	}
	s.audioManager.Stop()
}

// runNotifyBackend shows the indicator as desktop notifications.
func runNotifyBackend(ctx context.Context, cfg *config.Config, svc *services) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	notifier, err := dbus.NewNotifier(appName, cfg.Indicator.HideTime.Duration(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = notifier.Close() }()

	err = svc.start(ctx, cfg, notifier, func(newConfig *config.Config) {
		notifier.SetHideTime(newConfig.Indicator.HideTime.Duration())
	})
	if err != nil {
		return err
	}
	defer svc.stop()

	logger.Info("lockind ready", "backend", config.BackendNotify)
	<-ctx.Done()
	logger.Info("lockind stopped")
	return nil
}

// overlayFallback reports whether err means the notify backend should be
// used instead of the overlay.
func overlayFallback(err error) bool {
	return errors.Is(err, display.ErrLayerShellUnsupported)
}

// runOverlayBackend shows the indicator in a GTK layer-shell overlay.
// Hosts without layer-shell get the notify backend instead.
func runOverlayBackend(ctx context.Context, cfg *config.Config, svc *services) error {
	app := adw.NewApplication(appID, 0)

	var (
		overlay     *display.Overlay
		themeLoader *theme.Loader
		running     atomic.Bool
		svcStarted  bool
		fallback    bool
		startErr    error
	)

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	onMain := func(f func()) { glib.IdleAdd(f) }

	shutdown := func() {
		if svcStarted {
			svc.stop()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if overlay != nil {
			overlay.Stop()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
		case <-ctx.Done():
		}
		cancel()

		// Stop components in GTK main loop context
		glib.IdleAdd(func() {
			if running.Load() {
				app.Quit()
			}
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		overlay = display.NewOverlay(&app.Application, cfg, logger)
		if err := overlay.Start(); err != nil {
			if overlayFallback(err) {
				fallback = true
				logger.Warn("overlay unavailable, falling back to notifications", "error", err)
			} else {
				startErr = err
				logger.Error("failed to start overlay display", "error", err)
			}
			app.Quit()
			return
		}

		themeLoader = theme.NewLoader(logger)
		if err := themeLoader.LoadTheme(cfg.Theme.Name); err != nil {
			logger.Warn("failed to load theme, using default", "error", err)
		}
		themeLoader.Apply(nil)
		themeLoader.ApplyColorScheme(config.ColorScheme(cfg.Theme.ColorScheme))
		themeLoader.StartHotReload(ctx, onMain)

		currentTheme := cfg.Theme.Name
		err := svc.start(ctx, cfg, overlay, func(newConfig *config.Config) {
			glib.IdleAdd(func() {
				overlay.UpdateConfig(newConfig)
				themeLoader.ApplyColorScheme(config.ColorScheme(newConfig.Theme.ColorScheme))

				if newConfig.Theme.Name != currentTheme {
					if err := themeLoader.LoadTheme(newConfig.Theme.Name); err != nil {
						logger.Warn("failed to load new theme", "theme", newConfig.Theme.Name, "error", err)
						svc.notifier.NotifyThemeError(err)
						return
					}
					themeLoader.StartHotReload(ctx, onMain)
					currentTheme = newConfig.Theme.Name
					svc.notifier.NotifyThemeReloaded(currentTheme)
				}
			})
		})
		svcStarted = true
		if err != nil {
			startErr = err
			logger.Error("failed to start indicator", "error", err)
			app.Quit()
			return
		}

		logger.Info("lockind ready", "backend", config.BackendOverlay, "reader", svc.reader.SourceName())

		// Create a hidden window to keep the application running
		// (GTK apps quit when all windows are closed)
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		shutdown()
		running.Store(false)
	})

	// Flags were parsed by cobra; GApplication only gets the program name.
	status := app.Run(os.Args[:1])
	cancel()

	if fallback {
		return runNotifyBackend(parent, cfg, svc)
	}
	if startErr != nil {
		return startErr
	}
	if status != 0 {
		return fmt.Errorf("application exited with status %d", status)
	}

	logger.Info("lockind stopped")
	return nil
}
