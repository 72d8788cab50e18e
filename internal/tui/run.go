package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/lockind/internal/indicator"
	"github.com/jmylchreest/lockind/internal/lockkeys"
)

// RunOptions configures the watch view.
type RunOptions struct {
	Reader        lockkeys.Reader
	PollingRate   time.Duration
	HideTime      time.Duration
	Keys          []lockkeys.Key
	ShowOnStartup bool
	Logger        *slog.Logger // nil discards, so logs do not tear the screen
	Hooks         []indicator.ChangeHook

	// Program options, e.g. tea.WithInput for tests
	ProgramOptions []tea.ProgramOption
}

// Run polls lock keys and renders changes in the terminal until the user quits.
func Run(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m := New(opts.PollingRate, opts.HideTime)
	programOpts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts.ProgramOptions...)
	p := tea.NewProgram(m, programOpts...)

	display := NewDisplay(p)
	controllerOpts := []indicator.Option{
		indicator.WithPollingRate(opts.PollingRate),
		indicator.WithHideTime(opts.HideTime),
		indicator.WithShowOnStartup(opts.ShowOnStartup),
		indicator.WithLogger(logger),
		indicator.WithChangeHook(display.OnChange),
	}
	if len(opts.Keys) > 0 {
		controllerOpts = append(controllerOpts, indicator.WithKeys(opts.Keys))
	}
	for _, hook := range opts.Hooks {
		controllerOpts = append(controllerOpts, indicator.WithChangeHook(hook))
	}

	controller, err := indicator.New(opts.Reader, display, controllerOpts...)
	if err != nil {
		return err
	}

	// Send blocks until the program loop runs, so start polling alongside it.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	started := make(chan error, 1)
	go func() {
		started <- controller.Start(runCtx)
	}()

	_, err = p.Run()
	cancel()

	if startErr := <-started; startErr != nil {
		return fmt.Errorf("failed to start indicator: %w", startErr)
	}
	controller.Stop()
	return err
}
