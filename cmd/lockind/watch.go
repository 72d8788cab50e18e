package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lockind/internal/audio"
	"github.com/jmylchreest/lockind/internal/indicator"
	"github.com/jmylchreest/lockind/internal/lockkeys"
	"github.com/jmylchreest/lockind/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the lock key indicator in the terminal",
	Long: `Poll the lock keys and show each change in the terminal, styled like the
overlay: green while any monitored key is on, slate when all are off.

Key bindings:
  c   Clear the change history
  ?   Show more keys
  q   Quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addIndicatorFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	cmd.SilenceUsage = true

	reader := lockkeys.NewReader(logger)
	defer func() { _ = reader.Close() }()

	// Anything logged while the program owns the screen would tear it.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	var hooks []indicator.ChangeHook
	if cfg.Audio.Enabled {
		audioManager := audio.NewManager(cfg, quiet)
		if err := audioManager.Start(cmd.Context()); err == nil {
			defer audioManager.Stop()
			hooks = append(hooks, func(change indicator.Change) {
				go audioManager.OnChange(change)
			})
		}
	}

	return tui.Run(cmd.Context(), tui.RunOptions{
		Reader:        reader,
		PollingRate:   cfg.Indicator.PollingRate.Duration(),
		HideTime:      cfg.Indicator.HideTime.Duration(),
		Keys:          cfg.MonitoredKeys(),
		ShowOnStartup: cfg.Indicator.ShowOnStartup,
		Logger:        quiet,
		Hooks:         hooks,
	})
}
