package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lockind/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

const (
	appID   = "io.github.jmylchreest.lockind"
	appName = "lockind"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	runOpts struct {
		hideTime    int
		pollingRate int
		backend     string
		keys        []string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lockind",
	Short: "On-screen indicator for Caps, Num and Scroll Lock",
	Long: `lockind polls the keyboard lock keys and briefly shows a translucent
overlay whenever Caps Lock, Num Lock or Scroll Lock changes:

  CAPS: ON | NUM: OFF | SCROLL: OFF

The overlay hides itself after --hide-time milliseconds. Flags override the
config file at ~/.config/lockind/lockind.toml, which is reloaded on change.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.Load(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return runIndicator(cmd.Context(), cfg)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/lockind/lockind.toml)")

	addIndicatorFlags(rootCmd)
}

// addIndicatorFlags registers the flags shared by the commands that poll.
func addIndicatorFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&runOpts.hideTime, "hide-time", int(config.DefaultHideTime.Milliseconds()),
		"Time in milliseconds before the overlay hides")
	cmd.Flags().IntVar(&runOpts.pollingRate, "polling-rate", int(config.DefaultPollingRate.Milliseconds()),
		"Time in milliseconds between lock key polls")
	cmd.Flags().StringSliceVar(&runOpts.keys, "keys", nil,
		"Lock keys to monitor: caps,num,scroll (default from config, all)")
	if cmd == rootCmd {
		cmd.Flags().StringVar(&runOpts.backend, "backend", "",
			"Display backend: overlay or notify (default from config, overlay)")
	}
}

// applyFlags overrides cfg with explicitly set flags and validates the result.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("hide-time") {
		if runOpts.hideTime <= 0 {
			return fmt.Errorf("--hide-time must be a positive number of milliseconds, got %d", runOpts.hideTime)
		}
		c.Indicator.HideTime = config.Milliseconds(runOpts.hideTime)
	}
	if flags.Changed("polling-rate") {
		if runOpts.pollingRate <= 0 {
			return fmt.Errorf("--polling-rate must be a positive number of milliseconds, got %d", runOpts.pollingRate)
		}
		c.Indicator.PollingRate = config.Milliseconds(runOpts.pollingRate)
	}
	if flags.Changed("keys") {
		keys := make([]string, 0, len(runOpts.keys))
		for _, k := range runOpts.keys {
			keys = append(keys, strings.TrimSpace(k))
		}
		c.Indicator.Keys = keys
	}
	if flags.Lookup("backend") != nil && flags.Changed("backend") {
		c.Indicator.Backend = runOpts.backend
	}

	return c.Validate()
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelInfo
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
