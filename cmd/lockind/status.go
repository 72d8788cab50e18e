package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/lockind/internal/lockkeys"
)

var statusOpts struct {
	format string
	keys   []string
}

// KeyStatus is the machine-readable lock key state.
type KeyStatus struct {
	Text      string          `json:"text" yaml:"text"`
	Active    bool            `json:"active" yaml:"active"`
	Keys      map[string]bool `json:"keys" yaml:"keys"`
	Supported bool            `json:"supported" yaml:"supported"`
	Source    string          `json:"source" yaml:"source"`
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current lock key state",
	Long: `Read the lock keys once and print their state.

Formats:
  plain   CAPS: ON | NUM: OFF | SCROLL: OFF
  json    {"text": ..., "active": ..., "keys": {"caps": true, ...}}
  yaml    the same fields as json
  waybar  Waybar custom module JSON

For Waybar:

  "custom/lockkeys": {
    "exec": "lockind status --format waybar",
    "interval": 1,
    "return-type": "json"
  }`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "plain",
		"Output format: plain, json, yaml, waybar")
	statusCmd.Flags().StringSliceVar(&statusOpts.keys, "keys", nil,
		"Lock keys to report: caps,num,scroll (default from config)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	keys := cfg.MonitoredKeys()
	if cmd.Flags().Changed("keys") {
		var err error
		if keys, err = lockkeys.ParseKeys(statusOpts.keys); err != nil {
			return err
		}
	}
	if !validFormat(statusOpts.format) {
		return fmt.Errorf("invalid format %q, must be one of: plain, json, yaml, waybar", statusOpts.format)
	}
	cmd.SilenceUsage = true

	reader := lockkeys.NewReader(logger)
	defer func() { _ = reader.Close() }()

	status := newKeyStatus(reader.Read(), keys, reader.Supported(), reader.SourceName())
	return writeStatus(cmd.OutOrStdout(), statusOpts.format, status, keys)
}

func validFormat(format string) bool {
	switch format {
	case "plain", "json", "yaml", "waybar":
		return true
	}
	return false
}

func newKeyStatus(state lockkeys.State, keys []lockkeys.Key, supported bool, source string) KeyStatus {
	return KeyStatus{
		Text:      state.Format(keys),
		Active:    state.AnyOn(keys),
		Keys:      state.Values(keys),
		Supported: supported,
		Source:    source,
	}
}

// writeStatus renders status in the given format.
func writeStatus(w io.Writer, format string, status KeyStatus, keys []lockkeys.Key) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(status)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(status); err != nil {
			return err
		}
		return encoder.Close()
	case "waybar":
		return json.NewEncoder(w).Encode(waybarStatus(status, keys))
	default:
		_, err := fmt.Fprintln(w, status.Text)
		return err
	}
}

// waybarStatus shows the labels of the keys that are on, e.g. "CAPS NUM".
func waybarStatus(status KeyStatus, keys []lockkeys.Key) WaybarStatus {
	if !status.Supported {
		return WaybarStatus{Text: "", Alt: "unsupported", Tooltip: "Lock key state unavailable", Class: "unsupported"}
	}

	var on []string
	for _, k := range keys {
		if status.Keys[k.String()] {
			on = append(on, k.Label())
		}
	}

	class := "inactive"
	if status.Active {
		class = "active"
	}
	return WaybarStatus{
		Text:    strings.Join(on, " "),
		Alt:     class,
		Tooltip: status.Text,
		Class:   class,
	}
}
