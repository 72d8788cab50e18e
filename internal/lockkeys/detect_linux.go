//go:build linux

package lockkeys

import (
	"log/slog"
	"os"
)

// detectSource prefers the X server when $DISPLAY is set and falls back to
// the kernel LED class devices.
func detectSource(logger *slog.Logger) Source {
	if os.Getenv("DISPLAY") != "" {
		src, err := NewX11Source()
		if err == nil {
			if _, err = src.Query(); err == nil {
				return src
			}
			_ = src.Close()
		}
		logger.Debug("x11 lock key source unavailable", "error", err)
	}

	src, err := NewSysfsSource(DefaultLEDClassDir)
	if err != nil {
		logger.Debug("sysfs lock key source unavailable", "error", err)
		return nil
	}
	return src
}
