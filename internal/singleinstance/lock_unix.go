//go:build unix

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// Acquire takes an exclusive flock on <runtime dir>/<name>.lock. The kernel
// drops the lock when the process exits, so stale files never block startup.
func Acquire(name string) (*Lock, error) {
	return acquireAt(filepath.Join(runtimeDir(), name+".lock"))
}

func acquireAt(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, path)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	// Informational only
	_ = f.Truncate(0)
	_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)

	return &Lock{
		name: path,
		release: func() error {
			_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
			return f.Close()
		},
	}, nil
}
