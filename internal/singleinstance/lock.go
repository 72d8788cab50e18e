// Package singleinstance keeps one indicator running per user session.
package singleinstance

import (
	"errors"
	"os"
)

// ErrAlreadyRunning is returned by Acquire when another process holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock is a held single-instance lock. Release it on shutdown.
type Lock struct {
	name    string
	release func() error
}

// Name returns the lock file path or mutex name.
func (l *Lock) Name() string {
	return l.name
}

// Release frees the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.release == nil {
		return nil
	}
	release := l.release
	l.release = nil
	return release()
}

// runtimeDir returns the per-user runtime directory for lock files.
func runtimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}
