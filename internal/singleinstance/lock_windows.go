//go:build windows

package singleinstance

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// Acquire creates the named mutex Local\<name>, scoped to the logon session.
func Acquire(name string) (*Lock, error) {
	mutexName := `Local\` + name
	ptr, err := windows.UTF16PtrFromString(mutexName)
	if err != nil {
		return nil, err
	}

	handle, err := windows.CreateMutex(nil, false, ptr)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if handle != 0 {
				_ = windows.CloseHandle(handle)
			}
			return nil, fmt.Errorf("%w (mutex %s)", ErrAlreadyRunning, mutexName)
		}
		return nil, fmt.Errorf("failed to create mutex %s: %w", mutexName, err)
	}

	return &Lock{
		name: mutexName,
		release: func() error {
			return windows.CloseHandle(handle)
		},
	}, nil
}
