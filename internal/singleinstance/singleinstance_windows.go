//go:build windows

package singleinstance

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// acquire creates a named mutex; a second process creating the same name
// sees ERROR_ALREADY_EXISTS.
func acquire(name string) (*Guard, Result, error) {
	namep, err := windows.UTF16PtrFromString("Local\\" + name)
	if err != nil {
		return nil, Proceed, fmt.Errorf("mutex name: %w", err)
	}

	handle, err := windows.CreateMutex(nil, false, namep)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if handle != 0 {
				windows.CloseHandle(handle)
			}
			return nil, AlreadyRunning, nil
		}
		return nil, Proceed, fmt.Errorf("create mutex: %w", err)
	}

	return &Guard{release: func() {
		windows.ReleaseMutex(handle)
		windows.CloseHandle(handle)
	}}, Proceed, nil
}
