//go:build !windows

package singleinstance

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// acquire flocks a lock file in the user runtime (or temp) directory. The
// lock is held, not just the file's existence checked, so a crashed
// previous instance never blocks a new one.
func acquire(name string) (*Guard, Result, error) {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, name+".lock")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, Proceed, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, AlreadyRunning, nil
		}
		return nil, Proceed, fmt.Errorf("acquire file lock: %w", err)
	}

	return &Guard{release: func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		os.Remove(path)
	}}, Proceed, nil
}
