//go:build !windows && !darwin

package platform

import "errors"

// ErrNotSupported is returned by keystroke synthesis on platforms without
// an input-injection backend. Callers surface it and skip the paste replay;
// the clipboard write itself still happened.
var ErrNotSupported = errors.New("paste keystroke injection not supported on this platform")

func foregroundWindow() Window { return None }

func windowExists(Window) bool { return true }

func focusWindow(Window) bool { return true }

func sendPaste() error { return ErrNotSupported }
