//go:build !windows

package autostart

import "errors"

// ErrNotSupported is returned on platforms without a login-item backend.
var ErrNotSupported = errors.New("autostart not supported on this platform")

func enabled() bool { return false }

func enable() error { return ErrNotSupported }

func disable() error { return nil }
