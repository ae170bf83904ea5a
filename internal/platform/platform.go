// Package platform wraps the small slice of OS window and input-injection
// surface the paste path needs. Build constraints select the implementation:
//
//	platform_windows.go — user32 via golang.org/x/sys/windows
//	platform_darwin.go  — CGEvent paste synthesis via cgo
//	platform_other.go   — stubs for headless / unsupported systems
package platform

// Window identifies an OS top-level window, captured at event time and
// passed by value through the pipeline. The zero value means "unknown";
// operations on it are best-effort no-ops rather than failures.
type Window uintptr

// None is the zero Window.
const None Window = 0

// StillExists reports whether the window handle is still valid. The zero
// Window always reports true so that platforms without foreground-window
// capture do not spuriously fail the paste path.
func (w Window) StillExists() bool {
	if w == None {
		return true
	}
	return windowExists(w)
}

// BringToForeground gives the window input focus. Best-effort: a false
// return means the OS refused, not that the window is gone.
func (w Window) BringToForeground() bool {
	if w == None {
		return true
	}
	return focusWindow(w)
}

// ForegroundWindow returns the window that currently has input focus, or
// None if the platform cannot tell.
func ForegroundWindow() Window {
	return foregroundWindow()
}

// SendPaste synthesizes the platform paste keystroke (Ctrl+V, Cmd+V)
// directed at whichever window has focus.
func SendPaste() error {
	return sendPaste()
}
