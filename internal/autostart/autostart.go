// Package autostart toggles launching the application at login. Windows
// uses the per-user Run registry key; other platforms report unsupported.
// Callers treat these as fire-and-forget: failures are logged, never fatal.
package autostart

// Enabled reports whether the login entry is currently present.
func Enabled() bool {
	return enabled()
}

// Enable registers the current executable to start at login.
func Enable() error {
	return enable()
}

// Disable removes the login entry. Removing an absent entry succeeds.
func Disable() error {
	return disable()
}

// Toggle flips the current state and returns the new state.
func Toggle() (bool, error) {
	if Enabled() {
		return false, Disable()
	}
	return true, Enable()
}
