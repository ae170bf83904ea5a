// Package singleinstance enforces the one-process-at-a-time guarantee as
// an explicit startup precondition, checked before any core component
// starts. No global state: callers hold the returned Guard for the process
// lifetime and Release it on shutdown.
package singleinstance

// Result of an Acquire attempt.
type Result int

const (
	// Proceed means this process now holds the instance lock.
	Proceed Result = iota
	// AlreadyRunning means another instance holds it; exit without
	// starting anything.
	AlreadyRunning
)

// Guard holds the OS-level instance lock until Release.
type Guard struct {
	release func()
}

// Release gives up the lock. Idempotent.
func (g *Guard) Release() {
	if g == nil || g.release == nil {
		return
	}
	g.release()
	g.release = nil
}

// Acquire attempts to take the process-wide instance lock named by name.
// On AlreadyRunning the returned Guard is nil.
func Acquire(name string) (*Guard, Result, error) {
	return acquire(name)
}
