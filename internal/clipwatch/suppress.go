package clipwatch

import (
	"sync"
	"time"
)

// suppressWindow bounds how long an expected self-write stays armed. If the
// OS never delivers the change notification the flag must not leak into a
// later, genuine capture.
const suppressWindow = 3 * time.Second

// Suppressor is the "ignore next change from self" marker shared between
// the paste engine and the watcher. The engine arms it immediately before
// writing the clipboard; the watcher consumes it on the next notification.
// The armed flag is the primary mechanism; comparing against the recorded
// hash is the fallback for notification reordering.
type Suppressor struct {
	mu       sync.Mutex
	armed    bool
	hash     string
	deadline time.Time
}

// ExpectSelfWrite arms the suppressor for one notification cycle. hash is
// the fingerprint of the bytes about to be written.
func (s *Suppressor) ExpectSelfWrite(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
	s.hash = hash
	s.deadline = time.Now().Add(suppressWindow)
}

// Clear disarms the suppressor. The paste engine calls this when its
// clipboard write fails, so the next genuine change is not swallowed.
func (s *Suppressor) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = false
	s.hash = ""
}

// suppress reports whether a change event with the given fingerprint is a
// self-caused echo. The armed flag is one-shot; the hash match keeps
// working until the window closes.
func (s *Suppressor) suppress(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Now().After(s.deadline) {
		s.armed = false
		s.hash = ""
		return false
	}
	if s.armed {
		s.armed = false
		return true
	}
	return s.hash != "" && s.hash == hash
}
