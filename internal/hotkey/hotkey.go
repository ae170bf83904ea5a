// Package hotkey registers one global key combination and emits an
// activation whenever it fires. Matching happens on raw key events from
// the OS hook, so it works regardless of the active keyboard layout.
//
// The foreground window is captured inside the hook callback, at the
// moment of activation — not after dispatch to the UI, by which time focus
// may already have moved to something else.
package hotkey

import (
	"fmt"
	"strings"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog"

	"clipvault/internal/platform"
)

const activationBuffer = 4

// Activation is one hotkey press, with the window that had focus when the
// key went down.
type Activation struct {
	Window platform.Window
	At     time.Time
}

// Source is the watcher surface the orchestrator consumes.
type Source interface {
	Start() error
	Stop()
	Activations() <-chan Activation
}

// Watcher listens for a single global combo.
type Watcher struct {
	keys []string
	out  chan Activation
	log  zerolog.Logger

	// foreground is swapped out in tests.
	foreground func() platform.Window

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

var _ Source = (*Watcher)(nil)

// Keys splits a combo like "ctrl+shift+v" into the lowercase key names the
// OS hook matches on.
func Keys(combo string) ([]string, error) {
	parts := strings.Split(combo, "+")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid hotkey %q: need at least modifier+key", combo)
	}
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return nil, fmt.Errorf("invalid hotkey %q: empty component", combo)
		}
		keys = append(keys, p)
	}
	return keys, nil
}

// New builds a stopped Watcher for the given combo.
func New(combo string, log zerolog.Logger) (*Watcher, error) {
	keys, err := Keys(combo)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		keys:       keys,
		out:        make(chan Activation, activationBuffer),
		log:        log,
		foreground: platform.ForegroundWindow,
	}, nil
}

// Activations returns the activation channel.
func (w *Watcher) Activations() <-chan Activation { return w.out }

// Start installs the OS keyboard hook and begins dispatching. Idempotent.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	w.started = true
	w.done = make(chan struct{})

	hook.Register(hook.KeyDown, w.keys, func(hook.Event) {
		w.fire()
	})

	go func() {
		defer close(w.done)
		events := hook.Start()
		<-hook.Process(events)
	}()

	w.log.Info().Strs("keys", w.keys).Msg("Global hotkey registered")
	return nil
}

// Stop uninstalls the hook and waits for the dispatch goroutine to exit.
// Idempotent; safe from any goroutine while an activation is in flight.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	done := w.done
	w.mu.Unlock()

	hook.End()
	<-done
}

// fire captures the foreground window and emits an activation without
// blocking the hook's dispatch thread.
func (w *Watcher) fire() {
	act := Activation{Window: w.foreground(), At: time.Now()}
	select {
	case w.out <- act:
	default:
		w.log.Warn().Msg("Activation buffer full, dropping hotkey press")
	}
}
