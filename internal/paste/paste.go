// Package paste restores a history entry to the OS clipboard and replays
// the paste keystroke into the window that was focused when the user
// activated the popup. Steps run strictly in order: arm suppression, write
// clipboard, refocus target, inject keystroke — the keystroke never fires
// before the clipboard holds the entry.
package paste

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"clipvault/internal/history"
	"clipvault/internal/platform"
)

var (
	// ErrClipboardBusy means another process held the clipboard through
	// every retry. Non-fatal; surfaced to the user.
	ErrClipboardBusy = errors.New("clipboard busy")

	// ErrWindowGone means the paste target was closed before the keystroke
	// could be sent. The clipboard write already happened and stays.
	ErrWindowGone = errors.New("target window gone")
)

const (
	writeAttempts = 3
	writeBackoff  = 50 * time.Millisecond

	// focusDelay gives the OS time to complete the focus switch before the
	// keystroke lands, mirroring the SetForegroundWindow settle time.
	focusDelay = 150 * time.Millisecond
)

// Board writes a payload onto the OS clipboard.
type Board interface {
	Write(kind history.Kind, data []byte) error
}

// Suppressor is armed before every self-write so the clipboard watcher
// does not re-capture the paste as a new history entry.
type Suppressor interface {
	ExpectSelfWrite(hash string)
	Clear()
}

// Paster is the engine surface the orchestrator and UI consume.
type Paster interface {
	Paste(ctx context.Context, entry history.Entry, target platform.Window) error
}

// Engine is the concrete Paster.
type Engine struct {
	board Board
	sup   Suppressor
	log   zerolog.Logger

	// platform seams, swapped out in tests
	windowExists func(platform.Window) bool
	focusWindow  func(platform.Window) bool
	sendPaste    func() error
	settle       time.Duration
}

var _ Paster = (*Engine)(nil)

// New builds an Engine over the given clipboard board and watcher
// suppressor.
func New(board Board, sup Suppressor, log zerolog.Logger) *Engine {
	return &Engine{
		board:        board,
		sup:          sup,
		log:          log,
		windowExists: platform.Window.StillExists,
		focusWindow:  platform.Window.BringToForeground,
		sendPaste:    platform.SendPaste,
		settle:       focusDelay,
	}
}

// Paste places the entry on the clipboard and replays the paste keystroke
// into target. Returns ErrClipboardBusy or ErrWindowGone on the two
// user-visible failures; any other error is internal and logged by the
// caller.
func (e *Engine) Paste(ctx context.Context, entry history.Entry, target platform.Window) error {
	var payload []byte
	switch entry.Kind {
	case history.KindText:
		payload = []byte(entry.Content)
	case history.KindImage:
		payload = entry.Image
	default:
		return fmt.Errorf("unknown entry kind %q", entry.Kind)
	}

	// Armed before the write: the watcher may see the change notification
	// before control returns from the clipboard call.
	e.sup.ExpectSelfWrite(history.Fingerprint(entry.Kind, entry.Content, entry.Image))

	if err := e.writeWithRetry(ctx, entry.Kind, payload); err != nil {
		e.sup.Clear()
		return err
	}

	if !e.windowExists(target) {
		return fmt.Errorf("%w: window %#x", ErrWindowGone, uintptr(target))
	}
	if !e.focusWindow(target) {
		e.log.Warn().Uint64("window", uint64(target)).Msg("Could not bring target window to foreground")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.settle):
	}

	if err := e.sendPaste(); err != nil {
		return fmt.Errorf("synthesize paste keystroke: %w", err)
	}

	e.log.Debug().Int64("entry", entry.ID).Str("kind", string(entry.Kind)).Msg("Pasted history entry")
	return nil
}

// writeWithRetry attempts the clipboard write a bounded number of times;
// another process may hold the clipboard open briefly.
func (e *Engine) writeWithRetry(ctx context.Context, kind history.Kind, payload []byte) error {
	var lastErr error
	for attempt := 0; attempt < writeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(writeBackoff):
			}
		}
		if lastErr = e.board.Write(kind, payload); lastErr == nil {
			return nil
		}
		e.log.Debug().Err(lastErr).Int("attempt", attempt+1).Msg("Clipboard write failed, retrying")
	}
	return fmt.Errorf("%w: %w", ErrClipboardBusy, lastErr)
}
