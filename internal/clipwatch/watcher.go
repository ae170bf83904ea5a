// Package clipwatch watches the OS clipboard for changes made outside the
// application, classifies them as text or image, and emits them on a
// bounded channel. Writes performed by the paste engine are filtered out
// through the Suppressor so they never re-enter the history.
package clipwatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.design/x/clipboard"

	"clipvault/internal/history"
)

// ErrUnsupportedFormat marks clipboard content that is neither text nor a
// PNG image. The watcher subscribes only to the two supported formats, so
// it surfaces from SystemBoard when asked to write an unknown entry kind.
var ErrUnsupportedFormat = errors.New("unsupported clipboard format")

const eventBuffer = 16

// Event is one externally-caused clipboard change.
type Event struct {
	Kind    history.Kind
	Content string
	Image   []byte
}

// Source is the watcher surface the orchestrator consumes.
type Source interface {
	Start() error
	Stop()
	Events() <-chan Event
}

var (
	initOnce sync.Once
	initErr  error
)

// ensureClipboard initializes golang.design/x/clipboard exactly once for
// the whole process; the watcher and the paste engine's board share it.
func ensureClipboard() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

// Watcher turns clipboard-change notifications into Events.
type Watcher struct {
	out           chan Event
	sup           *Suppressor
	maxImageBytes int
	log           zerolog.Logger

	// watch is swapped out in tests; the default is clipboard.Watch.
	watch func(context.Context, clipboard.Format) <-chan []byte

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

var _ Source = (*Watcher)(nil)

// New builds a stopped Watcher. maxImageBytes caps stored image size;
// larger captures are dropped.
func New(maxImageBytes int, log zerolog.Logger) *Watcher {
	return &Watcher{
		out:           make(chan Event, eventBuffer),
		sup:           &Suppressor{},
		maxImageBytes: maxImageBytes,
		log:           log,
		watch:         clipboard.Watch,
	}
}

// Suppressor returns the suppression flag shared with the paste engine.
func (w *Watcher) Suppressor() *Suppressor { return w.sup }

// Events returns the change-event channel. Events are dropped, not
// blocked on, when the consumer falls behind.
func (w *Watcher) Events() <-chan Event { return w.out }

// Start registers with the OS clipboard and spawns the listener goroutine.
// Idempotent: a second Start while listening is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := ensureClipboard(); err != nil {
		return fmt.Errorf("clipboard init: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	go w.run(ctx)
	return nil
}

// Stop unregisters and waits for the listener goroutine to exit. Safe to
// call from any goroutine, mid-notification included, and idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	textCh := w.watch(ctx, clipboard.FmtText)
	imageCh := w.watch(ctx, clipboard.FmtImage)

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-textCh:
			if !ok {
				return
			}
			w.handleText(data)
		case data, ok := <-imageCh:
			if !ok {
				return
			}
			w.handleImage(data)
		}
	}
}

func (w *Watcher) handleText(data []byte) {
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return
	}
	hash := history.Fingerprint(history.KindText, content, nil)
	if w.sup.suppress(hash) {
		w.log.Debug().Msg("Suppressed self-caused clipboard change")
		return
	}
	w.emit(Event{Kind: history.KindText, Content: content})
}

func (w *Watcher) handleImage(data []byte) {
	if len(data) == 0 {
		return
	}
	if w.maxImageBytes > 0 && len(data) > w.maxImageBytes {
		w.log.Debug().Int("bytes", len(data)).Msg("Image capture over size cap, ignoring")
		return
	}
	hash := history.Fingerprint(history.KindImage, "", data)
	if w.sup.suppress(hash) {
		w.log.Debug().Msg("Suppressed self-caused clipboard change")
		return
	}
	w.emit(Event{Kind: history.KindImage, Image: data})
}

// emit never blocks the notification path; a full buffer drops the event.
func (w *Watcher) emit(ev Event) {
	select {
	case w.out <- ev:
	default:
		w.log.Warn().Str("kind", string(ev.Kind)).Msg("Event buffer full, dropping clipboard change")
	}
}
