// Package app wires the watcher event sources to the history store and
// the hotkey activations to the popup UI. It is the only place the three
// concurrent strands meet: the clipboard watcher, the hotkey watcher, and
// the UI-facing accessors all funnel through the store's own critical
// section, so the orchestrator itself holds no entry state.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clipvault/internal/autostart"
	"clipvault/internal/clipwatch"
	"clipvault/internal/config"
	"clipvault/internal/history"
	"clipvault/internal/hotkey"
	"clipvault/internal/paste"
	"clipvault/internal/platform"
)

// recordTimeout bounds how long a single capture may hold the event loop.
const recordTimeout = 2 * time.Second

// UI is the popup layer. It re-queries the store on open and receives no
// push notifications from the core.
type UI interface {
	// ShowHistory opens the history popup. target is the window that had
	// focus at activation time; a later paste is replayed into it.
	ShowHistory(target platform.Window)
}

type Config struct {
	Store     history.API
	Engine    paste.Paster
	Clipboard clipwatch.Source
	Hotkeys   hotkey.Source
	Config    *config.Config
	Logger    zerolog.Logger
	UI        UI // Optional - can be set later via SetUI
}

type App struct {
	store  history.API
	engine paste.Paster
	clip   clipwatch.Source
	keys   hotkey.Source
	cfg    *config.Config
	log    zerolog.Logger

	mu sync.Mutex
	ui UI
}

func New(cfg Config) *App {
	return &App{
		store:  cfg.Store,
		engine: cfg.Engine,
		clip:   cfg.Clipboard,
		keys:   cfg.Hotkeys,
		cfg:    cfg.Config,
		log:    cfg.Logger,
		ui:     cfg.UI,
	}
}

// SetUI registers the popup layer (resolves the app/UI construction cycle)
func (a *App) SetUI(ui UI) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ui = ui
}

// Run starts both watchers and processes their events until ctx is done,
// then stops the watchers and closes the store on every exit path.
func (a *App) Run(ctx context.Context) error {
	if err := a.clip.Start(); err != nil {
		return fmt.Errorf("start clipboard watcher: %w", err)
	}
	if err := a.keys.Start(); err != nil {
		a.clip.Stop()
		return fmt.Errorf("start hotkey watcher: %w", err)
	}

	defer func() {
		a.keys.Stop()
		a.clip.Stop()
		if err := a.store.Close(); err != nil {
			a.log.Error().Err(err).Msg("Closing history store")
		}
	}()

	a.log.Info().Msg("Clipboard history running")

	for {
		select {
		case <-ctx.Done():
			a.log.Info().Msg("Shutting down")
			return nil
		case ev := <-a.clip.Events():
			a.record(ev)
		case act := <-a.keys.Activations():
			a.showHistory(act.Window)
		}
	}
}

// record writes one capture into the store. Store failures are logged and
// swallowed here: nothing that happens in storage may kill the event loop
// or the watchers feeding it.
func (a *App) record(ev clipwatch.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	id, err := a.store.Add(ctx, ev.Kind, ev.Content, ev.Image)
	if err != nil {
		if errors.Is(err, history.ErrStorageUnavailable) {
			a.log.Error().Err(err).Msg("History storage unavailable, capture lost")
		} else {
			a.log.Warn().Err(err).Msg("Capture rejected")
		}
		return
	}
	a.log.Debug().Int64("entry", id).Str("kind", string(ev.Kind)).Msg("Captured clipboard change")
}

func (a *App) showHistory(target platform.Window) {
	a.mu.Lock()
	ui := a.ui
	a.mu.Unlock()

	if ui == nil {
		a.log.Debug().Msg("Hotkey pressed but no UI registered")
		return
	}
	ui.ShowHistory(target)
}

// ShowHistoryNow opens the popup from the tray, targeting whichever window
// currently has focus.
func (a *App) ShowHistoryNow() {
	a.showHistory(platform.ForegroundWindow())
}

// UI-facing store and paste accessors. The popup re-queries on every open;
// it never holds entry state between openings.

func (a *App) History(ctx context.Context, filter string) ([]history.Entry, error) {
	return a.store.List(ctx, filter)
}

func (a *App) SetPinned(ctx context.Context, id int64, pinned bool) error {
	return a.store.SetPinned(ctx, id, pinned)
}

func (a *App) Delete(ctx context.Context, id int64) error {
	return a.store.Delete(ctx, id)
}

func (a *App) Clear(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// Paste restores the entry onto the clipboard and replays the paste
// keystroke into target. ErrClipboardBusy and ErrWindowGone come back to
// the UI for a toast; a stale id is reported as a plain error.
func (a *App) Paste(ctx context.Context, id int64, target platform.Window) error {
	entry, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("entry %d no longer exists", id)
	}
	return a.engine.Paste(ctx, *entry, target)
}

// Tray actions

func (a *App) AutostartEnabled() bool {
	return autostart.Enabled()
}

// ToggleAutostart flips the run-at-login state and persists it to config.
// Returns the new state; failures leave the previous state and are logged.
func (a *App) ToggleAutostart() bool {
	state, err := autostart.Toggle()
	if err != nil {
		a.log.Warn().Err(err).Msg("Toggling autostart failed")
		return autostart.Enabled()
	}
	a.cfg.RunAtLogin = state
	if err := a.cfg.Save(); err != nil {
		a.log.Warn().Err(err).Msg("Saving config failed")
	}
	return state
}
