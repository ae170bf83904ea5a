package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clipvault/internal/clipwatch"
	"clipvault/internal/config"
	"clipvault/internal/history"
	"clipvault/internal/hotkey"
	"clipvault/internal/platform"
)

// Mock implementations for testing

type mockStore struct {
	mu     sync.Mutex
	adds   []clipwatch.Event
	addErr error
	closed bool
	nextID int64

	entries map[int64]history.Entry
}

func newMockStore() *mockStore {
	return &mockStore{entries: make(map[int64]history.Entry)}
}

func (m *mockStore) Add(_ context.Context, kind history.Kind, content string, image []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.nextID++
	m.adds = append(m.adds, clipwatch.Event{Kind: kind, Content: content, Image: image})
	m.entries[m.nextID] = history.Entry{ID: m.nextID, Kind: kind, Content: content, Image: image}
	return m.nextID, nil
}

func (m *mockStore) List(context.Context, string) ([]history.Entry, error) { return nil, nil }

func (m *mockStore) Get(_ context.Context, id int64) (*history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *mockStore) SetPinned(context.Context, int64, bool) error { return nil }
func (m *mockStore) Delete(context.Context, int64) error          { return nil }
func (m *mockStore) Clear(context.Context) error                  { return nil }

func (m *mockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockStore) addCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.adds)
}

type mockPaster struct {
	mu      sync.Mutex
	pasted  []int64
	targets []platform.Window
}

func (m *mockPaster) Paste(_ context.Context, entry history.Entry, target platform.Window) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pasted = append(m.pasted, entry.ID)
	m.targets = append(m.targets, target)
	return nil
}

type mockClipSource struct {
	events  chan clipwatch.Event
	mu      sync.Mutex
	stopped bool
}

func newMockClipSource() *mockClipSource {
	return &mockClipSource{events: make(chan clipwatch.Event, 8)}
}

func (m *mockClipSource) Start() error { return nil }

func (m *mockClipSource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *mockClipSource) Events() <-chan clipwatch.Event { return m.events }

func (m *mockClipSource) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

type mockHotkeySource struct {
	acts    chan hotkey.Activation
	mu      sync.Mutex
	stopped bool
}

func newMockHotkeySource() *mockHotkeySource {
	return &mockHotkeySource{acts: make(chan hotkey.Activation, 8)}
}

func (m *mockHotkeySource) Start() error { return nil }

func (m *mockHotkeySource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *mockHotkeySource) Activations() <-chan hotkey.Activation { return m.acts }

func (m *mockHotkeySource) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

type mockUI struct {
	mu    sync.Mutex
	shown []platform.Window
}

func (m *mockUI) ShowHistory(target platform.Window) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = append(m.shown, target)
}

func (m *mockUI) shownCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shown)
}

type fixture struct {
	app    *App
	store  *mockStore
	paster *mockPaster
	clip   *mockClipSource
	keys   *mockHotkeySource
	ui     *mockUI
}

func newFixture() *fixture {
	f := &fixture{
		store:  newMockStore(),
		paster: &mockPaster{},
		clip:   newMockClipSource(),
		keys:   newMockHotkeySource(),
		ui:     &mockUI{},
	}
	f.app = New(Config{
		Store:     f.store,
		Engine:    f.paster,
		Clipboard: f.clip,
		Hotkeys:   f.keys,
		Config:    &config.Config{Hotkey: "ctrl+shift+v"},
		Logger:    zerolog.Nop(),
		UI:        f.ui,
	})
	return f
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	for i := 0; i < 100; i++ {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestClipboardEventFlowsToStore(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.app.Run(ctx) }()

	f.clip.events <- clipwatch.Event{Kind: history.KindText, Content: "copied"}

	waitFor(t, func() bool { return f.store.addCount() == 1 }, "capture to land in store")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned error: %v", err)
	}
	if !f.store.closed {
		t.Error("store should be closed on shutdown")
	}
	if !f.clip.isStopped() || !f.keys.isStopped() {
		t.Error("both watchers should be stopped on shutdown")
	}
}

func TestActivationOpensUIWithCapturedWindow(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.app.Run(ctx)

	f.keys.acts <- hotkey.Activation{Window: platform.Window(42), At: time.Now()}

	waitFor(t, func() bool { return f.ui.shownCount() == 1 }, "UI to open")

	f.ui.mu.Lock()
	defer f.ui.mu.Unlock()
	if f.ui.shown[0] != platform.Window(42) {
		t.Errorf("UI target = %d, want the window captured at activation time", f.ui.shown[0])
	}
}

func TestStoreFailureDoesNotKillEventLoop(t *testing.T) {
	f := newFixture()
	f.store.addErr = fmt.Errorf("disk gone: %w", history.ErrStorageUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.app.Run(ctx)

	f.clip.events <- clipwatch.Event{Kind: history.KindText, Content: "lost"}
	f.clip.events <- clipwatch.Event{Kind: history.KindText, Content: "also lost"}

	// The loop must still service activations after storage failures.
	f.keys.acts <- hotkey.Activation{Window: platform.Window(7), At: time.Now()}

	waitFor(t, func() bool { return f.ui.shownCount() == 1 }, "loop to survive store failure")
}

func TestNoUIRegisteredIsNotFatal(t *testing.T) {
	f := newFixture()
	f.app.SetUI(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.app.Run(ctx)

	f.keys.acts <- hotkey.Activation{Window: platform.Window(1), At: time.Now()}

	// Loop keeps going after an activation with nothing to show.
	f.clip.events <- clipwatch.Event{Kind: history.KindText, Content: "after"}
	waitFor(t, func() bool { return f.store.addCount() == 1 }, "capture after nil-UI activation")
}

func TestPasteLooksUpFreshEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id, err := f.store.Add(ctx, history.KindText, "stored", nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := f.app.Paste(ctx, id, platform.Window(9)); err != nil {
		t.Fatalf("Paste failed: %v", err)
	}

	f.paster.mu.Lock()
	defer f.paster.mu.Unlock()
	if len(f.paster.pasted) != 1 || f.paster.pasted[0] != id {
		t.Errorf("pasted = %v, want [%d]", f.paster.pasted, id)
	}
	if f.paster.targets[0] != platform.Window(9) {
		t.Errorf("target = %d, want 9", f.paster.targets[0])
	}
}

func TestPasteStaleIDFails(t *testing.T) {
	f := newFixture()

	err := f.app.Paste(context.Background(), 404, platform.None)
	if err == nil {
		t.Error("Paste of a stale id should fail")
	}

	f.paster.mu.Lock()
	defer f.paster.mu.Unlock()
	if len(f.paster.pasted) != 0 {
		t.Error("no paste should happen for a stale id")
	}
}

func TestRecordRejectsWithoutStorageError(t *testing.T) {
	f := newFixture()
	f.store.addErr = errors.New("empty text capture")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.app.Run(ctx)

	f.clip.events <- clipwatch.Event{Kind: history.KindText, Content: "   "}
	f.keys.acts <- hotkey.Activation{Window: platform.Window(3), At: time.Now()}

	waitFor(t, func() bool { return f.ui.shownCount() == 1 }, "loop to survive rejected capture")
}
