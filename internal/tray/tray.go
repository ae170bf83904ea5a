package tray

import (
	"context"
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"clipvault/internal/app"
	"clipvault/internal/config"
	"clipvault/internal/history"
	"clipvault/internal/logging"
	"clipvault/internal/platform"
)

// historySlots is the number of recent-entry menu items kept in the tray.
const historySlots = 10

type UI struct {
	app     *app.App
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	mu     sync.Mutex
	target platform.Window
	ids    [historySlots]int64

	// Menu items
	mRecent     *systray.MenuItem
	slots       [historySlots]*systray.MenuItem
	mClear      *systray.MenuItem
	mRunAtLogin *systray.MenuItem
}

func New(cfg *config.Config, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log,
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

func (u *UI) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()
	systray.Run(u.onReady, u.onExit)
	return nil
}

// ShowHistory refreshes the recent-entry menu for the window that was
// focused when the hotkey fired. Clicking an entry pastes it there.
func (u *UI) ShowHistory(target platform.Window) {
	u.mu.Lock()
	u.target = target
	u.mu.Unlock()
	u.refreshRecent()
}

func (u *UI) onReady() {
	systray.SetTitle("📋")
	systray.SetTooltip("Clipboard history")

	// Build menu
	u.mRecent = systray.AddMenuItem("Recent", "Paste a recent entry")
	for i := range u.slots {
		u.slots[i] = u.mRecent.AddSubMenuItem("", "")
		u.slots[i].Hide()
		go u.handleSlot(i)
	}
	u.refreshRecent()

	u.mClear = systray.AddMenuItem("Clear Unpinned", "Remove all unpinned entries")
	systray.AddSeparator()

	u.mRunAtLogin = systray.AddMenuItemCheckbox("Run at Login", "Start on system boot", u.cfg.RunAtLogin)
	if u.app != nil && u.app.AutostartEnabled() {
		u.mRunAtLogin.Check()
	}

	systray.AddSeparator()
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About ClipVault")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	// Event loop
	go u.handleEvents(mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mRecent.ClickedCh:
			u.refreshRecent()
		case <-u.mClear.ClickedCh:
			u.clearUnpinned()
		case <-u.mRunAtLogin.ClickedCh:
			u.toggleRunAtLogin()
		case <-mLogs.ClickedCh:
			u.openLogs()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

// handleSlot pastes the entry bound to slot i into the last captured window.
func (u *UI) handleSlot(i int) {
	for {
		<-u.slots[i].ClickedCh

		u.mu.Lock()
		id := u.ids[i]
		target := u.target
		u.mu.Unlock()

		if id == 0 || u.app == nil {
			continue
		}
		if err := u.app.Paste(context.Background(), id, target); err != nil {
			u.log.Error().Err(err).Int64("id", id).Msg("Paste from tray failed")
		}
	}
}

func (u *UI) refreshRecent() {
	if u.app == nil || u.mRecent == nil {
		return
	}
	entries, err := u.app.History(context.Background(), "")
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list history")
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for i := range u.slots {
		if i < len(entries) {
			u.ids[i] = entries[i].ID
			u.slots[i].SetTitle(slotTitle(entries[i]))
			u.slots[i].Show()
		} else {
			u.ids[i] = 0
			u.slots[i].Hide()
		}
	}
}

func (u *UI) clearUnpinned() {
	if u.app == nil {
		return
	}
	if err := u.app.Clear(context.Background()); err != nil {
		u.log.Error().Err(err).Msg("Failed to clear history")
		return
	}
	u.log.Info().Msg("Cleared unpinned history")
	u.refreshRecent()
}

func (u *UI) toggleRunAtLogin() {
	if u.app == nil {
		return
	}
	if u.app.ToggleAutostart() {
		u.mRunAtLogin.Check()
		u.log.Info().Msg("Enabled run at login")
	} else {
		u.mRunAtLogin.Uncheck()
		u.log.Info().Msg("Disabled run at login")
	}
}

func (u *UI) openLogs() {
	fmt.Printf("Logs: %s\n", logging.Path())
}

func (u *UI) showAbout() {
	fmt.Printf("ClipVault %s (%s)\nClipboard history manager\n", u.version, u.commit)
}

func (u *UI) onExit() {
	// Cleanup
}

// slotTitle renders a menu title for an entry, pinned entries marked.
func slotTitle(e history.Entry) string {
	title := e.Preview
	if title == "" {
		title = string(e.Kind)
	}
	if e.Pinned {
		return "📌 " + title
	}
	return title
}
