package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clipvault/internal/app"
	"clipvault/internal/clipwatch"
	"clipvault/internal/config"
	"clipvault/internal/history"
	"clipvault/internal/hotkey"
	"clipvault/internal/logging"
	"clipvault/internal/paste"
	"clipvault/internal/permissions"
	"clipvault/internal/singleinstance"
	"clipvault/internal/tray"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clipvault",
		Short:         "Clipboard history manager",
		Long:          "ClipVault records clipboard changes into a searchable, pinnable history\nand pastes any entry back into the window that was focused when the\nhistory hotkey fired.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("clipvault %s (%s)\n", Version, Commit)
		},
	})

	return root
}

func run() error {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Error().Err(err).Msg("Failed to load config")
		return err
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// Refuse to run twice: two instances would fight over the hotkey and
	// capture each other's paste writes.
	guard, inst, err := singleinstance.Acquire("clipvault")
	if err != nil {
		log.Warn().Err(err).Msg("Single-instance check failed, continuing anyway")
	} else if inst == singleinstance.AlreadyRunning {
		log.Info().Msg("ClipVault is already running")
		return nil
	}
	defer guard.Release()

	// macOS requires explicit accessibility approval before hotkeys and
	// keystroke injection work
	if err := permissions.EnsurePermissions(); err != nil {
		log.Error().Err(err).Msg("Required permissions not granted")
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	watcher := clipwatch.New(cfg.MaxImageBytes, log)
	engine := paste.New(clipwatch.SystemBoard{}, watcher.Suppressor(), log)

	keys, err := hotkey.New(cfg.Hotkey, log)
	if err != nil {
		store.Close()
		log.Error().Err(err).Str("hotkey", cfg.Hotkey).Msg("Invalid hotkey")
		return err
	}

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(cfg, log, Version, Commit)

	application := app.New(app.Config{
		Store:     store,
		Engine:    engine,
		Clipboard: watcher,
		Hotkeys:   keys,
		Config:    cfg,
		Logger:    log,
		UI:        trayUI,
	})

	// Set app reference in tray
	trayUI.SetApp(application)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- application.Run(ctx)
	}()

	log.Info().Str("version", Version).Str("hotkey", cfg.Hotkey).Msg("ClipVault starting...")

	// Tray UI MUST run on the main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Tray error")
	}

	cancel()
	return <-runErr
}

// openStore opens the configured database, falling back to an in-memory
// store so a broken disk never blocks the capture pipeline.
func openStore(cfg *config.Config, log zerolog.Logger) (history.API, error) {
	opts := history.Options{
		Path:             cfg.ResolvedDatabasePath(),
		MaxEntries:       cfg.MaxHistory,
		MaxContentLength: cfg.MaxContentLength,
		PreviewLength:    cfg.PreviewLength,
		AutoExpire:       time.Duration(cfg.AutoExpireDays) * 24 * time.Hour,
		Logger:           log,
	}

	store, err := history.Open(opts)
	if err == nil {
		return store, nil
	}
	log.Error().Err(err).Str("path", opts.Path).Msg("Opening history database failed, using in-memory history for this session")

	opts.Path = ":memory:"
	mem, err := history.Open(opts)
	if err != nil {
		return nil, err
	}
	return mem, nil
}
