// Package history owns the clipboard history collection: deduplication,
// pinning, capacity eviction, and age-based expiry over a SQLite database.
// Every exported method is safe to call from any goroutine; mutation and
// snapshot reads are serialized through a single mutex so the count
// invariant and the dedup check never interleave.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// ErrStorageUnavailable wraps any backend I/O failure. Callers log it and
// continue; it must never terminate a watcher goroutine.
var ErrStorageUnavailable = errors.New("history storage unavailable")

const expireSweepInterval = time.Hour

// Options configures a Store. Zero fields take the listed defaults.
type Options struct {
	// Path is the SQLite database file. ":memory:" keeps the session's
	// history in memory only.
	Path string

	MaxEntries       int           // capacity N before eviction (default 500)
	MaxContentLength int           // text payload cap in bytes (default 50000)
	PreviewLength    int           // preview cap in characters (default 200)
	AutoExpire       time.Duration // unpinned entries older than this are swept (default 30 days, 0 disables)

	Logger zerolog.Logger
}

func (o *Options) defaults() {
	if o.MaxEntries == 0 {
		o.MaxEntries = 500
	}
	if o.MaxContentLength == 0 {
		o.MaxContentLength = 50000
	}
	if o.PreviewLength == 0 {
		o.PreviewLength = 200
	}
	if o.AutoExpire == 0 {
		o.AutoExpire = 30 * 24 * time.Hour
	}
}

// API is the store surface the orchestrator and UI layer consume.
type API interface {
	Add(ctx context.Context, kind Kind, content string, image []byte) (int64, error)
	List(ctx context.Context, filter string) ([]Entry, error)
	Get(ctx context.Context, id int64) (*Entry, error)
	SetPinned(ctx context.Context, id int64, pinned bool) error
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	Close() error
}

// Store is the SQLite-backed implementation of API.
type Store struct {
	mu         sync.Mutex
	db         *bun.DB
	opts       Options
	log        zerolog.Logger
	closed     bool
	lastExpire time.Time
}

var _ API = (*Store)(nil)

// Open opens (or creates) the database at opts.Path. A corrupted file is
// deleted and recreated rather than failing startup; pinned history is lost
// but the capture pipeline keeps working.
func Open(opts Options) (*Store, error) {
	opts.defaults()

	db, err := openOrRecreate(opts.Path, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w: %w", ErrStorageUnavailable, err)
	}

	s := &Store{
		db:         db,
		opts:       opts,
		log:        opts.Logger,
		lastExpire: time.Now(),
	}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w: %w", ErrStorageUnavailable, err)
	}
	if err := s.expire(context.Background(), time.Now()); err != nil {
		s.log.Warn().Err(err).Msg("Initial expiry sweep failed")
	}
	return s, nil
}

// openOrRecreate opens the database and verifies integrity; a corrupt file
// is removed and a fresh one created in its place.
func openOrRecreate(path string, log zerolog.Logger) (*bun.DB, error) {
	open := func() (*bun.DB, error) {
		sqldb, err := sql.Open(sqliteshim.ShimName, path)
		if err != nil {
			return nil, err
		}
		db := bun.NewDB(sqldb, sqlitedialect.New())
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, err
		}
		if _, err := db.Exec("PRAGMA busy_timeout=3000"); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := open()
	if err == nil {
		var result string
		if qErr := db.QueryRow("PRAGMA integrity_check").Scan(&result); qErr == nil && result == "ok" {
			return db, nil
		}
		db.Close()
		err = fmt.Errorf("integrity check failed")
	}
	if path == ":memory:" {
		return nil, err
	}

	log.Warn().Err(err).Str("path", path).Msg("Database corrupted, recreating")
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		os.Remove(p)
	}
	if dir := filepath.Dir(path); dir != "" {
		os.MkdirAll(dir, 0o755)
	}
	return open()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_entries_recency ON entries(last_used_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_entries_display ON entries(pinned DESC, last_used_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(pinned, created_at ASC, id ASC)",
	}
	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

// Add inserts a capture or, when its fingerprint matches the current
// most-recent entry, refreshes that entry's timestamp instead. Dedup is a
// deliberate O(1) check against the top item only: copying A, B, A leaves
// two rows for A. Returns the id of the inserted or refreshed entry.
func (s *Store) Add(ctx context.Context, kind Kind, content string, image []byte) (int64, error) {
	switch kind {
	case KindText:
		if strings.TrimSpace(content) == "" {
			return 0, fmt.Errorf("empty text capture")
		}
		if len(content) > s.opts.MaxContentLength {
			content = content[:s.opts.MaxContentLength]
		}
		image = nil
	case KindImage:
		if len(image) == 0 {
			return 0, fmt.Errorf("empty image capture")
		}
		content = ""
	default:
		return 0, fmt.Errorf("unknown entry kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStorageUnavailable
	}

	now := time.Now()
	hash := Fingerprint(kind, content, image)

	var top Entry
	err := s.db.NewSelect().Model(&top).
		Column("id", "hash").
		Order("last_used_at DESC", "id DESC").
		Limit(1).
		Scan(ctx)
	switch {
	case err == nil && top.Hash == hash:
		_, err = s.db.NewUpdate().Model((*Entry)(nil)).
			Set("last_used_at = ?", now).
			Where("id = ?", top.ID).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("refresh entry: %w: %w", ErrStorageUnavailable, err)
		}
		return top.ID, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("dedup check: %w: %w", ErrStorageUnavailable, err)
	}

	entry := &Entry{
		Kind:       kind,
		Content:    content,
		Image:      image,
		Hash:       hash,
		Preview:    previewOf(kind, content, image, s.opts.PreviewLength),
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if _, err := s.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert entry: %w: %w", ErrStorageUnavailable, err)
	}

	if err := s.evict(ctx, entry.ID); err != nil {
		s.log.Warn().Err(err).Msg("Capacity eviction failed")
	}
	s.maybeExpire(ctx, now)

	return entry.ID, nil
}

// evict enforces the capacity bound: oldest unpinned entries go first,
// oldest by created_at, ties broken by lowest id. The entry just inserted
// (keep) is never a victim. When every other entry is pinned the new
// capture stays and the table transiently exceeds the cap; pins never
// block a legitimate capture.
func (s *Store) evict(ctx context.Context, keep int64) error {
	count, err := s.db.NewSelect().Model((*Entry)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count entries: %w: %w", ErrStorageUnavailable, err)
	}
	if count <= s.opts.MaxEntries {
		return nil
	}

	unpinned, err := s.db.NewSelect().Model((*Entry)(nil)).
		Where("pinned = ?", false).
		Where("id != ?", keep).
		Count(ctx)
	if err != nil {
		return fmt.Errorf("count unpinned: %w: %w", ErrStorageUnavailable, err)
	}
	if unpinned == 0 {
		s.log.Debug().Int("count", count).Msg("All entries pinned, skipping eviction")
		return nil
	}

	excess := count - s.opts.MaxEntries
	if excess > unpinned {
		excess = unpinned
	}
	victims := s.db.NewSelect().Model((*Entry)(nil)).
		Column("id").
		Where("pinned = ?", false).
		Where("id != ?", keep).
		Order("created_at ASC", "id ASC").
		Limit(excess)
	_, err = s.db.NewDelete().Model((*Entry)(nil)).
		Where("id IN (?)", victims).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("evict entries: %w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// maybeExpire runs the age sweep at most once per sweep interval. Called
// with the mutex held.
func (s *Store) maybeExpire(ctx context.Context, now time.Time) {
	if s.opts.AutoExpire <= 0 || now.Sub(s.lastExpire) < expireSweepInterval {
		return
	}
	s.lastExpire = now
	if err := s.expire(ctx, now); err != nil {
		s.log.Warn().Err(err).Msg("Expiry sweep failed")
	}
}

func (s *Store) expire(ctx context.Context, now time.Time) error {
	if s.opts.AutoExpire <= 0 {
		return nil
	}
	cutoff := now.Add(-s.opts.AutoExpire)
	_, err := s.db.NewDelete().Model((*Entry)(nil)).
		Where("pinned = ?", false).
		Where("last_used_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("expire entries: %w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// List returns a display-ordered snapshot: pinned entries first, then
// unpinned, newest first within each group. A non-empty filter matches
// case-insensitive substrings of text content; image entries only match
// the empty filter. Image payloads are not loaded; use Get.
func (s *Store) List(ctx context.Context, filter string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStorageUnavailable
	}

	var entries []Entry
	q := s.db.NewSelect().Model(&entries).
		Column("id", "kind", "content", "hash", "preview", "pinned", "created_at", "last_used_at").
		Order("pinned DESC", "last_used_at DESC", "id DESC")

	if filter != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter)) + "%"
		q = q.Where("kind = ? AND LOWER(content) LIKE ? ESCAPE '\\'", KindText, pattern)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list entries: %w: %w", ErrStorageUnavailable, err)
	}
	return entries, nil
}

// escapeLike escapes SQL LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// Get returns the full entry, image payload included, or nil if the id no
// longer exists.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStorageUnavailable
	}

	var entry Entry
	err := s.db.NewSelect().Model(&entry).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w: %w", ErrStorageUnavailable, err)
	}
	return &entry, nil
}

// SetPinned flips the pin flag. A stale id is a no-op, not an error:
// eviction or dedup may race a UI action referencing an old snapshot.
func (s *Store) SetPinned(ctx context.Context, id int64, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStorageUnavailable
	}

	_, err := s.db.NewUpdate().Model((*Entry)(nil)).
		Set("pinned = ?", pinned).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set pinned: %w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes a single entry. A stale id is a no-op.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStorageUnavailable
	}

	_, err := s.db.NewDelete().Model((*Entry)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete entry: %w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Clear removes every unpinned entry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStorageUnavailable
	}

	_, err := s.db.NewDelete().Model((*Entry)(nil)).Where("pinned = ?", false).Exec(ctx)
	if err != nil {
		return fmt.Errorf("clear entries: %w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Close releases the database. Idempotent; later operations return
// ErrStorageUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
