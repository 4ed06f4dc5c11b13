package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"bitgraph/internal/fileutil"
	"bitgraph/internal/logging"
)

const lockRetryDelay = 25 * time.Millisecond

// Store persists a History of file paths as a JSON array, most recent first.
// Writes go through a temp file and rename while holding an advisory lock on
// <path>.lock, so several bitgraph processes can share one file. An empty
// path keeps everything in memory.
type Store struct {
	path   string
	limit  int
	logger *slog.Logger
	lock   *flock.Flock
}

// NewStore returns a Store for path that loads histories of at most limit
// entries.
func NewStore(path string, limit int, logger *slog.Logger) *Store {
	path = strings.TrimSpace(path)
	s := &Store{
		path:   path,
		limit:  limit,
		logger: logging.NewComponentLogger(logger, "history"),
	}
	if path != "" {
		s.lock = flock.New(path + ".lock")
	}
	return s
}

// Path returns the backing file, or an empty string for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted list. A missing or empty file yields an empty
// History. Entries beyond the limit are dropped from the least recent end.
func (s *Store) Load() (*History[string], error) {
	h := New[string](s.limit)
	if s.path == "" {
		return h, nil
	}
	items, err := s.read()
	if err != nil {
		return h, err
	}
	// Replay oldest first so the head ends up most recent.
	for _, item := range slices.Backward(items) {
		if item = strings.TrimSpace(item); item != "" {
			h.Push(item)
		}
	}
	s.logger.Debug("loaded recent files",
		logging.Int("entry_count", h.Len()),
		logging.String("history_path", s.path))
	return h, nil
}

// Save replaces the persisted list with h.
func (s *Store) Save(ctx context.Context, h *History[string]) error {
	if s.path == "" {
		return nil
	}
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.write(h.Snapshot())
}

// Update re-reads the persisted list under the lock, applies fn and writes
// the result back. It returns the updated History. Use it for
// read-modify-write so concurrent processes never lose each other's entries.
func (s *Store) Update(ctx context.Context, fn func(*History[string])) (*History[string], error) {
	if s.path == "" {
		h := New[string](s.limit)
		fn(h)
		return h, nil
	}
	unlock, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	h, err := s.Load()
	if err != nil {
		logging.WarnWithContext(s.logger, "recent files unreadable; starting fresh", "history_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete "+s.path+" if the problem persists"),
			logging.String(logging.FieldImpact, "previously opened files are forgotten"))
		h = New[string](s.limit)
	}
	fn(h)
	if err := s.write(h.Snapshot()); err != nil {
		return nil, err
	}
	return h, nil
}

// Record pushes path into the persisted list.
func (s *Store) Record(ctx context.Context, path string) error {
	_, err := s.Update(ctx, func(h *History[string]) { h.Push(path) })
	return err
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock history: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock history: %s is held by another process", s.lock.Path())
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Debug("release history lock failed", logging.Error(err))
		}
	}, nil
}

func (s *Store) read() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}
	return items, nil
}

func (s *Store) write(items []string) error {
	if items == nil {
		items = []string{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
