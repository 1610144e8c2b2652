// Package fs provides file-based storage for the comic catalogue.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/xkcdbot"
)

// Ensure ComicStore implements xkcdbot.ComicStore at compile time.
var _ xkcdbot.ComicStore = (*ComicStore)(nil)

// ComicStore implements xkcdbot.ComicStore as a single pretty-printed JSON
// document keyed by comic number. Persist writes to path.tmp and renames it
// over path, so a reader never observes a truncated file.
type ComicStore struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	comics map[int]*xkcdbot.Comic
}

// StoreOption configures a ComicStore.
type StoreOption func(*ComicStore)

// WithLogger reports unreadable state and dropped comics to logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *ComicStore) {
		s.logger = logger
	}
}

// NewComicStore creates a new ComicStore backed by the file at path.
func NewComicStore(path string, opts ...StoreOption) *ComicStore {
	s := &ComicStore{
		path:   path,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		comics: make(map[int]*xkcdbot.Comic),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the backing file.
func (s *ComicStore) Path() string {
	return s.path
}

func (s *ComicStore) tempPath() string {
	return s.path + ".tmp"
}

// Load reads the file into memory. A missing or unparseable file yields an
// empty catalogue so ingestion can bootstrap from nothing.
func (s *ComicStore) Load(ctx context.Context) (map[int]*xkcdbot.Comic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comics := make(map[int]*xkcdbot.Comic)

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, xkcdbot.Errorf(xkcdbot.EPERSIST, "read %s: %w", s.path, err)
	case len(data) > 0:
		var decoded map[int]*xkcdbot.Comic
		if err := json.Unmarshal(data, &decoded); err != nil {
			s.logger.Warn("ignoring unparseable store", "path", s.path, "err", err)
			break
		}
		for num, c := range decoded {
			if c == nil || c.Num != num || c.Validate() != nil {
				s.logger.Warn("dropping invalid comic", "path", s.path, "num", num)
				continue
			}
			comics[num] = c
		}
	}

	s.mu.Lock()
	s.comics = comics
	s.mu.Unlock()

	return maps.Clone(comics), nil
}

// Merge inserts or replaces comics by number. Invalid comics are dropped.
func (s *ComicStore) Merge(comics ...*xkcdbot.Comic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range comics {
		if c == nil {
			continue
		}
		if err := c.Validate(); err != nil {
			s.logger.Warn("dropping invalid comic", "num", c.Num, "err", err)
			continue
		}
		s.comics[c.Num] = c
	}
}

// Comics returns a copy of the in-memory catalogue.
func (s *ComicStore) Comics() map[int]*xkcdbot.Comic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.comics)
}

// Comic looks up num in the in-memory catalogue.
func (s *ComicStore) Comic(num int) (*xkcdbot.Comic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comics[num]
	return c, ok
}

// Persist atomically replaces the file with the in-memory catalogue.
func (s *ComicStore) Persist(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s.comics, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return xkcdbot.Errorf(xkcdbot.EPERSIST, "encode store: %w", err)
	}

	if err := s.writeTemp(data); err != nil {
		_ = os.Remove(s.tempPath())
		return xkcdbot.Errorf(xkcdbot.EPERSIST, "write %s: %w", s.tempPath(), err)
	}

	// Atomically rename temp to final
	if err := os.Rename(s.tempPath(), s.path); err != nil {
		_ = os.Remove(s.tempPath())
		return xkcdbot.Errorf(xkcdbot.EPERSIST, "replace %s: %w", s.path, err)
	}

	return nil
}

func (s *ComicStore) writeTemp(data []byte) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.tempPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
