package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/xkcdbot"
)

// Compile-time interface verification.
var _ xkcdbot.ComicStore = (*ComicStore)(nil)

// ComicStore implements xkcdbot.ComicStore using SQLite. The in-memory
// snapshot is written in a single transaction on Persist; rows whose
// content hash is unchanged are not rewritten.
type ComicStore struct {
	db     *DB
	logger *slog.Logger

	mu     sync.RWMutex
	comics map[int]*xkcdbot.Comic
}

// StoreOption configures a ComicStore.
type StoreOption func(*ComicStore)

// WithLogger reports unreadable rows to logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *ComicStore) {
		s.logger = logger
	}
}

// NewComicStore creates a new ComicStore on an opened DB.
func NewComicStore(db *DB, opts ...StoreOption) *ComicStore {
	s := &ComicStore{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		comics: make(map[int]*xkcdbot.Comic),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// hashComic computes the xxHash of every stored field and returns a hex string.
func hashComic(c *xkcdbot.Comic) string {
	d := xxhash.New()
	for _, field := range []string{c.Title, c.Alt, c.Transcript, c.Img, c.Year, c.Month, c.Day} {
		_, _ = d.WriteString(field)
		_, _ = d.Write([]byte{0})
	}
	return hex.EncodeToString(binary.BigEndian.AppendUint64(nil, d.Sum64()))
}

// Load reads every row into memory. Unreadable rows or tables are logged
// and yield an empty catalogue.
func (s *ComicStore) Load(ctx context.Context) (map[int]*xkcdbot.Comic, error) {
	comics, err := s.readAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("ignoring unreadable store", "err", err)
		comics = make(map[int]*xkcdbot.Comic)
	}

	s.mu.Lock()
	s.comics = comics
	s.mu.Unlock()

	return maps.Clone(comics), nil
}

func (s *ComicStore) readAll(ctx context.Context) (map[int]*xkcdbot.Comic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT num, title, alt, transcript, img, year, month, day
		FROM comics
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comics := make(map[int]*xkcdbot.Comic)
	for rows.Next() {
		var c xkcdbot.Comic
		if err := rows.Scan(&c.Num, &c.Title, &c.Alt, &c.Transcript, &c.Img, &c.Year, &c.Month, &c.Day); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			s.logger.Warn("dropping invalid comic", "num", c.Num, "err", err)
			continue
		}
		comics[c.Num] = &c
	}

	return comics, rows.Err()
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

// Persist writes the in-memory catalogue in one transaction and removes
// rows no longer present. On failure the transaction is rolled back.
func (s *ComicStore) Persist(ctx context.Context) error {
	snapshot := s.Comics()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return xkcdbot.Errorf(xkcdbot.EPERSIST, "begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertComics(ctx, tx, snapshot); err != nil {
		return xkcdbot.Errorf(xkcdbot.EPERSIST, "write comics: %w", err)
	}
	if err := deleteMissing(ctx, tx, snapshot); err != nil {
		return xkcdbot.Errorf(xkcdbot.EPERSIST, "remove stale comics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return xkcdbot.Errorf(xkcdbot.EPERSIST, "commit: %w", err)
	}
	return nil
}

func upsertComics(ctx context.Context, tx *sql.Tx, comics map[int]*xkcdbot.Comic) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO comics (num, title, alt, transcript, img, year, month, day, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(num) DO UPDATE SET
			title = excluded.title,
			alt = excluded.alt,
			transcript = excluded.transcript,
			img = excluded.img,
			year = excluded.year,
			month = excluded.month,
			day = excluded.day,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
		WHERE comics.content_hash != excluded.content_hash
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, num := range xkcdbot.SortedNums(comics) {
		c := comics[num]
		if _, err := stmt.ExecContext(ctx, c.Num, c.Title, c.Alt, c.Transcript, c.Img,
			c.Year, c.Month, c.Day, hashComic(c), now); err != nil {
			return err
		}
	}
	return nil
}

func deleteMissing(ctx context.Context, tx *sql.Tx, comics map[int]*xkcdbot.Comic) error {
	rows, err := tx.QueryContext(ctx, "SELECT num FROM comics")
	if err != nil {
		return err
	}
	var stale []int
	for rows.Next() {
		var num int
		if err := rows.Scan(&num); err != nil {
			rows.Close()
			return err
		}
		if _, ok := comics[num]; !ok {
			stale = append(stale, num)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, num := range stale {
		if _, err := tx.ExecContext(ctx, "DELETE FROM comics WHERE num = ?", num); err != nil {
			return err
		}
	}
	return nil
}
