package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/xkcdbot"
)

var _ xkcdbot.ComicStore = (*LoggingComicStore)(nil)

// LoggingComicStore wraps a ComicStore with logging of durable operations.
type LoggingComicStore struct {
	next   xkcdbot.ComicStore
	logger *slog.Logger
}

// NewLoggingComicStore creates a new LoggingComicStore.
func NewLoggingComicStore(next xkcdbot.ComicStore, logger *slog.Logger) *LoggingComicStore {
	return &LoggingComicStore{next: next, logger: logger}
}

// Load delegates to the wrapped store and logs the loaded count.
func (s *LoggingComicStore) Load(ctx context.Context) (comics map[int]*xkcdbot.Comic, err error) {
	defer func(begin time.Time) {
		s.logger.Info("store load",
			"comics", len(comics),
			"max", xkcdbot.MaxNum(comics),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Load(ctx)
}

// Merge delegates to the wrapped store.
func (s *LoggingComicStore) Merge(comics ...*xkcdbot.Comic) {
	s.next.Merge(comics...)
}

// Persist delegates to the wrapped store and logs the outcome.
func (s *LoggingComicStore) Persist(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("store persist",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Persist(ctx)
}

// Comics delegates to the wrapped store.
func (s *LoggingComicStore) Comics() map[int]*xkcdbot.Comic {
	return s.next.Comics()
}

// Comic delegates to the wrapped store.
func (s *LoggingComicStore) Comic(num int) (*xkcdbot.Comic, bool) {
	return s.next.Comic(num)
}
