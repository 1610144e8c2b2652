package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/xkcdbot"
)

var _ xkcdbot.Searcher = (*LoggingSearcher)(nil)

// LoggingSearcher wraps a Searcher with debug logging.
type LoggingSearcher struct {
	next   xkcdbot.Searcher
	logger *slog.Logger
}

// NewLoggingSearcher creates a new LoggingSearcher.
func NewLoggingSearcher(next xkcdbot.Searcher, logger *slog.Logger) *LoggingSearcher {
	return &LoggingSearcher{next: next, logger: logger}
}

// Search delegates to the wrapped searcher and logs the query.
func (s *LoggingSearcher) Search(ctx context.Context, q string, limit int) (hits []*xkcdbot.Hit, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("search",
			"query", q,
			"hits", len(hits),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, q, limit)
}

// SearchNum delegates to the wrapped searcher and logs the lookup.
func (s *LoggingSearcher) SearchNum(ctx context.Context, num int) (hits []*xkcdbot.Hit, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("search num",
			"num", num,
			"hits", len(hits),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SearchNum(ctx, num)
}
