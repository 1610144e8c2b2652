// Package slog provides logging decorators for xkcdbot services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/xkcdbot"
)

var (
	_ xkcdbot.Fetcher      = (*LoggingFetcher)(nil)
	_ xkcdbot.ComicFetcher = (*LoggingComicFetcher)(nil)
)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   xkcdbot.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next xkcdbot.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the request.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (body string, err error) {
	defer func(begin time.Time) {
		f.logger.Debug("fetch",
			"url", url,
			"bytes", len(body),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// LoggingComicFetcher wraps a ComicFetcher with debug logging.
type LoggingComicFetcher struct {
	next   xkcdbot.ComicFetcher
	logger *slog.Logger
}

// NewLoggingComicFetcher creates a new LoggingComicFetcher.
func NewLoggingComicFetcher(next xkcdbot.ComicFetcher, logger *slog.Logger) *LoggingComicFetcher {
	return &LoggingComicFetcher{next: next, logger: logger}
}

// FetchComic delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingComicFetcher) FetchComic(ctx context.Context, num int) (comic *xkcdbot.Comic, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"num", num,
			"duration", time.Since(begin),
		}
		if comic != nil {
			attrs = append(attrs, "got", comic.Num, "transcript", len(comic.Transcript))
		}
		if err != nil {
			f.logger.Warn("fetch comic", append(attrs, "err", err)...)
			return
		}
		f.logger.Debug("fetch comic", attrs...)
	}(time.Now())
	return f.next.FetchComic(ctx, num)
}
