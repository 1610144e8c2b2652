package mock

import (
	"context"

	"github.com/fwojciec/xkcdbot"
)

var (
	_ xkcdbot.Fetcher             = (*Fetcher)(nil)
	_ xkcdbot.ComicFetcher        = (*ComicFetcher)(nil)
	_ xkcdbot.TranscriptExtractor = (*TranscriptExtractor)(nil)
	_ xkcdbot.DomainLimiter       = (*DomainLimiter)(nil)
)

// Fetcher is a mock implementation of xkcdbot.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

// ComicFetcher is a mock implementation of xkcdbot.ComicFetcher.
type ComicFetcher struct {
	FetchComicFn func(ctx context.Context, num int) (*xkcdbot.Comic, error)
}

func (f *ComicFetcher) FetchComic(ctx context.Context, num int) (*xkcdbot.Comic, error) {
	return f.FetchComicFn(ctx, num)
}

// TranscriptExtractor is a mock implementation of xkcdbot.TranscriptExtractor.
type TranscriptExtractor struct {
	ExtractTranscriptFn func(html string) (string, error)
}

func (e *TranscriptExtractor) ExtractTranscript(html string) (string, error) {
	return e.ExtractTranscriptFn(html)
}

// DomainLimiter is a mock implementation of xkcdbot.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
