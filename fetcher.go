package xkcdbot

import "context"

// Fetcher retrieves raw response bodies from URLs.
type Fetcher interface {
	// Fetch performs a GET request and returns the response body.
	// Non-200 responses are errors.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (body string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// TranscriptExtractor pulls the transcript section out of an
// explainxkcd wiki page.
type TranscriptExtractor interface {
	// ExtractTranscript returns the trimmed transcript text.
	// A page without a transcript section yields an empty string.
	ExtractTranscript(html string) (string, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
