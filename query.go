package xkcdbot

import "context"

// MaxResults is the number of results returned for a single query.
const MaxResults = 15

// ErrorResultID identifies the synthetic result reporting a query failure.
const ErrorResultID = "err"

// Result is one item of a query response.
type Result struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	ThumbURL    string `json:"thumbUrl,omitempty"`

	// Text is the HTML message sent when the result is chosen.
	Text string `json:"text"`
}

// QueryHandler answers a free-text query.
type QueryHandler interface {
	// HandleQuery returns up to MaxResults results. Failures are reported
	// as a single result with ErrorResultID, never as an error.
	HandleQuery(ctx context.Context, query string) []*Result
}
