package xkcdbot

import "context"

// Hit is a single ranked search match.
type Hit struct {
	Score float64 `json:"score"`
	Num   int     `json:"num"`
	Title string  `json:"title"`
	Alt   string  `json:"alt"`
	Img   string  `json:"img"`
}

// Searcher is the read side of the comic index.
// It is safe for concurrent use while the index is being written.
type Searcher interface {
	// Search parses q against the title, alt and transcript fields and
	// returns up to limit hits by descending score.
	// Returns EPARSE if q does not conform to the query syntax.
	Search(ctx context.Context, q string, limit int) ([]*Hit, error)

	// SearchNum returns the documents whose number field matches num exactly.
	SearchNum(ctx context.Context, num int) ([]*Hit, error)
}

// ComicIndex is the full-text index over comics. Writes are staged
// and become visible to searchers only on Commit.
type ComicIndex interface {
	Searcher

	// Add stages a document for the comic.
	Add(c *Comic) error

	// Delete stages removal of the document for num.
	Delete(num int)

	// Commit atomically publishes every staged add and delete.
	// Returns EINDEX on failure, leaving the published state unchanged.
	Commit() error

	// Count returns the number of published documents.
	Count() (uint64, error)
}
