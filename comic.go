package xkcdbot

import (
	"context"
	"maps"
	"slices"
)

// Reserved comic numbers.
const (
	// LatestNum asks the remote source for the most recently published comic.
	LatestNum = 0

	// GapNum is never published. It is excluded from every fetch range,
	// the store and the index.
	GapNum = 404
)

// Comic represents one catalogued xkcd comic.
type Comic struct {
	Num        int    `json:"num"`
	Title      string `json:"title"`
	Alt        string `json:"alt"`
	Transcript string `json:"transcript"`
	Img        string `json:"img"`

	// Publication date, informational only.
	Year  string `json:"year"`
	Month string `json:"month"`
	Day   string `json:"day"`
}

// Validate returns an error if the comic contains invalid fields.
func (c *Comic) Validate() error {
	if c.Num <= 0 {
		return Errorf(EINVALID, "comic number must be positive, got %d", c.Num)
	}
	if c.Num == GapNum {
		return Errorf(EINVALID, "comic %d is a reserved gap", GapNum)
	}
	return nil
}

// ComicFetcher retrieves a single comic, enriched with its transcript,
// from the remote source.
type ComicFetcher interface {
	// FetchComic returns the comic with the given number.
	// LatestNum returns the most recent comic without its transcript.
	// Returns EFETCH on transport failure or a malformed response.
	FetchComic(ctx context.Context, num int) (*Comic, error)
}

// ComicStore is the durable mapping from comic number to comic.
// It is owned by a single writer.
type ComicStore interface {
	// Load reads the persisted snapshot into memory and returns a copy.
	// Missing or unparseable state yields an empty mapping.
	Load(ctx context.Context) (map[int]*Comic, error)

	// Merge inserts or replaces comics by number in the in-memory snapshot.
	Merge(comics ...*Comic)

	// Persist atomically writes the full in-memory snapshot.
	// Returns EPERSIST on failure; the previously persisted state is kept.
	Persist(ctx context.Context) error

	// Comics returns a copy of the in-memory snapshot.
	Comics() map[int]*Comic

	// Comic returns the in-memory comic for num, if present.
	Comic(num int) (*Comic, bool)
}

// MaxNum returns the highest comic number in comics, or 0 when empty.
func MaxNum(comics map[int]*Comic) int {
	if len(comics) == 0 {
		return 0
	}
	return slices.Max(slices.Collect(maps.Keys(comics)))
}

// SortedNums returns the comic numbers in ascending order.
func SortedNums(comics map[int]*Comic) []int {
	return slices.Sorted(maps.Keys(comics))
}
