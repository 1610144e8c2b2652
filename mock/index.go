package mock

import (
	"context"

	"github.com/fwojciec/xkcdbot"
)

var (
	_ xkcdbot.Searcher     = (*Searcher)(nil)
	_ xkcdbot.ComicIndex   = (*ComicIndex)(nil)
	_ xkcdbot.QueryHandler = (*QueryHandler)(nil)
)

// Searcher is a mock implementation of xkcdbot.Searcher.
type Searcher struct {
	SearchFn    func(ctx context.Context, q string, limit int) ([]*xkcdbot.Hit, error)
	SearchNumFn func(ctx context.Context, num int) ([]*xkcdbot.Hit, error)
}

func (s *Searcher) Search(ctx context.Context, q string, limit int) ([]*xkcdbot.Hit, error) {
	return s.SearchFn(ctx, q, limit)
}

func (s *Searcher) SearchNum(ctx context.Context, num int) ([]*xkcdbot.Hit, error) {
	return s.SearchNumFn(ctx, num)
}

// ComicIndex is a mock implementation of xkcdbot.ComicIndex.
type ComicIndex struct {
	Searcher

	AddFn    func(c *xkcdbot.Comic) error
	DeleteFn func(num int)
	CommitFn func() error
	CountFn  func() (uint64, error)
}

func (i *ComicIndex) Add(c *xkcdbot.Comic) error {
	return i.AddFn(c)
}

func (i *ComicIndex) Delete(num int) {
	i.DeleteFn(num)
}

func (i *ComicIndex) Commit() error {
	return i.CommitFn()
}

func (i *ComicIndex) Count() (uint64, error) {
	return i.CountFn()
}

// QueryHandler is a mock implementation of xkcdbot.QueryHandler.
type QueryHandler struct {
	HandleQueryFn func(ctx context.Context, query string) []*xkcdbot.Result
}

func (h *QueryHandler) HandleQuery(ctx context.Context, query string) []*xkcdbot.Result {
	return h.HandleQueryFn(ctx, query)
}
