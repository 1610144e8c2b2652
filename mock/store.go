package mock

import (
	"context"

	"github.com/fwojciec/xkcdbot"
)

var _ xkcdbot.ComicStore = (*ComicStore)(nil)

// ComicStore is a mock implementation of xkcdbot.ComicStore.
type ComicStore struct {
	LoadFn    func(ctx context.Context) (map[int]*xkcdbot.Comic, error)
	MergeFn   func(comics ...*xkcdbot.Comic)
	PersistFn func(ctx context.Context) error
	ComicsFn  func() map[int]*xkcdbot.Comic
	ComicFn   func(num int) (*xkcdbot.Comic, bool)
}

func (s *ComicStore) Load(ctx context.Context) (map[int]*xkcdbot.Comic, error) {
	return s.LoadFn(ctx)
}

func (s *ComicStore) Merge(comics ...*xkcdbot.Comic) {
	s.MergeFn(comics...)
}

func (s *ComicStore) Persist(ctx context.Context) error {
	return s.PersistFn(ctx)
}

func (s *ComicStore) Comics() map[int]*xkcdbot.Comic {
	return s.ComicsFn()
}

func (s *ComicStore) Comic(num int) (*xkcdbot.Comic, bool) {
	return s.ComicFn(num)
}
