package ingest

import (
	"cmp"
	"context"
	"io"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/fwojciec/xkcdbot"
	"github.com/google/uuid"
)

// DefaultWindow is the number of most recent comics re-fetched on refresh.
const DefaultWindow = 4

// Mode is the kind of update cycle.
type Mode string

const (
	// ModeInitial populates an empty store with every published comic
	// except the latest.
	ModeInitial Mode = "initial"
	// ModeRefresh re-fetches the most recent comics and any published
	// since the store was last updated.
	ModeRefresh Mode = "refresh"
)

// Result holds the outcome of an update cycle.
type Result struct {
	Cycle    string
	Mode     Mode
	Latest   int
	Fetched  int
	Failed   int
	Duration time.Duration
}

// Controller is the single writer of the store and the search index.
// Update and Bootstrap must not run concurrently.
type Controller struct {
	Fetcher xkcdbot.ComicFetcher
	Pool    *Pool
	Store   xkcdbot.ComicStore
	Index   xkcdbot.ComicIndex
	Window  int
	Logger  *slog.Logger

	// reindex is set when the store was persisted but the index did not
	// take the matching documents. The next commit re-adds every stored
	// comic.
	reindex bool
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

func (c *Controller) pool() *Pool {
	if c.Pool == nil {
		return &Pool{Fetcher: c.Fetcher}
	}
	return c.Pool
}

func (c *Controller) window() int {
	if c.Window <= 0 {
		return DefaultWindow
	}
	return c.Window
}

// Bootstrap loads the store and indexes every stored comic in one commit.
// It returns the number of comics loaded.
func (c *Controller) Bootstrap(ctx context.Context) (int, error) {
	comics, err := c.Store.Load(ctx)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, num := range xkcdbot.SortedNums(comics) {
		comic := comics[num]
		if err := comic.Validate(); err != nil {
			c.logger().Warn("skipping invalid stored comic", "num", num, "err", err)
			continue
		}
		if err := c.Index.Add(comic); err != nil {
			return 0, err
		}
		indexed++
	}
	if err := c.Index.Commit(); err != nil {
		return 0, err
	}

	c.logger().Info("bootstrapped", "comics", indexed)
	return indexed, nil
}

// Update runs one cycle: discover the latest comic, fetch the range the
// current mode calls for, then merge, persist and index the results.
// Any failure before persistence leaves the store and index untouched.
func (c *Controller) Update(ctx context.Context) (*Result, error) {
	begin := time.Now()
	res := &Result{Cycle: uuid.NewString()}
	logger := c.logger().With("cycle", res.Cycle)

	latest, err := c.Fetcher.FetchComic(ctx, xkcdbot.LatestNum)
	if err != nil {
		if xkcdbot.ErrorCode(err) != xkcdbot.EFETCH {
			err = xkcdbot.Errorf(xkcdbot.EFETCH, "discover latest comic: %w", err)
		}
		return nil, err
	}
	res.Latest = latest.Num

	from, to := c.plan(res, c.Store.Comics())
	logger.Info("update started", "mode", res.Mode, "latest", res.Latest, "from", from, "to", to)

	pool := c.pool()
	var staged []*xkcdbot.Comic
	for comic, err := range pool.Run(ctx, comicRange(from, to)) {
		if err != nil {
			// Only a failed fetch can be skipped. Cancellation and
			// anything else ends the cycle.
			if pool.Policy == FailFast || xkcdbot.ErrorCode(err) != xkcdbot.EFETCH {
				logger.Error("update aborted", "err", err)
				return nil, err
			}
			res.Failed++
			logger.Warn("skipping comic", "err", err)
			continue
		}
		staged = append(staged, comic)
	}
	slices.SortFunc(staged, func(a, b *xkcdbot.Comic) int { return cmp.Compare(a.Num, b.Num) })
	res.Fetched = len(staged)

	if len(staged) > 0 || c.reindex {
		if err := c.commit(ctx, staged); err != nil {
			logger.Error("update aborted", "err", err)
			return nil, err
		}
	}

	res.Duration = time.Since(begin)
	logger.Info("update finished",
		"mode", res.Mode,
		"fetched", res.Fetched,
		"failed", res.Failed,
		"duration", res.Duration,
	)
	return res, nil
}

// plan selects the cycle mode and the inclusive range of numbers to fetch.
func (c *Controller) plan(res *Result, stored map[int]*xkcdbot.Comic) (from, to int) {
	if len(stored) == 0 {
		res.Mode = ModeInitial
		return 1, res.Latest - 1
	}
	res.Mode = ModeRefresh
	from = min(res.Latest-c.window()+1, xkcdbot.MaxNum(stored)+1)
	return max(1, from), res.Latest
}

// commit merges and persists staged comics, then replaces their index
// documents. A failed persist restores the store's in-memory snapshot
// from durable state and leaves the index untouched. An index failure
// after a successful persist marks the whole store for reindexing.
func (c *Controller) commit(ctx context.Context, staged []*xkcdbot.Comic) error {
	if len(staged) > 0 {
		c.Store.Merge(staged...)
		if err := c.Store.Persist(ctx); err != nil {
			if _, lerr := c.Store.Load(context.WithoutCancel(ctx)); lerr != nil {
				c.logger().Error("restore store after failed persist", "err", lerr)
			}
			return err
		}
	}

	docs := staged
	if c.reindex {
		stored := c.Store.Comics()
		docs = make([]*xkcdbot.Comic, 0, len(stored))
		for _, num := range xkcdbot.SortedNums(stored) {
			docs = append(docs, stored[num])
		}
		c.logger().Info("reindexing store", "comics", len(docs))
	}

	for _, comic := range docs {
		c.Index.Delete(comic.Num)
		if err := c.Index.Add(comic); err != nil {
			c.reindex = true
			return err
		}
	}
	if err := c.Index.Commit(); err != nil {
		c.reindex = true
		return err
	}
	c.reindex = false
	return nil
}

// comicRange yields the numbers from..to inclusive, skipping the gap.
func comicRange(from, to int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for num := from; num <= to; num++ {
			if num == xkcdbot.GapNum {
				continue
			}
			if !yield(num) {
				return
			}
		}
	}
}
