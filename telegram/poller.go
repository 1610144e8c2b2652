package telegram

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/xkcdbot"
)

// DefaultBackoff is the wait after a failed poll.
const DefaultBackoff = 2 * time.Second

// Poller receives inline queries and answers each one concurrently.
type Poller struct {
	Client  *Client
	Handler xkcdbot.QueryHandler
	Logger  *slog.Logger
	Backoff time.Duration
}

func (p *Poller) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}

// Run polls until ctx is done. Poll failures are logged and retried after
// the backoff. Run waits for in-flight answers before returning.
func (p *Poller) Run(ctx context.Context) error {
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	offset := 0
	for ctx.Err() == nil {
		updates, err := p.Client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger().Warn("poll failed", "err", err, "backoff", backoff)
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			continue
		}

		for _, u := range updates {
			offset = max(offset, u.UpdateID+1)
			if u.InlineQuery == nil {
				continue
			}
			wg.Add(1)
			go func(q *InlineQuery) {
				defer wg.Done()
				p.answer(ctx, q)
			}(u.InlineQuery)
		}
	}
	return nil
}

func (p *Poller) answer(ctx context.Context, q *InlineQuery) {
	begin := time.Now()
	results := p.Handler.HandleQuery(ctx, q.Query)
	if err := p.Client.AnswerInlineQuery(ctx, q.ID, results); err != nil {
		p.logger().Warn("answer failed", "query_id", q.ID, "err", err)
		return
	}
	p.logger().Debug("answered query",
		"query", q.Query,
		"results", len(results),
		"duration", time.Since(begin),
	)
}
