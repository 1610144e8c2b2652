// Package search answers free-text queries from the comic index.
package search

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fwojciec/xkcdbot"
)

var _ xkcdbot.QueryHandler = (*Service)(nil)

// Service implements xkcdbot.QueryHandler over a Searcher.
type Service struct {
	Searcher xkcdbot.Searcher
	Logger   *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

// HandleQuery returns up to xkcdbot.MaxResults results for query.
//
// A blank query returns no results without consulting the index. A query
// that is a bare comic number puts that comic first when it is indexed.
func (s *Service) HandleQuery(ctx context.Context, query string) []*xkcdbot.Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*xkcdbot.Result{}
	}

	hits, err := s.Searcher.Search(ctx, query, xkcdbot.MaxResults)
	if err != nil {
		if xkcdbot.ErrorCode(err) != xkcdbot.EPARSE {
			s.logger().Error("search failed", "query", query, "err", err)
		}
		return []*xkcdbot.Result{xkcdbot.FormatError(err)}
	}

	if num, err := strconv.Atoi(query); err == nil && num > 0 {
		hits = s.pinNum(ctx, num, hits)
	}

	results := make([]*xkcdbot.Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, xkcdbot.FormatHit(h))
	}
	return results
}

// pinNum moves the comic numbered num to the front of hits, capped at
// xkcdbot.MaxResults.
func (s *Service) pinNum(ctx context.Context, num int, hits []*xkcdbot.Hit) []*xkcdbot.Hit {
	exact, err := s.Searcher.SearchNum(ctx, num)
	if err != nil {
		s.logger().Warn("number lookup failed", "num", num, "err", err)
		return hits
	}
	if len(exact) == 0 {
		return hits
	}

	pinned := make([]*xkcdbot.Hit, 0, xkcdbot.MaxResults)
	pinned = append(pinned, exact[0])
	for _, h := range hits {
		if len(pinned) == xkcdbot.MaxResults {
			break
		}
		if h.Num != num {
			pinned = append(pinned, h)
		}
	}
	return pinned
}
