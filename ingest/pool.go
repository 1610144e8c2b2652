// Package ingest fetches comics from the remote source and keeps the
// store and the search index in step with it.
package ingest

import (
	"context"
	"iter"
	"sync"

	"github.com/fwojciec/xkcdbot"
)

// DefaultWorkers is the number of concurrent fetches.
const DefaultWorkers = 250

// FailurePolicy decides what the pool does when a fetch fails.
type FailurePolicy int

const (
	// FailFast stops dispatching on the first failure and discards
	// every in-flight result.
	FailFast FailurePolicy = iota
	// SkipFailed reports each failure and keeps going.
	SkipFailed
)

func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case SkipFailed:
		return "skip-failed"
	default:
		return "unknown"
	}
}

// Pool fetches comics with a fixed number of single-slot workers.
//
// Each worker owns a job channel holding at most one comic number. The
// dispatcher hands a worker its next number only after collecting the
// worker's previous result, so at most Workers fetches run at once.
type Pool struct {
	Fetcher xkcdbot.ComicFetcher
	Workers int
	Policy  FailurePolicy
}

// fetchResult is reported by a worker for every number it was handed.
type fetchResult struct {
	worker int
	num    int
	comic  *xkcdbot.Comic
	err    error
}

// Run fetches every number in nums and yields comics in completion
// order. A failed fetch yields a nil comic and an EFETCH error.
//
// Under FailFast the sequence ends after the first error. Breaking out
// of the loop cancels in-flight fetches; Run waits for every worker to
// exit before returning control.
func (p *Pool) Run(ctx context.Context, nums iter.Seq[int]) iter.Seq2[*xkcdbot.Comic, error] {
	return func(yield func(*xkcdbot.Comic, error) bool) {
		workers := p.Workers
		if workers <= 0 {
			workers = DefaultWorkers
		}

		fetchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		next, stop := iter.Pull(nums)
		defer stop()

		// Capacity covers one result per worker so reporting never blocks.
		results := make(chan fetchResult, workers)
		var jobs []chan int
		var wg sync.WaitGroup

		for i := 0; i < workers; i++ {
			num, ok := next()
			if !ok {
				break
			}
			job := make(chan int, 1)
			job <- num
			jobs = append(jobs, job)

			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				p.work(fetchCtx, worker, job, results)
			}(i)
		}

		closeJob := func(worker int) {
			if jobs[worker] != nil {
				close(jobs[worker])
				jobs[worker] = nil
			}
		}
		halt := func() {
			cancel()
			for w := range jobs {
				closeJob(w)
			}
		}

		inflight := len(jobs)
		dispatching := true
		for inflight > 0 {
			res := <-results
			inflight--
			if !dispatching {
				continue
			}

			switch {
			case res.err != nil && p.Policy == FailFast:
				yield(nil, res.err)
				halt()
				dispatching = false
				continue
			case ctx.Err() != nil:
				yield(nil, ctx.Err())
				halt()
				dispatching = false
				continue
			case !yield(res.comic, res.err):
				halt()
				dispatching = false
				continue
			}

			if num, ok := next(); ok {
				jobs[res.worker] <- num
				inflight++
			} else {
				closeJob(res.worker)
			}
		}

		for w := range jobs {
			closeJob(w)
		}
		wg.Wait()
	}
}

func (p *Pool) work(ctx context.Context, worker int, job <-chan int, results chan<- fetchResult) {
	for num := range job {
		comic, err := p.Fetcher.FetchComic(ctx, num)
		if err != nil {
			comic = nil
			if xkcdbot.ErrorCode(err) != xkcdbot.EFETCH {
				err = xkcdbot.Errorf(xkcdbot.EFETCH, "fetch comic %d: %w", num, err)
			}
		}
		results <- fetchResult{worker: worker, num: num, comic: comic, err: err}
	}
}
