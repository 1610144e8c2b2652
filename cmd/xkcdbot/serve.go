package main

import (
	"fmt"

	"github.com/fwojciec/xkcdbot"
	"github.com/fwojciec/xkcdbot/chi"
	"github.com/fwojciec/xkcdbot/ingest"
	"github.com/fwojciec/xkcdbot/telegram"
	"golang.org/x/sync/errgroup"
)

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	n, err := deps.Controller.Bootstrap(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xkcdbot.ErrorMessage(err))
		return err
	}
	deps.Logger.Info("serving", "comics", n, "interval", c.Interval)

	g, ctx := errgroup.WithContext(deps.Ctx)

	scheduler := &ingest.Scheduler{
		Controller: deps.Controller,
		Interval:   c.Interval,
		Logger:     deps.Logger,
	}
	g.Go(func() error {
		return scheduler.Run(ctx)
	})

	if c.Token != "" {
		poller := &telegram.Poller{
			Client:  telegram.NewClient(c.Token, telegram.WithBaseURL(c.TelegramURL)),
			Handler: deps.Queries,
			Logger:  deps.Logger,
		}
		g.Go(func() error {
			return poller.Run(ctx)
		})
	} else {
		deps.Logger.Warn("TELEGRAM_TOKEN not set, inline queries disabled")
	}

	if c.HTTPAddr != "" {
		server := chi.NewServer(deps.Queries, deps.Store, deps.Index, deps.Logger)
		g.Go(func() error {
			return server.Run(ctx, c.HTTPAddr)
		})
	}

	return g.Wait()
}
