package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/xkcdbot"
)

// Run executes the update command.
func (c *UpdateCmd) Run(deps *Dependencies) error {
	if _, err := deps.Controller.Bootstrap(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xkcdbot.ErrorMessage(err))
		return err
	}

	res, err := deps.Controller.Update(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xkcdbot.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s update: fetched %d comics (%d failed), latest %d, took %s\n",
		res.Mode, res.Fetched, res.Failed, res.Latest, res.Duration.Round(time.Millisecond))
	return nil
}
