package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/xkcdbot"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	n, err := deps.Controller.Bootstrap(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xkcdbot.ErrorMessage(err))
		return err
	}
	if n == 0 {
		fmt.Fprintln(deps.Stdout, "No comics indexed. Run 'xkcdbot update' first.")
		return nil
	}

	results := deps.Queries.HandleQuery(deps.Ctx, strings.Join(c.Query, " "))
	if len(results) == 1 && results[0].ID == xkcdbot.ErrorResultID {
		fmt.Fprintln(deps.Stderr, results[0].Text)
		return errors.New(strings.ToLower(results[0].Title))
	}
	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No matches.")
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(deps.Stdout, "%s  %s\n", r.Title, r.URL)
	}
	return nil
}
