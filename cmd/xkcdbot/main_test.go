package main_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	main "github.com/fwojciec/xkcdbot/cmd/xkcdbot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var titles = map[int]string{
	1: "Barrel - Part 1",
	2: "Petit Trees (sketch)",
	3: "Island (sketch)",
}

// newUpstream serves xkcd metadata at /xkcd and explainxkcd pages at /explain.
func newUpstream(t *testing.T, latest int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/xkcd/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/xkcd/")
		num := latest
		if path != "info.0.json" {
			n, err := strconv.Atoi(strings.TrimSuffix(path, "/info.0.json"))
			if err != nil || n > latest {
				http.NotFound(w, r)
				return
			}
			num = n
		}
		fmt.Fprintf(w, `{"num":%d,"safe_title":%q,"title":%q,"alt":"alt %d","img":"https://imgs.xkcd.com/comics/%d.png","year":"2006","month":"1","day":"1"}`,
			num, titles[num], titles[num], num, num)
	})
	mux.HandleFunc("/explain/", func(w http.ResponseWriter, r *http.Request) {
		num, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/explain/"))
		fmt.Fprintf(w, `<html><body>
<h2><span class="mw-headline" id="Explanation">Explanation</span></h2><p>About comic %d.</p>
<h2><span class="mw-headline" id="Transcript">Transcript</span></h2><dl><dd>transcript of comic %d</dd></dl>
<h2><span class="mw-headline" id="Discussion">Discussion</span></h2><p>comments</p>
</body></html>`, num, num)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	m := main.NewMain()
	err := m.Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func upstreamArgs(srv *httptest.Server, state, store string) []string {
	return []string{
		"--state", state,
		"--store", store,
		"--comic-url", srv.URL + "/xkcd",
		"--explain-url", srv.URL + "/explain",
		"--workers", "2",
		"--log-level", "error",
	}
}

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("no command prints help and fails", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
		assert.Contains(t, stdout, "Usage: xkcdbot")
	})

	t.Run("help succeeds", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, "--help")

		require.NoError(t, err)
		assert.Contains(t, stdout, "serve")
		assert.Contains(t, stdout, "update")
		assert.Contains(t, stdout, "search")
	})

	t.Run("rejects unknown store backends", func(t *testing.T) {
		t.Parallel()

		_, _, err := run(t, "--store", "redis", "update")

		require.Error(t, err)
	})
}

func TestCmdUpdate(t *testing.T) {
	t.Parallel()

	for _, store := range []string{"json", "sqlite"} {
		t.Run("initial load with "+store+" store", func(t *testing.T) {
			t.Parallel()

			srv := newUpstream(t, 3)
			state := filepath.Join(t.TempDir(), "state")
			args := append(upstreamArgs(srv, state, store), "update")

			stdout, _, err := run(t, args...)

			require.NoError(t, err)
			assert.Contains(t, stdout, "initial update: fetched 2 comics (0 failed), latest 3")
		})

		t.Run("second run refreshes with "+store+" store", func(t *testing.T) {
			t.Parallel()

			srv := newUpstream(t, 3)
			state := filepath.Join(t.TempDir(), "state")
			args := append(upstreamArgs(srv, state, store), "update")
			_, _, err := run(t, args...)
			require.NoError(t, err)

			stdout, _, err := run(t, args...)

			require.NoError(t, err)
			assert.Contains(t, stdout, "refresh update: fetched 3 comics (0 failed), latest 3")
		})
	}

	t.Run("reports fetch failures", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)
		state := filepath.Join(t.TempDir(), "xkcd.json")
		args := append(upstreamArgs(srv, state, "json"), "update")

		_, stderr, err := run(t, args...)

		require.Error(t, err)
		assert.Contains(t, stderr, "error:")
	})
}

func TestCmdSearch(t *testing.T) {
	t.Parallel()

	t.Run("finds comics by transcript", func(t *testing.T) {
		t.Parallel()

		srv := newUpstream(t, 3)
		state := filepath.Join(t.TempDir(), "xkcd.json")
		_, _, err := run(t, append(upstreamArgs(srv, state, "json"), "update")...)
		require.NoError(t, err)

		stdout, _, err := run(t, append(upstreamArgs(srv, state, "json"), "search", "petit")...)

		require.NoError(t, err)
		assert.Contains(t, stdout, "2: Petit Trees (sketch)")
	})

	t.Run("empty catalogue suggests an update", func(t *testing.T) {
		t.Parallel()

		srv := newUpstream(t, 3)
		state := filepath.Join(t.TempDir(), "xkcd.json")

		stdout, _, err := run(t, append(upstreamArgs(srv, state, "json"), "search", "barrel")...)

		require.NoError(t, err)
		assert.Contains(t, stdout, "xkcdbot update")
	})

	t.Run("malformed query fails", func(t *testing.T) {
		t.Parallel()

		srv := newUpstream(t, 3)
		state := filepath.Join(t.TempDir(), "xkcd.json")
		_, _, err := run(t, append(upstreamArgs(srv, state, "json"), "update")...)
		require.NoError(t, err)

		_, stderr, err := run(t, append(upstreamArgs(srv, state, "json"), "search", "title::comic")...)

		require.Error(t, err)
		assert.Contains(t, stderr, "Error:")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"debug", "DEBUG"},
		{" WARN ", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"verbose", "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, main.ParseLevel(tt.raw).String())
		})
	}
}
