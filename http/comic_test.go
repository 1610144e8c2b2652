package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/xkcdbot"
	xkcdhttp "github.com/fwojciec/xkcdbot/http"
	"github.com/fwojciec/xkcdbot/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newComicServer serves comic metadata under /xkcd and explanation pages under /explain.
func newComicServer(t *testing.T, handlers map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := handlers[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newComicFetcher(server *httptest.Server, extractor xkcdbot.TranscriptExtractor, opts ...xkcdhttp.ComicOption) *xkcdhttp.ComicFetcher {
	opts = append([]xkcdhttp.ComicOption{
		xkcdhttp.WithBaseURLs(server.URL+"/xkcd", server.URL+"/explain"),
	}, opts...)
	return xkcdhttp.NewComicFetcher(xkcdhttp.NewFetcher(), extractor, opts...)
}

func staticTranscript(text string) *mock.TranscriptExtractor {
	return &mock.TranscriptExtractor{
		ExtractTranscriptFn: func(_ string) (string, error) {
			return text, nil
		},
	}
}

func TestComicFetcher_FetchComic(t *testing.T) {
	t.Parallel()

	t.Run("combines metadata and transcript", func(t *testing.T) {
		t.Parallel()

		// Given a server with metadata and an explanation page for comic 353
		server := newComicServer(t, map[string]string{
			"/xkcd/353/info.0.json": `{"num": 353, "title": "Python", "safe_title": "Python",
				"img": "https://imgs.xkcd.com/comics/python.png", "alt": "I wrote 20 short programs",
				"year": "2007", "month": "12", "day": "5"}`,
			"/explain/353": "<html>explanation</html>",
		})
		var gotHTML string
		extractor := &mock.TranscriptExtractor{
			ExtractTranscriptFn: func(html string) (string, error) {
				gotHTML = html
				return "[[Guy 1 is flying]]", nil
			},
		}
		cf := newComicFetcher(server, extractor)

		// When I fetch comic 353
		comic, err := cf.FetchComic(context.Background(), 353)

		// Then every field is populated
		require.NoError(t, err)
		assert.Equal(t, &xkcdbot.Comic{
			Num:        353,
			Title:      "Python",
			Alt:        "I wrote 20 short programs",
			Transcript: "[[Guy 1 is flying]]",
			Img:        "https://imgs.xkcd.com/comics/python.png",
			Year:       "2007",
			Month:      "12",
			Day:        "5",
		}, comic)
		// And the extractor received the explanation page
		assert.Equal(t, "<html>explanation</html>", gotHTML)
	})

	t.Run("sentinel fetches latest without transcript", func(t *testing.T) {
		t.Parallel()

		server := newComicServer(t, map[string]string{
			"/xkcd/info.0.json": `{"num": 2900, "safe_title": "Latest"}`,
		})
		extractor := &mock.TranscriptExtractor{
			ExtractTranscriptFn: func(_ string) (string, error) {
				t.Error("transcript must not be fetched for the latest comic")
				return "", nil
			},
		}
		cf := newComicFetcher(server, extractor)

		comic, err := cf.FetchComic(context.Background(), xkcdbot.LatestNum)

		require.NoError(t, err)
		assert.Equal(t, 2900, comic.Num)
		assert.Equal(t, "Latest", comic.Title)
	})

	t.Run("falls back to title when safe_title is empty", func(t *testing.T) {
		t.Parallel()

		server := newComicServer(t, map[string]string{
			"/xkcd/1/info.0.json": `{"num": 1, "title": "Barrel - Part 1"}`,
			"/explain/1":          "",
		})
		cf := newComicFetcher(server, staticTranscript(""))

		comic, err := cf.FetchComic(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, "Barrel - Part 1", comic.Title)
		assert.Empty(t, comic.Transcript)
	})

	t.Run("returns EFETCH for malformed metadata", func(t *testing.T) {
		t.Parallel()

		server := newComicServer(t, map[string]string{
			"/xkcd/5/info.0.json": `{not json`,
		})
		cf := newComicFetcher(server, staticTranscript(""))

		_, err := cf.FetchComic(context.Background(), 5)

		require.Error(t, err)
		assert.Equal(t, xkcdbot.EFETCH, xkcdbot.ErrorCode(err))
		assert.Contains(t, xkcdbot.ErrorMessage(err), "malformed JSON")
	})

	t.Run("returns EFETCH when metadata is for another comic", func(t *testing.T) {
		t.Parallel()

		server := newComicServer(t, map[string]string{
			"/xkcd/5/info.0.json": `{"num": 6}`,
		})
		cf := newComicFetcher(server, staticTranscript(""))

		_, err := cf.FetchComic(context.Background(), 5)

		require.Error(t, err)
		assert.Equal(t, xkcdbot.EFETCH, xkcdbot.ErrorCode(err))
	})

	t.Run("returns EFETCH when explanation page is unreachable", func(t *testing.T) {
		t.Parallel()

		server := newComicServer(t, map[string]string{
			"/xkcd/7/info.0.json": `{"num": 7, "safe_title": "Girl Sleeping"}`,
		})
		cf := newComicFetcher(server, staticTranscript(""))

		_, err := cf.FetchComic(context.Background(), 7)

		require.Error(t, err)
		assert.Equal(t, xkcdbot.EFETCH, xkcdbot.ErrorCode(err))
		assert.Contains(t, xkcdbot.ErrorMessage(err), "404")
	})

	t.Run("returns EFETCH when extraction fails", func(t *testing.T) {
		t.Parallel()

		server := newComicServer(t, map[string]string{
			"/xkcd/8/info.0.json": `{"num": 8}`,
			"/explain/8":          "<html>",
		})
		extractor := &mock.TranscriptExtractor{
			ExtractTranscriptFn: func(_ string) (string, error) {
				return "", errors.New("bad html")
			},
		}
		cf := newComicFetcher(server, extractor)

		_, err := cf.FetchComic(context.Background(), 8)

		require.Error(t, err)
		assert.Equal(t, xkcdbot.EFETCH, xkcdbot.ErrorCode(err))
	})

	t.Run("rejects negative numbers", func(t *testing.T) {
		t.Parallel()

		cf := xkcdhttp.NewComicFetcher(&mock.Fetcher{}, staticTranscript(""))

		_, err := cf.FetchComic(context.Background(), -1)

		assert.Equal(t, xkcdbot.EINVALID, xkcdbot.ErrorCode(err))
	})

	t.Run("waits on limiter per host", func(t *testing.T) {
		t.Parallel()

		server := newComicServer(t, map[string]string{
			"/xkcd/9/info.0.json": `{"num": 9}`,
			"/explain/9":          "",
		})
		var waits atomic.Int32
		limiter := &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				assert.True(t, strings.HasPrefix(domain, "127.0.0.1:"))
				waits.Add(1)
				return nil
			},
		}
		cf := newComicFetcher(server, staticTranscript(""), xkcdhttp.WithLimiter(limiter))

		_, err := cf.FetchComic(context.Background(), 9)

		require.NoError(t, err)
		assert.Equal(t, int32(2), waits.Load())
	})

	t.Run("retries failed requests with configured delays", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				if strings.HasSuffix(url, "info.0.json") {
					if calls.Add(1) < 3 {
						return "", errors.New("HTTP 503")
					}
					return `{"num": 10}`, nil
				}
				return "", nil
			},
		}
		cf := xkcdhttp.NewComicFetcher(fetcher, staticTranscript("t"),
			xkcdhttp.WithRetryDelays([]time.Duration{time.Millisecond, time.Millisecond}))

		comic, err := cf.FetchComic(context.Background(), 10)

		require.NoError(t, err)
		assert.Equal(t, 10, comic.Num)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry by default", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				calls.Add(1)
				return "", errors.New("HTTP 503")
			},
		}
		cf := xkcdhttp.NewComicFetcher(fetcher, staticTranscript(""))

		_, err := cf.FetchComic(context.Background(), 11)

		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}
