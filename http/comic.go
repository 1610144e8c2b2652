package http

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/xkcdbot"
)

// Default remote endpoints.
const (
	DefaultComicBaseURL   = "https://xkcd.com"
	DefaultExplainBaseURL = "https://www.explainxkcd.com/wiki/index.php"
)

// Ensure ComicFetcher implements xkcdbot.ComicFetcher at compile time.
var _ xkcdbot.ComicFetcher = (*ComicFetcher)(nil)

// ComicFetcher retrieves comic metadata from xkcd.com and enriches it with
// the transcript from the explainxkcd wiki.
type ComicFetcher struct {
	fetcher     xkcdbot.Fetcher
	extractor   xkcdbot.TranscriptExtractor
	limiter     xkcdbot.DomainLimiter
	comicBase   string
	explainBase string
	retryDelays []time.Duration
}

// ComicOption configures a ComicFetcher.
type ComicOption func(*ComicFetcher)

// WithBaseURLs overrides the xkcd and explainxkcd endpoints.
func WithBaseURLs(comicBase, explainBase string) ComicOption {
	return func(cf *ComicFetcher) {
		cf.comicBase = strings.TrimRight(comicBase, "/")
		cf.explainBase = strings.TrimRight(explainBase, "/")
	}
}

// WithLimiter waits on limiter before each request.
func WithLimiter(limiter xkcdbot.DomainLimiter) ComicOption {
	return func(cf *ComicFetcher) {
		cf.limiter = limiter
	}
}

// WithRetryDelays retries each failed sub-request after the given delays.
// Defaults to no retries: a failed comic is picked up by the next update cycle.
func WithRetryDelays(delays []time.Duration) ComicOption {
	return func(cf *ComicFetcher) {
		cf.retryDelays = delays
	}
}

// NewComicFetcher creates a new ComicFetcher.
func NewComicFetcher(fetcher xkcdbot.Fetcher, extractor xkcdbot.TranscriptExtractor, opts ...ComicOption) *ComicFetcher {
	cf := &ComicFetcher{
		fetcher:     fetcher,
		extractor:   extractor,
		comicBase:   DefaultComicBaseURL,
		explainBase: DefaultExplainBaseURL,
	}
	for _, opt := range opts {
		opt(cf)
	}
	return cf
}

// comicInfo is the metadata document served at /<num>/info.0.json.
type comicInfo struct {
	Num       int    `json:"num"`
	Title     string `json:"title"`
	SafeTitle string `json:"safe_title"`
	Img       string `json:"img"`
	Alt       string `json:"alt"`
	Year      string `json:"year"`
	Month     string `json:"month"`
	Day       string `json:"day"`
}

// FetchComic returns the comic with the given number enriched with its
// transcript. xkcdbot.LatestNum returns the latest comic without a transcript.
func (cf *ComicFetcher) FetchComic(ctx context.Context, num int) (*xkcdbot.Comic, error) {
	if num < 0 {
		return nil, xkcdbot.Errorf(xkcdbot.EINVALID, "invalid comic number %d", num)
	}

	comic, err := cf.fetchInfo(ctx, num)
	if err != nil {
		return nil, err
	}
	if num == xkcdbot.LatestNum {
		return comic, nil
	}

	transcript, err := cf.fetchTranscript(ctx, num)
	if err != nil {
		return nil, err
	}
	comic.Transcript = transcript

	return comic, nil
}

func (cf *ComicFetcher) fetchInfo(ctx context.Context, num int) (*xkcdbot.Comic, error) {
	u := cf.comicBase + "/info.0.json"
	if num != xkcdbot.LatestNum {
		u = cf.comicBase + "/" + strconv.Itoa(num) + "/info.0.json"
	}

	body, err := cf.get(ctx, u)
	if err != nil {
		return nil, xkcdbot.Errorf(xkcdbot.EFETCH, "comic %d metadata: %w", num, err)
	}

	var info comicInfo
	if err := json.Unmarshal([]byte(body), &info); err != nil {
		return nil, xkcdbot.Errorf(xkcdbot.EFETCH, "comic %d metadata: malformed JSON: %w", num, err)
	}
	if info.Num <= 0 {
		return nil, xkcdbot.Errorf(xkcdbot.EFETCH, "comic %d metadata: missing comic number", num)
	}
	if num != xkcdbot.LatestNum && info.Num != num {
		return nil, xkcdbot.Errorf(xkcdbot.EFETCH, "comic %d metadata: got comic %d", num, info.Num)
	}

	title := info.SafeTitle
	if title == "" {
		title = info.Title
	}

	return &xkcdbot.Comic{
		Num:   info.Num,
		Title: title,
		Alt:   info.Alt,
		Img:   info.Img,
		Year:  info.Year,
		Month: info.Month,
		Day:   info.Day,
	}, nil
}

func (cf *ComicFetcher) fetchTranscript(ctx context.Context, num int) (string, error) {
	body, err := cf.get(ctx, cf.explainBase+"/"+strconv.Itoa(num))
	if err != nil {
		return "", xkcdbot.Errorf(xkcdbot.EFETCH, "comic %d explanation: %w", num, err)
	}

	transcript, err := cf.extractor.ExtractTranscript(body)
	if err != nil {
		return "", xkcdbot.Errorf(xkcdbot.EFETCH, "comic %d transcript: %w", num, err)
	}
	return transcript, nil
}

func (cf *ComicFetcher) get(ctx context.Context, rawURL string) (string, error) {
	fetch := func(ctx context.Context, rawURL string) (string, error) {
		if cf.limiter != nil {
			u, err := url.Parse(rawURL)
			if err != nil {
				return "", err
			}
			if err := cf.limiter.Wait(ctx, u.Host); err != nil {
				return "", err
			}
		}
		return cf.fetcher.Fetch(ctx, rawURL)
	}
	return fetchWithRetry(ctx, rawURL, fetch, cf.retryDelays)
}
