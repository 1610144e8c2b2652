// Package telegram serves xkcdbot queries over the Telegram Bot API
// inline mode.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/xkcdbot"
)

// DefaultBaseURL is the Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// DefaultPollTimeout is how long a getUpdates call may wait for updates.
const DefaultPollTimeout = 30 * time.Second

const parseModeHTML = "HTML"

// Client calls the Bot API.
type Client struct {
	token       string
	baseURL     string
	pollTimeout time.Duration
	client      *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Bot API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithPollTimeout sets the long polling timeout.
func WithPollTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pollTimeout = d
	}
}

// NewClient creates a Client for the bot identified by token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:       token,
		baseURL:     DefaultBaseURL,
		pollTimeout: DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &http.Client{Timeout: c.pollTimeout + 10*time.Second}
	return c
}

// GetUpdates long-polls for inline queries with update ids at or above offset.
func (c *Client) GetUpdates(ctx context.Context, offset int) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(c.pollTimeout.Seconds()),
		AllowedUpdates: []string{"inline_query"},
	}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}

// AnswerInlineQuery sends results for the query. Results are not cached
// and are shared between users.
func (c *Client) AnswerInlineQuery(ctx context.Context, queryID string, results []*xkcdbot.Result) error {
	articles := make([]inlineArticle, 0, len(results))
	for _, r := range results {
		content := inputMessageContent{MessageText: r.Text}
		if r.ID != xkcdbot.ErrorResultID {
			content.ParseMode = parseModeHTML
		}
		articles = append(articles, inlineArticle{
			Type:                "article",
			ID:                  r.ID,
			Title:               r.Title,
			InputMessageContent: content,
			URL:                 r.URL,
			Description:         r.Description,
			ThumbnailURL:        r.ThumbURL,
		})
	}

	return c.call(ctx, "answerInlineQuery", answerInlineQueryRequest{
		InlineQueryID: queryID,
		Results:       articles,
		CacheTime:     0,
		IsPersonal:    false,
	}, nil)
}

func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// The URL carries the token; report the method only.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: request failed", method)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var res apiResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("decode %s response (HTTP %d): %w", method, resp.StatusCode, err)
	}
	if !res.OK {
		return fmt.Errorf("%s: %d %s", method, res.ErrorCode, res.Description)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
