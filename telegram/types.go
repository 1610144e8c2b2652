package telegram

import "encoding/json"

// Bot API types, limited to inline mode.

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Update is an incoming update. Only inline queries are requested.
type Update struct {
	UpdateID    int          `json:"update_id"`
	InlineQuery *InlineQuery `json:"inline_query,omitempty"`
}

// InlineQuery is a query typed after the bot's username.
type InlineQuery struct {
	ID    string `json:"id"`
	From  User   `json:"from"`
	Query string `json:"query"`
}

// User identifies the sender of a query.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

type getUpdatesRequest struct {
	Offset         int      `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

type answerInlineQueryRequest struct {
	InlineQueryID string          `json:"inline_query_id"`
	Results       []inlineArticle `json:"results"`
	CacheTime     int             `json:"cache_time"`
	IsPersonal    bool            `json:"is_personal"`
}

type inlineArticle struct {
	Type                string              `json:"type"`
	ID                  string              `json:"id"`
	Title               string              `json:"title"`
	InputMessageContent inputMessageContent `json:"input_message_content"`
	URL                 string              `json:"url,omitempty"`
	Description         string              `json:"description,omitempty"`
	ThumbnailURL        string              `json:"thumbnail_url,omitempty"`
}

type inputMessageContent struct {
	MessageText string `json:"message_text"`
	ParseMode   string `json:"parse_mode,omitempty"`
}
