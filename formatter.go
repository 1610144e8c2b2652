package xkcdbot

import (
	"fmt"
	"html"
	"strconv"
)

// ComicURL returns the canonical xkcd page for num.
func ComicURL(num int) string {
	return "https://xkcd.com/" + strconv.Itoa(num) + "/"
}

// FormatHit converts a search hit into a result item.
// Title and alt text are HTML-escaped in the message body.
func FormatHit(h *Hit) *Result {
	num := strconv.Itoa(h.Num)
	return &Result{
		ID:          num,
		Title:       num + ": " + h.Title,
		Description: h.Alt,
		URL:         ComicURL(h.Num),
		ThumbURL:    h.Img,
		Text: fmt.Sprintf("<a href=\"%s\">%s</a>: <b>%s</b>\n\n<i>%s</i>",
			ComicURL(h.Num), num, html.EscapeString(h.Title), html.EscapeString(h.Alt)),
	}
}

// FormatError returns the synthetic result reporting a failed query.
func FormatError(err error) *Result {
	return &Result{
		ID:    ErrorResultID,
		Title: "Query parsing error",
		Text:  "Error: " + ErrorMessage(err),
	}
}
