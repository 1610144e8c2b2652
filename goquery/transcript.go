// Package goquery extracts structured content from explainxkcd wiki pages
// using CSS selectors.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/xkcdbot"
	"golang.org/x/net/html"
)

// transcriptMarker identifies the transcript heading by its id attribute.
const transcriptMarker = "transcript"

var _ xkcdbot.TranscriptExtractor = (*TranscriptExtractor)(nil)

// TranscriptExtractor extracts the transcript section of an explainxkcd page.
//
// The section starts after the h2 heading whose id (on the heading itself or
// on its span.mw-headline) contains "transcript" in any case. Text of the
// following sibling nodes is concatenated until the next h2, the next
// wrapped heading, or the next node carrying an id attribute.
type TranscriptExtractor struct{}

// NewTranscriptExtractor creates a new TranscriptExtractor.
func NewTranscriptExtractor() *TranscriptExtractor {
	return &TranscriptExtractor{}
}

// ExtractTranscript returns the trimmed transcript text, or an empty string
// if the page has no transcript section.
func (e *TranscriptExtractor) ExtractTranscript(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", xkcdbot.Errorf(xkcdbot.EFETCH, "failed to parse HTML: %v", err)
	}

	start := findTranscriptHeading(doc)
	if start == nil {
		return "", nil
	}

	var b strings.Builder
	for n := start.NextSibling; n != nil; n = n.NextSibling {
		if isBoundary(n) {
			break
		}
		writeText(&b, n)
	}

	return strings.TrimSpace(b.String()), nil
}

// findTranscriptHeading returns the node whose following siblings hold the
// transcript, or nil when the page has none.
func findTranscriptHeading(doc *goquery.Document) *html.Node {
	// Classic MediaWiki markup: <h2><span class="mw-headline" id="Transcript">.
	headline := doc.Find("h2 span.mw-headline").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hasTranscriptID(s)
	}).First()
	if headline.Length() > 0 {
		return headline.Closest("h2").Get(0)
	}

	// Newer markup: <div class="mw-heading"><h2 id="Transcript"></h2>...</div>.
	heading := doc.Find("h2[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hasTranscriptID(s)
	}).First()
	if heading.Length() == 0 {
		return nil
	}
	if wrapper := heading.Parent(); wrapper.HasClass("mw-heading") {
		return wrapper.Get(0)
	}
	return heading.Get(0)
}

func hasTranscriptID(s *goquery.Selection) bool {
	id, _ := s.Attr("id")
	return strings.Contains(strings.ToLower(id), transcriptMarker)
}

// isBoundary reports whether n ends the transcript section.
func isBoundary(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.Data == "h2" {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "id" {
			return true
		}
		if attr.Key == "class" && strings.Contains(" "+attr.Val+" ", " mw-heading ") {
			return true
		}
	}
	return false
}

// writeText appends the text content of n and its descendants.
func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(b, c)
		}
	}
}
