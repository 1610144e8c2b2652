package goquery_test

import (
	"testing"

	"github.com/fwojciec/xkcdbot/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptExtractor_ExtractTranscript(t *testing.T) {
	t.Parallel()

	t.Run("extracts text between transcript heading and next heading", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<body>
<h2><span class="mw-headline" id="Explanation">Explanation</span></h2>
<p>Not part of the transcript.</p>
<h2><span class="mw-headline" id="Transcript">Transcript</span><span class="mw-editsection">[edit]</span></h2>
<dl><dd>[Cueball is flying.]</dd></dl>
<p>Megan: You're flying! How?</p>
<h2><span class="mw-headline" id="Trivia">Trivia</span></h2>
<p>Also not transcript.</p>
</body>
</html>`

		text, err := goquery.NewTranscriptExtractor().ExtractTranscript(html)

		require.NoError(t, err)
		assert.Contains(t, text, "[Cueball is flying.]")
		assert.Contains(t, text, "Megan: You're flying! How?")
		assert.NotContains(t, text, "Not part of the transcript")
		assert.NotContains(t, text, "Also not transcript")
	})

	t.Run("matches transcript id case-insensitively", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<h2><span class="mw-headline" id=".7E.2A.7ETrAnScRiPt.7E.2A.7E">~*~TrAnScRiPt~*~</span></h2>
<p>Hidden transcript</p>
<h2><span class="mw-headline" id="Discussion">Discussion</span></h2>
</body></html>`

		text, err := goquery.NewTranscriptExtractor().ExtractTranscript(html)

		require.NoError(t, err)
		assert.Equal(t, "Hidden transcript", text)
	})

	t.Run("stops at node carrying an id", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<h2><span class="mw-headline" id="Transcript">Transcript</span></h2>
<p>Line one.</p>
<span id="Discussion"></span>
<p>Comments follow.</p>
</body></html>`

		text, err := goquery.NewTranscriptExtractor().ExtractTranscript(html)

		require.NoError(t, err)
		assert.Equal(t, "Line one.", text)
	})

	t.Run("includes bare text nodes between elements", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<h2><span class="mw-headline" id="Transcript">Transcript</span></h2>
loose text <b>bold</b> tail
<h2><span class="mw-headline" id="Trivia">Trivia</span></h2>
</body></html>`

		text, err := goquery.NewTranscriptExtractor().ExtractTranscript(html)

		require.NoError(t, err)
		assert.Equal(t, "loose text bold tail", text)
	})

	t.Run("supports wrapped headings", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<div class="mw-heading mw-heading2"><h2 id="Transcript">Transcript</h2><span class="mw-editsection">edit</span></div>
<dl><dd>[A graph.]</dd></dl>
<div class="mw-heading mw-heading2"><h2 id="Discussion">Discussion</h2></div>
<p>Comments.</p>
</body></html>`

		text, err := goquery.NewTranscriptExtractor().ExtractTranscript(html)

		require.NoError(t, err)
		assert.Equal(t, "[A graph.]", text)
	})

	t.Run("returns empty string without transcript section", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<h2><span class="mw-headline" id="Explanation">Explanation</span></h2>
<p>Only explanation.</p>
</body></html>`

		text, err := goquery.NewTranscriptExtractor().ExtractTranscript(html)

		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("returns empty string for empty page", func(t *testing.T) {
		t.Parallel()

		text, err := goquery.NewTranscriptExtractor().ExtractTranscript("")

		require.NoError(t, err)
		assert.Empty(t, text)
	})
}
