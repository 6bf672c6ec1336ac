package content

import (
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const (
	fetchTimeout    = 10 * time.Second
	maxContentRunes = 5000
)

// Fetcher extracts readable article text from URLs for summarization.
type Fetcher struct {
	timeout time.Duration
}

// NewFetcher creates a content fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{timeout: fetchTimeout}
}

// Fetch returns the article body text for a URL, whitespace-collapsed and
// capped. Any fetch or extraction failure returns ""; callers fall back to
// the feed description.
func (f *Fetcher) Fetch(url string) string {
	article, err := readability.FromURL(url, f.timeout)
	if err != nil {
		return ""
	}
	return Normalize(article.TextContent)
}

// Normalize collapses whitespace and caps the text length
func Normalize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > maxContentRunes {
		return string(runes[:maxContentRunes])
	}
	return text
}
