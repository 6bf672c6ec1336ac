package feed

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/newsdigest/newsdigest/internal/category"
	"github.com/newsdigest/newsdigest/internal/model"
)

const (
	userAgent        = "newsdigest/1.0"
	maxTitleRunes    = 100
	maxSummaryRunes  = 200
	publishedLayout  = "2006-01-02 15:04"
	unknownPublished = "Unknown"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Client fetches RSS feeds and turns their entries into categorized articles
type Client struct {
	httpClient    *http.Client
	classifier    *category.Classifier
	maxConcurrent int
}

// NewClient creates a new feed client
func NewClient(timeout time.Duration, maxConcurrent int, classifier *category.Classifier) *Client {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		classifier:    classifier,
		maxConcurrent: maxConcurrent,
	}
}

// FetchAll fetches every source with bounded concurrency. A failing source
// contributes no articles and an entry in the error map; the remaining
// sources are unaffected. Articles are de-duplicated by link and sorted by
// published time descending, entries without a date last.
func (c *Client) FetchAll(ctx context.Context, sources []Source) ([]model.Article, map[string]error) {
	type result struct {
		index    int
		articles []model.Article
		err      error
	}

	semaphore := make(chan struct{}, c.maxConcurrent)
	results := make(chan result, len(sources))

	for i, src := range sources {
		go func(index int, source Source) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			articles, err := c.fetchSource(ctx, source)
			results <- result{index: index, articles: articles, err: err}
		}(i, src)
	}

	perSource := make([][]model.Article, len(sources))
	errors := make(map[string]error)

	for i := 0; i < len(sources); i++ {
		res := <-results
		if res.err != nil {
			errors[sources[res.index].Name] = res.err
		} else {
			perSource[res.index] = res.articles
		}
	}

	// Flatten in source order so de-duplication is deterministic.
	var all []model.Article
	for _, articles := range perSource {
		all = append(all, articles...)
	}
	all = dedupeByLink(all)

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].PublishedAt.IsZero() {
			return false
		}
		if all[j].PublishedAt.IsZero() {
			return true
		}
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	return all, errors
}

// fetchSource fetches and parses a single feed
func (c *Client) fetchSource(ctx context.Context, src Source) ([]model.Article, error) {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = c.httpClient

	parsed, err := parser.ParseURLWithContext(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	articles := make([]model.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		summary := cleanSummary(itemDescription(item))
		assigned := c.classifier.Classify(title, summary, src.DefaultCategory)
		publishedAt := parseEntryTime(item)

		articles = append(articles, model.Article{
			Category:    assigned,
			Title:       truncate(title, maxTitleRunes),
			Link:        link,
			Summary:     truncate(summary, maxSummaryRunes),
			Source:      src.Name,
			Published:   formatPublished(publishedAt),
			PublishedAt: publishedAt,
		})
	}

	return articles, nil
}

// itemDescription prefers the description field, falling back to content
func itemDescription(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// cleanSummary strips HTML tags, unescapes entities and collapses whitespace
func cleanSummary(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to max runes, appending an ellipsis when cut
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// parseEntryTime resolves an entry's published time, zero when unknown
func parseEntryTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if t, err := parseFeedDate(raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseFeedDate parses the date formats feeds commonly use
func parseFeedDate(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// formatPublished renders the hand-off timestamp
func formatPublished(t time.Time) string {
	if t.IsZero() {
		return unknownPublished
	}
	return t.Format(publishedLayout)
}

// dedupeByLink removes duplicate articles, keeping the first occurrence
func dedupeByLink(articles []model.Article) []model.Article {
	seen := make(map[string]bool)
	var unique []model.Article

	for _, article := range articles {
		if !seen[article.Link] {
			seen[article.Link] = true
			unique = append(unique, article)
		}
	}

	return unique
}
