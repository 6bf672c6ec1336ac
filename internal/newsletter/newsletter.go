package newsletter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/newsdigest/newsdigest/internal/category"
	"github.com/newsdigest/newsdigest/internal/model"
)

const (
	// maxPerCategory caps how many articles a category keeps.
	maxPerCategory = 2
	// selectionTitleCap bounds how many titles the selection prompt lists.
	selectionTitleCap = 20
	// summaryLines is the required line count of every digest.
	summaryLines = 3
	// maxPromptContentRunes caps the article text embedded in a prompt.
	maxPromptContentRunes = 3000
	// minSelectionLineRunes filters noise lines when matching the reply.
	minSelectionLineRunes = 5

	dateLayout = "January 02, 2006"
)

// Generator produces model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ContentFetcher returns readable article text for a URL, "" when
// unavailable.
type ContentFetcher interface {
	Fetch(url string) string
}

// DigestCache remembers finished digests by article link so scheduled
// runs skip stories already summarized. May be nil.
type DigestCache interface {
	Get(link string) (string, bool)
	Set(link, digest string)
}

// Section is one category block of the rendered newsletter.
type Section struct {
	Category string
	Title    string
	Articles []model.SelectedArticle
}

// Builder turns collected articles into the two newsletter documents. Per
// category it runs two sequential model steps: pick the top articles, then
// digest each into exactly three lines.
type Builder struct {
	generator Generator
	fetcher   ContentFetcher
	cache     DigestCache
	log       *logrus.Entry
	now       func() time.Time
}

// NewBuilder creates a newsletter builder
func NewBuilder(generator Generator, fetcher ContentFetcher, cache DigestCache, log *logrus.Entry) *Builder {
	return &Builder{
		generator: generator,
		fetcher:   fetcher,
		cache:     cache,
		log:       log,
		now:       time.Now,
	}
}

// Build groups articles by category and produces the HTML and text
// documents. A category whose processing fails is logged and left out; Build
// fails only when no category survives.
func (b *Builder) Build(ctx context.Context, articles []model.Article) (htmlDoc, textDoc string, err error) {
	if len(articles) == 0 {
		return "", "", fmt.Errorf("no articles to build from")
	}

	groups := groupByCategory(articles)

	var sections []Section
	for _, name := range orderedCategories(groups) {
		b.log.Infof("Processing category: %s", name)

		selected, err := b.processCategory(ctx, name, groups[name])
		if err != nil {
			b.log.WithError(err).Errorf("Category %s produced no articles", name)
			continue
		}

		sections = append(sections, Section{
			Category: name,
			Title:    category.DisplayTitle(name),
			Articles: selected,
		})
	}

	if len(sections) == 0 {
		return "", "", fmt.Errorf("every category failed, nothing to render")
	}

	date := b.now().Format(dateLayout)

	htmlDoc, err = renderHTML(date, sections)
	if err != nil {
		return "", "", fmt.Errorf("rendering HTML newsletter: %w", err)
	}
	textDoc, err = renderText(date, sections)
	if err != nil {
		return "", "", fmt.Errorf("rendering text newsletter: %w", err)
	}

	return htmlDoc, textDoc, nil
}

// processCategory selects the top articles of one category and digests each
func (b *Builder) processCategory(ctx context.Context, name string, articles []model.Article) ([]model.SelectedArticle, error) {
	selected := b.selectTop(ctx, name, articles)

	var result []model.SelectedArticle
	for _, article := range selected {
		digest, err := b.summarize(ctx, article)
		if err != nil {
			b.log.WithError(err).Errorf("Dropping article %q from %s", article.Title, name)
			continue
		}
		result = append(result, model.SelectedArticle{Article: article, Digest: digest})
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("all %d selected articles failed summarization", len(selected))
	}
	return result, nil
}

// selectTop asks the model for the two strongest articles. Categories with
// at most two articles skip the call. A failed call or an unusable reply
// falls back to the first two articles.
func (b *Builder) selectTop(ctx context.Context, name string, articles []model.Article) []model.Article {
	if len(articles) <= maxPerCategory {
		return articles
	}

	reply, err := b.generator.Generate(ctx, buildSelectionPrompt(name, articles))
	if err != nil {
		b.log.WithError(err).Warnf("Selection failed for %s, keeping the first %d articles", name, maxPerCategory)
		return articles[:maxPerCategory]
	}

	selected := matchSelection(reply, articles)
	if len(selected) < maxPerCategory {
		return articles[:maxPerCategory]
	}
	return selected
}

// summarize produces the three-line digest for one article
func (b *Builder) summarize(ctx context.Context, article model.Article) (string, error) {
	if b.cache != nil {
		if digest, ok := b.cache.Get(article.Link); ok {
			b.log.Debugf("Digest cache hit for %s", article.Link)
			return digest, nil
		}
	}

	content := b.fetcher.Fetch(article.Link)
	if content == "" {
		content = article.Summary
	}

	reply, err := b.generator.Generate(ctx, buildSummaryPrompt(article.Title, article.Link, content))
	if err != nil {
		return "", fmt.Errorf("summarizing %q: %w", article.Title, err)
	}

	digest, err := normalizeSummary(reply)
	if err != nil {
		return "", fmt.Errorf("summarizing %q: %w", article.Title, err)
	}

	if b.cache != nil {
		b.cache.Set(article.Link, digest)
	}
	return digest, nil
}

const selectorInstruction = `You are an expert news editor. Analyze news article titles and select the TWO most important and newsworthy articles.

Return exactly two titles formatted as:
SELECTED:
1. [title]
2. [title]`

const summarizerInstruction = `You are a skilled journalist. Summarize the article in exactly three lines:
1. Main event
2. Key context or details
3. Why it matters`

// buildSelectionPrompt lists up to selectionTitleCap titles for a category
func buildSelectionPrompt(name string, articles []model.Article) string {
	if len(articles) > selectionTitleCap {
		articles = articles[:selectionTitleCap]
	}

	var titles strings.Builder
	for _, article := range articles {
		titles.WriteString("- ")
		titles.WriteString(article.Title)
		titles.WriteString("\n")
	}

	return fmt.Sprintf("%s\n\nCategory: %s\n\nHere are the article titles:\n%s\nSelect the two strongest choices.",
		selectorInstruction, strings.ToUpper(name), titles.String())
}

// buildSummaryPrompt embeds the article text, or falls back to a title-only
// variant when nothing could be fetched
func buildSummaryPrompt(title, url, content string) string {
	if content == "" {
		return fmt.Sprintf("%s\n\nArticle Title: %s\nArticle URL: %s\n\nProvide a likely 3-line summary based on the title.",
			summarizerInstruction, title, url)
	}

	runes := []rune(content)
	if len(runes) > maxPromptContentRunes {
		content = string(runes[:maxPromptContentRunes])
	}

	return fmt.Sprintf("%s\n\nArticle Title: %s\nArticle URL: %s\n\nArticle Content:\n%s\n\nProvide a 3-line summary.",
		summarizerInstruction, title, url, content)
}

// matchSelection maps reply lines back to articles. Lines are scanned in
// reply order; each line claims the first unclaimed article whose title
// contains, or is contained in, the line.
func matchSelection(reply string, articles []model.Article) []model.Article {
	var selected []model.Article
	used := make(map[int]bool)

	for _, line := range strings.Split(reply, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if len([]rune(line)) <= minSelectionLineRunes {
			continue
		}

		for i, article := range articles {
			if used[i] {
				continue
			}
			title := strings.ToLower(article.Title)
			if strings.Contains(line, title) || strings.Contains(title, line) {
				selected = append(selected, article)
				used[i] = true
				break
			}
		}

		if len(selected) == maxPerCategory {
			break
		}
	}

	return selected
}

// normalizeSummary trims the reply to exactly summaryLines non-empty lines
func normalizeSummary(reply string) (string, error) {
	var lines []string
	for _, line := range strings.Split(reply, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	if len(lines) < summaryLines {
		return "", fmt.Errorf("summary has %d usable lines, want %d", len(lines), summaryLines)
	}
	return strings.Join(lines[:summaryLines], "\n"), nil
}

// groupByCategory buckets articles preserving their order within a category
func groupByCategory(articles []model.Article) map[string][]model.Article {
	groups := make(map[string][]model.Article)
	for _, article := range articles {
		groups[article.Category] = append(groups[article.Category], article)
	}
	return groups
}

// orderedCategories returns present categories in fixed declaration order,
// then general, then anything else alphabetically
func orderedCategories(groups map[string][]model.Article) []string {
	known := make(map[string]bool, len(category.Order)+1)

	var names []string
	for _, name := range category.Order {
		known[name] = true
		if _, ok := groups[name]; ok {
			names = append(names, name)
		}
	}

	known[category.General] = true
	if _, ok := groups[category.General]; ok {
		names = append(names, category.General)
	}

	var extra []string
	for name := range groups {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	return append(names, extra...)
}
