package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newsdigest/newsdigest/internal/category"
)

// Source is one RSS endpoint. DefaultCategory is assigned to entries whose
// text matches no category keywords.
type Source struct {
	Name            string `yaml:"name"`
	URL             string `yaml:"url"`
	DefaultCategory string `yaml:"default_category"`
}

// DefaultSources is the curated feed list used when no feeds file is
// configured.
var DefaultSources = []Source{
	// General news / top stories
	{Name: "Reuters Top News", URL: "https://feeds.reuters.com/reuters/topNews", DefaultCategory: "general"},
	{Name: "BBC World", URL: "http://feeds.bbci.co.uk/news/world/rss.xml", DefaultCategory: "general"},
	{Name: "NPR News", URL: "https://feeds.npr.org/1001/rss.xml", DefaultCategory: "general"},
	{Name: "Associated Press", URL: "https://rsshub.app/apnews/topics/apf-topnews", DefaultCategory: "general"},

	// Politics
	{Name: "Reuters Politics", URL: "https://feeds.reuters.com/Reuters/PoliticsNews", DefaultCategory: "politics"},
	{Name: "BBC Politics", URL: "http://feeds.bbci.co.uk/news/politics/rss.xml", DefaultCategory: "politics"},
	{Name: "Politico", URL: "https://rss.politico.com/politics-news.xml", DefaultCategory: "politics"},

	// Business / economics
	{Name: "Reuters Business", URL: "https://feeds.reuters.com/reuters/businessNews", DefaultCategory: "economics"},
	{Name: "BBC Business", URL: "http://feeds.bbci.co.uk/news/business/rss.xml", DefaultCategory: "economics"},
	{Name: "CNBC Top News", URL: "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=100003114", DefaultCategory: "economics"},

	// Technology
	{Name: "Reuters Technology", URL: "https://feeds.reuters.com/reuters/technologyNews", DefaultCategory: "technology"},
	{Name: "TechCrunch", URL: "https://techcrunch.com/feed/", DefaultCategory: "technology"},
	{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", DefaultCategory: "technology"},

	// Sports
	{Name: "ESPN Top Headlines", URL: "https://www.espn.com/espn/rss/news", DefaultCategory: "sports"},
	{Name: "BBC Sport", URL: "http://feeds.bbci.co.uk/sport/rss.xml", DefaultCategory: "sports"},

	// Science & health
	{Name: "Reuters Health", URL: "https://feeds.reuters.com/reuters/healthNews", DefaultCategory: "health"},
	{Name: "BBC Science", URL: "http://feeds.bbci.co.uk/news/science_and_environment/rss.xml", DefaultCategory: "science"},
	{Name: "NPR Science", URL: "https://feeds.npr.org/1007/rss.xml", DefaultCategory: "science"},

	// Entertainment
	{Name: "Reuters Entertainment", URL: "https://feeds.reuters.com/reuters/entertainment", DefaultCategory: "entertainment"},
	{Name: "BBC Entertainment", URL: "http://feeds.bbci.co.uk/news/entertainment_and_arts/rss.xml", DefaultCategory: "entertainment"},
}

// LoadSources reads a feed list from a YAML file. Entries need a name and a
// URL; a missing default category falls back to general.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds file: %w", err)
	}

	var sources []Source
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parsing feeds file: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("feeds file %s lists no feeds", path)
	}

	for i := range sources {
		if sources[i].Name == "" {
			return nil, fmt.Errorf("feed %d in %s has no name", i+1, path)
		}
		if sources[i].URL == "" {
			return nil, fmt.Errorf("feed %q in %s has no url", sources[i].Name, path)
		}
		if sources[i].DefaultCategory == "" {
			sources[i].DefaultCategory = category.General
		}
	}

	return sources, nil
}
