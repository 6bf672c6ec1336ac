package category

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// General is the bucket for feeds without a topical default and for
// overrides that clear a keyword list. It carries no keywords of its own.
const General = "general"

// Order lists the scoring categories in precedence order. Ties in keyword
// score resolve to the earlier entry.
var Order = []string{
	"politics",
	"economics",
	"sports",
	"crime",
	"technology",
	"health",
	"science",
	"entertainment",
}

var displayTitles = map[string]string{
	"politics":      "POLITICS",
	"economics":     "ECONOMICS & BUSINESS",
	"technology":    "TECHNOLOGY",
	"science":       "SCIENCE",
	"health":        "HEALTH",
	"sports":        "SPORTS",
	"entertainment": "ENTERTAINMENT",
	"crime":         "CRIME & JUSTICE",
	"general":       "GENERAL NEWS",
}

// DisplayTitle returns the newsletter heading for a category name.
// Unknown categories fall back to the upper-cased name.
func DisplayTitle(name string) string {
	if title, ok := displayTitles[name]; ok {
		return title
	}
	return strings.ToUpper(name)
}

// defaultKeywords maps each category to the terms counted during scoring.
var defaultKeywords = map[string][]string{
	"politics": {
		"election", "president", "congress", "senate", "parliament", "minister",
		"government", "vote", "democrat", "republican", "policy", "legislation",
		"campaign", "political", "diplomat", "embassy", "treaty", "sanction",
	},
	"economics": {
		"economy", "market", "stock", "trade", "inflation", "gdp", "bank",
		"finance", "investment", "recession", "unemployment", "interest rate",
		"federal reserve", "wall street", "currency", "bitcoin", "crypto",
	},
	"sports": {
		"game", "match", "championship", "league", "score", "player", "team",
		"football", "soccer", "basketball", "baseball", "tennis", "golf",
		"olympics", "tournament", "coach", "athlete", "nfl", "nba", "mlb",
	},
	"crime": {
		"crime", "murder", "arrest", "police", "court", "trial", "prison",
		"criminal", "robbery", "fraud", "shooting", "investigation", "suspect",
		"charged", "convicted", "sentence", "lawsuit", "attorney",
	},
	"technology": {
		"tech", "software", "ai", "artificial intelligence", "startup", "app",
		"google", "apple", "microsoft", "amazon", "meta", "cybersecurity",
		"data", "algorithm", "machine learning", "robot", "innovation",
	},
	"health": {
		"health", "medical", "hospital", "doctor", "disease", "vaccine",
		"treatment", "cancer", "virus", "pandemic", "drug", "fda", "clinical",
		"patient", "surgery", "mental health", "covid", "research",
	},
	"science": {
		"science", "research", "study", "discovery", "space", "nasa", "climate",
		"environment", "physics", "biology", "chemistry", "experiment",
		"scientist", "laboratory", "planet", "species", "evolution",
	},
	"entertainment": {
		"movie", "film", "music", "celebrity", "actor", "singer", "concert",
		"album", "box office", "streaming", "netflix", "hollywood", "award",
		"grammy", "oscar", "emmy", "show", "series", "tv",
	},
}

// Classifier assigns categories to articles by keyword scoring.
type Classifier struct {
	keywords map[string][]string
}

// NewClassifier creates a classifier with the built-in keyword tables.
func NewClassifier() *Classifier {
	return &Classifier{keywords: normalizeKeywords(defaultKeywords)}
}

// NewClassifierFromFile creates a classifier with keyword lists loaded from
// a YAML file mapping category names to term lists. Only known category
// names are accepted; listed categories replace their built-in terms,
// unlisted ones keep them.
func NewClassifierFromFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keywords file: %w", err)
	}

	var loaded map[string][]string
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing keywords file: %w", err)
	}

	merged := make(map[string][]string, len(defaultKeywords))
	for name, terms := range defaultKeywords {
		merged[name] = terms
	}
	for name, terms := range loaded {
		if _, ok := defaultKeywords[name]; !ok {
			return nil, fmt.Errorf("unknown category %q in keywords file %s", name, path)
		}
		merged[name] = terms
	}

	return &Classifier{keywords: normalizeKeywords(merged)}, nil
}

// Classify scores title+summary against every category's keywords (+1 per
// keyword present, case-insensitive substring) and returns the best match.
// Ties resolve to the earlier category in Order; zero matches return the
// fallback category.
func (c *Classifier) Classify(title, summary, fallback string) string {
	text := strings.ToLower(title + " " + summary)

	best := ""
	bestScore := 0
	for _, name := range Order {
		score := 0
		for _, keyword := range c.keywords[name] {
			if strings.Contains(text, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = name
			bestScore = score
		}
	}

	if best == "" {
		return fallback
	}
	return best
}

func normalizeKeywords(keywords map[string][]string) map[string][]string {
	normalized := make(map[string][]string, len(keywords))
	for name, terms := range keywords {
		lowered := make([]string, 0, len(terms))
		for _, term := range terms {
			if trimmed := strings.ToLower(strings.TrimSpace(term)); trimmed != "" {
				lowered = append(lowered, trimmed)
			}
		}
		normalized[name] = lowered
	}
	return normalized
}
