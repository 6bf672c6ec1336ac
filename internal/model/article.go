package model

import "time"

// Article is one collected news entry. Published carries the formatted
// timestamp written to the hand-off file ("2006-01-02 15:04" or "Unknown");
// PublishedAt keeps the parsed time for sorting and is zero when unknown.
type Article struct {
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	Published   string    `json:"published"`
	PublishedAt time.Time `json:"-"`
}

// SelectedArticle is an article chosen for the newsletter together with its
// generated three-line summary.
type SelectedArticle struct {
	Article
	Digest string `json:"digest"`
}
