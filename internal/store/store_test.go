package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newsdigest/newsdigest/internal/model"
)

func testArticles() []model.Article {
	return []model.Article{
		{
			Category:  "sports",
			Title:     "City wins the championship",
			Link:      "http://example.com/sports/1",
			Summary:   "The final game went to extra time",
			Source:    "Example Sport",
			Published: "2023-01-02 15:04",
		},
		{
			Category:  "economics",
			Title:     `Markets "surge", then dip`,
			Link:      "http://example.com/business/2",
			Summary:   "Stocks rose,\nthen fell, sharply",
			Source:    "Example Business",
			Published: "Unknown",
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_articles.csv")
	s := New(path)

	articles := testArticles()
	if err := s.Write(articles); err != nil {
		t.Fatalf("Failed to write articles: %v", err)
	}

	loaded, err := s.Read()
	if err != nil {
		t.Fatalf("Failed to read articles: %v", err)
	}

	if len(loaded) != len(articles) {
		t.Fatalf("Expected %d articles, got %d", len(articles), len(loaded))
	}

	for i, want := range articles {
		got := loaded[i]
		if got.Category != want.Category || got.Title != want.Title || got.Link != want.Link ||
			got.Summary != want.Summary || got.Source != want.Source || got.Published != want.Published {
			t.Errorf("Article %d mismatch:\nwant %+v\ngot  %+v", i, want, got)
		}
	}
}

func TestWriteHeaderOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_articles.csv")
	s := New(path)

	if err := s.Write(nil); err != nil {
		t.Fatalf("Failed to write empty file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	firstLine := strings.SplitN(string(data), "\n", 2)[0]
	if firstLine != "category,title,link,summary,source,published" {
		t.Errorf("Unexpected header line: %s", firstLine)
	}
}

func TestWriteOverwritesPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_articles.csv")
	s := New(path)

	if err := s.Write(testArticles()); err != nil {
		t.Fatalf("Failed to write first file: %v", err)
	}
	if err := s.Write(testArticles()[:1]); err != nil {
		t.Fatalf("Failed to overwrite file: %v", err)
	}

	loaded, err := s.Read()
	if err != nil {
		t.Fatalf("Failed to read articles: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("Expected 1 article after overwrite, got %d", len(loaded))
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "news_articles.csv"))

	if err := s.Write(testArticles()); err != nil {
		t.Fatalf("Failed to write articles: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "news_articles.csv" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only the target file, got %v", names)
	}
}

func TestReadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.csv"))

	_, err := s.Read()
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "collect stage") {
		t.Errorf("Expected pointer at the collect stage, got: %v", err)
	}
}

func TestReadRejectsWrongHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_articles.csv")
	content := "source,category,title,link,summary,published\na,b,c,d,e,f\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := New(path).Read()
	if err == nil {
		t.Fatal("Expected error for wrong header")
	}
	if !strings.Contains(err.Error(), "unexpected header") {
		t.Errorf("Expected header error, got: %v", err)
	}
}

func TestReadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_articles.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := New(path).Read()
	if err == nil {
		t.Fatal("Expected error for empty file")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("Expected empty-file error, got: %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsletter.html")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("Failed to overwrite file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Expected 'second', got '%s'", string(data))
	}
}
