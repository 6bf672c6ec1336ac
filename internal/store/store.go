package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/newsdigest/newsdigest/internal/model"
)

// columns is the fixed order of the hand-off file
var columns = []string{"category", "title", "link", "summary", "source", "published"}

// Store reads and writes the article hand-off file between the collect and
// build stages.
type Store struct {
	path string
}

// New creates a store for the given file path
func New(path string) *Store {
	return &Store{path: path}
}

// Write saves all articles, one row each, replacing any previous file. The
// write goes to a temp file in the same directory and is renamed into place
// so readers never observe a partial file.
func (s *Store) Write(articles []model.Article) (err error) {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".articles-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	writer := csv.NewWriter(tmp)
	if err = writer.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, article := range articles {
		row := []string{
			article.Category,
			article.Title,
			article.Link,
			article.Summary,
			article.Source,
			article.Published,
		}
		if err = writer.Write(row); err != nil {
			return fmt.Errorf("writing article row: %w", err)
		}
	}
	writer.Flush()
	if err = writer.Error(); err != nil {
		return fmt.Errorf("flushing rows: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}

	return nil
}

// Read loads the whole hand-off file. A missing file gets a distinct error
// pointing at the collect stage.
func (s *Store) Read() ([]model.Article, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s not found: run the collect stage first", s.path)
		}
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", s.path)
	}
	if err := checkHeader(records[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	articles := make([]model.Article, 0, len(records)-1)
	for _, record := range records[1:] {
		articles = append(articles, model.Article{
			Category:  record[0],
			Title:     record[1],
			Link:      record[2],
			Summary:   record[3],
			Source:    record[4],
			Published: record[5],
		})
	}

	return articles, nil
}

// checkHeader verifies the file carries the expected column order
func checkHeader(header []string) error {
	if len(header) != len(columns) {
		return fmt.Errorf("unexpected header with %d columns", len(header))
	}
	for i, name := range columns {
		if header[i] != name {
			return fmt.Errorf("unexpected header column %q, want %q", header[i], name)
		}
	}
	return nil
}

// WriteFileAtomic replaces path with data via a temp file and rename
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}
