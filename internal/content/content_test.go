package content

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Council approves new transit plan</title></head>
<body>
<nav><a href="/">Home</a><a href="/news">News</a></nav>
<article>
<h1>Council approves new transit plan</h1>
<p>The city council voted on Tuesday to approve a sweeping new transit plan
that will add four rapid bus corridors over the next six years. Supporters
called the vote a turning point for commuters across the region.</p>
<p>The plan allocates funding for dedicated lanes, signal priority, and a
fleet of one hundred electric buses. Officials said construction on the
first corridor is expected to begin next spring.</p>
<p>Opponents raised concerns about parking removal along two of the routes.
The council responded by commissioning a follow-up study on loading zones
for local businesses.</p>
<p>Transit advocates who packed the chamber cheered when the final tally was
announced. The measure passed by a vote of seven to two after nearly five
hours of public comment.</p>
</article>
<footer>Copyright example.com</footer>
</body>
</html>`

func TestFetchExtractsParagraphText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	fetcher := NewFetcher()
	text := fetcher.Fetch(server.URL)

	if text == "" {
		t.Fatal("Expected extracted text, got empty string")
	}
	if !strings.Contains(text, "rapid bus corridors") {
		t.Errorf("Expected body text in result, got: %s", text)
	}
	if strings.Contains(text, "<p>") || strings.Contains(text, "<article>") {
		t.Errorf("Expected markup to be stripped, got: %s", text)
	}
}

func TestFetchUnreachableURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	fetcher := NewFetcher()
	if text := fetcher.Fetch(url); text != "" {
		t.Errorf("Expected empty string for unreachable URL, got: %s", text)
	}
}

func TestNormalize(t *testing.T) {
	input := "  Multiple   spaces\n\nand\tnewlines  "
	if result := Normalize(input); result != "Multiple spaces and newlines" {
		t.Errorf("Expected collapsed whitespace, got '%s'", result)
	}
}

func TestNormalizeCapsLength(t *testing.T) {
	long := strings.Repeat("a", 6000)
	result := Normalize(long)
	if len([]rune(result)) != 5000 {
		t.Errorf("Expected 5000 runes, got %d", len([]rune(result)))
	}
}
