package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/newsdigest/newsdigest/internal/retry"
)

// Client handles Gemini API operations
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retryOpts  retry.Options
}

// NewClient creates a new Gemini API client. rpm caps outbound requests per
// minute; transient statuses are retried per retryOpts.
func NewClient(apiKey, model string, rpm int, retryOpts retry.Options) *Client {
	if rpm < 1 {
		rpm = 1
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		retryOpts: retryOpts,
	}
}

// geminiRequest represents the request structure for Gemini API
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// geminiResponse represents the response structure from Gemini API
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// Generate sends a prompt and returns the model's text reply. Calls pass
// through the rate limiter and transient failures are retried with backoff.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := retry.Do(ctx, c.retryOpts, func() error {
		var callErr error
		text, callErr = c.generateOnce(ctx, prompt)
		return callErr
	})
	return text, err
}

// generateOnce performs a single generateContent call
func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	geminiReq := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: prompt},
				},
			},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.3,
			TopP:            0.8,
			MaxOutputTokens: 1024,
		},
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", &retry.HTTPStatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}
