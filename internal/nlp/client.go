package nlp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the linguistic service over HTTP.
type Client struct {
	client *resty.Client
	model  string
}

// ClientConfig holds configuration for the linguistic service client.
type ClientConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient creates a linguistic service client.
// Parameters:
//   - cfg: base URL, model name, and request timeout.
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	return &Client{client: client, model: cfg.Model}
}

type analyzeRequest struct {
	Model  string   `json:"model"`
	Tokens []string `json:"tokens"`
}

type vectorRequest struct {
	Model string `json:"model"`
	Term  string `json:"term"`
}

type vectorResponse struct {
	Vector []float32 `json:"vector"`
}

type synonymsResponse struct {
	Synonyms []string `json:"synonyms"`
}

// Analyze annotates a tokenized page with lemmas, vectors, and entities.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tokens: page tokens in order.
// Returns:
//   - *Analysis: linguistic annotation aligned with tokens.
//   - error: non-nil if the request fails or the service answers non-200.
func (c *Client) Analyze(ctx context.Context, tokens []string) (*Analysis, error) {
	var result Analysis
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&analyzeRequest{Model: c.model, Tokens: tokens}).
		SetResult(&result).
		Post("/analyze")
	if err != nil {
		return nil, fmt.Errorf("nlp analyze request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("nlp analyze returned %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Tokens) != len(tokens) {
		return nil, fmt.Errorf("nlp analyze returned %d tokens for %d inputs", len(result.Tokens), len(tokens))
	}
	return &result, nil
}

// Vector returns the embedding for a single term.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - term: word or phrase to embed.
// Returns:
//   - []float32: embedding vector.
//   - error: non-nil if the request fails.
func (c *Client) Vector(ctx context.Context, term string) ([]float32, error) {
	var result vectorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&vectorRequest{Model: c.model, Term: term}).
		SetResult(&result).
		Post("/vector")
	if err != nil {
		return nil, fmt.Errorf("nlp vector request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("nlp vector returned %d: %s", resp.StatusCode(), resp.String())
	}
	return result.Vector, nil
}

// Synonyms returns known synonyms for a term.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - term: word to look up.
// Returns:
//   - []string: synonyms, possibly empty.
//   - error: non-nil if the request fails.
func (c *Client) Synonyms(ctx context.Context, term string) ([]string, error) {
	var result synonymsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("term", term).
		SetResult(&result).
		Get("/synonyms")
	if err != nil {
		return nil, fmt.Errorf("nlp synonyms request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("nlp synonyms returned %d: %s", resp.StatusCode(), resp.String())
	}
	return result.Synonyms, nil
}
