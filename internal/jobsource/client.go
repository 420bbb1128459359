// Package jobsource is the HTTP client for the upstream job API that hands
// out documents and owns their lifecycle status.
package jobsource

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/andrei/docscan/internal/domain"
	"github.com/andrei/docscan/internal/logger"
)

// StatusError reports an HTTP error status from the job source.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
// Parameters: none.
// Returns:
//   - string: description including status code.
func (e *StatusError) Error() string {
	return fmt.Sprintf("job source returned %d: %s", e.StatusCode, e.Body)
}

// Update is the status report posted to the job source.
type Update struct {
	WorkerID string           `json:"worker_id"`
	ID       string           `json:"id"`
	Status   domain.Status    `json:"status"`
	Message  string           `json:"message,omitempty"`
	Analysis *domain.Analysis `json:"analysis,omitempty"`
}

// Client talks to the job source.
type Client struct {
	client *resty.Client
	log    *logger.Logger
}

// Config holds job source client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int // retries after the first attempt
}

// NewClient creates a job source client with bounded retry on transport
// errors.
// Parameters:
//   - cfg: base URL, timeout, and retry count.
//   - log: structured logger.
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.GetDefault()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)
	client.SetRetryCount(cfg.RetryCount)

	return &Client{client: client, log: log}
}

// NextDocument fetches the next document descriptor to process.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.Document: descriptor; status not_found means no work.
//   - error: non-nil if the request fails.
func (c *Client) NextDocument(ctx context.Context) (*domain.Document, error) {
	var doc domain.Document
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&doc).
		Get("/next-document")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next document: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return &doc, nil
}

// Document fetches the current descriptor for a specific document.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: document id.
// Returns:
//   - *domain.Document: current descriptor.
//   - error: non-nil if the request fails.
func (c *Client) Document(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&doc).
		Get("/document/" + id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return &doc, nil
}

// PostUpdate reports a status transition, optionally with the analysis
// payload.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - update: status report to post.
// Returns:
//   - error: *StatusError on an HTTP error status, other errors on transport
//     failure.
func (c *Client) PostUpdate(ctx context.Context, update *Update) error {
	c.log.WithFields(logger.Fields{
		logger.FieldDocumentID: update.ID,
		logger.FieldStatus:     string(update.Status),
	}).Info("Posting status update")

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(update).
		Post("/ocr-updates")
	if err != nil {
		return fmt.Errorf("failed to post update for %s: %w", update.ID, err)
	}
	if resp.IsError() {
		return &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
