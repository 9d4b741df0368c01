package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/service"
)

// Classifier assigns categories to a batch of descriptions.
type Classifier interface {
	ClassifyBatch(ctx context.Context, req Request) (Response, error)
}

// BatchItem is one description to classify. Index is the caller's position
// for the item and is echoed back in results.
type BatchItem struct {
	Description string `json:"description"`
	Index       int    `json:"index"`
}

// CategoryRef is a catalog entry offered to the classifier.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Request is a single classification call.
type Request struct {
	Provider       string        `json:"provider"`
	ModelName      string        `json:"modelName"`
	Batch          []BatchItem   `json:"batch"`
	Categories     []CategoryRef `json:"categories"`
	Temperature    float64       `json:"temperature"`
	EnableThinking bool          `json:"enableThinking"`
}

// Result assigns a category to the item at Index.
type Result struct {
	CategoryID string `json:"categoryId"`
	Index      int    `json:"index"`
}

// Usage reports token consumption when the provider exposes it.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Response is the classifier's answer. Results may be partial and may
// contain entries the caller has to discard.
type Response struct {
	Usage          *Usage   `json:"usage,omitempty"`
	ModelName      string   `json:"modelName"`
	Results        []Result `json:"results"`
	Temperature    float64  `json:"temperature"`
	EnableThinking bool     `json:"enableThinking"`
}

// Trainer is implemented by classifiers that learn from the categorized
// ledger before classifying.
type Trainer interface {
	Train(ledger []Example)
}

// Example is a labelled description used for training.
type Example struct {
	Description string
	CategoryID  string
}

// Config holds configuration for the classifier client.
type Config struct {
	Provider   string
	APIKey     string
	Endpoint   string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	RateLimit  int
	MaxTokens  int
	// MinConfidence is the probability the offline model must reach before
	// it answers.
	MinConfidence float64
}

// provider performs one raw classification call.
type provider interface {
	classify(ctx context.Context, req Request) (Response, error)
}

// Client wraps a provider with rate limiting and retries.
type Client struct {
	provider    provider
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
	name        string
}

func newClient(name string, p provider, cfg Config, logger *slog.Logger) *Client {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries + 1,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Client{
		name:        name,
		provider:    p,
		logger:      common.LoggerOrDefault(logger),
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// ClassifyBatch sends one batch to the provider.
func (c *Client) ClassifyBatch(ctx context.Context, req Request) (Response, error) {
	if len(req.Batch) == 0 {
		return Response{ModelName: req.ModelName, Temperature: req.Temperature, EnableThinking: req.EnableThinking}, nil
	}
	if req.Provider == "" {
		req.Provider = c.name
	}

	resp, err := common.Retry(ctx, func() (Response, error) {
		if err := c.rateLimiter.wait(ctx); err != nil {
			return Response{}, common.Permanent(fmt.Errorf("rate limit error: %w", err))
		}
		resp, err := c.provider.classify(ctx, req)
		if err != nil {
			c.logger.Warn("classification attempt failed",
				"provider", c.name,
				"model", req.ModelName,
				"batch_size", len(req.Batch),
				"error", err)
			return Response{}, retryable(err)
		}
		return resp, nil
	}, c.retryOpts)
	if err != nil {
		return Response{}, fmt.Errorf("%s classification failed: %w", c.name, err)
	}

	if resp.ModelName == "" {
		resp.ModelName = req.ModelName
	}
	resp.Temperature = req.Temperature
	resp.EnableThinking = req.EnableThinking

	c.logger.Debug("batch classified",
		"provider", c.name,
		"model", resp.ModelName,
		"batch_size", len(req.Batch),
		"results", len(resp.Results))

	return resp, nil
}

// Train forwards training data to providers that learn from the ledger.
func (c *Client) Train(ledger []Example) {
	if t, ok := c.provider.(Trainer); ok {
		t.Train(ledger)
	}
}

// Close stops background goroutines.
func (c *Client) Close() error {
	if c.rateLimiter != nil {
		c.rateLimiter.Close()
	}
	return nil
}

// StatusError is returned when a classifier endpoint answers with a non-2xx
// status.
type StatusError struct {
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("classifier returned status %d: %s", e.StatusCode, e.Body)
}

// retryable marks client errors other than rate limiting as permanent.
func retryable(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == 429:
			return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
		case statusErr.StatusCode >= 400 && statusErr.StatusCode < 500:
			return common.Permanent(err)
		}
	}
	if errors.Is(err, common.ErrClassifierUnavailable) || errors.Is(err, context.Canceled) {
		return common.Permanent(err)
	}
	return &common.RetryableError{Err: err, Retryable: true}
}
