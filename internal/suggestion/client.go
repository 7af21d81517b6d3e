// Package suggestion drafts narrative text through an OpenAI-compatible
// chat completions endpoint and manages the accept/edit/discard cycle.
package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "social-support-wizard/internal/common/http"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/models"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

var (
	ErrUnknownField  = errors.New("invalid field specified")
	ErrRejected      = errors.New("request rejected by suggestion service")
	ErrEmptyResponse = errors.New("No response from OpenAI")
	ErrTimeout       = errors.New("suggestion request timed out")
)

// APIError is a non-2xx answer from the completion endpoint. Client errors
// unwrap to ErrRejected and are not retried.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenAI API error: %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ErrRejected
	}
	return nil
}

// Service generates text for one narrative field.
type Service interface {
	Generate(ctx context.Context, apiKey string, field models.NarrativeField, existingText string) (string, error)
}

type Client struct {
	config     *Config
	httpClient *commonhttp.Client
	retrier    retry.Retry[string]
	breaker    circuitbreaker.CircuitBreaker[string]
	logger     logger.Logger
}

func NewClient(cfg *Config, log logger.Logger) *Client {
	threshold := cfg.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}

	return &Client{
		config:     cfg,
		httpClient: commonhttp.NewClient(cfg.Timeout),
		retrier: retry.New[string](retry.Config{
			MaxAttempts:        cfg.MaxRetries + 1,
			InitialDelay:       cfg.RetryDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         2.0,
			NonRetryableErrors: []error{ErrRejected, ErrEmptyResponse, ErrUnknownField},
		}),
		breaker: circuitbreaker.New[string](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    cfg.BreakerTimeout,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- threshold is positive
			},
		}),
		logger: log,
	}
}

// Generate asks the model for a draft. existingText may be empty.
func (c *Client) Generate(ctx context.Context, apiKey string, field models.NarrativeField, existingText string) (string, error) {
	prompt, err := userPrompt(field, existingText)
	if err != nil {
		return "", err
	}

	req := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	// Rejections are about the caller, not upstream health, so they stay
	// out of the breaker's failure counts.
	var rejected error
	text, err := c.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		text, err := c.retrier.Do(ctx, func(ctx context.Context) (string, error) {
			return c.call(ctx, apiKey, req)
		})
		if errors.Is(err, ErrRejected) || errors.Is(err, ErrEmptyResponse) {
			rejected = err
			return "", nil
		}
		return text, err
	})
	if err == nil && rejected != nil {
		err = rejected
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrTimeout, c.config.Timeout)
		}
		c.logger.Warn("Suggestion request failed", map[string]interface{}{
			"field":    string(field),
			"duration": time.Since(start).String(),
			"error":    err.Error(),
		})
		return "", err
	}

	c.logger.Debug("Suggestion generated", map[string]interface{}{
		"field":    string(field),
		"duration": time.Since(start).String(),
		"length":   len(text),
	})
	return text, nil
}

func (c *Client) call(ctx context.Context, apiKey string, req chatRequest) (string, error) {
	resp, err := c.httpClient.PostJSON(ctx, c.config.BaseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + apiKey,
	}, req)
	if err != nil {
		return "", fmt.Errorf("suggestion service unreachable: %w", err)
	}
	if !resp.OK() {
		return "", &APIError{StatusCode: resp.StatusCode}
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("%w: malformed body", ErrEmptyResponse)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
