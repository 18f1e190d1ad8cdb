// File: internal/llmclient/http_client.go
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
	"github.com/feedpilot/feedpilot-cli/internal/config"
)

// HTTPClient implements schemas.TextCompleter against a generic planner
// endpoint: it POSTs the prompts as JSON and returns the raw response body.
// The planner adapter's sanitizer is responsible for shape validation, so
// this client stays dumb on purpose.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	config     config.LLMConfig
}

type httpCompletionRequest struct {
	System string `json:"system"`
	Input  string `json:"input"`
}

// NewHTTPClient initializes the client.
func NewHTTPClient(cfg config.LLMConfig, logger *zap.Logger) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("HTTP completer endpoint is required")
	}

	return &HTTPClient{
		endpoint: cfg.Endpoint,
		config:   cfg,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("llm_client.http"),
	}, nil
}

// Complete POSTs the prompt pair and returns the response body verbatim,
// retrying transient failures with exponential backoff.
func (c *HTTPClient) Complete(ctx context.Context, req schemas.CompletionRequest) (string, error) {
	body, err := json.Marshal(httpCompletionRequest{
		System: req.SystemPrompt,
		Input:  req.UserPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.config.MaxRetryElapsed
	b.MaxInterval = 2 * time.Second

	var responseContent string

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		startTime := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("Network error during planner request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests,
			resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("planner endpoint error: status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("planner endpoint error: status %d, body: %s", resp.StatusCode, string(respBody)))
		}

		c.logger.Debug("Planner endpoint responded",
			zap.Duration("duration", time.Since(startTime)),
			zap.Int("bytes", len(respBody)),
		)

		responseContent = string(respBody)
		return nil
	}

	if err = backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}

	return responseContent, nil
}
