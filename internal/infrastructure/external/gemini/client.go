// Package gemini is a minimal client for the Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ErrMissingAPIKey is returned by every call when no key is configured.
var ErrMissingAPIKey = errors.New("gemini: api key is missing")

// ClientConfig contains configuration for the Gemini client.
type ClientConfig struct {
	// BaseURL is the API root, without the version segment.
	BaseURL string

	APIKey string

	// Model is the model name, e.g. "gemini-2.5-flash".
	Model string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RequestsPerMinute caps outgoing calls. Zero disables the limiter.
	RequestsPerMinute int

	Logger *logger.Logger

	// HTTPClient overrides the default client. Used by tests.
	HTTPClient *http.Client
}

// DefaultClientConfig returns defaults for the public endpoint.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL:           "https://generativelanguage.googleapis.com",
		APIKey:            apiKey,
		Model:             "gemini-2.5-flash",
		Timeout:           30 * time.Second,
		RequestsPerMinute: 15,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client calls generateContent.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	log         *logger.Logger
}

// NewClient creates a new Gemini client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &Client{
		config:      config,
		httpClient:  httpClient,
		rateLimiter: NewRateLimiter(config.RequestsPerMinute, 1),
		log:         config.Logger.With(logger.Component("gemini")),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// GenerateText sends prompt as a single user turn and returns the text of the
// first candidate. An empty reply is not an error.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.GenerateContent(ctx, NewTextRequest(prompt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// GenerateContent performs one generateContent call. No retries.
func (c *Client) GenerateContent(ctx context.Context, body GenerateContentRequest) (*GenerateContentResponse, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gemini: rate limiter: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	c.log.Debug("generateContent finished",
		logger.Int("status", resp.StatusCode),
		logger.Latency(time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var dto APIErrorDTO
		if err := json.Unmarshal(respBody, &dto); err == nil {
			apiErr.Status = dto.Error.Status
			apiErr.Message = dto.Error.Message
		}
		return nil, apiErr
	}

	var out GenerateContentResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("gemini: unmarshal response: %w", err)
	}
	return &out, nil
}

func (c *Client) endpoint() string {
	base := strings.TrimRight(c.config.BaseURL, "/")
	return base + "/v1beta/models/" + url.PathEscape(c.config.Model) + ":generateContent"
}
