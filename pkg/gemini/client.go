// Package gemini provides a minimal client for the Google Gemini
// generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Gemini API endpoint prefix.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// RequestTimeout for generation requests.
	RequestTimeout = 30 * time.Second
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("gemini API key not configured")

	// ErrUnavailable is returned when the API cannot be reached or
	// responds with a non-success status.
	ErrUnavailable = errors.New("gemini service unavailable")

	// ErrEmptyResponse is returned when the API returns no candidate text.
	ErrEmptyResponse = errors.New("gemini returned an empty response")
)

// Part is a single chunk of generated or prompt content.
type Part struct {
	Text string `json:"text"`
}

// Content groups parts under a conversation role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	Contents []Content `json:"contents"`
}

type candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

// Config holds the client settings.
type Config struct {
	// APIKey authenticates requests. Empty disables the client.
	APIKey string

	// Model is the model resource name, e.g. "gemini-2.5-flash".
	Model string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	client  *http.Client
	logger  *slog.Logger
	apiKey  string
	model   string
	baseURL string
}

// NewClient creates a Gemini client. An empty APIKey produces a client
// whose Configured method reports false; callers are expected to check
// it before generating.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client: &http.Client{
			Timeout: RequestTimeout,
		},
		logger:  logger,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// GenerateContent sends a single-turn prompt and returns the generated
// text with surrounding whitespace trimmed.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("gemini request failed", "model", c.model, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		c.logger.Error("failed to parse gemini response", "status", resp.StatusCode, "error", err)
		return "", fmt.Errorf("%w: unexpected response", ErrUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		errMsg := resp.Status
		if genResp.Error != nil && genResp.Error.Message != "" {
			errMsg = genResp.Error.Message
		}
		c.logger.Warn("gemini API error", "status", resp.StatusCode, "message", errMsg)
		return "", fmt.Errorf("%w: %s", ErrUnavailable, errMsg)
	}

	text := collectText(genResp.Candidates)
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("gemini generation complete", "model", c.model, "chars", len(text))
	return text, nil
}

// collectText concatenates the text parts of the first candidate.
func collectText(candidates []candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}
