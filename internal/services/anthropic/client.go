package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/dpaola2/show-notes/internal/models"
)

var (
	// ErrRateLimited indicates the messages API rate limit was exceeded.
	// The processing orchestrator treats this class as retryable.
	ErrRateLimited = errors.New("anthropic rate limit exceeded")

	// ErrInvalidSummary indicates the model returned something that is not
	// the expected JSON shape. This class is fatal, not retryable.
	ErrInvalidSummary = errors.New("invalid summary response")
)

// Summary is the structured summarization result
type Summary struct {
	Sections []models.SummarySection `json:"sections"`
	Quotes   []models.SummaryQuote   `json:"quotes"`
}

// Config holds configuration for the Anthropic client
type Config struct {
	APIKey string

	// Model selection
	Model     string // Default: claude-sonnet-4-20250514
	MaxTokens int    // Default: 4096

	// Rate limiting
	RequestsPerMinute int // Default: 50
	BurstSize         int // Default: 2

	// HTTP configuration
	Timeout time.Duration // Default: 120s

	// ChunkDelay is the fixed pause inserted between chunk requests and
	// before the synthesis request, to stay under provider rate limits.
	ChunkDelay time.Duration // Default: 3s

	// Base URL (for testing)
	BaseURL string // Default: https://api.anthropic.com
}

// Client talks to an Anthropic-style messages API and turns transcripts
// into section/quote summaries
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	config      Config
	baseURL     string
}

// NewClient creates a new Anthropic client
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 50
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.ChunkDelay == 0 {
		cfg.ChunkDelay = 3 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}

	limiter := rate.NewLimiter(
		rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)),
		cfg.BurstSize,
	)

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: limiter,
		config:      cfg,
		baseURL:     cfg.BaseURL,
	}
}

// Summarize runs a single summarization call over the full transcript text
func (c *Client) Summarize(ctx context.Context, transcript string) (*Summary, error) {
	prompt := summarizePrompt + "\n\nTranscript:\n" + transcript
	return c.complete(ctx, prompt)
}

// complete sends one messages request and parses the summary JSON out of
// the model's reply
func (c *Client) complete(ctx context.Context, prompt string) (*Summary, error) {
	text, err := c.createMessage(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseSummaryResponse(text)
}

// messageRequest mirrors the messages API request body
type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messageResponse mirrors the messages API response body
type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// createMessage performs one messages API call and returns the text content
func (c *Client) createMessage(ctx context.Context, prompt string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	body, err := json.Marshal(messageRequest{
		Model:     c.config.Model,
		MaxTokens: c.config.MaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding message request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	// 429 is the documented rate limit; 529 means the API is overloaded
	// and deserves the same backoff treatment.
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 529 {
		return "", ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("anthropic api status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var parsed messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding message response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic api error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", fmt.Errorf("%w: no content in response", ErrInvalidSummary)
	}

	return parsed.Content[0].Text, nil
}
