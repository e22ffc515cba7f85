package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

var (
	// ErrRateLimited indicates the transcription API rate limit was exceeded.
	// The processing orchestrator treats this class as retryable.
	ErrRateLimited = errors.New("assemblyai rate limit exceeded")

	// ErrTranscriptionFailed indicates the provider reported a failed transcript
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrInvalidResponse indicates the API returned an unexpected payload
	ErrInvalidResponse = errors.New("invalid response from assemblyai")
)

// Utterance is a timestamped speaker turn. Start and End are millisecond
// offsets from the beginning of the audio.
type Utterance struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
	Speaker    string  `json:"speaker,omitempty"`
}

// Word is a single word-level timestamp
type Word struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
	Speaker    string  `json:"speaker,omitempty"`
}

// Transcript is the completed transcription result
type Transcript struct {
	Text          string      `json:"text"`
	Words         []Word      `json:"words,omitempty"`
	Utterances    []Utterance `json:"utterances"`
	AudioDuration float64     `json:"audio_duration"` // seconds
	Confidence    float64     `json:"confidence,omitempty"`
}

// JSON serializes the transcript into the opaque document persisted as
// the episode's transcript content
func (t *Transcript) JSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding transcript: %w", err)
	}
	return string(data), nil
}

// Config holds configuration for the AssemblyAI client
type Config struct {
	APIKey string

	// Rate limiting
	RequestsPerMinute int // Default: 60
	BurstSize         int // Default: 5

	// HTTP configuration
	Timeout time.Duration // Default: 30s

	// Polling
	PollInterval    time.Duration // Default: 3s (initial, grows exponentially)
	MaxPollInterval time.Duration // Default: 30s
	MaxPollTime     time.Duration // Default: 30m

	// Base URL (for testing)
	BaseURL string // Default: https://api.assemblyai.com
}

// Client submits audio URLs for transcription and polls until completion
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	config      Config
	baseURL     string
}

// NewClient creates a new AssemblyAI client
func NewClient(cfg Config) *Client {
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxPollInterval == 0 {
		cfg.MaxPollInterval = 30 * time.Second
	}
	if cfg.MaxPollTime == 0 {
		cfg.MaxPollTime = 30 * time.Minute
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.assemblyai.com"
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

// transcriptResponse mirrors the provider's transcript resource
type transcriptResponse struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"` // queued, processing, completed, error
	Text          string      `json:"text"`
	Words         []Word      `json:"words"`
	Utterances    []Utterance `json:"utterances"`
	AudioDuration float64     `json:"audio_duration"`
	Confidence    float64     `json:"confidence"`
	Error         string      `json:"error"`
}

// Transcribe submits the audio URL and polls until the transcript is
// completed. Returns ErrRateLimited when the provider answers 429 so the
// caller can schedule a backoff retry.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (*Transcript, error) {
	submitted, err := c.submit(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	final, err := c.poll(ctx, submitted.ID)
	if err != nil {
		return nil, err
	}

	return &Transcript{
		Text:          final.Text,
		Words:         final.Words,
		Utterances:    final.Utterances,
		AudioDuration: final.AudioDuration,
		Confidence:    final.Confidence,
	}, nil
}

// submit creates the transcript resource
func (c *Client) submit(ctx context.Context, audioURL string) (*transcriptResponse, error) {
	body, err := json.Marshal(map[string]interface{}{
		"audio_url":      audioURL,
		"speaker_labels": true,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding transcript request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("submitting transcript: %w", err)
	}

	if resp.ID == "" {
		return nil, ErrInvalidResponse
	}

	return resp, nil
}

// poll fetches the transcript resource until it reaches a terminal status.
// The wait between polls grows exponentially up to MaxPollInterval.
func (c *Client) poll(ctx context.Context, transcriptID string) (*transcriptResponse, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.PollInterval
	policy.MaxInterval = c.config.MaxPollInterval
	policy.MaxElapsedTime = c.config.MaxPollTime

	var final *transcriptResponse

	operation := func() error {
		resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+transcriptID, nil)
		if err != nil {
			// Rate limit and provider failures abort the polling loop;
			// only transient transport errors are worth re-polling.
			if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTranscriptionFailed) {
				return backoff.Permanent(err)
			}
			return err
		}

		switch resp.Status {
		case "completed":
			final = resp
			return nil
		case "error":
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrTranscriptionFailed, resp.Error))
		default:
			return fmt.Errorf("transcript %s still %s", transcriptID, resp.Status)
		}
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("polling transcript %s: %w", transcriptID, err)
	}

	return final, nil
}

// doRequest performs a single API request
func (c *Client) doRequest(ctx context.Context, method, url string, body io.Reader) (*transcriptResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("assemblyai api status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var parsed transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return &parsed, nil
}

// EstimateCostCents estimates the transcription cost for audio of the given
// duration, using the provider's $0.00065 per second pricing
func EstimateCostCents(durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return int(float64(durationSeconds)*0.065 + 0.999)
}
