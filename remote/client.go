// Package remote talks to the Gemini generative API for speech synthesis and
// voice analysis.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cwbudde/algo-studio/internal/metrics"
)

const (
	DefaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	DefaultSpeechModel   = "gemini-2.5-flash-preview-tts"
	DefaultAnalysisModel = "gemini-3-flash-preview"
)

var (
	// ErrMissingAPIKey is returned by New without a key.
	ErrMissingAPIKey = errors.New("remote: missing API key")
	// ErrNoAudio is returned when a synthesis response carries no audio part.
	ErrNoAudio = errors.New("remote: response contains no audio")
	// ErrNoText is returned when an analysis response carries no text.
	ErrNoText = errors.New("remote: response contains no text")
)

// APIError is a non-success HTTP response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote: http %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed when repeated.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is safe for concurrent use.
type Client struct {
	apiKey        string
	baseURL       string
	speechModel   string
	analysisModel string
	http          *http.Client
	limiter       *rate.Limiter
	maxRetries    uint64
	backoff       time.Duration
	log           *zap.Logger
	metrics       *metrics.Studio
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithModels overrides the speech and analysis models. Empty values keep the
// defaults.
func WithModels(speech, analysis string) Option {
	return func(c *Client) {
		if speech != "" {
			c.speechModel = speech
		}
		if analysis != "" {
			c.analysisModel = analysis
		}
	}
}

// WithRateLimit caps outgoing requests per minute.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		}
	}
}

// WithRetry sets how often a 429 or 5xx response is retried and the first
// backoff delay.
func WithRetry(maxRetries uint64, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records request latency.
func WithMetrics(m *metrics.Studio) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a client for apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:        apiKey,
		baseURL:       DefaultBaseURL,
		speechModel:   DefaultSpeechModel,
		analysisModel: DefaultAnalysisModel,
		http:          &http.Client{Timeout: 60 * time.Second},
		limiter:       rate.NewLimiter(rate.Every(time.Minute/30), 1),
		maxRetries:    3,
		backoff:       500 * time.Millisecond,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// generate posts req to model:generateContent with rate limiting and
// retries on temporary failures.
func (c *Client) generate(ctx context.Context, op, model string, req *generateRequest) (*generateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("remote: encode request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("remote: rate limit wait: %w", err)
	}

	began := time.Now()
	var out *generateResponse
	attempt := 0
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := c.post(ctx, model, body)
		if err == nil {
			out = resp
			return nil
		}
		if retryable(err) && ctx.Err() == nil {
			c.log.Warn("remote call failed, retrying",
				zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveRemote(op, status, time.Since(began))
	if err != nil {
		return nil, err
	}
	c.log.Debug("remote call done", zap.String("op", op), zap.Duration("took", time.Since(began)))
	return out, nil
}

// transportError marks a failure to exchange the request with the server.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "remote: " + e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

// retryable reports whether another attempt could succeed: the request never
// completed, or the server answered with a temporary status.
func retryable(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Temporary()
}

func (c *Client) post(ctx context.Context, model string, body []byte) (*generateResponse, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("remote: decode response: %w", err)
	}
	return &out, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}
