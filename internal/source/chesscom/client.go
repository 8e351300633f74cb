// Package chesscom fetches monthly game archives from the chess.com public API.
package chesscom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/source"
	"github.com/discochess/tally/internal/window"
)

var (
	_ source.Source     = (*Client)(nil)
	_ source.RawFetcher = (*Client)(nil)
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.chess.com/pub"

// Config holds the client's fixed settings. It is copied at construction
// and never changed afterwards.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond limits outgoing requests. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	// MaxRetries is how many times a 429 or 5xx response is retried.
	MaxRetries int
	// RetryBackoff is the base delay between retries; attempt n waits n times as long.
	RetryBackoff time.Duration
}

// DefaultConfig returns settings suitable for the public API.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         "tally/1.0 (+https://github.com/discochess/tally)",
		Timeout:           30 * time.Second,
		RequestsPerSecond: 3,
		Burst:             1,
		MaxRetries:        3,
		RetryBackoff:      250 * time.Millisecond,
	}
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chess.com: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("chess.com: HTTP %d", e.StatusCode)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is a chess.com API client.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a client. Zero fields in cfg take DefaultConfig values.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = newHTTPClient(cfg.Timeout)
	}
	c.logger = c.logger.Named("chesscom")
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "chesscom",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// An unknown user or a cancelled request says nothing about API health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, source.ErrUserNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
	return c
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// FetchMonth returns the user's games finished in bucket.
func (c *Client) FetchMonth(ctx context.Context, username string, bucket window.Bucket) ([]game.Raw, error) {
	data, err := c.FetchMonthRaw(ctx, username, bucket)
	if err != nil {
		return nil, err
	}
	return DecodeMonth(data)
}

// FetchMonthRaw returns the undecoded monthly archive payload.
func (c *Client) FetchMonthRaw(ctx context.Context, username string, bucket window.Bucket) ([]byte, error) {
	p := fmt.Sprintf("/player/%s/games/%04d/%02d",
		url.PathEscape(strings.ToLower(username)), bucket.Year, int(bucket.Month))
	return c.get(ctx, p)
}

// Profile returns the user's public profile.
func (c *Client) Profile(ctx context.Context, username string) (*Profile, error) {
	data, err := c.get(ctx, "/player/"+url.PathEscape(strings.ToLower(username)))
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &p, nil
}

// Stats returns the user's per-mode ratings and records.
func (c *Client) Stats(ctx context.Context, username string) (*PlayerStats, error) {
	data, err := c.get(ctx, "/player/"+url.PathEscape(strings.ToLower(username))+"/stats")
	if err != nil {
		return nil, err
	}
	var st PlayerStats
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding stats: %w", err)
	}
	return &st, nil
}

// Leaderboards returns the site-wide leaderboards.
func (c *Client) Leaderboards(ctx context.Context) (Leaderboards, error) {
	data, err := c.get(ctx, "/leaderboards")
	if err != nil {
		return nil, err
	}
	var lb Leaderboards
	if err := json.Unmarshal(data, &lb); err != nil {
		return nil, fmt.Errorf("decoding leaderboards: %w", err)
	}
	return lb, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		return c.getWithRetry(ctx, c.cfg.BaseURL+path)
	})
}

func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.cfg.RetryBackoff
			c.logger.Debug("retrying request",
				zap.String("url", u),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		data, err := c.do(ctx, u)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var se *StatusError
		if !errors.As(err, &se) || !se.retryable() {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", u, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", source.ErrUserNotFound, u)
	default:
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &msg)
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: msg.Message}
	}
}
