// Package client talks to the arcade daemon over HTTP. Client satisfies
// performance.Engine, so the CLI and the MCP tools drive a running daemon
// exactly as they would drive the engine in-process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
	"github.com/felixgeelhaar/brainarcade/internal/gameconfig"
	"github.com/felixgeelhaar/brainarcade/internal/performance"
)

// DefaultBaseURL is where arcaded listens with the default config
const DefaultBaseURL = "http://127.0.0.1:7433"

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int // for idempotent reads only
	HTTPClient *http.Client
}

// Client is an HTTP client for the daemon API
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	reads      retry.Retry[[]byte]
}

var _ performance.Engine = (*Client)(nil)

// New creates a client
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := opts.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   3 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		}
	}

	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: hc,
		reads: retry.New[[]byte](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		}),
	}, nil
}

// BaseURL returns the daemon address the client targets
func (c *Client) BaseURL() string { return c.baseURL }

// Health reports whether the daemon answers /v1/health
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/v1/health", nil)
}

// Status is the daemon's /v1/status payload
type Status struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components"`
	RateLimit  bool              `json:"rate_limit"`
}

// Status fetches daemon status
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.get(ctx, "/v1/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GameInfo is one entry of the game catalog
type GameInfo struct {
	ID   domain.GameType `json:"id"`
	Name string          `json:"name"`
}

// Games lists the game catalog
func (c *Client) Games(ctx context.Context) ([]GameInfo, error) {
	var out struct {
		Games []GameInfo `json:"games"`
	}
	if err := c.get(ctx, "/v1/games", &out); err != nil {
		return nil, err
	}
	return out.Games, nil
}

func (c *Client) RegisterPlayer(ctx context.Context, id uuid.UUID, username string) (*domain.Player, error) {
	body := map[string]string{"username": username}
	if id != uuid.Nil {
		body["id"] = id.String()
	}

	var out domain.Player
	if err := c.post(ctx, "/v1/players", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetConfig(ctx context.Context, userID uuid.UUID, gt domain.GameType) (*gameconfig.Config, error) {
	var out gameconfig.Config
	if err := c.get(ctx, gamePath(userID, gt, "config"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecordGameResult(ctx context.Context, userID uuid.UUID, gt domain.GameType, outcome domain.Outcome) (*performance.RecordResult, error) {
	var out performance.RecordResult
	if err := c.post(ctx, gamePath(userID, gt, "results"), outcome, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDashboard(ctx context.Context, userID uuid.UUID) (*performance.Dashboard, error) {
	var out performance.Dashboard
	if err := c.get(ctx, playerPath(userID, "dashboard"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRecommendations(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error) {
	var out struct {
		Recommendations []domain.Recommendation `json:"recommendations"`
	}
	if err := c.get(ctx, playerPath(userID, "recommendations"), &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

func (c *Client) GetHistory(ctx context.Context, userID uuid.UUID, gt domain.GameType, limit int) ([]*domain.GameResult, error) {
	path := gamePath(userID, gt, "history")
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Results []*domain.GameResult `json:"results"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) GetChartData(ctx context.Context, userID uuid.UUID, days int) ([]performance.ChartDay, error) {
	path := playerPath(userID, "chart")
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}

	var out struct {
		Data []performance.ChartDay `json:"data"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func playerPath(userID uuid.UUID, leaf string) string {
	return "/v1/players/" + userID.String() + "/" + leaf
}

func gamePath(userID uuid.UUID, gt domain.GameType, leaf string) string {
	return "/v1/players/" + userID.String() + "/games/" + url.PathEscape(string(gt)) + "/" + leaf
}

// get is retried; reads are idempotent
func (c *Client) get(ctx context.Context, path string, out any) error {
	raw, err := c.reads.Do(ctx, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// post is sent once; recording a result twice would count the game twice
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseHTTPError(resp.StatusCode, raw)
	}
	return raw, nil
}

func decode(raw []byte, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var unreachable *UnreachableError
	if errors.As(err, &unreachable) {
		return true
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode == http.StatusServiceUnavailable || herr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
