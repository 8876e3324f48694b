package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/clotilde/admin-console/internal/cache"
	"github.com/clotilde/admin-console/internal/config"
	"github.com/clotilde/admin-console/internal/models"
)

const (
	logsPath      = "/admin/logs"
	statsPath     = "/admin/stats"
	configPath    = "/admin/config"
	dashboardPath = "/admin/"

	statsKey = "stats"

	// Upper bound on response bodies read into memory
	maxBodySize = 8 << 20
)

var csrfAttr = regexp.MustCompile(`data-csrf-token="([^"]*)"`)

// ErrNoCSRFToken is returned when the dashboard page carries no usable token
var ErrNoCSRFToken = errors.New("admin dashboard did not provide a CSRF token")

// StatusError is returned for any non-2xx admin API response
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("admin API %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Detail returns the proxy's {"error": "..."} message, or the raw body
// when it is not JSON.
func (e *StatusError) Detail() string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(e.Body), &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return e.Body
}

// Client talks to the proxy admin API
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	limiter  *rate.Limiter

	stats    *cache.TTL[*models.Stats]
	statsTTL time.Duration

	mu        sync.Mutex
	csrfToken string
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithStatsCache serves /admin/stats from memory for ttl after each
// successful fetch. A zero ttl disables caching.
func WithStatsCache(ttl time.Duration) Option {
	return func(c *Client) { c.statsTTL = ttl }
}

func New(cfg config.AdminConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: timeout},
	}

	if cfg.RatePerMinute > 0 {
		burst := cfg.RatePerMinute / 6
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.statsTTL > 0 {
		c.stats = cache.NewTTL[*models.Stats](c.statsTTL, 1)
	}

	log.Info().Str("url", c.baseURL).Str("username", c.username).Msg("Admin API client configured")
	return c
}

// FetchLogs retrieves one page of log entries.
func (c *Client) FetchLogs(ctx context.Context, q models.LogQuery) (*models.LogsPage, error) {
	var page models.LogsPage
	if err := c.getJSON(ctx, logsPath+"?"+q.Values().Encode(), &page); err != nil {
		return nil, err
	}
	if page.Entries == nil {
		page.Entries = []models.LogEntry{}
	}
	return &page, nil
}

// FetchStats retrieves the usage statistics.
func (c *Client) FetchStats(ctx context.Context) (*models.Stats, error) {
	if c.stats != nil {
		if stats, ok := c.stats.Get(statsKey); ok {
			return stats, nil
		}
	}

	var stats models.Stats
	if err := c.getJSON(ctx, statsPath, &stats); err != nil {
		return nil, err
	}

	if c.stats != nil {
		c.stats.Set(statsKey, &stats)
	}
	return &stats, nil
}

// StatsCacheStats reports hit counters of the stats cache.
func (c *Client) StatsCacheStats() cache.CacheStats {
	if c.stats == nil {
		return cache.CacheStats{}
	}
	return c.stats.Stats()
}

// FetchConfig retrieves the runtime configuration.
func (c *Client) FetchConfig(ctx context.Context) (*models.RuntimeConfig, error) {
	var cfg models.RuntimeConfig
	if err := c.getJSON(ctx, configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig posts a normalized config. The CSRF token is fetched on
// first use and refreshed once if the proxy rejects it.
func (c *Client) SaveConfig(ctx context.Context, cfg models.RuntimeConfig) (*models.RuntimeConfig, error) {
	body, err := json.Marshal(cfg.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	saved, err := c.postConfig(ctx, body, false)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusForbidden {
		log.Warn().Msg("CSRF token rejected, refreshing")
		saved, err = c.postConfig(ctx, body, true)
	}
	return saved, err
}

func (c *Client) postConfig(ctx context.Context, body []byte, refresh bool) (*models.RuntimeConfig, error) {
	token, err := c.token(ctx, refresh)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, configPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", token)

	var saved models.RuntimeConfig
	if err := c.do(req, configPath, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// CSRFToken returns the token scraped from the admin dashboard page.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	return c.token(ctx, false)
}

func (c *Client) token(ctx context.Context, refresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.csrfToken != "" && !refresh {
		return c.csrfToken, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, dashboardPath, nil)
	if err != nil {
		return "", err
	}
	page, err := c.send(req, dashboardPath)
	if err != nil {
		return "", fmt.Errorf("failed to load admin dashboard: %w", err)
	}

	match := csrfAttr.FindSubmatch(page)
	if match == nil || len(match[1]) == 0 || bytes.HasPrefix(match[1], []byte("{{")) {
		return "", ErrNoCSRFToken
	}
	c.csrfToken = string(match[1])
	return c.csrfToken, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	return req, nil
}

func (c *Client) do(req *http.Request, path string, out interface{}) error {
	body, err := c.send(req, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(req *http.Request, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("admin API %s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", path).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Admin API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: req.Method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	return body, nil
}
