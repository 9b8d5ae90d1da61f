// Package client provides the fleet admin API client with credential
// caching, classified retries, and paginated fetch aggregation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fleetops/fleet-admin-client/pkg/cache"
	"github.com/fleetops/fleet-admin-client/pkg/pagination"
)

// Prometheus metrics for admin API operations.
var (
	fleetRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_requests_total",
		Help: "Total admin API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	fleetRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleet_request_duration_seconds",
		Help:    "Admin API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	fleetErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_errors_total",
		Help: "Total admin API errors by class",
	}, []string{"class"})
)

// Client is the fleet admin API client.
type Client struct {
	httpClient  *http.Client
	credentials *CredentialCache
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the admin API base URL (e.g. "https://admin.example.com/v1/admin").
	Endpoint string

	// Email and Password identify the service account. Never logged.
	Email    string
	Password string

	// TokenLifetime is the requested token validity window (default 24h).
	TokenLifetime time.Duration

	// Retry governs every authenticated operation, login included.
	Retry RetryConfig

	// PageSize is the page size for paginated event queries (default 100).
	PageSize int

	// MaxConcurrency bounds parallel per-device fetches (default 4).
	MaxConcurrency int

	// HTTPTimeout is the per-request timeout (default 30s). A timed-out
	// attempt classifies as a retryable network error.
	HTTPTimeout time.Duration

	// Redis enables result caching for device queries when set.
	Redis *redis.Client

	// CacheTTL is the device-query cache validity (default 60s).
	CacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration for the given target
// and account.
func DefaultConfig(endpoint, email, password string) Config {
	return Config{
		Endpoint:       endpoint,
		Email:          email,
		Password:       password,
		TokenLifetime:  24 * time.Hour,
		Retry:          DefaultRetryConfig(),
		PageSize:       pagination.DefaultPageSize,
		MaxConcurrency: 4,
		HTTPTimeout:    30 * time.Second,
		CacheTTL:       60 * time.Second,
	}
}

// New creates a new admin API client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("account email and password are required")
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("retry max_attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = pagination.DefaultPageSize
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 60 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var resultCache *cache.Manager
	if cfg.Redis != nil {
		resultCache = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: httpClient,
		credentials: NewCredentialCache(CredentialConfig{
			Endpoint:      cfg.Endpoint,
			Email:         cfg.Email,
			Password:      cfg.Password,
			TokenLifetime: cfg.TokenLifetime,
			HTTPClient:    httpClient,
			Retry:         cfg.Retry,
		}),
		cache:  resultCache,
		config: cfg,
		logger: log.With().Str("component", "fleet-client").Logger(),
	}, nil
}

// Credentials exposes the credential cache, mainly so callers can force
// re-authentication.
func (c *Client) Credentials() *CredentialCache {
	return c.credentials
}

// postJSON performs one authenticated POST attempt and returns the raw
// response body. Failures come back classified; an auth-class status on a
// downstream request invalidates the cached credentials and is marked
// retryable so the next attempt re-authenticates.
func (c *Client) postJSON(ctx context.Context, endpoint string, reqBody any) ([]byte, error) {
	headers, err := c.credentials.Headers(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	start := time.Now()
	defer func() {
		fleetRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.Endpoint+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fleetErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		fleetRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fleetErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		fleetRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, newNetworkError(err)
	}

	fleetRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		reqErr := newStatusError(resp.StatusCode, body)
		fleetErrorsTotal.WithLabelValues(string(reqErr.Class)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(reqErr.Class)).
			Msg("Admin API request error")

		if reqErr.Class == ErrorClassAuth {
			// Expired or revoked token: the next attempt logs in again.
			c.credentials.Invalidate()
			reqErr.Retryable = true
		}
		return nil, reqErr
	}

	return body, nil
}

// QueryDevices returns the devices matching the given tag filter, optionally
// restricted to enabled devices. The backend answers this query with its full
// match set in one response. Results for identical filters are served from
// the result cache when one is configured.
func (c *Client) QueryDevices(ctx context.Context, tags map[string][]string, enabledOnly bool) ([]Device, error) {
	if tags == nil {
		tags = map[string][]string{}
	}

	key := cache.QueryKey{Endpoint: "/devices/query", Tags: tags, Enabled: enabledOnly}

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		if err == nil {
			var devices []Device
			if err := json.Unmarshal(entry.Data, &devices); err == nil {
				c.logger.Debug().Str("endpoint", "/devices/query").Msg("Device query served from cache")
				return devices, nil
			}
		} else if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	body := deviceQueryRequest{Tags: tags}
	if enabledOnly {
		enabled := true
		body.Enabled = &enabled
	}

	devices, err := Retry(ctx, c.config.Retry, "/devices/query", func() ([]Device, error) {
		raw, err := c.postJSON(ctx, "/devices/query", body)
		if err != nil {
			return nil, err
		}
		var decoded itemsResponse[Device]
		if err := json.Unmarshal(raw, &decoded); err != nil {
			// A 200 with an undecodable body is a contract violation,
			// not a transient fault.
			return nil, newDecodeError(err, false)
		}
		return decoded.Items, nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil && devices != nil {
		data, err := json.Marshal(devices)
		if err == nil {
			entry := &cache.Entry{
				Data:     data,
				CachedAt: time.Now(),
				Expires:  time.Now().Add(c.config.CacheTTL),
			}
			if err := c.cache.Set(ctx, key, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache device query result")
			}
		}
	}

	return devices, nil
}

// FetchTaskSummaries returns every task-summary event recorded for the given
// device, aggregated across all pages in arrival order. The whole paginated
// traversal is retried as a unit: a failed page aborts the aggregation and
// the next attempt starts over from offset zero.
func (c *Client) FetchTaskSummaries(ctx context.Context, deviceID string) ([]TaskSummary, error) {
	return Retry(ctx, c.config.Retry, "/events/query", func() ([]TaskSummary, error) {
		return pagination.FetchAll(ctx, c.config.PageSize,
			func(ctx context.Context, offset, count int) ([]TaskSummary, error) {
				body := eventQueryRequest{
					EventTypes: []string{"task-summary"},
					Count:      count,
					Offset:     offset,
					DeviceIDs:  []string{deviceID},
				}
				raw, err := c.postJSON(ctx, "/events/query", body)
				if err != nil {
					return nil, err
				}
				var decoded itemsResponse[TaskSummary]
				if err := json.Unmarshal(raw, &decoded); err != nil {
					return nil, newDecodeError(err, true)
				}
				return decoded.Items, nil
			})
	})
}

// FetchTaskSummariesForDevices fetches task summaries for several devices
// with bounded concurrency and returns them concatenated in input-device
// order. Per-device calls are independent and idempotent; the shared
// credential cache serializes its own refresh.
func (c *Client) FetchTaskSummariesForDevices(ctx context.Context, deviceIDs []string) ([]TaskSummary, error) {
	results := make([][]TaskSummary, len(deviceIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxConcurrency)

	for i, id := range deviceIDs {
		g.Go(func() error {
			summaries, err := c.FetchTaskSummaries(ctx, id)
			if err != nil {
				return fmt.Errorf("device %s: %w", id, err)
			}
			results[i] = summaries
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []TaskSummary
	for _, summaries := range results {
		all = append(all, summaries...)
	}

	c.logger.Info().
		Int("devices", len(deviceIDs)).
		Int("task_summaries", len(all)).
		Msg("Fetched task summaries for device set")

	return all, nil
}
