package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var fleetLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fleet_logins_total",
	Help: "Total login attempts by outcome",
}, []string{"status"})

// Credentials holds the authentication state produced by a successful login.
// A nil *Credentials means "not authenticated"; an empty header set is never
// used as a sentinel.
type Credentials struct {
	AccessToken string
	Headers     map[string]string
}

// CredentialConfig holds the configuration for a CredentialCache.
type CredentialConfig struct {
	// Endpoint is the admin API base URL.
	Endpoint string

	// Email and Password identify the account. Never logged.
	Email    string
	Password string

	// TokenLifetime is the requested token validity window.
	TokenLifetime time.Duration

	// HTTPClient performs the login request.
	HTTPClient *http.Client

	// Retry bounds login attempts. Exhaustion is always propagated here:
	// a login cannot meaningfully return an empty result.
	Retry RetryConfig
}

// CredentialCache lazily authenticates against the admin API and caches the
// resulting headers until invalidated. Safe for concurrent use; concurrent
// callers trigger at most one login.
type CredentialCache struct {
	config CredentialConfig
	logger zerolog.Logger

	mu    sync.Mutex
	creds *Credentials
}

// NewCredentialCache creates a credential cache. No network call is made
// until the first Headers call.
func NewCredentialCache(cfg CredentialConfig) *CredentialCache {
	if cfg.TokenLifetime <= 0 {
		cfg.TokenLifetime = 24 * time.Hour
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	cfg.Retry.OnExhaustion = Propagate

	return &CredentialCache{
		config: cfg,
		logger: log.With().Str("component", "credentials").Logger(),
	}
}

// Headers returns the authenticated request headers, performing a login on
// first use or after invalidation. Cached headers are returned unchanged;
// the call is idempotent until Invalidate.
func (c *CredentialCache) Headers(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.creds != nil {
		return c.creds.Headers, nil
	}

	creds, err := Retry(ctx, c.config.Retry, "/auth/login", func() (*Credentials, error) {
		return c.login(ctx)
	})
	if err != nil {
		return nil, err
	}

	c.creds = creds
	return c.creds.Headers, nil
}

// Invalidate clears the cached credentials, forcing the next Headers call to
// re-authenticate. Callers seeing an auth-class failure on a downstream
// request should invalidate before retrying.
func (c *CredentialCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.creds = nil
	c.logger.Debug().Msg("Credentials invalidated")
}

// loginResponse mirrors the /auth/login response body.
type loginResponse struct {
	Authentication struct {
		AccessToken string `json:"accessToken"`
	} `json:"authentication"`
}

// login performs one authentication attempt against the admin API.
func (c *CredentialCache) login(ctx context.Context) (*Credentials, error) {
	payload, err := json.Marshal(map[string]any{
		"email":                  c.config.Email,
		"password":               c.config.Password,
		"tokenExpirationSeconds": int(c.config.TokenLifetime.Seconds()),
	})
	if err != nil {
		return nil, newDecodeError(err, false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.Endpoint+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		fleetLoginsTotal.WithLabelValues("network_error").Inc()
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fleetLoginsTotal.WithLabelValues("network_error").Inc()
		return nil, newNetworkError(err)
	}

	if resp.StatusCode != http.StatusOK {
		fleetLoginsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()
		reqErr := newStatusError(resp.StatusCode, body)
		reqErr.Message = fmt.Sprintf("authentication failed: %s", string(body))
		return nil, reqErr
	}

	var decoded loginResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		fleetLoginsTotal.WithLabelValues("decode_error").Inc()
		return nil, newDecodeError(err, true)
	}
	if decoded.Authentication.AccessToken == "" {
		fleetLoginsTotal.WithLabelValues("decode_error").Inc()
		return nil, &RequestError{
			Message:   "authentication response missing access token",
			Retryable: true,
			Class:     ErrorClassDecode,
		}
	}

	fleetLoginsTotal.WithLabelValues("success").Inc()
	c.logger.Debug().Msg("Authenticated against admin API")

	return &Credentials{
		AccessToken: decoded.Authentication.AccessToken,
		Headers: map[string]string{
			"Authorization": "Bearer " + decoded.Authentication.AccessToken,
			"Content-Type":  "application/json",
		},
	}, nil
}
