package authkit

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config defines how a Client talks to the backend and manages tokens.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable; Build copies the value it is given.
type Config struct {
	API     APIConfig
	Refresh RefreshConfig
	Metrics MetricsConfig
}

// APIConfig locates the Flowzz backend.
type APIConfig struct {
	// BaseURL is the backend origin, e.g. "https://api.flowzz.com.br".
	// Endpoint paths (/api/v1/auth/...) are appended to it.
	BaseURL string
	// RequestTimeout bounds every auth API call except logout revocation.
	RequestTimeout time.Duration
	// RevokeTimeout bounds the best-effort logout revocation call.
	RevokeTimeout time.Duration
	// UserAgent is sent on outgoing requests. Overridable per call via
	// WithUserAgent.
	UserAgent string
}

// RefreshConfig tunes the transparent refresh flow.
type RefreshConfig struct {
	// ProactiveWindow refreshes ahead of expiry when the access token is a
	// readable JWT whose exp falls inside the window, skipping the doomed
	// introspection round-trip. Zero disables the peek. Opaque tokens are
	// unaffected either way.
	ProactiveWindow time.Duration
	// AccessTTL and RefreshTTL document the lifetimes the backend issues.
	// The client never enforces them; RefreshTTL is the TTL to hand to
	// expiring storage backends such as [storage.NewRedisStore].
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production defaults: 15-minute access tokens,
// 7-day refresh tokens, 30-second proactive refresh window.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			RequestTimeout: 10 * time.Second,
			RevokeTimeout:  2 * time.Second,
			UserAgent:      "authkit/1",
		},
		Refresh: RefreshConfig{
			ProactiveWindow: 30 * time.Second,
			AccessTTL:       15 * time.Minute,
			RefreshTTL:      7 * 24 * time.Hour,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate checks the config for contradictions. Build calls it; callers
// only need it when assembling configs from external input.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("API.BaseURL required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("API.BaseURL invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API.BaseURL scheme %q not supported", u.Scheme)
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("API.RequestTimeout must be positive")
	}
	if c.API.RevokeTimeout <= 0 {
		return errors.New("API.RevokeTimeout must be positive")
	}
	if c.Refresh.ProactiveWindow < 0 {
		return errors.New("Refresh.ProactiveWindow must not be negative")
	}
	return nil
}
