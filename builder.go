package authkit

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/flowzz/authkit/internal/api"
	"github.com/flowzz/authkit/internal/metrics"
	"github.com/flowzz/authkit/storage"
)

// Builder assembles a Client. A Builder is single-use: Build returns an
// error on reuse so two Clients never share mutable wiring.
type Builder struct {
	config     Config
	store      storage.Store
	httpClient *http.Client
	logger     *zap.Logger

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole config.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets only the backend origin, keeping the other defaults.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithStorage sets the durable session backend. Required.
func (b *Builder) WithStorage(store storage.Store) *Builder {
	b.store = store
	return b
}

// WithHTTPClient replaces the transport client. Optional; the default
// applies Config.API.RequestTimeout.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithLogger sets the structured logger. Optional; defaults to a no-op.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the wiring and returns a ready Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("storage backend required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.RequestTimeout}
	}

	client := &Client{
		config:  cfg,
		store:   b.store,
		logger:  logger,
		metrics: metrics.New(cfg.Metrics.Enabled),
		api: api.New(api.Config{
			BaseURL:    cfg.API.BaseURL,
			UserAgent:  cfg.API.UserAgent,
			HTTPClient: httpClient,
		}),
	}

	b.built = true
	return client, nil
}
