package authkit

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/flowzz/authkit/internal/api"
	"github.com/flowzz/authkit/internal/metrics"
	"github.com/flowzz/authkit/storage"
)

// Client is the session context object: one instance per application,
// constructed through [Builder], threaded explicitly into guards and
// views. There is no package-level session state.
type Client struct {
	config  Config
	api     *api.Client
	store   storage.Store
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	phase     Phase
	hydration Hydration
	principal *Principal
	tokens    TokenPair
	lastErr   error

	// hydrateDone is created when hydration starts and closed when it
	// completes, so late callers can wait instead of racing the read.
	hydrateDone chan struct{}

	validateGroup singleflight.Group
	refreshGroup  singleflight.Group
}

// Snapshot returns a copy of the current session state. Principal, when
// non-nil, is a private copy the caller may retain.
func (c *Client) Snapshot() SessionSnapshot {
	if c == nil {
		return SessionSnapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Client) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		Phase:     c.phase,
		Hydration: c.hydration,
		Tokens:    c.tokens,
		Err:       c.lastErr,
	}
	if c.principal != nil {
		p := *c.principal
		snap.Principal = &p
	}
	return snap
}

// IsAuthenticated is shorthand for Snapshot().IsAuthenticated(). The answer
// is provisional until hydration completes.
func (c *Client) IsAuthenticated() bool {
	return c.Snapshot().IsAuthenticated()
}

// SetSession installs principal and tokens as the authenticated session and
// persists them. A storage failure leaves the in-memory session installed
// and is returned for the caller to surface.
func (c *Client) SetSession(ctx context.Context, principal Principal, tokens TokenPair) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}

	c.mu.Lock()
	p := principal
	c.phase = PhaseAuthenticated
	c.principal = &p
	c.tokens = tokens
	c.lastErr = nil
	c.mu.Unlock()

	if err := c.persist(ctx, principal, tokens); err != nil {
		c.logger.Warn("session persist failed", zap.Error(err))
		return err
	}
	return nil
}

// Clear transitions to Unauthenticated and purges durable storage. The
// in-memory state is always cleared; a storage purge failure is returned
// after the fact.
func (c *Client) Clear(ctx context.Context) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}

	c.mu.Lock()
	c.phase = PhaseUnauthenticated
	c.principal = nil
	c.tokens = TokenPair{}
	c.lastErr = nil
	c.mu.Unlock()

	c.metrics.Inc(metrics.MetricSessionCleared)

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("session storage purge failed", zap.Error(err))
		return err
	}
	return nil
}

// MetricsSnapshot returns a copy of the in-process counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{}
	}
	return c.metrics.Snapshot()
}

func (c *Client) persist(ctx context.Context, principal Principal, tokens TokenPair) error {
	return c.store.Save(ctx, &storage.State{
		User: storage.User{
			ID:     principal.ID,
			Name:   principal.Name,
			Email:  principal.Email,
			Role:   principal.Role.String(),
			Avatar: principal.Avatar,
		},
		AccessToken:   tokens.AccessToken,
		RefreshToken:  tokens.RefreshToken,
		Role:          principal.Role.String(),
		Authenticated: true,
	})
}
