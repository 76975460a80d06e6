package authkit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/flowzz/authkit/internal/metrics"
	"github.com/flowzz/authkit/storage"
)

// Hydrate loads persisted session state. It is idempotent: the first call
// performs the storage read, later calls return once that read has
// completed, and hydration reaches HydrationDone exactly once per Client
// regardless of outcome. A corrupt or unreadable blob degrades to "no
// session" and is additionally purged so the next start is clean; Hydrate
// itself only fails when ctx is canceled while waiting.
//
// A restored session is installed as Authenticated pending validation;
// callers should follow with Validate before trusting the tokens.
func (c *Client) Hydrate(ctx context.Context) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}

	c.mu.Lock()
	switch c.hydration {
	case HydrationDone:
		c.mu.Unlock()
		return nil
	case HydrationInProgress:
		done := c.hydrateDone
		c.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.hydration = HydrationInProgress
	done := make(chan struct{})
	c.hydrateDone = done
	c.mu.Unlock()

	state, loadErr := c.store.Load(ctx)
	restored, corrupt := c.applyHydration(state, loadErr)

	close(done)

	if corrupt {
		c.metrics.Inc(metrics.MetricHydrationCorrupt)
		if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("purging corrupt session blob failed", zap.Error(err))
		}
	}
	if restored {
		c.metrics.Inc(metrics.MetricHydrationRestored)
	}
	return nil
}

// applyHydration folds the storage read into the state machine and marks
// hydration done. It reports whether a session was restored and whether
// the blob was corrupt.
func (c *Client) applyHydration(state *storage.State, loadErr error) (restored, corrupt bool) {
	var (
		principal Principal
		tokens    TokenPair
	)

	switch {
	case loadErr == nil && state != nil && state.Authenticated:
		role, roleErr := ParseRole(state.Role)
		if roleErr != nil {
			corrupt = true
			c.logger.Warn("persisted session carries unknown role", zap.String("role", state.Role))
			break
		}
		principal = Principal{
			ID:     state.User.ID,
			Name:   state.User.Name,
			Email:  state.User.Email,
			Role:   role,
			Avatar: state.User.Avatar,
		}
		tokens = TokenPair{AccessToken: state.AccessToken, RefreshToken: state.RefreshToken}
		restored = true

	case loadErr == nil || errors.Is(loadErr, storage.ErrNotFound):
		// No session persisted, or an explicitly unauthenticated blob.

	case errors.Is(loadErr, storage.ErrCorrupt):
		corrupt = true
		c.logger.Warn("discarding corrupt session blob", zap.Error(loadErr))

	default:
		// Read failure (I/O, backend down). Treated as no session for this
		// process; the blob itself is left alone.
		c.logger.Warn("session storage read failed", zap.Error(loadErr))
	}

	c.mu.Lock()
	if restored {
		p := principal
		c.phase = PhaseAuthenticated
		c.principal = &p
		c.tokens = tokens
	}
	if corrupt {
		c.lastErr = ErrCorruptState
	}
	c.hydration = HydrationDone
	c.mu.Unlock()

	return restored, corrupt
}
