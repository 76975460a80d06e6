package authkit

import (
	"context"

	"go.uber.org/zap"

	"github.com/flowzz/authkit/internal/metrics"
)

// Logout ends the session. Local state and durable storage are cleared
// first; the backend revoke call is best-effort with its own short timeout
// and a failure never undoes the local logout. Calling Logout twice is
// equivalent to calling it once. Navigation back to an unauthenticated
// entry point is the caller's job.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}

	c.mu.Lock()
	access := c.tokens.AccessToken
	c.mu.Unlock()

	if err := c.Clear(ctx); err != nil {
		// In-memory state is already unauthenticated; only the durable
		// purge failed.
		c.logger.Warn("logout: storage purge failed", zap.Error(err))
	}

	if access != "" {
		revokeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.API.RevokeTimeout)
		defer cancel()
		if err := c.api.Logout(revokeCtx, access); err != nil {
			c.metrics.Inc(metrics.MetricRevokeFailed)
			c.logger.Debug("logout: server-side revoke failed", zap.Error(err))
		}
	}

	c.metrics.Inc(metrics.MetricLogout)
	return nil
}
