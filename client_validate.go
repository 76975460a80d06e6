package authkit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/flowzz/authkit/internal/api"
	"github.com/flowzz/authkit/internal/flows"
	"github.com/flowzz/authkit/internal/metrics"
	"github.com/flowzz/authkit/internal/token"
)

// Validate checks whether the held access token is still good, refreshing
// it transparently at most once. Hydrate must have completed first.
//
// Outcomes:
//   - (true, nil): the session is valid; principal fields were refreshed
//     from the introspection response.
//   - (false, nil): no session is held, or the refresh token was rejected
//     and the session has been cleared.
//   - (false, ErrServiceUnavailable): the backend was unreachable. The
//     session is kept; a later call should retry.
//   - (false, ErrNotHydrated): called before Hydrate completed.
//
// Overlapping calls coalesce into one flight and share its outcome; a
// caller whose context is canceled returns early without the store ever
// being mutated on its behalf.
func (c *Client) Validate(ctx context.Context) (bool, error) {
	if c == nil || c.api == nil {
		return false, ErrClientNotReady
	}

	snap := c.Snapshot()
	if !snap.Hydrated() {
		return false, ErrNotHydrated
	}
	if !snap.IsAuthenticated() {
		c.metrics.Inc(metrics.MetricValidateUnauthenticated)
		return false, nil
	}

	type outcome struct {
		ok  bool
		err error
	}

	ch := c.validateGroup.DoChan("validate", func() (any, error) {
		ok, err := c.runValidate(ctx)
		return outcome{ok: ok, err: err}, nil
	})

	select {
	case res := <-ch:
		out := res.Val.(outcome)
		return out.ok, out.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Client) runValidate(ctx context.Context) (bool, error) {
	// Re-read under the flight: a coalesced caller may observe tokens
	// installed after its own snapshot was taken.
	snap := c.Snapshot()
	if !snap.IsAuthenticated() {
		return false, nil
	}

	deps := flows.ValidateDeps{
		AccessToken:  snap.Tokens.AccessToken,
		RefreshToken: snap.Tokens.RefreshToken,
		ExpiringSoon: func(access string) bool {
			return token.ExpiringWithin(access, c.config.Refresh.ProactiveWindow)
		},
		Introspect: func(ctx context.Context, access string) (flows.PrincipalRecord, error) {
			p, err := c.api.Me(ctx, access)
			if err != nil {
				return flows.PrincipalRecord{}, err
			}
			return flows.PrincipalRecord{
				ID:     p.ID,
				Name:   p.Name,
				Email:  p.Email,
				Role:   p.Role,
				Avatar: p.Avatar,
			}, nil
		},
		Refresh:       c.coalescedRefresh,
		InstallTokens: func(pair flows.TokenPairRecord) error { return c.installTokens(ctx, pair) },
		IsAuthError:   func(err error) bool { return errors.Is(err, api.ErrUnauthorized) },
	}

	result := flows.RunValidate(ctx, deps)

	switch result.Outcome {
	case flows.ValidateUnauthenticated:
		c.metrics.Inc(metrics.MetricValidateUnauthenticated)
		return false, nil

	case flows.ValidateOK, flows.ValidateRefreshed:
		c.adoptPrincipal(ctx, result.Principal)
		c.metrics.Inc(metrics.MetricValidateSuccess)
		return true, nil

	case flows.ValidateSessionExpired:
		c.metrics.Inc(metrics.MetricSessionExpired)
		c.logger.Info("refresh rejected, clearing session", zap.Error(result.Err))
		if err := c.Clear(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("clearing expired session failed", zap.Error(err))
		}
		// Recorded on the snapshot so the login surface can say why the
		// session ended; the call itself resolves cleanly.
		c.mu.Lock()
		c.lastErr = ErrSessionExpired
		c.mu.Unlock()
		return false, nil

	default: // flows.ValidateTransient
		c.metrics.Inc(metrics.MetricValidateTransient)
		return false, fmt.Errorf("%w: %v", ErrServiceUnavailable, result.Err)
	}
}

// coalescedRefresh issues at most one refresh call at a time per Client.
// Concurrent callers share the winner's result, which matters because the
// backend rotates refresh tokens: a second concurrent call would present
// an already-consumed token and be rejected.
func (c *Client) coalescedRefresh(ctx context.Context, refreshToken string) (flows.TokenPairRecord, error) {
	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		pair, err := c.api.Refresh(ctx, refreshToken)
		if err != nil {
			c.metrics.Inc(metrics.MetricRefreshFailure)
			return flows.TokenPairRecord{}, err
		}
		c.metrics.Inc(metrics.MetricRefreshSuccess)
		return flows.TokenPairRecord{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.Inc(metrics.MetricRefreshCoalesced)
		}
		if res.Err != nil {
			return flows.TokenPairRecord{}, res.Err
		}
		return res.Val.(flows.TokenPairRecord), nil
	case <-ctx.Done():
		// Not an auth error: the caller went away, the token did not fail.
		return flows.TokenPairRecord{}, ctx.Err()
	}
}

// installTokens swaps the rotated pair into the live session and persists
// it. Persist failures are logged, not returned: the rotated pair is the
// only valid credential now, so the in-memory install must stand.
func (c *Client) installTokens(ctx context.Context, pair flows.TokenPairRecord) error {
	c.mu.Lock()
	var principal Principal
	havePrincipal := c.principal != nil
	if havePrincipal {
		principal = *c.principal
	}
	c.tokens = TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	c.mu.Unlock()

	if !havePrincipal {
		return nil
	}
	if err := c.persist(ctx, principal, TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}); err != nil {
		c.logger.Warn("persisting rotated tokens failed", zap.Error(err))
	}
	return nil
}

// adoptPrincipal folds refreshed principal fields from the introspection
// response into the session. An unknown role keeps the previous principal:
// a stale-but-valid view beats admitting a role this build cannot gate.
func (c *Client) adoptPrincipal(ctx context.Context, rec flows.PrincipalRecord) {
	role, err := ParseRole(rec.Role)
	if err != nil {
		c.logger.Warn("introspection returned unknown role", zap.String("role", rec.Role))
		return
	}

	c.mu.Lock()
	if c.phase != PhaseAuthenticated {
		c.mu.Unlock()
		return
	}
	p := Principal{
		ID:     rec.ID,
		Name:   rec.Name,
		Email:  rec.Email,
		Role:   role,
		Avatar: rec.Avatar,
	}
	changed := c.principal == nil || *c.principal != p
	c.principal = &p
	tokens := c.tokens
	c.mu.Unlock()

	if changed {
		if err := c.persist(ctx, p, tokens); err != nil {
			c.logger.Warn("persisting refreshed principal failed", zap.Error(err))
		}
	}
}
