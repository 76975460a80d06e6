package authkit

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"go.uber.org/zap"

	"github.com/flowzz/authkit/internal/api"
	"github.com/flowzz/authkit/internal/metrics"
)

// Login exchanges an email/password pair for a principal and token pair.
// It mutates no shared state; install the result with SetSession, or use
// SignIn for both steps.
//
// Malformed input and backend rejection both surface as
// ErrInvalidCredentials so callers cannot distinguish an unknown email
// from a wrong password. Transport and 5xx failures surface as
// ErrServiceUnavailable.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if c == nil || c.api == nil {
		return LoginResult{}, ErrClientNotReady
	}

	if !validEmailAddress(email) || password == "" {
		c.metrics.Inc(metrics.MetricLoginFailure)
		return LoginResult{}, ErrInvalidCredentials
	}

	wireUser, wirePair, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.metrics.Inc(metrics.MetricLoginFailure)
		if errors.Is(err, api.ErrUnauthorized) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	role, err := ParseRole(wireUser.Role)
	if err != nil {
		// A principal with a role this build does not know cannot pass any
		// guard; reject at the boundary instead of admitting it later.
		c.metrics.Inc(metrics.MetricLoginFailure)
		c.logger.Warn("login returned unknown role", zap.String("role", wireUser.Role))
		return LoginResult{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if wirePair.AccessToken == "" || wirePair.RefreshToken == "" {
		c.metrics.Inc(metrics.MetricLoginFailure)
		return LoginResult{}, fmt.Errorf("%w: login response missing tokens", ErrServiceUnavailable)
	}

	c.metrics.Inc(metrics.MetricLoginSuccess)
	return LoginResult{
		Principal: Principal{
			ID:     wireUser.ID,
			Name:   wireUser.Name,
			Email:  wireUser.Email,
			Role:   role,
			Avatar: wireUser.Avatar,
		},
		Tokens: TokenPair{
			AccessToken:  wirePair.AccessToken,
			RefreshToken: wirePair.RefreshToken,
		},
	}, nil
}

// SignIn runs Login and installs the result. While the exchange is in
// flight the session shows PhaseAuthenticating, unless a session is
// already installed: a failed sign-in attempt never disturbs an existing
// authenticated session.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	if c == nil || c.api == nil {
		return ErrClientNotReady
	}

	c.mu.Lock()
	prev := c.phase
	if prev != PhaseAuthenticated {
		c.phase = PhaseAuthenticating
		c.lastErr = nil
	}
	c.mu.Unlock()

	result, err := c.Login(ctx, email, password)
	if err != nil {
		c.mu.Lock()
		if c.phase == PhaseAuthenticating {
			c.phase = PhaseError
			c.lastErr = err
		}
		c.mu.Unlock()
		return err
	}

	return c.SetSession(ctx, result.Principal, result.Tokens)
}

// validEmailAddress accepts only a bare RFC 5322 address. Display-name
// forms ("Ana <ana@flowzz.com.br>") are rejected: the login form submits
// the address alone.
func validEmailAddress(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
