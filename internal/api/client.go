// Package api is the REST transport for the Flowzz auth endpoints. It maps
// HTTP outcomes onto two error classes: ErrUnauthorized for an explicit 401
// and ErrUnavailable for everything transient. Callers never see raw HTTP
// errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is the auth-class failure: the backend explicitly
	// rejected the presented credential with a 401.
	ErrUnauthorized = errors.New("credential rejected")
	// ErrUnavailable is the transient-class failure: network error, 5xx,
	// or an unreadable response body.
	ErrUnavailable = errors.New("backend unavailable")
)

const (
	loginPath   = "/api/v1/auth/login"
	mePath      = "/api/v1/auth/me"
	refreshPath = "/api/v1/auth/refresh"
	logoutPath  = "/api/v1/auth/logout"
)

// Principal is the wire shape of an authenticated user.
type Principal struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// TokenPair is the wire shape of an access+refresh credential pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Config wires a transport client.
type Config struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// Client performs the four auth calls. Safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New builds a Client. HTTPClient must be non-nil; the caller owns timeouts.
func New(cfg Config) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      cfg.HTTPClient,
	}
}

// Login exchanges an email/password pair for a principal and token pair.
func (c *Client) Login(ctx context.Context, email, password string) (Principal, TokenPair, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var envelope struct {
		Data struct {
			User   Principal `json:"user"`
			Tokens TokenPair `json:"tokens"`
		} `json:"data"`
		Message string `json:"message"`
	}

	if err := c.do(ctx, http.MethodPost, loginPath, "", body, &envelope); err != nil {
		return Principal{}, TokenPair{}, err
	}
	return envelope.Data.User, envelope.Data.Tokens, nil
}

// Me introspects the access token and returns the current principal.
func (c *Client) Me(ctx context.Context, accessToken string) (Principal, error) {
	var envelope struct {
		Data struct {
			User Principal `json:"user"`
		} `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, mePath, accessToken, nil, &envelope); err != nil {
		return Principal{}, err
	}
	return envelope.Data.User, nil
}

// Refresh exchanges the refresh token for a new pair. A 401 means the token
// is invalid, expired, or already used.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}

	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, refreshPath, "", body, &pair); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Logout asks the backend to revoke the session behind the access token.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, logoutPath, accessToken, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if ua := userAgentFromContext(ctx); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if id := requestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
