// Package authtest runs an in-process stand-in for the Flowzz auth backend.
// It implements the four REST contracts the client consumes — login,
// introspection, refresh, logout — with real signed access tokens and
// single-use rotating refresh tokens, so client behavior under expiry,
// rotation races, and outages can be exercised without a network.
package authtest

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type userRecord struct {
	id           string
	name         string
	email        string
	role         string
	avatar       string
	passwordHash []byte
}

type accessClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Server is the fake backend. All methods are safe for concurrent use.
type Server struct {
	mu          sync.Mutex
	users       map[string]*userRecord // keyed by email
	refresh     map[string]string      // refresh token -> user id, deleted on use
	unavailable bool

	loginCalls   int
	meCalls      int
	refreshCalls int
	logoutCalls  int

	secret    []byte
	accessTTL time.Duration

	ts *httptest.Server
}

// Option tweaks a Server under construction.
type Option func(*Server)

// WithAccessTTL overrides the access-token lifetime. A negative value
// issues already-expired tokens, which is how tests force the refresh path.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) { s.accessTTL = ttl }
}

// NewServer starts the fake backend on a local listener.
func NewServer(opts ...Option) *Server {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("authtest: secret generation failed: " + err.Error())
	}

	s := &Server{
		users:     make(map[string]*userRecord),
		refresh:   make(map[string]string),
		secret:    secret,
		accessTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("/api/v1/auth/me", s.handleMe)
	mux.HandleFunc("/api/v1/auth/refresh", s.handleRefresh)
	mux.HandleFunc("/api/v1/auth/logout", s.handleLogout)
	s.ts = httptest.NewServer(mux)

	return s
}

// URL returns the backend origin for Config.API.BaseURL.
func (s *Server) URL() string { return s.ts.URL }

// Close shuts the listener down.
func (s *Server) Close() { s.ts.Close() }

// Seed registers a user. MinCost keeps test suites fast; nothing here is a
// production credential.
func (s *Server) Seed(name, email, password, role string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic("authtest: seed hash failed: " + err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &userRecord{
		id:           uuid.NewString(),
		name:         name,
		email:        email,
		role:         role,
		passwordHash: hash,
	}
}

// SetName changes a seeded user's display name, so tests can watch
// introspection refresh principal fields.
func (s *Server) SetName(email, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.name = name
	}
}

// SetAccessTTL changes the lifetime of tokens issued from now on. Tests
// sign in under a negative TTL to hold an expired access token, then
// restore a positive TTL so the rotated tokens are usable.
func (s *Server) SetAccessTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTTL = ttl
}

// SetUnavailable toggles outage mode: every endpoint answers 503.
func (s *Server) SetUnavailable(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = v
}

// RevokeRefreshTokens invalidates every refresh token held for email, as a
// server-side admin revocation would.
func (s *Server) RevokeRefreshTokens(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return
	}
	for tok, uid := range s.refresh {
		if uid == u.id {
			delete(s.refresh, tok)
		}
	}
}

// LoginCalls reports how many login requests arrived.
func (s *Server) LoginCalls() int { s.mu.Lock(); defer s.mu.Unlock(); return s.loginCalls }

// MeCalls reports how many introspection requests arrived.
func (s *Server) MeCalls() int { s.mu.Lock(); defer s.mu.Unlock(); return s.meCalls }

// RefreshCalls reports how many refresh requests arrived.
func (s *Server) RefreshCalls() int { s.mu.Lock(); defer s.mu.Unlock(); return s.refreshCalls }

// LogoutCalls reports how many logout requests arrived.
func (s *Server) LogoutCalls() int { s.mu.Lock(); defer s.mu.Unlock(); return s.logoutCalls }

func (s *Server) issueTokensLocked(u userRecord) (access, refresh string) {
	now := time.Now()
	claims := accessClaims{
		Name:  u.name,
		Email: u.email,
		Role:  u.role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic("authtest: token signing failed: " + err.Error())
	}

	refresh = uuid.NewString()
	s.refresh[refresh] = u.id
	return signed, refresh
}

func (s *Server) parseAccess(r *http.Request) (userRecord, bool) {
	const bearer = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearer) {
		return userRecord{}, false
	}

	claims := &accessClaims{}
	tok, err := jwt.ParseWithClaims(header[len(bearer):], claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return userRecord{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.id == claims.Subject {
			return *u, true
		}
	}
	return userRecord{}, false
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.loginCalls++
	down := s.unavailable
	s.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if down {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	var u userRecord
	rec, ok := s.users[body.Email]
	if ok {
		u = *rec
	}
	s.mu.Unlock()
	// Same body for unknown email and wrong password.
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(body.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid email or password"})
		return
	}

	s.mu.Lock()
	access, refresh := s.issueTokensLocked(u)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"user": userJSON(u),
			"tokens": map[string]string{
				"accessToken":  access,
				"refreshToken": refresh,
			},
		},
		"message": "ok",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.meCalls++
	down := s.unavailable
	s.mu.Unlock()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if down {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	u, ok := s.parseAccess(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauthorized"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"user": userJSON(u)},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	down := s.unavailable
	s.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if down {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	uid, ok := s.refresh[body.RefreshToken]
	if !ok {
		s.mu.Unlock()
		// Unknown, expired, revoked, or already rotated: all the same 401.
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid refresh token"})
		return
	}
	delete(s.refresh, body.RefreshToken) // single use

	var u userRecord
	found := false
	for _, candidate := range s.users {
		if candidate.id == uid {
			u = *candidate
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid refresh token"})
		return
	}
	access, refresh := s.issueTokensLocked(u)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.logoutCalls++
	down := s.unavailable
	s.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if down {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	u, ok := s.parseAccess(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauthorized"})
		return
	}

	s.mu.Lock()
	for tok, uid := range s.refresh {
		if uid == u.id {
			delete(s.refresh, tok)
		}
	}
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func userJSON(u userRecord) map[string]any {
	out := map[string]any{
		"id":    u.id,
		"name":  u.name,
		"email": u.email,
		"role":  u.role,
	}
	if u.avatar != "" {
		out["avatar"] = u.avatar
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
