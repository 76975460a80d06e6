// Package guard decides whether a protected view may render, given the
// session state and a required role. The decision function is pure; the
// Guard type adds the hydrate-then-validate side effects and an net/http
// middleware for server-rendered surfaces.
package guard

import (
	"context"
	"net/http"

	authkit "github.com/flowzz/authkit"
)

// Outcome is the render path for a protected view.
type Outcome uint8

const (
	// OutcomeLoading: hydration or validation has not finished; render a
	// spinner, decide nothing.
	OutcomeLoading Outcome = iota
	// OutcomeLoginPrompt: no authenticated session; render the login form.
	OutcomeLoginPrompt
	// OutcomeForbidden: authenticated but the role does not meet the
	// requirement; offer logout so the user can switch accounts.
	OutcomeForbidden
	// OutcomeRender: render the protected children.
	OutcomeRender
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeLoginPrompt:
		return "login-prompt"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeRender:
		return "render"
	default:
		return "outcome(?)"
	}
}

// Decide maps session state onto a render outcome. Rules, in order:
//
//  1. Not hydrated, or a validation still in flight: Loading. Forbidden
//     and Render are never produced from pre-hydration state.
//  2. Not authenticated: LoginPrompt.
//  3. Role not admitted by the requirement: Forbidden.
//  4. Otherwise: Render.
func Decide(snap authkit.SessionSnapshot, validating bool, required authkit.Role) Outcome {
	if !snap.Hydrated() || validating {
		return OutcomeLoading
	}
	if !snap.IsAuthenticated() || snap.Principal == nil {
		return OutcomeLoginPrompt
	}
	if !required.Admits(snap.Principal.Role) {
		return OutcomeForbidden
	}
	return OutcomeRender
}

// SessionClient is the slice of *authkit.Client a guard needs. Narrowed to
// an interface so view tests can substitute a scripted session.
type SessionClient interface {
	Snapshot() authkit.SessionSnapshot
	Hydrate(ctx context.Context) error
	Validate(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
}

// Guard gates one protected surface behind a required role.
type Guard struct {
	client   SessionClient
	required authkit.Role
}

// New returns a guard for the given requirement.
func New(client SessionClient, required authkit.Role) *Guard {
	return &Guard{client: client, required: required}
}

// Check awaits hydration and one validation, then decides. The returned
// error is only ever transient (backend unreachable, context canceled);
// the outcome still reflects the held session, so callers may render with
// stale principal data and surface the error as a retryable banner.
func (g *Guard) Check(ctx context.Context) (Outcome, error) {
	if g == nil || g.client == nil {
		return OutcomeLoginPrompt, nil
	}

	if err := g.client.Hydrate(ctx); err != nil {
		// Hydration only errors when ctx is canceled while waiting; the
		// decision stays Loading.
		return OutcomeLoading, err
	}

	_, verr := g.client.Validate(ctx)
	return Decide(g.client.Snapshot(), false, g.required), verr
}

// Logout is the account-switch affordance for Forbidden outcomes.
func (g *Guard) Logout(ctx context.Context) error {
	return g.client.Logout(ctx)
}

// Middleware wires the guard in front of an http.Handler: LoginPrompt maps
// to 401, Forbidden to 403, Loading (caller canceled mid-check) to 503,
// Render passes through.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome, _ := g.Check(r.Context())
		switch outcome {
		case OutcomeRender:
			next.ServeHTTP(w, r)
		case OutcomeForbidden:
			http.Error(w, authkit.ErrForbidden.Error(), http.StatusForbidden)
		case OutcomeLoading:
			http.Error(w, "session not ready", http.StatusServiceUnavailable)
		default:
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	})
}

// Protect is shorthand for New(client, required).Middleware.
func Protect(client SessionClient, required authkit.Role) func(http.Handler) http.Handler {
	g := New(client, required)
	return g.Middleware
}
