package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authkit "github.com/flowzz/authkit"
)

func snapshot(phase authkit.Phase, hydration authkit.Hydration, role authkit.Role) authkit.SessionSnapshot {
	snap := authkit.SessionSnapshot{Phase: phase, Hydration: hydration}
	if phase == authkit.PhaseAuthenticated {
		snap.Principal = &authkit.Principal{
			ID:    "u1",
			Email: "someone@flowzz.com.br",
			Role:  role,
		}
		snap.Tokens = authkit.TokenPair{AccessToken: "a", RefreshToken: "r"}
	}
	return snap
}

func TestDecideMatrix(t *testing.T) {
	cases := []struct {
		name       string
		snap       authkit.SessionSnapshot
		validating bool
		required   authkit.Role
		want       Outcome
	}{
		{"not hydrated", snapshot(authkit.PhaseAuthenticated, authkit.HydrationNotStarted, authkit.RoleAdmin), false, authkit.RoleUser, OutcomeLoading},
		{"hydration in flight", snapshot(authkit.PhaseAuthenticated, authkit.HydrationInProgress, authkit.RoleAdmin), false, authkit.RoleUser, OutcomeLoading},
		{"validation in flight", snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleAdmin), true, authkit.RoleUser, OutcomeLoading},
		{"unauthenticated", snapshot(authkit.PhaseUnauthenticated, authkit.HydrationDone, 0), false, authkit.RoleUser, OutcomeLoginPrompt},
		{"errored sign-in", snapshot(authkit.PhaseError, authkit.HydrationDone, 0), false, authkit.RoleUser, OutcomeLoginPrompt},

		{"user view admits user", snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleUser), false, authkit.RoleUser, OutcomeRender},
		{"user view admits admin", snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleAdmin), false, authkit.RoleUser, OutcomeRender},
		{"user view admits super admin", snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleSuperAdmin), false, authkit.RoleUser, OutcomeRender},
		{"admin view admits user", snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleUser), false, authkit.RoleAdmin, OutcomeRender},
		{"admin view admits admin", snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleAdmin), false, authkit.RoleAdmin, OutcomeRender},
		{"super admin view rejects user", snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleUser), false, authkit.RoleSuperAdmin, OutcomeForbidden},
		{"super admin view rejects admin", snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleAdmin), false, authkit.RoleSuperAdmin, OutcomeForbidden},
		{"super admin view admits super admin", snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleSuperAdmin), false, authkit.RoleSuperAdmin, OutcomeRender},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.snap, tc.validating, tc.required); got != tc.want {
				t.Fatalf("Decide = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecideNeverDecidesBeforeHydration(t *testing.T) {
	// An authenticated-looking snapshot that has not been hydrated must not
	// leak a Render or Forbidden decision.
	snap := snapshot(authkit.PhaseAuthenticated, authkit.HydrationNotStarted, authkit.RoleSuperAdmin)
	for _, required := range []authkit.Role{authkit.RoleUser, authkit.RoleAdmin, authkit.RoleSuperAdmin} {
		if got := Decide(snap, false, required); got != OutcomeLoading {
			t.Fatalf("Decide(required=%v) = %v, want loading", required, got)
		}
	}
}

// scriptedClient satisfies SessionClient with canned responses.
type scriptedClient struct {
	snap        authkit.SessionSnapshot
	hydrateErr  error
	validateOK  bool
	validateErr error

	hydrateCalls  int
	validateCalls int
	logoutCalls   int
}

func (s *scriptedClient) Snapshot() authkit.SessionSnapshot { return s.snap }

func (s *scriptedClient) Hydrate(context.Context) error {
	s.hydrateCalls++
	if s.hydrateErr != nil {
		return s.hydrateErr
	}
	if s.snap.Hydration != authkit.HydrationDone {
		s.snap.Hydration = authkit.HydrationDone
	}
	return nil
}

func (s *scriptedClient) Validate(context.Context) (bool, error) {
	s.validateCalls++
	return s.validateOK, s.validateErr
}

func (s *scriptedClient) Logout(context.Context) error {
	s.logoutCalls++
	s.snap = authkit.SessionSnapshot{Phase: authkit.PhaseUnauthenticated, Hydration: authkit.HydrationDone}
	return nil
}

func TestCheckHydratesThenValidatesThenDecides(t *testing.T) {
	sc := &scriptedClient{
		snap:       snapshot(authkit.PhaseAuthenticated, authkit.HydrationNotStarted, authkit.RoleAdmin),
		validateOK: true,
	}
	g := New(sc, authkit.RoleUser)

	outcome, err := g.Check(context.Background())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if outcome != OutcomeRender {
		t.Fatalf("outcome = %v, want render", outcome)
	}
	if sc.hydrateCalls != 1 || sc.validateCalls != 1 {
		t.Fatalf("hydrate=%d validate=%d, want 1/1", sc.hydrateCalls, sc.validateCalls)
	}
}

func TestCheckSurfacesTransientErrorWithOutcome(t *testing.T) {
	transient := errors.New("backend unreachable")
	sc := &scriptedClient{
		snap:        snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleAdmin),
		validateErr: transient,
	}
	g := New(sc, authkit.RoleUser)

	outcome, err := g.Check(context.Background())
	if !errors.Is(err, transient) {
		t.Fatalf("err = %v, want the transient error", err)
	}
	// The held session still renders; the error is a retryable banner.
	if outcome != OutcomeRender {
		t.Fatalf("outcome = %v, want render with stale session", outcome)
	}
}

func TestCheckCanceledHydrationStaysLoading(t *testing.T) {
	sc := &scriptedClient{
		snap:       snapshot(authkit.PhaseAuthenticated, authkit.HydrationNotStarted, authkit.RoleAdmin),
		hydrateErr: context.Canceled,
	}
	g := New(sc, authkit.RoleUser)

	outcome, err := g.Check(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if outcome != OutcomeLoading {
		t.Fatalf("outcome = %v, want loading", outcome)
	}
	if sc.validateCalls != 0 {
		t.Fatal("validate ran before hydration completed")
	}
}

func TestGuardLogoutAffordance(t *testing.T) {
	sc := &scriptedClient{
		snap: snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleAdmin),
	}
	g := New(sc, authkit.RoleSuperAdmin)

	if outcome, _ := g.Check(context.Background()); outcome != OutcomeForbidden {
		t.Fatalf("outcome = %v, want forbidden", outcome)
	}
	if err := g.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if sc.logoutCalls != 1 {
		t.Fatalf("logout called %d times, want 1", sc.logoutCalls)
	}
	if outcome, _ := g.Check(context.Background()); outcome != OutcomeLoginPrompt {
		t.Fatalf("outcome after logout = %v, want login prompt", outcome)
	}
}

func TestMiddlewareStatusMapping(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name     string
		client   *scriptedClient
		required authkit.Role
		want     int
	}{
		{
			"render passes through",
			&scriptedClient{snap: snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleAdmin), validateOK: true},
			authkit.RoleUser,
			http.StatusOK,
		},
		{
			"forbidden maps to 403",
			&scriptedClient{snap: snapshot(authkit.PhaseAuthenticated, authkit.HydrationDone, authkit.RoleAdmin), validateOK: true},
			authkit.RoleSuperAdmin,
			http.StatusForbidden,
		},
		{
			"unauthenticated maps to 401",
			&scriptedClient{snap: snapshot(authkit.PhaseUnauthenticated, authkit.HydrationDone, 0)},
			authkit.RoleUser,
			http.StatusUnauthorized,
		},
		{
			"loading maps to 503",
			&scriptedClient{
				snap:       snapshot(authkit.PhaseAuthenticated, authkit.HydrationNotStarted, authkit.RoleAdmin),
				hydrateErr: context.Canceled,
			},
			authkit.RoleUser,
			http.StatusServiceUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := Protect(tc.client, tc.required)(next)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
