package authkit_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	authkit "github.com/flowzz/authkit"
	"github.com/flowzz/authkit/authtest"
	"github.com/flowzz/authkit/guard"
	"github.com/flowzz/authkit/storage"
)

const (
	adminEmail    = "admin@flowzz.com.br"
	adminPassword = "correct-horse-battery"
)

func newStack(t *testing.T, store storage.Store) (*authtest.Server, *authkit.Client) {
	t.Helper()

	srv := authtest.NewServer()
	t.Cleanup(srv.Close)
	srv.Seed("Ana Admin", adminEmail, adminPassword, "ADMIN")

	if store == nil {
		store = storage.NewMemoryStore()
	}
	client, err := authkit.New().WithBaseURL(srv.URL()).WithStorage(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return srv, client
}

// An ADMIN principal walks the full lifecycle: sign-in, an admin view
// renders, the elevated view is refused with a logout affordance, logout
// drops back to the login prompt.
func TestAdminLifecycleAcrossGuards(t *testing.T) {
	_, client := newStack(t, nil)
	ctx := context.Background()

	adminView := guard.New(client, authkit.RoleAdmin)
	elevatedView := guard.New(client, authkit.RoleSuperAdmin)

	// Before sign-in both views prompt for login.
	if outcome, err := adminView.Check(ctx); err != nil || outcome != guard.OutcomeLoginPrompt {
		t.Fatalf("pre-login admin view = (%v, %v), want login prompt", outcome, err)
	}

	if err := client.SignIn(ctx, adminEmail, adminPassword); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if outcome, err := adminView.Check(ctx); err != nil || outcome != guard.OutcomeRender {
		t.Fatalf("admin view = (%v, %v), want render", outcome, err)
	}
	if outcome, err := elevatedView.Check(ctx); err != nil || outcome != guard.OutcomeForbidden {
		t.Fatalf("elevated view = (%v, %v), want forbidden", outcome, err)
	}

	// Forbidden offers logout; after it every view prompts for login again.
	if err := elevatedView.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if outcome, err := adminView.Check(ctx); err != nil || outcome != guard.OutcomeLoginPrompt {
		t.Fatalf("post-logout admin view = (%v, %v), want login prompt", outcome, err)
	}
}

// A process restart with an expired access token restores the session from
// storage and rotates tokens transparently on the first guarded check.
func TestRestartRestoresAndRefreshesTransparently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	srv, first := newStack(t, storage.NewFileStore(path))
	srv.SetAccessTTL(-time.Minute)
	if err := first.SignIn(ctx, adminEmail, adminPassword); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	srv.SetAccessTTL(15 * time.Minute)

	// Second client, same blob, same backend.
	second, err := authkit.New().WithBaseURL(srv.URL()).WithStorage(storage.NewFileStore(path)).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	view := guard.New(second, authkit.RoleAdmin)
	if outcome, err := view.Check(ctx); err != nil || outcome != guard.OutcomeRender {
		t.Fatalf("restored view = (%v, %v), want render", outcome, err)
	}
	if srv.LoginCalls() != 1 {
		t.Fatalf("login called %d times; restore must not re-authenticate", srv.LoginCalls())
	}
	if srv.RefreshCalls() != 1 {
		t.Fatalf("refresh called %d times, want 1", srv.RefreshCalls())
	}

	snap := second.MetricsSnapshot()
	if snap.Value(authkit.MetricHydrationRestored) != 1 {
		t.Fatal("hydration restore not counted")
	}
	if snap.Value(authkit.MetricRefreshSuccess) != 1 {
		t.Fatal("refresh success not counted")
	}
}
