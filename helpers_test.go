package authkit

import (
	"context"
	"sync"
	"testing"

	"github.com/flowzz/authkit/authtest"
	"github.com/flowzz/authkit/storage"
)

const (
	adminEmail    = "admin@flowzz.com.br"
	adminPassword = "correct-horse-battery"
	userEmail     = "user@flowzz.com.br"
	userPassword  = "rio-de-janeiro-9"
	rootEmail     = "root@flowzz.com.br"
	rootPassword  = "platform-operator-7"
)

func newTestServer(t *testing.T, opts ...authtest.Option) *authtest.Server {
	t.Helper()

	srv := authtest.NewServer(opts...)
	t.Cleanup(srv.Close)

	srv.Seed("Ana Admin", adminEmail, adminPassword, "ADMIN")
	srv.Seed("Ugo User", userEmail, userPassword, "USER")
	srv.Seed("Rita Root", rootEmail, rootPassword, "SUPER_ADMIN")
	return srv
}

func newTestClient(t *testing.T, srv *authtest.Server, store storage.Store) *Client {
	t.Helper()

	if store == nil {
		store = storage.NewMemoryStore()
	}

	cfg := DefaultConfig()
	cfg.API.BaseURL = srv.URL()

	client, err := New().WithConfig(cfg).WithStorage(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return client
}

func signIn(t *testing.T, c *Client, email, password string) {
	t.Helper()

	ctx := context.Background()
	if err := c.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	if err := c.SignIn(ctx, email, password); err != nil {
		t.Fatalf("SignIn(%s) failed: %v", email, err)
	}
}

// countingStore counts Load calls so hydration tests can prove the storage
// read happens exactly once.
type countingStore struct {
	storage.Store

	mu    sync.Mutex
	loads int
}

func (s *countingStore) Load(ctx context.Context) (*storage.State, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return s.Store.Load(ctx)
}

func (s *countingStore) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}
