package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("peek-test"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	return tok
}

func expiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	return signedToken(t, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
}

func TestExpiringWithin(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name   string
		tok    string
		window time.Duration
		want   bool
	}{
		{"already expired", expiringAt(t, now.Add(-time.Minute)), 30 * time.Second, true},
		{"inside window", expiringAt(t, now.Add(10*time.Second)), 30 * time.Second, true},
		{"outside window", expiringAt(t, now.Add(time.Hour)), 30 * time.Second, false},
		{"empty token", "", 30 * time.Second, false},
		{"zero window", expiringAt(t, now.Add(-time.Minute)), 0, false},
		{"opaque token", "not-a-jwt-at-all", 30 * time.Second, false},
		{"no exp claim", signedToken(t, jwt.RegisteredClaims{Subject: "u1"}), 30 * time.Second, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExpiringWithin(tc.tok, tc.window); got != tc.want {
				t.Fatalf("ExpiringWithin = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExpiringWithinDoesNotRequireValidSignature(t *testing.T) {
	// The peek is unverified by design; a token signed with a key we do not
	// hold must still yield its expiry.
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("somebody-else's-key"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if !ExpiringWithin(tok, 30*time.Second) {
		t.Fatal("expired token not reported as expiring")
	}
}
