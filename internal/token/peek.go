// Package token inspects access tokens without verifying them. The client
// treats tokens as opaque for authorization purposes; the only thing it
// ever reads locally is the expiry hint, to skip an introspection call that
// is guaranteed to come back 401.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiringWithin reports whether tok is a readable JWT whose exp claim
// falls inside window from now. Opaque tokens, unparseable tokens, and
// tokens without an exp claim report false: the server stays the authority.
func ExpiringWithin(tok string, window time.Duration) bool {
	if tok == "" || window <= 0 {
		return false
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tok, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}

	return time.Until(claims.ExpiresAt.Time) <= window
}
