// Package flows holds the session lifecycle state machines as pure
// functions over injected dependencies. The root package owns the store,
// the transport, and the coalescing; flows own the ordering rules, so the
// retry-once-on-401 policy lives in exactly one place.
package flows

import "context"

// ValidateOutcome classifies a validation run for root-level mapping.
type ValidateOutcome uint8

const (
	// ValidateUnauthenticated: no access token was held; no network call made.
	ValidateUnauthenticated ValidateOutcome = iota
	// ValidateOK: the held access token introspected cleanly.
	ValidateOK
	// ValidateRefreshed: one refresh was performed and the retried
	// introspection succeeded.
	ValidateRefreshed
	// ValidateSessionExpired: the refresh token was rejected (or the retry
	// after a successful refresh was). The session must be cleared.
	ValidateSessionExpired
	// ValidateTransient: the backend was unreachable or failing. The
	// session must be kept.
	ValidateTransient
)

// PrincipalRecord is the flow-local principal shape.
type PrincipalRecord struct {
	ID     string
	Name   string
	Email  string
	Role   string
	Avatar string
}

// TokenPairRecord is the flow-local token pair shape.
type TokenPairRecord struct {
	AccessToken  string
	RefreshToken string
}

// ValidateDeps captures everything a validation run may touch.
type ValidateDeps struct {
	AccessToken  string
	RefreshToken string

	// ExpiringSoon short-circuits the first introspection when the access
	// token is known-expired locally. Optional.
	ExpiringSoon func(accessToken string) bool

	Introspect func(ctx context.Context, accessToken string) (PrincipalRecord, error)
	Refresh    func(ctx context.Context, refreshToken string) (TokenPairRecord, error)

	// InstallTokens persists a rotated pair before the retried
	// introspection, so a crash between the two never strands the session
	// on an already-consumed refresh token.
	InstallTokens func(pair TokenPairRecord) error

	// IsAuthError separates credential rejection from transient failure.
	IsAuthError func(err error) bool
}

// ValidateResult carries the outcome plus whatever the run produced.
type ValidateResult struct {
	Outcome   ValidateOutcome
	Principal PrincipalRecord
	Tokens    TokenPairRecord
	Refreshed bool
	Err       error
}

// RunValidate executes the introspect / refresh-once / retry-once machine.
// It performs at most one refresh and at most two introspections.
func RunValidate(ctx context.Context, deps ValidateDeps) ValidateResult {
	if deps.AccessToken == "" {
		return ValidateResult{Outcome: ValidateUnauthenticated}
	}

	if deps.ExpiringSoon == nil || !deps.ExpiringSoon(deps.AccessToken) {
		principal, err := deps.Introspect(ctx, deps.AccessToken)
		if err == nil {
			return ValidateResult{Outcome: ValidateOK, Principal: principal}
		}
		if !deps.IsAuthError(err) {
			return ValidateResult{Outcome: ValidateTransient, Err: err}
		}
		// 401: fall through to the single transparent refresh.
	}

	pair, err := deps.Refresh(ctx, deps.RefreshToken)
	if err != nil {
		if deps.IsAuthError(err) {
			return ValidateResult{Outcome: ValidateSessionExpired, Err: err}
		}
		return ValidateResult{Outcome: ValidateTransient, Err: err}
	}

	if deps.InstallTokens != nil {
		if err := deps.InstallTokens(pair); err != nil {
			return ValidateResult{Outcome: ValidateTransient, Tokens: pair, Refreshed: true, Err: err}
		}
	}

	principal, err := deps.Introspect(ctx, pair.AccessToken)
	if err != nil {
		if deps.IsAuthError(err) {
			return ValidateResult{Outcome: ValidateSessionExpired, Tokens: pair, Refreshed: true, Err: err}
		}
		return ValidateResult{Outcome: ValidateTransient, Tokens: pair, Refreshed: true, Err: err}
	}

	return ValidateResult{
		Outcome:   ValidateRefreshed,
		Principal: principal,
		Tokens:    pair,
		Refreshed: true,
	}
}
