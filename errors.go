package authkit

import "errors"

var (
	// ErrInvalidCredentials is returned by Login and SignIn for a rejected
	// email/password pair. The same error covers unknown email, wrong
	// password, and malformed input, so callers cannot learn which part
	// was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrServiceUnavailable marks a transient transport or backend failure.
	// It never clears a session; callers should surface a retryable error.
	ErrServiceUnavailable = errors.New("auth backend unavailable")
	// ErrSessionExpired is reported when the refresh token was rejected and
	// the session has been cleared.
	ErrSessionExpired = errors.New("session expired")
	// ErrForbidden marks a role mismatch on a guarded resource.
	ErrForbidden = errors.New("forbidden")
	// ErrCorruptState marks a persisted session blob that failed to decode.
	// Hydration converts it into "no session"; it is never fatal.
	ErrCorruptState = errors.New("corrupt persisted session state")
	// ErrNotHydrated is returned when a decision-making call runs before
	// Hydrate has completed.
	ErrNotHydrated = errors.New("session store not hydrated")
	// ErrClientNotReady is returned when a Client method is called on a nil
	// or incompletely built receiver.
	ErrClientNotReady = errors.New("client not initialized")
)
