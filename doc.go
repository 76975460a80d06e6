// Package authkit implements the Flowzz session and access-control client:
// credential exchange, a durable token store with explicit hydration,
// transparent one-shot token refresh with request coalescing, and the
// session state consumed by role-gated access guards.
//
// The Flowzz backend is an external collaborator reached over four REST
// endpoints (login, introspection, refresh, logout). authkit never decides
// whether credentials are valid; it tracks what the backend last said and
// keeps that answer consistent across process restarts.
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Client], [Builder], [Config],
// and value types (Principal, TokenPair, SessionSnapshot). Transport, flow
// orchestration, token inspection, and metric counters live under internal/
// and are never exported. The guard subpackage consumes the public surface
// only.
//
// # What this package must NOT do
//
//   - Mutate the token store from a canceled caller. A validation whose
//     context is canceled leaves the session exactly as it found it.
//   - Treat an unreachable backend as a revoked session. Only an explicit
//     401 from the refresh endpoint evicts persisted tokens.
//   - Render an access decision before hydration completes. Consumers must
//     observe Hydration == HydrationDone before trusting IsAuthenticated.
//
// # Concurrency contract
//
// Client methods are safe for concurrent use after [Builder.Build].
// Overlapping Validate calls coalesce into a single flight, and token
// refresh is at-most-one-in-flight per Client regardless of how many
// guarded views detect an expired token at the same time.
package authkit
