package authkit

import "fmt"

// Role is the closed set of principal roles recognized by Flowzz guards.
// The zero value is RoleUser.
type Role uint8

const (
	// RoleUser is an ordinary customer-app principal.
	RoleUser Role = iota
	// RoleAdmin is a tenant administrator.
	RoleAdmin
	// RoleSuperAdmin is the elevated platform operator role.
	RoleSuperAdmin

	roleCount
)

var roleNames = [roleCount]string{
	RoleUser:       "USER",
	RoleAdmin:      "ADMIN",
	RoleSuperAdmin: "SUPER_ADMIN",
}

// String returns the wire literal for the role ("USER", "ADMIN",
// "SUPER_ADMIN").
func (r Role) String() string {
	if r >= roleCount {
		return fmt.Sprintf("ROLE(%d)", uint8(r))
	}
	return roleNames[r]
}

// ParseRole maps a wire literal back to a Role. Unknown literals are an
// error; they must never be silently admitted by a guard.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if s == name {
			return Role(r), nil
		}
	}
	return RoleUser, fmt.Errorf("unknown role %q", s)
}

// roleAdmissions is the complete admission table for guarded views, keyed
// by the required role. Only the elevated role narrows access: USER- and
// ADMIN-level views admit any authenticated principal, SUPER_ADMIN views
// admit only SUPER_ADMIN. A role absent from a row is not admitted, so a
// role added without a matching table entry fails closed.
var roleAdmissions = map[Role]map[Role]bool{
	RoleUser: {
		RoleUser:       true,
		RoleAdmin:      true,
		RoleSuperAdmin: true,
	},
	RoleAdmin: {
		RoleUser:       true,
		RoleAdmin:      true,
		RoleSuperAdmin: true,
	},
	RoleSuperAdmin: {
		RoleSuperAdmin: true,
	},
}

// Admits reports whether a principal holding role p may access a view that
// requires r.
func (r Role) Admits(p Role) bool {
	return roleAdmissions[r][p]
}

// Principal is the authenticated actor bound to a session. It is replaced
// wholesale on re-login and never mutated in place.
type Principal struct {
	ID     string
	Name   string
	Email  string
	Role   Role
	Avatar string
}

// TokenPair carries the short-lived access token and the long-lived refresh
// token. Both are opaque bearer credentials from the client's point of view.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// IsZero reports whether the pair holds no credentials.
func (t TokenPair) IsZero() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Phase is the tagged session state.
type Phase uint8

const (
	// PhaseUnauthenticated means no session is held.
	PhaseUnauthenticated Phase = iota
	// PhaseAuthenticating means a credential exchange is in flight.
	PhaseAuthenticating
	// PhaseAuthenticated means a principal and token pair are installed.
	PhaseAuthenticated
	// PhaseError means the last sign-in attempt failed; see SessionSnapshot.Err.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Hydration is the three-valued readiness of the persisted-state load that
// runs once per process. Access decisions made before HydrationDone are a
// defect.
type Hydration uint8

const (
	// HydrationNotStarted means Hydrate has not been called.
	HydrationNotStarted Hydration = iota
	// HydrationInProgress means the storage read is in flight.
	HydrationInProgress
	// HydrationDone means persisted state has been loaded (or discarded).
	HydrationDone
)

func (h Hydration) String() string {
	switch h {
	case HydrationNotStarted:
		return "not-started"
	case HydrationInProgress:
		return "in-progress"
	case HydrationDone:
		return "done"
	default:
		return fmt.Sprintf("hydration(%d)", uint8(h))
	}
}

// SessionSnapshot is a point-in-time copy of the session state. Principal
// points at a private copy; callers may hold it across further Client calls.
type SessionSnapshot struct {
	Phase     Phase
	Hydration Hydration
	Principal *Principal
	Tokens    TokenPair
	Err       error
}

// Hydrated reports whether persisted state has been loaded.
func (s SessionSnapshot) Hydrated() bool {
	return s.Hydration == HydrationDone
}

// IsAuthenticated reports whether a session is installed. The answer is
// provisional until Hydrated returns true.
func (s SessionSnapshot) IsAuthenticated() bool {
	return s.Phase == PhaseAuthenticated
}

// LoginResult is returned by [Client.Login]. The caller decides whether to
// install it via [Client.SetSession]; Login itself mutates nothing.
type LoginResult struct {
	Principal Principal
	Tokens    TokenPair
}
