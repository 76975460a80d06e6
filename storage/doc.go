// Package storage persists the session blob across process restarts. The
// blob layout is a public contract shared with the other Flowzz clients:
//
//	{
//	  "state": {
//	    "user": {"id", "name", "email", "role", "avatar"},
//	    "token": "<accessToken>",
//	    "refreshToken": "<refreshToken>",
//	    "role": "ADMIN",
//	    "isAuthenticated": true
//	  },
//	  "version": 1
//	}
//
// Decoding is strict about integrity, not about content: a blob that fails
// to parse, carries an unknown schema version, or claims authentication
// without tokens is reported as ErrCorrupt, which hydration treats as "no
// session". Writes are single-writer by construction (only the owning
// Client saves or clears); cross-tab/cross-process write coordination is
// explicitly out of scope.
package storage
