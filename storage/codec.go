package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion is the current persisted blob schema. Decode rejects every
// other version; a downgrade reading a future blob must fall back to "no
// session" rather than guess at the layout.
const SchemaVersion = 1

var (
	// ErrNotFound means no blob is persisted.
	ErrNotFound = errors.New("no persisted session")
	// ErrCorrupt means a blob exists but cannot be trusted.
	ErrCorrupt = errors.New("persisted session corrupt")
)

// User is the persisted principal shape.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// State is the decoded session blob.
type State struct {
	User          User
	AccessToken   string
	RefreshToken  string
	Role          string
	Authenticated bool
}

// Store is the durable backend behind a Client. Implementations must be
// safe for concurrent use; Load returns ErrNotFound or ErrCorrupt for the
// two non-fatal miss cases.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
	Clear(ctx context.Context) error
}

type persistedUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

type persistedState struct {
	User            persistedUser `json:"user"`
	Token           string        `json:"token"`
	RefreshToken    string        `json:"refreshToken"`
	Role            string        `json:"role"`
	IsAuthenticated bool          `json:"isAuthenticated"`
}

type persistedBlob struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

// Encode serializes state into the versioned blob layout.
func Encode(state *State) ([]byte, error) {
	if state == nil {
		return nil, errors.New("nil state")
	}
	blob := persistedBlob{
		State: persistedState{
			User: persistedUser{
				ID:     state.User.ID,
				Name:   state.User.Name,
				Email:  state.User.Email,
				Role:   state.User.Role,
				Avatar: state.User.Avatar,
			},
			Token:           state.AccessToken,
			RefreshToken:    state.RefreshToken,
			Role:            state.Role,
			IsAuthenticated: state.Authenticated,
		},
		Version: SchemaVersion,
	}
	return json.Marshal(blob)
}

// Decode parses a blob, enforcing schema version and internal consistency.
func Decode(raw []byte) (*State, error) {
	var blob persistedBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if blob.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d", ErrCorrupt, blob.Version)
	}
	if blob.State.IsAuthenticated && (blob.State.Token == "" || blob.State.RefreshToken == "") {
		return nil, fmt.Errorf("%w: authenticated state without tokens", ErrCorrupt)
	}

	return &State{
		User: User{
			ID:     blob.State.User.ID,
			Name:   blob.State.User.Name,
			Email:  blob.State.User.Email,
			Role:   blob.State.User.Role,
			Avatar: blob.State.User.Avatar,
		},
		AccessToken:   blob.State.Token,
		RefreshToken:  blob.State.RefreshToken,
		Role:          blob.State.Role,
		Authenticated: blob.State.IsAuthenticated,
	}, nil
}
