package persistence

import (
	"context"
	"errors"

	"github.com/petrijr/formic/pkg/api"
)

// ErrSessionNotFound is returned when no session exists for an id.
var ErrSessionNotFound = errors.New("session not found")

// SessionFilter selects sessions from the store.
// An empty SchemaName means "no filter".
type SessionFilter struct {
	SchemaName string
}

// SessionStore handles storage of per-conversation form progress, keyed by
// session id. The store is the single source of truth between turns; the
// engine holds no session state in memory across calls.
//
// Implementations must be linearizable per key: a SaveSession observed by a
// later GetSession on the same id returns the saved state.
type SessionStore interface {
	// SaveSession upserts the state for a session id.
	SaveSession(ctx context.Context, id string, st *api.SessionState) error

	// GetSession returns the state for a session id, or ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (*api.SessionState, error)

	// ClearSession removes a session. Clearing an absent id is a no-op.
	ClearSession(ctx context.Context, id string) error

	// ListSessions returns sessions matching the filter, in no particular
	// order.
	ListSessions(ctx context.Context, filter SessionFilter) ([]api.SessionRecord, error)
}
