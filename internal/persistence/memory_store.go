package persistence

import (
	"context"
	"maps"
	"sync"

	"github.com/petrijr/formic/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe SessionStore backed by a map.
// Sessions do not survive a process restart; use the SQLite or Redis store
// for durability.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*api.SessionState
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*api.SessionState),
	}
}

// Ensure InMemoryStore implements the interface.
var _ SessionStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveSession(ctx context.Context, id string, st *api.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy so later caller-side mutation cannot bypass the store.
	s.sessions[id] = copyState(st)
	return nil
}

func (s *InMemoryStore) GetSession(ctx context.Context, id string) (*api.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copyState(st), nil
}

func (s *InMemoryStore) ClearSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *InMemoryStore) ListSessions(ctx context.Context, filter SessionFilter) ([]api.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []api.SessionRecord
	for id, st := range s.sessions {
		if filter.SchemaName != "" && st.SchemaName != filter.SchemaName {
			continue
		}
		result = append(result, api.SessionRecord{SessionID: id, State: copyState(st)})
	}
	return result, nil
}

func copyState(st *api.SessionState) *api.SessionState {
	cp := &api.SessionState{
		SchemaName: st.SchemaName,
		FieldIndex: st.FieldIndex,
		Values:     map[string]any{},
	}
	maps.Copy(cp.Values, st.Values)
	return cp
}
