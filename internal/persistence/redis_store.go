package persistence

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/formic/pkg/api"
)

// RedisSessionStore is a SessionStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>sess:<id>            => gob-encoded redisSessionPayload
//	<prefix>idx:all              => SET of all session IDs
//	<prefix>idx:schema:<name>    => SET of session IDs for a given schema
//
// The indexes are best-effort; they are always updated on Save/Clear, and
// ListSessions filters by payload as well.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

var _ SessionStore = (*RedisSessionStore)(nil)

type redisSessionPayload struct {
	Schema     string
	FieldIndex int
	Collected  []byte
}

// NewRedisSessionStore creates a RedisSessionStore.
// prefix is optional but recommended (e.g. "formic:").
func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "formic:"
	}
	return &RedisSessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisSessionStore) keySession(id string) string {
	return s.prefix + "sess:" + id
}

func (s *RedisSessionStore) keyAll() string {
	return s.prefix + "idx:all"
}

func (s *RedisSessionStore) keySchema(name string) string {
	return s.prefix + "idx:schema:" + name
}

func encodeRedisPayload(st *api.SessionState) ([]byte, error) {
	collected, err := encodeValues(st.Values)
	if err != nil {
		return nil, err
	}

	payload := redisSessionPayload{
		Schema:     st.SchemaName,
		FieldIndex: st.FieldIndex,
		Collected:  collected,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRedisPayload(data []byte) (*api.SessionState, error) {
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}
	var payload redisSessionPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return nil, err
	}

	values, err := decodeValues(payload.Collected)
	if err != nil {
		return nil, err
	}

	return &api.SessionState{
		SchemaName: payload.Schema,
		FieldIndex: payload.FieldIndex,
		Values:     values,
	}, nil
}

func (s *RedisSessionStore) SaveSession(ctx context.Context, id string, st *api.SessionState) error {
	data, err := encodeRedisPayload(st)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.keySession(id), data, 0).Err(); err != nil {
		return err
	}

	// Update indexes (best-effort; we don't treat index failures as fatal)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.keyAll(), id)
	pipe.SAdd(ctx, s.keySchema(st.SchemaName), id)
	_, _ = pipe.Exec(ctx)

	return nil
}

func (s *RedisSessionStore) GetSession(ctx context.Context, id string) (*api.SessionState, error) {
	data, err := s.client.Get(ctx, s.keySession(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return decodeRedisPayload(data)
}

func (s *RedisSessionStore) ClearSession(ctx context.Context, id string) error {
	// Look the payload up first so the schema index can be cleaned too.
	// A concurrent clear between Get and Del just makes both no-ops.
	st, err := s.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keySession(id))
	pipe.SRem(ctx, s.keyAll(), id)
	pipe.SRem(ctx, s.keySchema(st.SchemaName), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisSessionStore) ListSessions(ctx context.Context, filter SessionFilter) ([]api.SessionRecord, error) {
	var ids []string
	var err error

	if filter.SchemaName != "" {
		ids, err = s.client.SMembers(ctx, s.keySchema(filter.SchemaName)).Result()
	} else {
		ids, err = s.client.SMembers(ctx, s.keyAll()).Result()
	}

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.keySession(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var records []api.SessionRecord
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Stale index entry; skip.
				continue
			}
			return nil, err
		}
		st, err := decodeRedisPayload(data)
		if err != nil {
			return nil, err
		}
		if filter.SchemaName != "" && st.SchemaName != filter.SchemaName {
			continue
		}
		records = append(records, api.SessionRecord{SessionID: ids[i], State: st})
	}

	return records, nil
}
