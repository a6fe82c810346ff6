package persistence

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/petrijr/formic/pkg/api"
)

func init() {
	// Concrete types the default transformers can put into a session's
	// value map. gob needs these registered to move them through `any`.
	gob.Register(time.Time{})
	gob.Register(api.PhotoSize{})
	gob.Register(api.Document{})
	gob.Register(api.Message{})
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// RegisterValueType registers an additional concrete type for session value
// encoding. Applications whose custom transformers store their own struct
// types must call this once at startup, before any session is persisted.
func RegisterValueType(v any) {
	gob.Register(v)
}

// encodeValues serializes a session value map using encoding/gob, which
// keeps the concrete Go types (int64 stays int64, time.Time stays
// time.Time) across a store round-trip.
func encodeValues(values map[string]any) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeValues is the inverse of encodeValues. Empty input yields an empty,
// non-nil map so callers can index into it directly.
func decodeValues(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var values map[string]any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&values); err != nil {
		return nil, err
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}
