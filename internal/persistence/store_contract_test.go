package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/petrijr/formic/pkg/api"
)

// runSessionStoreContract exercises the SessionStore behavior every
// backend must provide.
func runSessionStoreContract(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.GetSession(ctx, "missing")
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("SaveGetRoundTrip", func(t *testing.T) {
		st := &api.SessionState{
			SchemaName: "Signup",
			FieldIndex: 1,
			Values: map[string]any{
				"name": "Alice",
				"age":  int64(30),
				"when": time.Date(2025, 12, 24, 18, 30, 0, 0, time.UTC),
				"photo": api.PhotoSize{
					FileID: "f-1", Width: 1280, Height: 720,
				},
			},
		}
		if err := store.SaveSession(ctx, "s1", st); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}

		got, err := store.GetSession(ctx, "s1")
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got.SchemaName != "Signup" || got.FieldIndex != 1 {
			t.Fatalf("unexpected state: %+v", got)
		}
		if got.Values["name"] != "Alice" {
			t.Fatalf("unexpected name: %v", got.Values["name"])
		}
		if got.Values["age"] != int64(30) {
			t.Fatalf("age lost its type: %v (%T)", got.Values["age"], got.Values["age"])
		}
		when, ok := got.Values["when"].(time.Time)
		if !ok || !when.Equal(time.Date(2025, 12, 24, 18, 30, 0, 0, time.UTC)) {
			t.Fatalf("time lost in round-trip: %v", got.Values["when"])
		}
		photo, ok := got.Values["photo"].(api.PhotoSize)
		if !ok || photo.FileID != "f-1" {
			t.Fatalf("photo lost in round-trip: %v", got.Values["photo"])
		}
	})

	t.Run("SaveIsUpsert", func(t *testing.T) {
		first := &api.SessionState{SchemaName: "Signup", FieldIndex: 0, Values: map[string]any{}}
		if err := store.SaveSession(ctx, "s2", first); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}

		second := &api.SessionState{
			SchemaName: "Signup",
			FieldIndex: 1,
			Values:     map[string]any{"name": "Bob"},
		}
		if err := store.SaveSession(ctx, "s2", second); err != nil {
			t.Fatalf("second SaveSession failed: %v", err)
		}

		got, err := store.GetSession(ctx, "s2")
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got.FieldIndex != 1 || got.Values["name"] != "Bob" {
			t.Fatalf("upsert lost data: %+v", got)
		}
	})

	t.Run("ClearIsIdempotent", func(t *testing.T) {
		st := &api.SessionState{SchemaName: "Signup", FieldIndex: 0, Values: map[string]any{}}
		if err := store.SaveSession(ctx, "s3", st); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}
		if err := store.ClearSession(ctx, "s3"); err != nil {
			t.Fatalf("ClearSession failed: %v", err)
		}
		if _, err := store.GetSession(ctx, "s3"); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected cleared session, got %v", err)
		}
		// Clearing again is a no-op.
		if err := store.ClearSession(ctx, "s3"); err != nil {
			t.Fatalf("second ClearSession failed: %v", err)
		}
	})

	t.Run("ListFiltersBySchema", func(t *testing.T) {
		if err := store.SaveSession(ctx, "l1", &api.SessionState{SchemaName: "A", Values: map[string]any{}}); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}
		if err := store.SaveSession(ctx, "l2", &api.SessionState{SchemaName: "B", Values: map[string]any{}}); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}

		records, err := store.ListSessions(ctx, SessionFilter{SchemaName: "A"})
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if len(records) != 1 || records[0].SessionID != "l1" {
			t.Fatalf("unexpected filtered result: %+v", records)
		}

		records, err = store.ListSessions(ctx, SessionFilter{})
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if len(records) < 2 {
			t.Fatalf("unfiltered list too short: %+v", records)
		}
	})
}
