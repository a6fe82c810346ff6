package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/petrijr/formic/pkg/api"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := NewSQLiteSessionStore(openTestDB(t))
	require.NoError(t, err)

	runSessionStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	store, err := NewSQLiteSessionStore(db)
	require.NoError(t, err)

	st := &api.SessionState{
		SchemaName: "Signup",
		FieldIndex: 1,
		Values:     map[string]any{"name": "Alice"},
	}
	require.NoError(t, store.SaveSession(ctx, "s1", st))

	// A second store over the same database sees the session; initSchema
	// must not clobber existing rows.
	store2, err := NewSQLiteSessionStore(db)
	require.NoError(t, err)

	got, err := store2.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, got.FieldIndex)
	require.Equal(t, "Alice", got.Values["name"])
}

func TestSQLiteStore_EmptyValues(t *testing.T) {
	ctx := context.Background()

	store, err := NewSQLiteSessionStore(openTestDB(t))
	require.NoError(t, err)

	st := &api.SessionState{SchemaName: "Signup", FieldIndex: 0, Values: map[string]any{}}
	require.NoError(t, store.SaveSession(ctx, "s1", st))

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got.Values)
	require.Empty(t, got.Values)
}
