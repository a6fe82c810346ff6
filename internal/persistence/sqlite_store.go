package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/petrijr/formic/pkg/api"
)

// SQLiteSessionStore is a SessionStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteSessionStore struct {
	db *sql.DB
}

// Ensure SQLiteSessionStore implements SessionStore.
var _ SessionStore = (*SQLiteSessionStore)(nil)

// NewSQLiteSessionStore initializes the required schema in the given
// database and returns a new SQLiteSessionStore.
func NewSQLiteSessionStore(db *sql.DB) (*SQLiteSessionStore, error) {
	s := &SQLiteSessionStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSessionStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS form_sessions (
			session_id TEXT PRIMARY KEY,
			schema_name TEXT NOT NULL,
			field_index INTEGER NOT NULL,
			collected BLOB
		);`,
	)
	return err
}

func (s *SQLiteSessionStore) SaveSession(ctx context.Context, id string, st *api.SessionState) error {
	collected, err := encodeValues(st.Values)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO form_sessions (session_id, schema_name, field_index, collected)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			schema_name = excluded.schema_name,
			field_index = excluded.field_index,
			collected = excluded.collected`,
		id,
		st.SchemaName,
		st.FieldIndex,
		collected,
	)
	return err
}

func (s *SQLiteSessionStore) GetSession(ctx context.Context, id string) (*api.SessionState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT schema_name, field_index, collected
		FROM form_sessions
		WHERE session_id = ?`,
		id,
	)

	var st api.SessionState
	var collected []byte

	if err := row.Scan(&st.SchemaName, &st.FieldIndex, &collected); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	values, err := decodeValues(collected)
	if err != nil {
		return nil, err
	}
	st.Values = values

	return &st, nil
}

func (s *SQLiteSessionStore) ClearSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM form_sessions WHERE session_id = ?`, id)
	return err
}

func (s *SQLiteSessionStore) ListSessions(ctx context.Context, filter SessionFilter) ([]api.SessionRecord, error) {
	query := `
		SELECT session_id, schema_name, field_index, collected
		FROM form_sessions`
	var args []any
	var clauses []string

	if filter.SchemaName != "" {
		clauses = append(clauses, "schema_name = ?")
		args = append(args, filter.SchemaName)
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []api.SessionRecord

	for rows.Next() {
		var id string
		var st api.SessionState
		var collected []byte

		if err := rows.Scan(&id, &st.SchemaName, &st.FieldIndex, &collected); err != nil {
			return nil, err
		}

		values, err := decodeValues(collected)
		if err != nil {
			return nil, err
		}
		st.Values = values

		// Note: st is re-used each loop, so take a copy.
		copied := st
		records = append(records, api.SessionRecord{SessionID: id, State: &copied})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
