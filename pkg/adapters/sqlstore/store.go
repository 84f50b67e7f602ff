// Package sqlstore implements ports.SessionStore on database/sql, with SQLite
// (modernc.org/sqlite, pure Go) and PostgreSQL (pgx stdlib) drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/canvass/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps a user supplied name to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(s) {
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", s)
	}
}

// Open opens a DB and ensures the sessions table exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = "file:canvass.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/canvass?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// SQLite serializes writers; a single connection avoids SQLITE_BUSY under load.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Both dialects accept this DDL.
const schema = `
CREATE TABLE IF NOT EXISTS canvass_sessions (
  survey_id  TEXT NOT NULL,
  session_id TEXT NOT NULL,
  status     TEXT NOT NULL,
  cursor_id  TEXT NOT NULL DEFAULT '',
  version    INTEGER NOT NULL DEFAULT 0,
  state_json TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (survey_id, session_id)
)`

// Store implements ports.SessionStore on a SQL table.
// The full state is kept as JSON; status, cursor and version are mirrored
// into columns for ad-hoc queries.
type Store struct {
	db     *sql.DB
	driver Driver
}

// New wraps an open database. The schema must already exist (see Open).
func New(db *sql.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// rebind converts '?' placeholders into '$n' for PostgreSQL.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save upserts the session row.
func (s *Store) Save(ctx context.Context, key domain.SessionKey, state *domain.SessionState) error {
	if err := key.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	q := s.rebind(`
INSERT INTO canvass_sessions (survey_id, session_id, status, cursor_id, version, state_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (survey_id, session_id) DO UPDATE SET
  status = excluded.status,
  cursor_id = excluded.cursor_id,
  version = excluded.version,
  state_json = excluded.state_json,
  updated_at = excluded.updated_at`)

	_, err = s.db.ExecContext(ctx, q,
		key.SurveyID, key.SessionID,
		string(state.Status), state.Cursor, state.Version, string(data),
		state.CreatedAt.UnixMilli(), state.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads the session row.
func (s *Store) Load(ctx context.Context, key domain.SessionKey) (*domain.SessionState, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT state_json FROM canvass_sessions WHERE survey_id = ? AND session_id = ?`),
		key.SurveyID, key.SessionID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}

// Delete removes the session row.
func (s *Store) Delete(ctx context.Context, key domain.SessionKey) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM canvass_sessions WHERE survey_id = ? AND session_id = ?`),
		key.SurveyID, key.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns every stored key ordered by survey then session.
func (s *Store) List(ctx context.Context) ([]domain.SessionKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT survey_id, session_id FROM canvass_sessions ORDER BY survey_id, session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	keys := []domain.SessionKey{}
	for rows.Next() {
		var k domain.SessionKey
		if err := rows.Scan(&k.SurveyID, &k.SessionID); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
