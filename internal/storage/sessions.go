package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"stillpoint/internal/core/model"

	// Pure Go SQLite driver.
	_ "modernc.org/sqlite"
)

const sessionsFileName = "sessions.db"

// SessionStore persists logged meditation sessions in SQLite.
type SessionStore struct {
	db *sql.DB
}

// OpenSessionStore opens or creates the session database at path.
func OpenSessionStore(ctx context.Context, path string) (*SessionStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive between calls.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SessionStore{db: db}, nil
}

// ResolveSessionsPath returns the default database location for appName.
func ResolveSessionsPath(appName string) (string, error) {
	dataDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dataDir, appName, sessionsFileName), nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			duration_minutes INTEGER NOT NULL,
			date TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sessions_by_date ON sessions(date)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// PersistSession inserts session and returns its id. A new id is generated when empty.
func (store *SessionStore) PersistSession(ctx context.Context, session model.LoggedSession) (string, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO sessions (id, duration_minutes, date, location, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.DurationMinutes,
		session.Date,
		session.Location,
		session.Notes,
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return session.ID, nil
}

// ListSessionsForMonth returns sessions dated within month, oldest first.
func (store *SessionStore) ListSessionsForMonth(ctx context.Context, month model.YearMonth) ([]model.LoggedSession, error) {
	rows, err := store.db.QueryContext(ctx,
		`SELECT id, duration_minutes, date, location, notes, created_at
		FROM sessions WHERE substr(date, 1, 7) = ? ORDER BY date, created_at`,
		month.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.LoggedSession
	for rows.Next() {
		var (
			session   model.LoggedSession
			createdAt string
		)
		if err := rows.Scan(&session.ID, &session.DurationMinutes, &session.Date, &session.Location, &session.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			session.CreatedAt = parsed
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the database.
func (store *SessionStore) Close() error {
	return store.db.Close()
}
