package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore provides access to a local SQLite database. This is the
// default on-device store.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens a new connection to the SQLite database.
func NewSQLite(ctx context.Context, databasePath string, logger *slog.Logger) (*SQLiteStore, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is empty")
	}
	// Busy timeout and WAL mode are recommended for SQLite concurrency.
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn = fmt.Sprintf("%s%s_pragma=busy_timeout=10000&_pragma=journal_mode=WAL&_pragma=foreign_keys=ON", dsn, sep)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "repo_sqlite"),
	}, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Ping ensures the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunMigrations applies the sqlite SQL files in lexicographical order.
func (s *SQLiteStore) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	entries, err := fs.ReadDir(filesystem, "sqlite")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		sqlBytes, err := fs.ReadFile(filesystem, "sqlite/"+entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if len(sqlBytes) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// GetSessionValue returns the stored value for key, reporting presence.
func (s *SQLiteStore) GetSessionValue(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM session_values WHERE key = ? LIMIT 1;`
	var value string
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get session value: %w", err)
	}
	return value, true, nil
}

// SetSessionValue upserts a session value.
func (s *SQLiteStore) SetSessionValue(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO session_values (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    updated_at = CURRENT_TIMESTAMP;
`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set session value: %w", err)
	}
	return nil
}

// DeleteSessionValue removes a session value if present.
func (s *SQLiteStore) DeleteSessionValue(ctx context.Context, key string) error {
	const q = `DELETE FROM session_values WHERE key = ?;`
	if _, err := s.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("delete session value: %w", err)
	}
	return nil
}

// InsertLoginEvent stores a login audit row.
func (s *SQLiteStore) InsertLoginEvent(ctx context.Context, event LoginEvent) error {
	const q = `
INSERT INTO login_events (id, phone_number, profile_status, verified)
VALUES (?, ?, ?, ?);
`
	id := event.ID
	if id == "" {
		id = uuid.NewString()
	}
	verified := 0
	if event.Verified {
		verified = 1
	}
	if _, err := s.db.ExecContext(ctx, q, id, event.PhoneNumber, event.ProfileStatus, verified); err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	return nil
}

// ListLoginEvents returns the most recent login events for a phone number.
func (s *SQLiteStore) ListLoginEvents(ctx context.Context, phoneNumber string, limit int) ([]LoginEvent, error) {
	const q = `
SELECT id, phone_number, profile_status, verified, created_at
FROM login_events
WHERE phone_number = ?
ORDER BY created_at DESC
LIMIT ?;
`
	rows, err := s.db.QueryContext(ctx, q, phoneNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("list login events: %w", err)
	}
	defer rows.Close()

	var events []LoginEvent
	for rows.Next() {
		var ev LoginEvent
		var verified int
		if err := rows.Scan(&ev.ID, &ev.PhoneNumber, &ev.ProfileStatus, &verified, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan login event: %w", err)
		}
		ev.Verified = verified != 0
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list login events: %w", err)
	}
	return events, nil
}
