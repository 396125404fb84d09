package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore provides access to a Postgres-backed store.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres opens a new connection pool to the database.
func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		logger: logger.With("component", "repo_postgres"),
	}

	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping ensures the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RunMigrations executes the postgres SQL files in lexicographical order.
func (s *PostgresStore) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	entries, err := fs.ReadDir(filesystem, "postgres")
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
		sqlBytes, err := fs.ReadFile(filesystem, "postgres/"+entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if len(sqlBytes) == 0 {
			continue
		}
		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			_, execErr := tx.Exec(ctx, string(sqlBytes))
			return execErr
		})
		if err != nil {
			return fmt.Errorf("execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// GetSessionValue returns the stored value for key, reporting presence.
func (s *PostgresStore) GetSessionValue(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM session_values WHERE key = $1 LIMIT 1;`
	var value string
	if err := s.pool.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get session value: %w", err)
	}
	return value, true, nil
}

// SetSessionValue upserts a session value.
func (s *PostgresStore) SetSessionValue(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO session_values (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = NOW();
`
	if _, err := s.pool.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("set session value: %w", err)
	}
	return nil
}

// DeleteSessionValue removes a session value if present.
func (s *PostgresStore) DeleteSessionValue(ctx context.Context, key string) error {
	const q = `DELETE FROM session_values WHERE key = $1;`
	if _, err := s.pool.Exec(ctx, q, key); err != nil {
		return fmt.Errorf("delete session value: %w", err)
	}
	return nil
}

// InsertLoginEvent stores a login audit row.
func (s *PostgresStore) InsertLoginEvent(ctx context.Context, event LoginEvent) error {
	const q = `
INSERT INTO login_events (id, phone_number, profile_status, verified)
VALUES ($1, $2, $3, $4);
`
	id := event.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, err := s.pool.Exec(ctx, q, id, event.PhoneNumber, event.ProfileStatus, event.Verified); err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	return nil
}

// ListLoginEvents returns the most recent login events for a phone number.
func (s *PostgresStore) ListLoginEvents(ctx context.Context, phoneNumber string, limit int) ([]LoginEvent, error) {
	const q = `
SELECT id, phone_number, profile_status, verified, created_at
FROM login_events
WHERE phone_number = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := s.pool.Query(ctx, q, phoneNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("list login events: %w", err)
	}
	defer rows.Close()

	var events []LoginEvent
	for rows.Next() {
		var ev LoginEvent
		if err := rows.Scan(&ev.ID, &ev.PhoneNumber, &ev.ProfileStatus, &ev.Verified, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan login event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list login events: %w", err)
	}
	return events, nil
}
