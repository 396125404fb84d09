package repo

import (
	"context"
	"io/fs"
	"log/slog"
	"strings"
)

// Store defines the interface for the local device store: the single
// logged-in phone number key plus a login audit trail.
type Store interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Session values
	GetSessionValue(ctx context.Context, key string) (string, bool, error)
	SetSessionValue(ctx context.Context, key, value string) error
	DeleteSessionValue(ctx context.Context, key string) error

	// Login audit
	InsertLoginEvent(ctx context.Context, event LoginEvent) error
	ListLoginEvents(ctx context.Context, phoneNumber string, limit int) ([]LoginEvent, error)
}

// New selects a store implementation: Postgres when databaseURL is set,
// SQLite otherwise.
func New(ctx context.Context, databaseURL, sqlitePath string, logger *slog.Logger) (Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgres(ctx, databaseURL, logger)
	}
	return NewSQLite(ctx, sqlitePath, logger)
}
