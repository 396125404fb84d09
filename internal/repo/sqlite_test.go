package repo

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"astro-partner/migrations"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.RunMigrations(ctx, migrations.Files); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return store
}

func TestSessionValueRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.GetSessionValue(ctx, "loggedInPhoneNumber"); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v", ok, err)
	}

	if err := store.SetSessionValue(ctx, "loggedInPhoneNumber", "9876543210"); err != nil {
		t.Fatalf("SetSessionValue: %v", err)
	}
	value, ok, err := store.GetSessionValue(ctx, "loggedInPhoneNumber")
	if err != nil || !ok {
		t.Fatalf("GetSessionValue: ok=%v err=%v", ok, err)
	}
	if value != "9876543210" {
		t.Fatalf("value = %q", value)
	}

	// Upsert overwrites.
	if err := store.SetSessionValue(ctx, "loggedInPhoneNumber", "6000000000"); err != nil {
		t.Fatalf("SetSessionValue overwrite: %v", err)
	}
	value, _, err = store.GetSessionValue(ctx, "loggedInPhoneNumber")
	if err != nil {
		t.Fatalf("GetSessionValue: %v", err)
	}
	if value != "6000000000" {
		t.Fatalf("value after overwrite = %q", value)
	}

	if err := store.DeleteSessionValue(ctx, "loggedInPhoneNumber"); err != nil {
		t.Fatalf("DeleteSessionValue: %v", err)
	}
	if _, ok, _ := store.GetSessionValue(ctx, "loggedInPhoneNumber"); ok {
		t.Fatal("value still present after delete")
	}
}

func TestLoginEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	events := []LoginEvent{
		{PhoneNumber: "9876543210", ProfileStatus: 0, Verified: false},
		{PhoneNumber: "9876543210", ProfileStatus: 1, Verified: true},
		{PhoneNumber: "6000000000", ProfileStatus: 1, Verified: true},
	}
	for _, event := range events {
		if err := store.InsertLoginEvent(ctx, event); err != nil {
			t.Fatalf("InsertLoginEvent: %v", err)
		}
	}

	listed, err := store.ListLoginEvents(ctx, "9876543210", 10)
	if err != nil {
		t.Fatalf("ListLoginEvents: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed %d events, want 2", len(listed))
	}
	for _, event := range listed {
		if event.PhoneNumber != "9876543210" {
			t.Fatalf("event for wrong phone: %+v", event)
		}
		if event.ID == "" {
			t.Fatal("missing generated event id")
		}
	}

	limited, err := store.ListLoginEvents(ctx, "9876543210", 1)
	if err != nil {
		t.Fatalf("ListLoginEvents limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("listed %d events, want 1", len(limited))
	}
}
