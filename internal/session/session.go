package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"astro-partner/internal/repo"
)

// phoneNumberKey is the single persisted session key: the phone number of
// the currently logged-in astrologer.
const phoneNumberKey = "loggedInPhoneNumber"

// ErrNoSession indicates no phone number has been stored yet.
var ErrNoSession = errors.New("no logged-in phone number")

// Manager owns the cached logged-in phone number. It is written once at
// login (or when a screen explicitly supplies a new number) and read by
// every dashboard component, so writes go through a single path here.
type Manager struct {
	store  repo.Store
	logger *slog.Logger

	mu     sync.RWMutex
	cached string
	loaded bool
}

// NewManager creates a session manager backed by the given store.
func NewManager(store repo.Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger.With("component", "session"),
	}
}

// PhoneNumber returns the logged-in phone number, reading through to the
// store on first access. Returns ErrNoSession when none is stored.
func (m *Manager) PhoneNumber(ctx context.Context) (string, error) {
	m.mu.RLock()
	if m.loaded && m.cached != "" {
		number := m.cached
		m.mu.RUnlock()
		return number, nil
	}
	m.mu.RUnlock()

	value, ok, err := m.store.GetSessionValue(ctx, phoneNumberKey)
	if err != nil {
		return "", fmt.Errorf("read session phone number: %w", err)
	}
	if !ok || value == "" {
		return "", ErrNoSession
	}

	m.mu.Lock()
	m.cached = value
	m.loaded = true
	m.mu.Unlock()
	return value, nil
}

// Refresh re-reads the stored phone number, discarding the in-memory copy.
// Called when a screen regains focus.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.loaded = false
	m.cached = ""
	m.mu.Unlock()
	return m.PhoneNumber(ctx)
}

// SetPhoneNumber stores a new logged-in phone number, overwriting any
// previous login.
func (m *Manager) SetPhoneNumber(ctx context.Context, phoneNumber string) error {
	if phoneNumber == "" {
		return fmt.Errorf("phone number is empty")
	}
	if err := m.store.SetSessionValue(ctx, phoneNumberKey, phoneNumber); err != nil {
		return fmt.Errorf("store session phone number: %w", err)
	}

	m.mu.Lock()
	m.cached = phoneNumber
	m.loaded = true
	m.mu.Unlock()

	m.logger.Info("session phone number updated", "phone_number", phoneNumber)
	return nil
}

// Clear removes the stored phone number at logout.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.DeleteSessionValue(ctx, phoneNumberKey); err != nil {
		return fmt.Errorf("clear session phone number: %w", err)
	}
	m.mu.Lock()
	m.cached = ""
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// RecordLogin appends a login audit row after a successful verification.
func (m *Manager) RecordLogin(ctx context.Context, phoneNumber string, profileStatus int, verified bool) {
	err := m.store.InsertLoginEvent(ctx, repo.LoginEvent{
		PhoneNumber:   phoneNumber,
		ProfileStatus: profileStatus,
		Verified:      verified,
	})
	if err != nil {
		m.logger.Warn("failed recording login event", "error", err)
	}
}
