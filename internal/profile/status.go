// Package profile holds the dashboard-side profile state: the chat/call
// availability toggles and the cached copy of the server-owned record.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"astro-partner/internal/astro"
	"astro-partner/internal/metrics"
)

// ToggleKind selects which availability flag a toggle targets.
type ToggleKind string

const (
	ToggleChat ToggleKind = "chat"
	ToggleCall ToggleKind = "call"
)

// Backend is the slice of the API client the controller needs.
type Backend interface {
	GetProfile(ctx context.Context, phoneNumber string, forceRefresh bool) (*astro.Profile, error)
	UpdateCallStatus(ctx context.Context, phoneNumber string, chatOnline, callOnline bool) error
}

// Session supplies the logged-in phone number.
type Session interface {
	PhoneNumber(ctx context.Context) (string, error)
}

// StatusController manages the two availability toggles. A toggle updates
// local state immediately (optimistic), persists both flags to the server,
// then refetches the authoritative profile to reconcile. A failed persist
// leaves the optimistic value in place and is only logged; the next
// refetch restores the server's view.
type StatusController struct {
	backend Backend
	session Session
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	chatOnline bool
	callOnline bool
	profile    *astro.Profile
}

// NewStatusController creates a controller with both toggles online, the
// dashboard's initial assumption before the first fetch.
func NewStatusController(backend Backend, session Session, logger *slog.Logger, metricRegistry *metrics.Metrics) *StatusController {
	return &StatusController{
		backend:    backend,
		session:    session,
		logger:     logger.With("component", "profile_status"),
		metrics:    metricRegistry,
		chatOnline: true,
		callOnline: true,
	}
}

// ChatOnline returns the current (possibly optimistic) chat flag.
func (c *StatusController) ChatOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatOnline
}

// CallOnline returns the current (possibly optimistic) call flag.
func (c *StatusController) CallOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callOnline
}

// Profile returns the last fetched profile record, nil before the first
// successful fetch.
func (c *StatusController) Profile() *astro.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// SetToggle flips one availability flag. The local value changes first;
// the server receives the full pair since the backend expects both values
// on every update.
func (c *StatusController) SetToggle(ctx context.Context, kind ToggleKind, value bool) {
	c.mu.Lock()
	switch kind {
	case ToggleChat:
		c.chatOnline = value
	case ToggleCall:
		c.callOnline = value
	default:
		c.mu.Unlock()
		c.logger.Warn("unknown toggle kind", "kind", string(kind))
		return
	}
	chatValue := c.chatOnline
	callValue := c.callOnline
	c.mu.Unlock()

	phoneNumber, err := c.session.PhoneNumber(ctx)
	if err != nil {
		c.logger.Error("no session phone number for status update", "error", err)
		c.countToggle(kind, "no_session")
		return
	}

	if err := c.backend.UpdateCallStatus(ctx, phoneNumber, chatValue, callValue); err != nil {
		// Optimistic value stays; surfacing is left to the next refetch.
		c.logger.Error("failed updating status", "error", err, "kind", string(kind))
		c.countToggle(kind, "error")
		if c.metrics != nil {
			c.metrics.Errors.WithLabelValues("profile_status").Inc()
		}
		return
	}
	c.countToggle(kind, "ok")

	if _, err := c.Refresh(ctx); err != nil {
		c.logger.Error("failed refetching profile after toggle", "error", err)
	}
}

// Refresh refetches the authoritative profile, bypassing the cache, and
// reconciles both toggles with the server's flags.
func (c *StatusController) Refresh(ctx context.Context) (*astro.Profile, error) {
	phoneNumber, err := c.session.PhoneNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session phone number: %w", err)
	}

	fetched, err := c.backend.GetProfile(ctx, phoneNumber, true)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = fetched
	c.chatOnline = fetched.ChatOnline()
	c.callOnline = fetched.CallOnline()
	return fetched, nil
}

// Load fetches the profile on screen focus, allowing a cached copy.
func (c *StatusController) Load(ctx context.Context) (*astro.Profile, error) {
	phoneNumber, err := c.session.PhoneNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session phone number: %w", err)
	}

	fetched, err := c.backend.GetProfile(ctx, phoneNumber, false)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = fetched
	c.chatOnline = fetched.ChatOnline()
	c.callOnline = fetched.CallOnline()
	return fetched, nil
}

func (c *StatusController) countToggle(kind ToggleKind, outcome string) {
	if c.metrics != nil {
		c.metrics.StatusToggles.WithLabelValues(string(kind), outcome).Inc()
	}
}
