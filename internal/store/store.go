// Package store defines persistence interfaces for leads and verification
// sessions, with Postgres, SQLite, and hosted-REST backends selected by
// configuration.
package store

import (
	"context"

	"github.com/mazirhxxx/listlab/internal/model"
)

// LeadStore is the engine's view of the external lead store. FetchLeads
// returns every lead of the list in one call; duplicate detection needs
// global visibility, so no pagination contract exists.
type LeadStore interface {
	FetchLeads(ctx context.Context, listID string) ([]model.Lead, error)
	// UpdateLead mutates the whitelisted fields of one lead. A missing lead
	// yields a NotFoundError so callers can treat it as a no-op.
	UpdateLead(ctx context.Context, id string, fields map[string]any) error
	// DeleteLeads removes the given leads. Already-deleted ids are ignored.
	DeleteLeads(ctx context.Context, ids []string) error
}

// SessionStore persists verification session records. Sessions are history:
// the engine creates and updates them, never deletes.
type SessionStore interface {
	CreateSession(ctx context.Context, s *model.CleaningSession) (*model.CleaningSession, error)
	UpdateSession(ctx context.Context, id string, fields map[string]any) error
	GetSession(ctx context.Context, id string) (*model.CleaningSession, error)
	ListSessions(ctx context.Context, ownerID string, limit int) ([]model.CleaningSession, error)
}

// Store combines both stores with lifecycle management.
type Store interface {
	LeadStore
	SessionStore
	Migrate(ctx context.Context) error
	Close() error
}

// leadColumns are the mutable lead fields a backend accepts in UpdateLead.
var leadColumns = map[string]bool{
	"name":    true,
	"email":   true,
	"phone":   true,
	"company": true,
	"title":   true,
}

// sessionColumns are the mutable session fields accepted in UpdateSession.
var sessionColumns = map[string]bool{
	"status":       true,
	"started_at":   true,
	"completed_at": true,
	"summary":      true,
	"batch_size":   true,
	"lead_count":   true,
}
