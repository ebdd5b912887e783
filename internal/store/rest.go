package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/resilience"
	"github.com/mazirhxxx/listlab/pkg/restdb"
)

const (
	leadsTable    = "leads"
	sessionsTable = "cleaning_sessions"
)

// RESTStore implements Store against the dashboard's hosted row store.
// The remote service owns the schema, so Migrate is a no-op.
type RESTStore struct {
	client restdb.Client
}

// NewREST wraps a restdb client as a Store.
func NewREST(client restdb.Client) *RESTStore {
	return &RESTStore{client: client}
}

func (s *RESTStore) Migrate(ctx context.Context) error { return nil }

func (s *RESTStore) Close() error { return nil }

func (s *RESTStore) FetchLeads(ctx context.Context, listID string) ([]model.Lead, error) {
	var leads []model.Lead
	if err := s.client.Select(ctx, leadsTable, map[string]string{"list_id": listID}, &leads); err != nil {
		return nil, eris.Wrapf(err, "rest: fetch leads %s", listID)
	}
	return leads, nil
}

func (s *RESTStore) UpdateLead(ctx context.Context, id string, fields map[string]any) error {
	for k := range fields {
		if !leadColumns[k] {
			return eris.Errorf("store: column %q not updatable on leads", k)
		}
	}
	return s.client.Update(ctx, leadsTable, id, fields)
}

func (s *RESTStore) DeleteLeads(ctx context.Context, ids []string) error {
	return s.client.Delete(ctx, leadsTable, ids)
}

// sessionRow is the wire shape of a session in the row store.
type sessionRow struct {
	ID          string                `json:"id,omitempty"`
	OwnerID     string                `json:"owner_id"`
	ListID      string                `json:"list_id"`
	Avatar      model.AvatarSpec      `json:"avatar"`
	AvatarID    string                `json:"avatar_id"`
	BatchID     string                `json:"batch_id"`
	BatchSize   int                   `json:"batch_size"`
	LeadCount   int                   `json:"lead_count"`
	Status      string                `json:"status"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Summary     *model.SessionSummary `json:"summary,omitempty"`
	CreatedAt   time.Time             `json:"created_at,omitempty"`
}

func (r sessionRow) toModel() model.CleaningSession {
	return model.CleaningSession{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		ListID:      r.ListID,
		Avatar:      r.Avatar,
		AvatarID:    r.AvatarID,
		BatchID:     r.BatchID,
		BatchSize:   r.BatchSize,
		LeadCount:   r.LeadCount,
		Status:      model.SessionStatus(r.Status),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Summary:     r.Summary,
		CreatedAt:   r.CreatedAt,
	}
}

func (s *RESTStore) CreateSession(ctx context.Context, sess *model.CleaningSession) (*model.CleaningSession, error) {
	row := sessionRow{
		OwnerID:   sess.OwnerID,
		ListID:    sess.ListID,
		Avatar:    sess.Avatar,
		AvatarID:  sess.AvatarID,
		BatchID:   sess.BatchID,
		BatchSize: sess.BatchSize,
		LeadCount: sess.LeadCount,
		Status:    string(model.SessionQueued),
	}
	var created sessionRow
	if err := s.client.Insert(ctx, sessionsTable, row, &created); err != nil {
		return nil, eris.Wrap(err, "rest: create session")
	}
	out := created.toModel()
	return &out, nil
}

func (s *RESTStore) UpdateSession(ctx context.Context, id string, fields map[string]any) error {
	for k := range fields {
		if !sessionColumns[k] {
			return eris.Errorf("store: column %q not updatable on sessions", k)
		}
	}
	return s.client.Update(ctx, sessionsTable, id, fields)
}

func (s *RESTStore) GetSession(ctx context.Context, id string) (*model.CleaningSession, error) {
	var rows []sessionRow
	if err := s.client.Select(ctx, sessionsTable, map[string]string{"id": id}, &rows); err != nil {
		return nil, eris.Wrapf(err, "rest: get session %s", id)
	}
	if len(rows) == 0 {
		return nil, resilience.NewNotFoundError("session", id)
	}
	out := rows[0].toModel()
	return &out, nil
}

func (s *RESTStore) ListSessions(ctx context.Context, ownerID string, limit int) ([]model.CleaningSession, error) {
	var rows []sessionRow
	if err := s.client.Select(ctx, sessionsTable, map[string]string{"owner_id": ownerID}, &rows); err != nil {
		return nil, eris.Wrapf(err, "rest: list sessions for %s", ownerID)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	sessions := make([]model.CleaningSession, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toModel())
	}
	return sessions, nil
}
