package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/resilience"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_FetchLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "list_id", "name", "email", "phone", "company", "title",
		"source_url", "source_platform", "custom_fields",
	}).
		AddRow("a", "list-1", "Jane", "jane@acme.com", "5551234567", "Acme", "CEO", "", "", []byte(`{"country":"US"}`)).
		AddRow("b", "list-1", "Bob", "", "", "", "", "", "", []byte(nil))

	mock.ExpectQuery(`SELECT id, list_id, name, email, phone, company, title, source_url, source_platform, custom_fields`).
		WithArgs("list-1").
		WillReturnRows(rows)

	leads, err := s.FetchLeads(context.Background(), "list-1")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Jane", leads[0].Name)
	assert.Equal(t, "US", leads[0].Custom("country"))
	assert.Nil(t, leads[1].CustomFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// Columns are sorted, so email comes before phone.
	mock.ExpectExec(`UPDATE leads SET email = \$1, phone = \$2 WHERE id = \$3`).
		WithArgs("jane@acme.com", "+15551234567", "a").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateLead(context.Background(), "a", map[string]any{
		"phone": "+15551234567",
		"email": "jane@acme.com",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET phone = \$1 WHERE id = \$2`).
		WithArgs("+15551234567", "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateLead(context.Background(), "gone", map[string]any{"phone": "+15551234567"})
	require.Error(t, err)
	assert.True(t, resilience.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateLead_RejectsUnknownColumn(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	err := s.UpdateLead(context.Background(), "a", map[string]any{"list_id": "other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not updatable")
}

func TestPostgresStore_DeleteLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM leads WHERE id = ANY\(\$1\)`).
		WithArgs([]string{"b", "c"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, s.DeleteLeads(context.Background(), []string{"b", "c"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteLeads_EmptyIsNoop(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	require.NoError(t, s.DeleteLeads(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateSession(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO cleaning_sessions`).
		WithArgs("owner-1", "list-1", pgxmock.AnyArg(), "avatar1", "batch-1",
			2, 3, "queued", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("sess-1"))

	created, err := s.CreateSession(context.Background(), &model.CleaningSession{
		OwnerID:   "owner-1",
		ListID:    "list-1",
		Avatar:    model.AvatarSpec{Name: "Avatar 1"},
		AvatarID:  "avatar1",
		BatchID:   "batch-1",
		BatchSize: 2,
		LeadCount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", created.ID)
	assert.Equal(t, model.SessionQueued, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateSession_MarshalsSummary(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE cleaning_sessions SET completed_at = \$1, status = \$2, summary = \$3 WHERE id = \$4`).
		WithArgs(pgxmock.AnyArg(), "completed", []byte(`{"accept_count":5,"review_count":2,"reject_count":1,"average_score":0.8}`), "sess-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateSession(context.Background(), "sess-1", map[string]any{
		"status":       "completed",
		"completed_at": time.Now().UTC(),
		"summary":      &model.SessionSummary{AcceptCount: 5, ReviewCount: 2, RejectCount: 1, AverageScore: 0.8},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSession_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, owner_id, list_id, avatar`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSession(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, resilience.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSession(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Now().UTC().Add(-time.Minute)
	completed := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "owner_id", "list_id", "avatar", "avatar_id", "batch_id", "batch_size",
		"lead_count", "status", "started_at", "completed_at", "summary", "created_at",
	}).AddRow(
		"sess-1", "owner-1", "list-1", []byte(`{"name":"Avatar 1"}`), "avatar1", "batch-1", 2,
		3, "completed", &started, &completed,
		[]byte(`{"accept_count":5,"review_count":2,"reject_count":1,"average_score":0.8}`),
		time.Now().UTC(),
	)

	mock.ExpectQuery(`SELECT id, owner_id, list_id, avatar`).
		WithArgs("sess-1").
		WillReturnRows(rows)

	sess, err := s.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, sess.Status)
	assert.Equal(t, "Avatar 1", sess.Avatar.Name)
	require.NotNil(t, sess.Summary)
	assert.Equal(t, 5, sess.Summary.AcceptCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSessions_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "owner_id", "list_id", "avatar", "avatar_id", "batch_id", "batch_size",
		"lead_count", "status", "started_at", "completed_at", "summary", "created_at",
	}).AddRow(
		"sess-1", "owner-1", "list-1", []byte(`{"name":"Avatar 1"}`), "avatar1", "batch-1", 2,
		3, "queued", (*time.Time)(nil), (*time.Time)(nil), []byte(nil), time.Now().UTC(),
	)

	mock.ExpectQuery(`SELECT id, owner_id, list_id, avatar`).
		WithArgs("owner-1", 50).
		WillReturnRows(rows)

	sessions, err := s.ListSessions(context.Background(), "owner-1", 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.SessionQueued, sessions[0].Status)
	assert.Nil(t, sessions[0].Summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}
