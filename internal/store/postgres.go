package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/resilience"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	list_id         TEXT NOT NULL,
	name            TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	company         TEXT NOT NULL DEFAULT '',
	title           TEXT NOT NULL DEFAULT '',
	source_url      TEXT NOT NULL DEFAULT '',
	source_platform TEXT NOT NULL DEFAULT '',
	custom_fields   JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cleaning_sessions (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner_id     TEXT NOT NULL,
	list_id      TEXT NOT NULL,
	avatar       JSONB NOT NULL,
	avatar_id    TEXT NOT NULL,
	batch_id     TEXT NOT NULL,
	batch_size   INT NOT NULL DEFAULT 0,
	lead_count   INT NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'queued',
	started_at   TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	summary      JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_list_id ON leads(list_id);
CREATE INDEX IF NOT EXISTS idx_sessions_owner_id ON cleaning_sessions(owner_id);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON cleaning_sessions(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FetchLeads(ctx context.Context, listID string) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, list_id, name, email, phone, company, title, source_url, source_platform, custom_fields
		 FROM leads WHERE list_id = $1 ORDER BY created_at, id`,
		listID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: fetch leads %s", listID)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		var customJSON []byte
		if err := rows.Scan(&l.ID, &l.ListID, &l.Name, &l.Email, &l.Phone, &l.Company,
			&l.Title, &l.SourceURL, &l.SourcePlatform, &customJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		if len(customJSON) > 0 {
			if err := json.Unmarshal(customJSON, &l.CustomFields); err != nil {
				return nil, eris.Wrapf(err, "postgres: decode custom fields for lead %s", l.ID)
			}
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: iterate leads %s", listID)
	}
	return leads, nil
}

func (s *PostgresStore) UpdateLead(ctx context.Context, id string, fields map[string]any) error {
	query, args, err := buildUpdate("leads", leadColumns, id, fields)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return resilience.NewNotFoundError("lead", id)
	}
	return nil
}

func (s *PostgresStore) DeleteLeads(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = ANY($1)`, ids)
	return eris.Wrap(err, "postgres: delete leads")
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess *model.CleaningSession) (*model.CleaningSession, error) {
	avatarJSON, err := json.Marshal(sess.Avatar)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal avatar")
	}

	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO cleaning_sessions
		 (owner_id, list_id, avatar, avatar_id, batch_id, batch_size, lead_count, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		sess.OwnerID, sess.ListID, avatarJSON, sess.AvatarID, sess.BatchID,
		sess.BatchSize, sess.LeadCount, string(model.SessionQueued), now,
	)

	created := *sess
	if err := row.Scan(&created.ID); err != nil {
		return nil, eris.Wrap(err, "postgres: insert session")
	}
	created.Status = model.SessionQueued
	created.CreatedAt = now
	return &created, nil
}

func (s *PostgresStore) UpdateSession(ctx context.Context, id string, fields map[string]any) error {
	fields = encodeSessionFields(fields)
	query, args, err := buildUpdate("cleaning_sessions", sessionColumns, id, fields)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update session %s", id)
	}
	if tag.RowsAffected() == 0 {
		return resilience.NewNotFoundError("session", id)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*model.CleaningSession, error) {
	row := s.pool.QueryRow(ctx, sessionSelect+` WHERE id = $1`, id)
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, resilience.NewNotFoundError("session", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get session %s", id)
	}
	return sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, ownerID string, limit int) ([]model.CleaningSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		sessionSelect+` WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`,
		ownerID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list sessions for %s", ownerID)
	}
	defer rows.Close()

	var sessions []model.CleaningSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate sessions")
	}
	return sessions, nil
}

const sessionSelect = `SELECT id, owner_id, list_id, avatar, avatar_id, batch_id, batch_size,
	lead_count, status, started_at, completed_at, summary, created_at FROM cleaning_sessions`

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.CleaningSession, error) {
	var sess model.CleaningSession
	var avatarJSON, summaryJSON []byte
	var status string
	if err := row.Scan(&sess.ID, &sess.OwnerID, &sess.ListID, &avatarJSON, &sess.AvatarID,
		&sess.BatchID, &sess.BatchSize, &sess.LeadCount, &status,
		&sess.StartedAt, &sess.CompletedAt, &summaryJSON, &sess.CreatedAt); err != nil {
		return nil, err
	}
	sess.Status = model.SessionStatus(status)
	if len(avatarJSON) > 0 {
		if err := json.Unmarshal(avatarJSON, &sess.Avatar); err != nil {
			return nil, eris.Wrap(err, "decode avatar")
		}
	}
	if len(summaryJSON) > 0 {
		sess.Summary = &model.SessionSummary{}
		if err := json.Unmarshal(summaryJSON, sess.Summary); err != nil {
			return nil, eris.Wrap(err, "decode summary")
		}
	}
	return &sess, nil
}

// encodeSessionFields marshals struct-valued fields (summary) to JSON so
// they land in JSONB columns.
func encodeSessionFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "summary" {
			if data, err := json.Marshal(v); err == nil {
				out[k] = data
				continue
			}
		}
		out[k] = v
	}
	return out
}

// buildUpdate assembles an UPDATE statement over whitelisted columns with
// deterministic column order.
func buildUpdate(table string, allowed map[string]bool, id string, fields map[string]any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, eris.Errorf("store: no fields to update for %s %s", table, id)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !allowed[k] {
			return "", nil, eris.Errorf("store: column %q not updatable on %s", k, table)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	query := "UPDATE " + table + " SET "
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", k, i+1)
		args = append(args, fields[k])
	}
	query += fmt.Sprintf(" WHERE id = $%d", len(keys)+1)
	args = append(args, id)
	return query, args, nil
}
