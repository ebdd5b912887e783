package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local and dev
// deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	list_id         TEXT NOT NULL,
	name            TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	company         TEXT NOT NULL DEFAULT '',
	title           TEXT NOT NULL DEFAULT '',
	source_url      TEXT NOT NULL DEFAULT '',
	source_platform TEXT NOT NULL DEFAULT '',
	custom_fields   TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS cleaning_sessions (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	list_id      TEXT NOT NULL,
	avatar       TEXT NOT NULL,
	avatar_id    TEXT NOT NULL,
	batch_id     TEXT NOT NULL,
	batch_size   INTEGER NOT NULL DEFAULT 0,
	lead_count   INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'queued',
	started_at   DATETIME,
	completed_at DATETIME,
	summary      TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_list_id ON leads(list_id);
CREATE INDEX IF NOT EXISTS idx_sessions_owner_id ON cleaning_sessions(owner_id);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON cleaning_sessions(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FetchLeads(ctx context.Context, listID string) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, list_id, name, email, phone, company, title, source_url, source_platform, custom_fields
		 FROM leads WHERE list_id = ? ORDER BY created_at, rowid`,
		listID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: fetch leads %s", listID)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		var customJSON sql.NullString
		if err := rows.Scan(&l.ID, &l.ListID, &l.Name, &l.Email, &l.Phone, &l.Company,
			&l.Title, &l.SourceURL, &l.SourcePlatform, &customJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		if customJSON.Valid && customJSON.String != "" {
			if err := json.Unmarshal([]byte(customJSON.String), &l.CustomFields); err != nil {
				return nil, eris.Wrapf(err, "sqlite: decode custom fields for lead %s", l.ID)
			}
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: iterate leads %s", listID)
	}
	return leads, nil
}

// InsertLead adds a lead row, generating an id when absent. Used by tests
// and the migrate command's seed path.
func (s *SQLiteStore) InsertLead(ctx context.Context, l model.Lead) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	var customJSON any
	if len(l.CustomFields) > 0 {
		data, err := json.Marshal(l.CustomFields)
		if err != nil {
			return "", eris.Wrap(err, "sqlite: marshal custom fields")
		}
		customJSON = string(data)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, list_id, name, email, phone, company, title, source_url, source_platform, custom_fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ListID, l.Name, l.Email, l.Phone, l.Company, l.Title, l.SourceURL, l.SourcePlatform, customJSON,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert lead")
	}
	return l.ID, nil
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, id string, fields map[string]any) error {
	query, args, err := buildSQLiteUpdate("leads", leadColumns, id, fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return resilience.NewNotFoundError("lead", id)
	}
	return nil
}

func (s *SQLiteStore) DeleteLeads(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM leads WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx, query, args...)
	return eris.Wrap(err, "sqlite: delete leads")
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *model.CleaningSession) (*model.CleaningSession, error) {
	avatarJSON, err := json.Marshal(sess.Avatar)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal avatar")
	}

	created := *sess
	created.ID = uuid.New().String()
	created.Status = model.SessionQueued
	created.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cleaning_sessions
		 (id, owner_id, list_id, avatar, avatar_id, batch_id, batch_size, lead_count, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.OwnerID, created.ListID, string(avatarJSON), created.AvatarID,
		created.BatchID, created.BatchSize, created.LeadCount, string(created.Status), created.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert session")
	}
	return &created, nil
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, id string, fields map[string]any) error {
	fields = encodeSessionFields(fields)
	query, args, err := buildSQLiteUpdate("cleaning_sessions", sessionColumns, id, fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update session %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return resilience.NewNotFoundError("session", id)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.CleaningSession, error) {
	row := s.db.QueryRowContext(ctx, sqliteSessionSelect+` WHERE id = ?`, id)
	sess, err := scanSQLiteSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resilience.NewNotFoundError("session", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get session %s", id)
	}
	return sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, ownerID string, limit int) ([]model.CleaningSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		sqliteSessionSelect+` WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list sessions for %s", ownerID)
	}
	defer rows.Close()

	var sessions []model.CleaningSession
	for rows.Next() {
		sess, err := scanSQLiteSession(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate sessions")
	}
	return sessions, nil
}

const sqliteSessionSelect = `SELECT id, owner_id, list_id, avatar, avatar_id, batch_id, batch_size,
	lead_count, status, started_at, completed_at, summary, created_at FROM cleaning_sessions`

func scanSQLiteSession(row rowScanner) (*model.CleaningSession, error) {
	var sess model.CleaningSession
	var avatarJSON string
	var summaryJSON sql.NullString
	var status string
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(&sess.ID, &sess.OwnerID, &sess.ListID, &avatarJSON, &sess.AvatarID,
		&sess.BatchID, &sess.BatchSize, &sess.LeadCount, &status,
		&startedAt, &completedAt, &summaryJSON, &sess.CreatedAt); err != nil {
		return nil, err
	}
	sess.Status = model.SessionStatus(status)
	if startedAt.Valid {
		t := startedAt.Time
		sess.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		sess.CompletedAt = &t
	}
	if avatarJSON != "" {
		if err := json.Unmarshal([]byte(avatarJSON), &sess.Avatar); err != nil {
			return nil, eris.Wrap(err, "decode avatar")
		}
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		sess.Summary = &model.SessionSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), sess.Summary); err != nil {
			return nil, eris.Wrap(err, "decode summary")
		}
	}
	return &sess, nil
}

// buildSQLiteUpdate mirrors buildUpdate with ? placeholders. Byte-slice
// values (pre-marshaled JSON) are stored as TEXT.
func buildSQLiteUpdate(table string, allowed map[string]bool, id string, fields map[string]any) (string, []any, error) {
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
		query += fmt.Sprintf("%s = ?", k)
		v := fields[k]
		if data, ok := v.([]byte); ok {
			v = string(data)
		}
		args = append(args, v)
	}
	query += " WHERE id = ?"
	args = append(args, id)
	return query, args, nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
