package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hmcoe/skillprofile/pkg/models"
	_ "modernc.org/sqlite"
)

// Store persists client-side state between runs: the admin bearer token and
// in-progress form drafts keyed by browser session. Profile records
// themselves live behind the external API; nothing here is authoritative.
type Store struct {
	conn *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS admin_token (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	token   TEXT NOT NULL,
	updated INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS drafts (
	session_id TEXT PRIMARY KEY,
	draft_json TEXT NOT NULL,
	updated    INTEGER NOT NULL
);`

// New opens (creating if needed) the local state database.
func New(ctx context.Context, dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping state db: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to bootstrap state schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the state database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping reports whether the state database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// SaveToken persists the admin bearer token across sessions.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO admin_token (id, token, updated) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token, updated = excluded.updated`,
		token, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// LoadToken returns the persisted token, or "" when none is stored.
func (s *Store) LoadToken(ctx context.Context) (string, error) {
	var token string
	err := s.conn.QueryRowContext(ctx, `SELECT token FROM admin_token WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// ClearToken removes the persisted token (logout).
func (s *Store) ClearToken(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM admin_token WHERE id = 1`); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// SaveDraft autosaves an in-progress draft for a browser session so a failed
// submit or restart never loses user input.
func (s *Store) SaveDraft(ctx context.Context, sessionID string, draft *models.Profile) error {
	b, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO drafts (session_id, draft_json, updated) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET draft_json = excluded.draft_json, updated = excluded.updated`,
		sessionID, string(b), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// LoadDraft returns the saved draft for a session, or nil when none exists.
func (s *Store) LoadDraft(ctx context.Context, sessionID string) (*models.Profile, error) {
	var raw string
	err := s.conn.QueryRowContext(ctx, `SELECT draft_json FROM drafts WHERE session_id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	var p models.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &p, nil
}

// DeleteDraft drops a session's saved draft, used after successful submission.
func (s *Store) DeleteDraft(ctx context.Context, sessionID string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM drafts WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// PurgeDrafts removes drafts not touched within the retention window.
func (s *Store) PurgeDrafts(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM drafts WHERE updated < ?`,
		time.Now().Add(-olderThan).Unix())
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
