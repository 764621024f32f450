// Package sqlite provides a SQLite-backed conversation store driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/platelog/pkg/convstore"
	"github.com/papercomputeco/platelog/pkg/state"
)

// Driver implements convstore.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver opens (or creates) the database at dbPath. ":memory:" yields an
// in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d := &Driver{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

func (d *Driver) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversation_states (
		conversation_id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		current_node TEXT NOT NULL,
		state TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		expires_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_conversation_states_expires_at ON conversation_states(expires_at);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Load returns the active state for the conversation, treating an expired
// row as absent even if the reaper has not deleted it yet.
func (d *Driver) Load(ctx context.Context, conversationID string) (*convstore.Record, error) {
	query := `SELECT user_id, current_node, state, expires_at
	FROM conversation_states
	WHERE conversation_id = ? AND is_active = 1`

	row := d.db.QueryRowContext(ctx, query, conversationID)

	var (
		rec       convstore.Record
		node      string
		payload   string
		expiresAt sql.NullTime
	)
	err := row.Scan(&rec.UserID, &node, &payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, convstore.ErrNotFound{ConversationID: conversationID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation state: %w", err)
	}

	if expiresAt.Valid {
		rec.ExpiresAt = expiresAt.Time
		if time.Now().UTC().After(rec.ExpiresAt) {
			return nil, convstore.ErrNotFound{ConversationID: conversationID}
		}
	}

	turn, err := state.UnmarshalTurn([]byte(payload))
	if err != nil {
		return nil, err
	}

	rec.ConversationID = conversationID
	rec.CurrentNode = state.NodeID(node)
	rec.Turn = turn
	return &rec, nil
}

// Save upserts the row; a previously deactivated conversation the user
// returns to is reactivated.
func (d *Driver) Save(ctx context.Context, rec *convstore.Record) error {
	if rec == nil || rec.Turn == nil {
		return errors.New("cannot save nil record")
	}

	payload, err := state.MarshalTurn(rec.Turn)
	if err != nil {
		return err
	}

	query := `INSERT INTO conversation_states
		(conversation_id, user_id, current_node, state, is_active, expires_at, updated_at)
	VALUES (?, ?, ?, ?, 1, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(conversation_id) DO UPDATE SET
		user_id = excluded.user_id,
		current_node = excluded.current_node,
		state = excluded.state,
		is_active = 1,
		expires_at = excluded.expires_at,
		updated_at = CURRENT_TIMESTAMP`

	_, err = d.db.ExecContext(ctx, query,
		rec.ConversationID, rec.UserID, string(rec.CurrentNode), string(payload), nullableTime(rec.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to upsert conversation state: %w", err)
	}
	return nil
}

// Deactivate marks the row inactive without deleting it.
func (d *Driver) Deactivate(ctx context.Context, conversationID string) error {
	query := `UPDATE conversation_states
	SET is_active = 0, updated_at = CURRENT_TIMESTAMP
	WHERE conversation_id = ?`

	if _, err := d.db.ExecContext(ctx, query, conversationID); err != nil {
		return fmt.Errorf("failed to deactivate conversation: %w", err)
	}
	return nil
}

// DeleteExpired physically removes rows past their expiry.
func (d *Driver) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM conversation_states WHERE expires_at IS NOT NULL AND expires_at < ?`

	res, err := d.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired conversations: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (d *Driver) Close() error { return d.db.Close() }

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
