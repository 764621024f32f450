// Package convstore durably persists suspended turn state, keyed by
// conversation id, so a clarification answer can resume the graph at the
// right node.
package convstore

import (
	"context"
	"time"

	"github.com/papercomputeco/platelog/pkg/state"
)

// Record is one persisted conversation row.
type Record struct {
	ConversationID string
	UserID         int64
	CurrentNode    state.NodeID
	Turn           *state.Turn
	ExpiresAt      time.Time
}

// Driver is the conversation store backend. Expiry is a soft TTL enforced
// at Load time: an expired row must be treated as absent even if a reaper
// has not yet deleted it.
type Driver interface {
	// Load returns the most recently saved active state for the
	// conversation, or ErrNotFound when absent, inactive, or expired.
	Load(ctx context.Context, conversationID string) (*Record, error)

	// Save upserts the row, reactivating a previously deactivated one.
	Save(ctx context.Context, rec *Record) error

	// Deactivate marks the row inactive without deleting it.
	Deactivate(ctx context.Context, conversationID string) error

	// DeleteExpired physically removes rows whose expiry precedes now,
	// returning how many were removed. Used by the background reaper.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Close releases the backend's resources.
	Close() error
}
