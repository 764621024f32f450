// Package inmemory provides an in-memory conversation store driver for
// tests and single-process development.
package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/papercomputeco/platelog/pkg/convstore"
	"github.com/papercomputeco/platelog/pkg/state"
)

type row struct {
	rec      convstore.Record
	isActive bool
	payload  []byte
}

// Driver implements convstore.Driver using a mutex-guarded map.
type Driver struct {
	mu   sync.RWMutex
	rows map[string]*row
}

// NewDriver creates a new in-memory conversation store.
func NewDriver() *Driver {
	return &Driver{rows: make(map[string]*row)}
}

// Load returns the active, unexpired state for the conversation. The turn is
// round-tripped through its serialized form so callers observe exactly the
// shape a durable backend would return.
func (d *Driver) Load(_ context.Context, conversationID string) (*convstore.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rows[conversationID]
	if !ok || !r.isActive {
		return nil, convstore.ErrNotFound{ConversationID: conversationID}
	}
	if !r.rec.ExpiresAt.IsZero() && time.Now().UTC().After(r.rec.ExpiresAt) {
		return nil, convstore.ErrNotFound{ConversationID: conversationID}
	}

	turn, err := state.UnmarshalTurn(r.payload)
	if err != nil {
		return nil, err
	}

	rec := r.rec
	rec.Turn = turn
	return &rec, nil
}

// Save upserts the row and reactivates it if it was deactivated.
func (d *Driver) Save(_ context.Context, rec *convstore.Record) error {
	if rec == nil || rec.Turn == nil {
		return errors.New("cannot save nil record")
	}

	payload, err := state.MarshalTurn(rec.Turn)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.rows[rec.ConversationID] = &row{
		rec: convstore.Record{
			ConversationID: rec.ConversationID,
			UserID:         rec.UserID,
			CurrentNode:    rec.CurrentNode,
			ExpiresAt:      rec.ExpiresAt,
		},
		isActive: true,
		payload:  payload,
	}
	return nil
}

// Deactivate marks the row inactive, keeping it for audit.
func (d *Driver) Deactivate(_ context.Context, conversationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.rows[conversationID]; ok {
		r.isActive = false
	}
	return nil
}

// DeleteExpired removes rows whose expiry precedes now.
func (d *Driver) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var n int64
	for id, r := range d.rows {
		if !r.rec.ExpiresAt.IsZero() && now.After(r.rec.ExpiresAt) {
			delete(d.rows, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (d *Driver) Close() error { return nil }
