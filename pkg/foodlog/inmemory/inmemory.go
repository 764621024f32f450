// Package inmemory provides an in-memory food log store for tests and
// single-process development.
package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/papercomputeco/platelog/pkg/foodlog"
	"github.com/papercomputeco/platelog/pkg/state"
)

// Store implements foodlog.Store using a mutex-guarded slice.
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	entries []foodlog.Entry
}

// NewStore creates a new in-memory food log store.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// CreateEntry persists an entry and returns its id.
func (s *Store) CreateEntry(_ context.Context, e *foodlog.Entry) (int64, error) {
	if e == nil {
		return 0, errors.New("cannot create nil entry")
	}
	if e.FoodName == "" {
		return 0, errors.New("entry missing food name")
	}
	if e.Nutrition.Calories == nil {
		return 0, errors.New("entry missing calories")
	}
	if e.ConsumedAt.IsZero() {
		return 0, errors.New("entry missing consumed-at timestamp")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *e
	stored.ID = s.nextID
	stored.CreatedAt = time.Now().UTC()
	s.nextID++
	s.entries = append(s.entries, stored)
	return stored.ID, nil
}

// DailyTotals sums tracked nutrients for one UTC day.
func (s *Store) DailyTotals(ctx context.Context, userID int64, day time.Time) (*state.Totals, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	return s.RangeTotals(ctx, userID, from, from)
}

// RangeTotals sums tracked nutrients for entries consumed between the UTC
// days of from and to, inclusive.
func (s *Store) RangeTotals(_ context.Context, userID int64, from, to time.Time) (*state.Totals, error) {
	start := from.UTC().Truncate(24 * time.Hour)
	end := to.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var t state.Totals
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		consumed := e.ConsumedAt.UTC()
		if consumed.Before(start) || !consumed.Before(end) {
			continue
		}
		t.Entries++
		if e.Nutrition.Calories != nil {
			t.Calories += *e.Nutrition.Calories
		}
		if e.Nutrition.Protein != nil {
			t.Protein += *e.Nutrition.Protein
		}
		if e.Nutrition.Carbohydrate != nil {
			t.Carbohydrate += *e.Nutrition.Carbohydrate
		}
		if e.Nutrition.Fat != nil {
			t.Fat += *e.Nutrition.Fat
		}
	}
	return &t, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
