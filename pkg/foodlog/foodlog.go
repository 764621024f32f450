// Package foodlog persists resolved nutrition entries and computes totals.
package foodlog

import (
	"context"
	"time"

	"github.com/papercomputeco/platelog/pkg/state"
)

// Entry is one saved food-log record.
type Entry struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	FoodID             string          `json:"food_id,omitempty"`
	FoodName           string          `json:"food_name"`
	Brand              string          `json:"brand_name,omitempty"`
	ServingID          string          `json:"serving_id,omitempty"`
	ServingDescription string          `json:"serving_description,omitempty"`
	ServingAmount      *float64        `json:"serving_amount,omitempty"`
	ServingUnit        string          `json:"serving_unit,omitempty"`
	NumServings        float64         `json:"number_of_servings"`
	Nutrition          state.Nutrition `json:"nutrition"`
	MealType           string          `json:"meal_type,omitempty"`
	ConsumedAt         time.Time       `json:"consumed_at"`
	InputKind          string          `json:"input_type,omitempty"`
	OriginalInput      string          `json:"original_input,omitempty"`
	IsCustom           bool            `json:"is_custom"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Store is the food-log storage backend.
type Store interface {
	// CreateEntry persists an entry and returns its id.
	CreateEntry(ctx context.Context, e *Entry) (int64, error)

	// DailyTotals sums the tracked nutrients for entries consumed on the
	// given day (UTC).
	DailyTotals(ctx context.Context, userID int64, day time.Time) (*state.Totals, error)

	// RangeTotals sums the tracked nutrients for entries consumed between
	// from and to inclusive (UTC days).
	RangeTotals(ctx context.Context, userID int64, from, to time.Time) (*state.Totals, error)

	// Close releases the backend's resources.
	Close() error
}
