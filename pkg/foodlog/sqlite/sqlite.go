// Package sqlite provides a SQLite-backed food log store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/platelog/pkg/foodlog"
	"github.com/papercomputeco/platelog/pkg/state"
)

// Store implements foodlog.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath. ":memory:" yields an
// in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS food_log_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		food_id TEXT,
		food_name TEXT NOT NULL,
		brand_name TEXT,
		serving_id TEXT,
		serving_description TEXT,
		serving_amount REAL,
		serving_unit TEXT,
		number_of_servings REAL NOT NULL DEFAULT 1,
		calories REAL NOT NULL,
		protein REAL,
		carbohydrate REAL,
		fat REAL,
		fiber REAL,
		sugar REAL,
		sodium REAL,
		meal_type TEXT,
		consumed_at DATETIME NOT NULL,
		input_type TEXT,
		original_input TEXT,
		is_custom INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_food_log_entries_user_consumed ON food_log_entries(user_id, consumed_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateEntry persists an entry and returns its id. Calories and consumed-at
// are required; a missing value is a caller bug surfaced as an error.
func (s *Store) CreateEntry(ctx context.Context, e *foodlog.Entry) (int64, error) {
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

	query := `INSERT INTO food_log_entries
		(user_id, food_id, food_name, brand_name, serving_id, serving_description,
		 serving_amount, serving_unit, number_of_servings,
		 calories, protein, carbohydrate, fat, fiber, sugar, sodium,
		 meal_type, consumed_at, input_type, original_input, is_custom)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		e.UserID, e.FoodID, e.FoodName, e.Brand, e.ServingID, e.ServingDescription,
		e.ServingAmount, e.ServingUnit, e.NumServings,
		*e.Nutrition.Calories, e.Nutrition.Protein, e.Nutrition.Carbohydrate, e.Nutrition.Fat,
		e.Nutrition.Fiber, e.Nutrition.Sugar, e.Nutrition.Sodium,
		e.MealType, e.ConsumedAt.UTC(), e.InputKind, e.OriginalInput, e.IsCustom)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	return res.LastInsertId()
}

// DailyTotals sums tracked nutrients for one UTC day.
func (s *Store) DailyTotals(ctx context.Context, userID int64, day time.Time) (*state.Totals, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	return s.RangeTotals(ctx, userID, from, from)
}

// RangeTotals sums tracked nutrients for entries consumed between the UTC
// days of from and to, inclusive.
func (s *Store) RangeTotals(ctx context.Context, userID int64, from, to time.Time) (*state.Totals, error) {
	start := from.UTC().Truncate(24 * time.Hour)
	end := to.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	query := `SELECT
		COALESCE(SUM(calories), 0),
		COALESCE(SUM(protein), 0),
		COALESCE(SUM(carbohydrate), 0),
		COALESCE(SUM(fat), 0),
		COUNT(*)
	FROM food_log_entries
	WHERE user_id = ? AND consumed_at >= ? AND consumed_at < ?`

	row := s.db.QueryRowContext(ctx, query, userID, start, end)

	var t state.Totals
	if err := row.Scan(&t.Calories, &t.Protein, &t.Carbohydrate, &t.Fat, &t.Entries); err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}
	return &t, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
