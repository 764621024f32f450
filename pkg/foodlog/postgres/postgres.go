// Package postgres provides a PostgreSQL-backed food log store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx PostgreSQL driver as "pgx"

	"github.com/papercomputeco/platelog/pkg/foodlog"
	"github.com/papercomputeco/platelog/pkg/state"
)

// Store implements foodlog.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection using a PostgreSQL connection string or URI.
func NewStore(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS food_log_entries (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		food_id TEXT,
		food_name TEXT NOT NULL,
		brand_name TEXT,
		serving_id TEXT,
		serving_description TEXT,
		serving_amount DOUBLE PRECISION,
		serving_unit TEXT,
		number_of_servings DOUBLE PRECISION NOT NULL DEFAULT 1,
		calories DOUBLE PRECISION NOT NULL,
		protein DOUBLE PRECISION,
		carbohydrate DOUBLE PRECISION,
		fat DOUBLE PRECISION,
		fiber DOUBLE PRECISION,
		sugar DOUBLE PRECISION,
		sodium DOUBLE PRECISION,
		meal_type TEXT,
		consumed_at TIMESTAMPTZ NOT NULL,
		input_type TEXT,
		original_input TEXT,
		is_custom BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_food_log_entries_user_consumed ON food_log_entries(user_id, consumed_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// CreateEntry persists an entry and returns its id.
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
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		e.UserID, e.FoodID, e.FoodName, e.Brand, e.ServingID, e.ServingDescription,
		e.ServingAmount, e.ServingUnit, e.NumServings,
		*e.Nutrition.Calories, e.Nutrition.Protein, e.Nutrition.Carbohydrate, e.Nutrition.Fat,
		e.Nutrition.Fiber, e.Nutrition.Sugar, e.Nutrition.Sodium,
		e.MealType, e.ConsumedAt.UTC(), e.InputKind, e.OriginalInput, e.IsCustom,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	return id, nil
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
	WHERE user_id = $1 AND consumed_at >= $2 AND consumed_at < $3`

	row := s.db.QueryRowContext(ctx, query, userID, start, end)

	var t state.Totals
	if err := row.Scan(&t.Calories, &t.Protein, &t.Carbohydrate, &t.Fat, &t.Entries); err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}
	return &t, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
