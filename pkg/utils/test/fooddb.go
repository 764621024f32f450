package testutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/platelog/pkg/state"
)

// MockFoodDB is a test food database client with canned results per query.
type MockFoodDB struct {
	// Results maps a search query to its candidates. Unmapped queries
	// return no results.
	Results map[string][]state.Candidate

	// Servings maps a food id to its serving options.
	Servings map[string][]state.Serving

	// Queries accumulates all queries passed to SearchFoods.
	Queries []string

	// FailSearch and FailServings cause the matching call to fail.
	FailSearch   bool
	FailServings bool
}

// NewMockFoodDB creates an empty mock food database.
func NewMockFoodDB() *MockFoodDB {
	return &MockFoodDB{
		Results:  map[string][]state.Candidate{},
		Servings: map[string][]state.Serving{},
	}
}

func (m *MockFoodDB) SearchFoods(_ context.Context, query string, _ int) ([]state.Candidate, error) {
	m.Queries = append(m.Queries, query)
	if m.FailSearch {
		return nil, fmt.Errorf("mock search failure")
	}
	return m.Results[query], nil
}

func (m *MockFoodDB) GetServings(_ context.Context, foodID string) ([]state.Serving, error) {
	if m.FailServings {
		return nil, fmt.Errorf("mock servings failure")
	}
	return m.Servings[foodID], nil
}
