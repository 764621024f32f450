// Package fooddb defines the boundary to the external food-nutrition
// database: candidate search and per-food serving lookup.
package fooddb

import (
	"context"

	"github.com/papercomputeco/platelog/pkg/state"
)

// Client is the food database collaborator consumed by the resolution
// pipeline. Implementations own their transport timeouts.
type Client interface {
	// SearchFoods returns up to maxResults candidates for the query, best
	// match first. An empty result is not an error.
	SearchFoods(ctx context.Context, query string, maxResults int) ([]state.Candidate, error)

	// GetServings returns the serving options for a food, in the order the
	// database reports them.
	GetServings(ctx context.Context, foodID string) ([]state.Serving, error)
}
