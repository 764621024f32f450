package nodes

import (
	"context"

	"github.com/papercomputeco/platelog/pkg/state"
)

// CreateCustom is the escape hatch from a fruitless database search: it tells
// the user how to submit their own nutrition values and ends the turn. The
// next message carrying explicit values flows through the custom pipeline.
func (s *Set) CreateCustom(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{ShouldEnd: true}
	u.Advice = "Send the nutrition values like this: my snack 250/30/20/10 per 100g " +
		"(calories/protein/carbs/fat), then the weight you ate."
	return u, nil
}
