package nodes

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// SelectServing picks the serving of the chosen food that best matches the
// user's portion and computes the serving multiplier. A missing portion
// weight is asked for rather than silently assumed to be one serving.
func (s *Set) SelectServing(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	if t.SelectedFood == nil {
		msg := "No food selected. Tell me what you ate."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}

	servings, err := s.foodDB.GetServings(ctx, t.SelectedFood.ID)
	if err != nil {
		msg := "Could not load serving sizes for that food. Try again in a minute."
		u.Errors = append(u.Errors, fmt.Sprintf("get servings: %v", err), msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}
	if len(servings) == 0 {
		msg := "That food has no serving data. Pick another option or create a custom food."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}

	var item state.ParsedItem
	if len(t.ParsedItems) > 0 {
		item = t.ParsedItems[0]
	}

	serving, numServings, resolved := matchServing(servings, item)
	if !resolved {
		// A weight-based serving exists but the user never said how much
		// they ate. Ask instead of logging a guessed portion.
		u.ClarificationRequests = []state.Clarification{{
			Type:     state.ClarifyWeight,
			Question: fmt.Sprintf("How many grams of %s did you have?", t.SelectedFood.Name),
			Context:  map[string]any{"food_index": 0, "food_name": t.SelectedFood.Name},
		}}
		u.NeedsClarification = state.Bool(true)
		u.ShouldEnd = true
		return u, nil
	}

	s.logger.Debug("serving selected",
		zap.String("conversation_id", t.ConversationID),
		zap.String("food", t.SelectedFood.Name),
		zap.String("serving", serving.Description),
		zap.Float64("servings", numServings))

	selected := serving
	u.SelectedServing = &selected
	u.PendingEntries = []state.PendingEntry{{
		FoodID:             t.SelectedFood.ID,
		FoodName:           t.SelectedFood.Name,
		Brand:              t.SelectedFood.Brand,
		ServingID:          serving.ID,
		ServingDescription: serving.Description,
		ServingAmount:      serving.MetricAmount,
		ServingUnit:        serving.MetricUnit,
		NumServings:        numServings,
		Nutrition:          serving.Nutrition.Scale(numServings),
	}}
	u.NextNode = state.NodeSaveEntry
	return u, nil
}

// matchServing applies the portion strategies in order: a per-100-unit
// serving scaled by the stated weight, an exact metric match counted as one
// serving, then the first serving as a last resort. It reports resolved=false
// when only a weight question can settle the portion.
func matchServing(servings []state.Serving, item state.ParsedItem) (state.Serving, float64, bool) {
	unit := baseUnit(item.Unit)

	for _, sv := range servings {
		if sv.MetricAmount == nil || *sv.MetricAmount != 100 || !unitsMatch(sv.MetricUnit, unit) {
			continue
		}
		if item.Quantity == nil {
			return sv, 0, false
		}
		return sv, *item.Quantity / 100, true
	}

	if item.Quantity != nil {
		for _, sv := range servings {
			if sv.MetricAmount == nil || !unitsMatch(sv.MetricUnit, unit) {
				continue
			}
			if math.Abs(*sv.MetricAmount-*item.Quantity) < 1.0 {
				return sv, 1, true
			}
		}
	}

	return servings[0], 1, true
}

// baseUnit normalizes mass and volume unit spellings. Anything else, count
// units like "pcs" or "шт" included, passes through unchanged so it never
// matches a metric weight serving and the portion falls back to one serving.
func baseUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "", "g", "г", "гр", "gr", "gram", "grams", "грамм", "граммов":
		return "g"
	case "ml", "мл":
		return "ml"
	default:
		return strings.ToLower(unit)
	}
}

func unitsMatch(servingUnit, userUnit string) bool {
	return baseUnit(servingUnit) == userUnit
}
