package nodes

import (
	"context"
	"fmt"

	"github.com/papercomputeco/platelog/pkg/state"
)

// ProcessCustom builds pending entries from user-supplied nutrition values.
// Per-100 values are scaled by the actual portion weight; per-portion values
// are taken as one serving. Items missing the weight needed for the math
// raise a clarification instead of guessing.
func (s *Set) ProcessCustom(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	var entries []state.PendingEntry
	var requests []state.Clarification

	for i, item := range t.ParsedItems {
		if item.Custom == nil {
			continue
		}
		if item.Custom.PerHundred {
			if item.Quantity == nil {
				requests = append(requests, state.Clarification{
					Type:     state.ClarifyWeightFor100,
					Question: fmt.Sprintf("The values for %s are per 100g. How many grams did you have?", item.Name),
					Context:  map[string]any{"food_index": i, "food_name": item.Name},
				})
				continue
			}
			servings := *item.Quantity / 100
			entries = append(entries, state.PendingEntry{
				FoodName:      item.Name,
				ServingAmount: item.Quantity,
				ServingUnit:   unitOrGrams(item.Unit),
				NumServings:   servings,
				Nutrition:     customToNutrition(item.Custom).Scale(servings),
				IsCustom:      true,
			})
			continue
		}
		if item.Quantity == nil {
			requests = append(requests, state.Clarification{
				Type:     state.ClarifyWeight,
				Question: fmt.Sprintf("How many grams of %s did you have?", item.Name),
				Context:  map[string]any{"food_index": i, "food_name": item.Name},
			})
			continue
		}
		entries = append(entries, state.PendingEntry{
			FoodName:      item.Name,
			ServingAmount: item.Quantity,
			ServingUnit:   unitOrGrams(item.Unit),
			NumServings:   1,
			Nutrition:     customToNutrition(item.Custom),
			IsCustom:      true,
		})
	}

	if len(requests) > 0 {
		u.ClarificationRequests = requests
		u.NeedsClarification = state.Bool(true)
		u.ShouldEnd = true
		return u, nil
	}
	if len(entries) == 0 {
		msg := "No nutrition values found. Type them like: my snack 250/30/20/10 per 100g."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}
	u.PendingEntries = entries
	u.NextNode = state.NodeSaveEntry
	return u, nil
}

func customToNutrition(c *state.CustomNutrition) state.Nutrition {
	return state.Nutrition{
		Calories:     c.Calories,
		Protein:      c.Protein,
		Carbohydrate: c.Carbs,
		Fat:          c.Fat,
	}
}

func unitOrGrams(unit string) string {
	if unit == "" {
		return "g"
	}
	return unit
}
