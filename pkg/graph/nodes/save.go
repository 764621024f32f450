package nodes

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/eventstream"
	"github.com/papercomputeco/platelog/pkg/foodlog"
	"github.com/papercomputeco/platelog/pkg/state"
)

// SaveEntry persists the pending entries. A turn that already saved entries
// is a no-op so a replayed resume cannot double-log a meal. Missing required
// fields here mean an upstream node bug and fail the turn loudly.
func (s *Set) SaveEntry(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	if len(t.SavedEntryIDs) > 0 {
		u.NextNode = state.NodeTotals
		return u, nil
	}
	if len(t.PendingEntries) == 0 {
		return nil, fmt.Errorf("save entry: nothing pending")
	}

	now := time.Now().UTC()
	ids := make([]int64, 0, len(t.PendingEntries))
	for _, pending := range t.PendingEntries {
		if pending.FoodName == "" {
			return nil, fmt.Errorf("save entry: missing food name")
		}
		if pending.Nutrition.Calories == nil {
			return nil, fmt.Errorf("save entry: missing calories for %s", pending.FoodName)
		}
		entry := &foodlog.Entry{
			UserID:             t.UserID,
			FoodID:             pending.FoodID,
			FoodName:           pending.FoodName,
			Brand:              pending.Brand,
			ServingID:          pending.ServingID,
			ServingDescription: pending.ServingDescription,
			ServingAmount:      pending.ServingAmount,
			ServingUnit:        pending.ServingUnit,
			NumServings:        pending.NumServings,
			Nutrition:          pending.Nutrition,
			MealType:           pending.MealType,
			ConsumedAt:         now,
			InputKind:          string(t.InputKind),
			OriginalInput:      t.RawText,
			IsCustom:           pending.IsCustom,
		}
		id, err := s.entries.CreateEntry(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("save entry: %w", err)
		}
		ids = append(ids, id)

		if s.events != nil {
			s.events.Enqueue(eventstream.NewEntryLoggedEvent(
				t.UserID, t.ConversationID, id,
				pending.FoodName, *pending.Nutrition.Calories, pending.IsCustom))
		}

		s.logger.Info("entry saved",
			zap.String("conversation_id", t.ConversationID),
			zap.Int64("entry_id", id),
			zap.String("food", pending.FoodName),
			zap.Float64("calories", *pending.Nutrition.Calories))
	}

	u.SavedEntryIDs = ids
	u.NextNode = state.NodeTotals
	return u, nil
}
