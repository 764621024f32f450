package nodes

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// photoConfirmThreshold is the recognition confidence below which the bot
// asks the user to confirm the product before searching.
const photoConfirmThreshold = 0.6

// ProcessPhoto handles an inbound photo: a readable nutrition label wins over
// product recognition, a confident recognition goes straight to search, and a
// shaky one asks the user to confirm first.
func (s *Set) ProcessPhoto(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	if t.PhotoRef == "" {
		msg := "No photo attached. Send the photo again or describe the food in text."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}

	scan, err := s.nlu.ParseNutritionLabel(ctx, t.PhotoRef)
	if err == nil && scan.HasMacros() {
		s.logger.Debug("photo carries a nutrition label",
			zap.String("conversation_id", t.ConversationID),
			zap.Float64("confidence", scan.Confidence))
		u.NextNode = state.NodeLabel
		return u, nil
	}
	if err != nil {
		s.logger.Debug("label scan unavailable, trying product recognition",
			zap.String("conversation_id", t.ConversationID), zap.Error(err))
	}

	rec, err := s.nlu.RecognizeProductPhoto(ctx, t.PhotoRef)
	if err != nil || rec.ProductName == "" {
		if err != nil {
			u.Errors = append(u.Errors, fmt.Sprintf("photo recognition: %v", err))
		}
		msg := "Could not recognize the product from the photo. Please describe it in text."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}

	name := rec.SearchQuery
	if name == "" {
		name = rec.ProductName
	}
	item := state.ParsedItem{
		Name:  name,
		Notes: "from photo: " + rec.ProductName,
	}
	u.ParsedItems = []state.ParsedItem{item}

	if rec.Confidence < photoConfirmThreshold {
		u.ClarificationRequests = []state.Clarification{{
			Type:     state.ClarifyConfirmation,
			Question: fmt.Sprintf("Is this %s?", rec.ProductName),
			Options:  []string{"Yes, that's right", "No, something else"},
			Context: map[string]any{
				"food_index":   0,
				"product_name": rec.ProductName,
				"search_query": name,
				"confidence":   rec.Confidence,
			},
		}}
		u.NeedsClarification = state.Bool(true)
		u.ShouldEnd = true
		return u, nil
	}

	return u, nil
}
