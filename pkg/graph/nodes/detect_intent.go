package nodes

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// DetectIntent asks the language model what the user wants. Classification
// failures default to a food entry with low confidence rather than ending
// the turn, since logging food is the dominant use of the bot.
func (s *Set) DetectIntent(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	res, err := s.nlu.DetectIntent(ctx, t.RawText)
	if err != nil {
		s.logger.Warn("intent detection failed, assuming food entry",
			zap.String("conversation_id", t.ConversationID), zap.Error(err))
		u.Errors = append(u.Errors, fmt.Sprintf("intent detection: %v", err))
		u.Intent = state.IntentFoodEntry
		u.IntentConfidence = state.Float(0.5)
		return u, nil
	}

	intent := res.Intent
	switch intent {
	case state.IntentFoodEntry, state.IntentQuestion, state.IntentViewReport, state.IntentChat:
	default:
		intent = state.IntentFoodEntry
	}
	u.Intent = intent
	u.IntentConfidence = state.Float(res.Confidence)

	s.logger.Debug("intent detected",
		zap.String("conversation_id", t.ConversationID),
		zap.String("intent", string(intent)),
		zap.Float64("confidence", res.Confidence))
	return u, nil
}
