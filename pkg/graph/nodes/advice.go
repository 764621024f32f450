package nodes

import (
	"context"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// adviceFallback is shown when the language model cannot produce advice; the
// turn still ends successfully because the entry is already logged.
const adviceFallback = "Logged! Keep tracking your meals and check your totals any time."

// Advice closes a successful logging turn with a short model-written remark
// about the day's totals.
func (s *Set) Advice(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{ShouldEnd: true}

	text, err := s.nlu.Advise(ctx, t.DailyTotals)
	if err != nil || text == "" {
		if err != nil {
			s.logger.Warn("advice generation failed, using fallback",
				zap.String("conversation_id", t.ConversationID), zap.Error(err))
		}
		u.Advice = adviceFallback
		return u, nil
	}

	u.Advice = text
	return u, nil
}
