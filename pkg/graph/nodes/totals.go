package nodes

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// Totals computes the user's running totals for today. A totals failure is
// degraded rather than fatal: the entry is already saved, so the turn goes on
// to advice without the numbers.
func (s *Set) Totals(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	totals, err := s.entries.DailyTotals(ctx, t.UserID, time.Now().UTC())
	if err != nil {
		s.logger.Warn("daily totals unavailable",
			zap.String("conversation_id", t.ConversationID), zap.Error(err))
		u.Errors = append(u.Errors, fmt.Sprintf("daily totals: %v", err))
		u.NextNode = state.NodeAdvice
		return u, nil
	}

	u.DailyTotals = totals
	u.NextNode = state.NodeAdvice
	return u, nil
}
