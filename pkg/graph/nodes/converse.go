package nodes

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/nlu"
	"github.com/papercomputeco/platelog/pkg/state"
)

const converseFallback = "I can log your meals and answer questions about your nutrition. Tell me what you ate!"

// Converse handles the non-logging intents: report requests get totals over
// the asked-for window, everything else goes to the chat model. The reply is
// always set so the turn never ends silently.
func (s *Set) Converse(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{ShouldEnd: true}

	if t.Intent == state.IntentViewReport {
		u.Advice = s.report(ctx, t, u)
		return u, nil
	}

	text, err := s.nlu.Chat(ctx, t.RawText)
	if err != nil || text == "" {
		if err != nil {
			s.logger.Warn("chat reply failed, using fallback",
				zap.String("conversation_id", t.ConversationID), zap.Error(err))
			u.Errors = append(u.Errors, fmt.Sprintf("chat: %v", err))
		}
		u.Advice = converseFallback
		return u, nil
	}
	u.Advice = text
	return u, nil
}

// report resolves the asked-for period and renders a totals summary.
func (s *Set) report(ctx context.Context, t *state.Turn, u *state.Update) string {
	req, err := s.nlu.AnalyzeReportRequest(ctx, t.RawText)
	if err != nil {
		s.logger.Warn("report request analysis failed, defaulting to today",
			zap.String("conversation_id", t.ConversationID), zap.Error(err))
		req = nil
	}

	now := time.Now().UTC()
	from, to, label := reportWindow(req, now)

	totals, err := s.entries.RangeTotals(ctx, t.UserID, from, to)
	if err != nil {
		u.Errors = append(u.Errors, fmt.Sprintf("report totals: %v", err))
		return "Could not load your report right now. Try again in a minute."
	}
	if totals.Entries == 0 {
		return fmt.Sprintf("No entries logged %s yet.", label)
	}
	return fmt.Sprintf("Your totals %s: %.0f kcal, %.1fg protein, %.1fg carbs, %.1fg fat across %d entries.",
		label, totals.Calories, totals.Protein, totals.Carbohydrate, totals.Fat, totals.Entries)
}

// reportWindow maps a report request to an inclusive UTC day range.
func reportWindow(req *nlu.ReportRequest, now time.Time) (time.Time, time.Time, string) {
	day := now.Truncate(24 * time.Hour)
	if req == nil {
		return day, day, "today"
	}
	switch req.Period {
	case "yesterday":
		y := day.AddDate(0, 0, -1)
		return y, y, "yesterday"
	case "week":
		return day.AddDate(0, 0, -6), day, "this week"
	case "days":
		days := req.Days
		if days < 1 {
			days = 1
		}
		return day.AddDate(0, 0, -(days - 1)), day, fmt.Sprintf("over the last %d days", days)
	default:
		return day, day, "today"
	}
}
