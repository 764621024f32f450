package nodes

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// Paginate re-asks the food selection with the next (or previous) page of
// candidates. Paging past the end wraps back to the first page rather than
// showing an empty list.
func (s *Set) Paginate(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	if len(t.Candidates) == 0 {
		u.CandidatePage = state.Int(0)
		u.NextNode = state.NodeSearch
		return u, nil
	}

	page := t.CandidatePage
	if page < 0 || page*pageSize >= len(t.Candidates) {
		s.logger.Debug("candidate page out of range, wrapping to first page",
			zap.String("conversation_id", t.ConversationID), zap.Int("page", page))
		page = 0
	}
	u.CandidatePage = state.Int(page)

	foodName := ""
	hasLabelData := false
	if len(t.ParsedItems) > 0 {
		foodName = t.ParsedItems[0].Name
		hasLabelData = t.ParsedItems[0].OCRFallback != nil
	}

	u.ClarificationRequests = []state.Clarification{{
		Type:     state.ClarifyFoodSelection,
		Question: fmt.Sprintf("Which one is your %s?", foodName),
		Options:  candidatePageOptions(t.Candidates, page, hasLabelData),
		Context: map[string]any{
			"food_index":  0,
			"food_name":   foodName,
			"page":        page,
			"total_found": len(t.Candidates),
		},
	}}
	u.NeedsClarification = state.Bool(true)
	u.ShouldEnd = true
	return u, nil
}
