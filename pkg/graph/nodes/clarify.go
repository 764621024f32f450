package nodes

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

var numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// parseWeight pulls the first number out of a free-text weight answer.
func parseWeight(answer string) (float64, bool) {
	m := numberRe.FindString(answer)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Clarify reconciles user answers against the pending clarification requests.
// Answers are matched against the option snapshot taken at ask time, so a
// candidate list that moved on between ask and answer cannot skew selection.
func (s *Set) Clarify(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	if len(t.ClarificationRequests) == 0 {
		u.NeedsClarification = state.Bool(false)
		return u, nil
	}
	if len(t.ClarificationResponses) == 0 {
		// Nothing to reconcile; re-surface the open question and wait.
		u.NeedsClarification = state.Bool(true)
		u.ShouldEnd = true
		return u, nil
	}

	items := make([]state.ParsedItem, len(t.ParsedItems))
	copy(items, t.ParsedItems)

	for _, req := range t.ClarificationRequests {
		idx := ctxInt(req.Context, "food_index")
		answer, ok := t.ClarificationResponses[clarifKeyFor(idx)]
		if !ok {
			continue
		}
		answer = strings.TrimSpace(answer)

		switch req.Type {
		case state.ClarifyWeight, state.ClarifyWeightFor100:
			w, ok := parseWeight(answer)
			if !ok {
				u.ClarificationRequests = []state.Clarification{req}
				u.NeedsClarification = state.Bool(true)
				u.ShouldEnd = true
				return u, nil
			}
			if idx < len(items) {
				items[idx].Quantity = &w
				if items[idx].Unit == "" {
					items[idx].Unit = "g"
				}
			}
			u.ParsedItems = items
			u.ClearClarifications = true
			u.ClearResponses = true
			u.NeedsClarification = state.Bool(false)
			switch {
			case idx < len(items) && items[idx].Custom != nil:
				u.NextNode = state.NodeCustom
			case t.SelectedFood != nil:
				// The food was already chosen; only the portion was missing.
				u.NextNode = state.NodeSelectServing
			default:
				u.NextNode = state.NodeSearch
			}
			return u, nil

		case state.ClarifyCookingMethod:
			if idx < len(items) {
				items[idx].CookingMethod = strings.ToLower(answer)
			}
			u.ParsedItems = items
			// Other requests may still be pending; keep looping.

		case state.ClarifyConfirmation:
			u.ClearClarifications = true
			u.ClearResponses = true
			u.NeedsClarification = state.Bool(false)
			if len(req.Options) > 0 && strings.EqualFold(answer, req.Options[0]) {
				u.NextNode = state.NodeSearch
				return u, nil
			}
			msg := "Okay. Please describe the food in text instead."
			u.ParsedItems = []state.ParsedItem{}
			u.Advice = msg
			u.ShouldEnd = true
			return u, nil

		case state.ClarifyFoodSelection:
			return s.reconcileSelection(t, u, req, answer)

		default:
			s.logger.Warn("unknown clarification type",
				zap.String("conversation_id", t.ConversationID),
				zap.String("type", string(req.Type)))
		}
	}

	// Only in-place edits (cooking methods) remained; continue to search.
	u.ParsedItems = items
	u.ClearClarifications = true
	u.ClearResponses = true
	u.NeedsClarification = state.Bool(false)
	u.NextNode = state.NodeSearch
	return u, nil
}

// reconcileSelection maps a food-selection answer back to a concrete
// candidate, handling the paging and escape sentinels first.
func (s *Set) reconcileSelection(t *state.Turn, u *state.Update, req state.Clarification, answer string) (*state.Update, error) {
	page := ctxInt(req.Context, "page")

	switch answer {
	case OptionShowMore:
		u.CandidatePage = state.Int(page + 1)
		u.ClearClarifications = true
		u.NextNode = state.NodePaginate
		return u, nil

	case OptionShowPrevious:
		prev := page - 1
		if prev < 0 {
			prev = 0
		}
		u.CandidatePage = state.Int(prev)
		u.ClearClarifications = true
		u.NextNode = state.NodePaginate
		return u, nil

	case OptionUseLabelData:
		items := make([]state.ParsedItem, len(t.ParsedItems))
		copy(items, t.ParsedItems)
		idx := ctxInt(req.Context, "food_index")
		if idx < len(items) && items[idx].OCRFallback != nil {
			items[idx].Custom = items[idx].OCRFallback
		}
		u.ParsedItems = items
		u.ClearClarifications = true
		u.ClearResponses = true
		u.ClearCandidates = true
		u.CandidatePage = state.Int(0)
		u.NeedsClarification = state.Bool(false)
		u.NextNode = state.NodeCustom
		return u, nil

	case OptionCreateCustom:
		u.ClearClarifications = true
		u.ClearResponses = true
		u.ClearCandidates = true
		u.CandidatePage = state.Int(0)
		u.NeedsClarification = state.Bool(false)
		u.NextNode = state.NodeCreateCustom
		return u, nil
	}

	for i, opt := range req.Options {
		if opt != answer {
			continue
		}
		actual := page*pageSize + i
		if actual >= len(t.Candidates) {
			break
		}
		selected := t.Candidates[actual]
		u.SelectedFood = &selected
		u.CandidatePage = state.Int(0)
		u.ClearClarifications = true
		u.ClearResponses = true
		u.NeedsClarification = state.Bool(false)
		u.NextNode = state.NodeSelectServing
		return u, nil
	}

	// The answer matched nothing we offered; treat it as a fresh description
	// and search again from scratch.
	s.logger.Info("selection answer matched no offered option, re-searching",
		zap.String("conversation_id", t.ConversationID),
		zap.String("answer", answer))
	u.ClearClarifications = true
	u.ClearResponses = true
	u.ClearCandidates = true
	u.ClearSelection = true
	u.CandidatePage = state.Int(0)
	u.NeedsClarification = state.Bool(false)
	if strings.TrimSpace(answer) != "" && answer != OptionRephrase {
		u.ParsedItems = []state.ParsedItem{{Name: answer}}
	}
	u.NextNode = state.NodeSearch
	return u, nil
}
