package nodes

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// Search resolves the first parsed item against the food database. The query
// is translated to English first since the database is English-only; a miss
// is retried with the last word of the name before falling back to scanned
// label values or a custom-entry escape hatch.
func (s *Set) Search(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	if len(t.ParsedItems) == 0 {
		msg := "Nothing to look up. Tell me what you ate."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}
	item := t.ParsedItems[0]
	if item.Custom != nil {
		u.NextNode = state.NodeCustom
		return u, nil
	}

	query := s.buildQuery(ctx, t, item)
	candidates, err := s.foodDB.SearchFoods(ctx, query, maxSearchResults)
	if err != nil {
		msg := "The food database is unavailable right now. Try again in a minute."
		u.Errors = append(u.Errors, fmt.Sprintf("food search: %v", err), msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}

	// Broaden a miss on a multi-word query: "grilled chicken breast" often
	// misses where plain "breast" -> "chicken" hits.
	if len(candidates) == 0 {
		if words := strings.Fields(query); len(words) > 1 {
			broadened := words[len(words)-1]
			s.logger.Debug("broadening empty search",
				zap.String("conversation_id", t.ConversationID),
				zap.String("query", query), zap.String("broadened", broadened))
			candidates, err = s.foodDB.SearchFoods(ctx, broadened, maxSearchResults)
			if err != nil {
				u.Errors = append(u.Errors, fmt.Sprintf("food search: %v", err))
				candidates = nil
			}
		}
	}

	if len(candidates) == 0 {
		if item.OCRFallback != nil {
			// Nothing in the database, but the label scan already gave us
			// everything needed for a custom entry.
			items := make([]state.ParsedItem, len(t.ParsedItems))
			copy(items, t.ParsedItems)
			items[0].Custom = items[0].OCRFallback
			u.ParsedItems = items
			u.NextNode = state.NodeCustom
			return u, nil
		}
		u.ClarificationRequests = []state.Clarification{{
			Type:     state.ClarifyFoodSelection,
			Question: fmt.Sprintf("I couldn't find %q. Rephrase the name or create a custom food.", item.Name),
			Options:  []string{OptionRephrase, OptionCreateCustom},
			Context:  map[string]any{"food_index": 0, "food_name": item.Name, "page": 0, "total_found": 0},
		}}
		u.NeedsClarification = state.Bool(true)
		u.ShouldEnd = true
		return u, nil
	}

	u.Candidates = candidates
	u.CandidatePage = state.Int(0)

	options := candidatePageOptions(candidates, 0, item.OCRFallback != nil)
	u.ClarificationRequests = []state.Clarification{{
		Type:     state.ClarifyFoodSelection,
		Question: fmt.Sprintf("Which one is your %s?", item.Name),
		Options:  options,
		Context: map[string]any{
			"food_index":  0,
			"food_name":   item.Name,
			"page":        0,
			"total_found": len(candidates),
		},
	}}
	u.NeedsClarification = state.Bool(true)
	u.ShouldEnd = true
	return u, nil
}

func (s *Set) buildQuery(ctx context.Context, t *state.Turn, item state.ParsedItem) string {
	query := item.Name
	if item.CookingMethod != "" {
		query = item.CookingMethod + " " + query
	}
	translated, err := s.nlu.Translate(ctx, query)
	if err != nil {
		s.logger.Warn("translation failed, searching with the original text",
			zap.String("conversation_id", t.ConversationID), zap.Error(err))
		return query
	}
	if strings.TrimSpace(translated) == "" {
		return query
	}
	return translated
}

// candidatePageOptions formats one page of candidates plus the navigation
// and escape sentinels. These exact strings are what reconciliation matches
// against later.
func candidatePageOptions(candidates []state.Candidate, page int, hasLabelData bool) []string {
	start := page * pageSize
	end := start + pageSize
	if end > len(candidates) {
		end = len(candidates)
	}
	var options []string
	for _, c := range candidates[start:end] {
		options = append(options, formatCandidate(c))
	}
	if page > 0 {
		options = append(options, OptionShowPrevious)
	}
	options = append(options, OptionShowMore)
	if hasLabelData {
		options = append(options, OptionUseLabelData)
	}
	options = append(options, OptionCreateCustom)
	return options
}

// formatCandidate renders a selection option. FatSecret reports unbranded
// foods with the placeholder brand "Generic", which is noise in option text.
func formatCandidate(c state.Candidate) string {
	if c.Brand != "" && !strings.EqualFold(c.Brand, "Generic") {
		return fmt.Sprintf("%s (%s)", c.Name, c.Brand)
	}
	return c.Name
}
