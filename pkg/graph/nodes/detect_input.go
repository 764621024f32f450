package nodes

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// newFoodPatterns recognize a message that starts a fresh food entry even
// while a clarification is pending, so a stale dialog never swallows it.
var newFoodPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^съел[аи]?\s+`),
	regexp.MustCompile(`(?i)^ел[аи]?\s+`),
	regexp.MustCompile(`(?i)^ate\s+`),
	regexp.MustCompile(`(?i)^had\s+`),
	regexp.MustCompile(`(?i)^i\s+(ate|had)\s+`),
	regexp.MustCompile(`(?i)кбжу\s*\d`),
	regexp.MustCompile(`(?i)\d+\s*(г|гр|грамм|g|ml|мл)\s+\S+`),
}

func isNewFoodRequest(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, p := range newFoodPatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// DetectInput classifies the raw input and resets stale dialog state when the
// user clearly starts over with a new food message.
func (s *Set) DetectInput(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	switch t.InputKind {
	case state.InputPhoto:
		if len(t.ClarificationRequests) > 0 {
			u.ClearClarifications = true
			u.ClearResponses = true
			u.ClearCandidates = true
			u.NeedsClarification = state.Bool(false)
		}
		return u, nil
	case state.InputText, state.InputCallback, state.InputConfirmation, "":
	default:
		msg := "Unsupported input type. Send text or a photo."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}

	if strings.TrimSpace(t.RawText) == "" && len(t.ClarificationResponses) == 0 {
		msg := "Empty message. Tell me what you ate, for example: ate 150g of rice."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}

	// A pending clarification normally means the text is an answer. A message
	// that reads like a brand-new food entry overrides that and starts clean.
	if len(t.ClarificationRequests) > 0 {
		if isNewFoodRequest(t.RawText) {
			s.logger.Info("new food request overrides pending clarification",
				zap.String("conversation_id", t.ConversationID))
			u.ClearClarifications = true
			u.ClearResponses = true
			u.ClearCandidates = true
			u.ClearSelection = true
			u.NeedsClarification = state.Bool(false)
			u.ParsedItems = []state.ParsedItem{}
			u.CandidatePage = state.Int(0)
			return u, nil
		}
		// Route straight to reconciliation; the raw text is the answer when
		// the transport supplied no keyed responses.
		if len(t.ClarificationResponses) == 0 && strings.TrimSpace(t.RawText) != "" {
			responses := map[string]string{}
			for _, req := range t.ClarificationRequests {
				responses[clarifKey(req)] = strings.TrimSpace(t.RawText)
				break
			}
			u.ClarificationResponses = responses
		}
		u.NextNode = state.NodeClarify
		return u, nil
	}

	return u, nil
}

// clarifKey derives the response key for a clarification request from the
// item index recorded in its context.
func clarifKey(req state.Clarification) string {
	return clarifKeyFor(ctxInt(req.Context, "food_index"))
}

func clarifKeyFor(idx int) string {
	return "clarif_" + strconv.Itoa(idx)
}
