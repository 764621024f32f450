package nodes

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// cookedStaples are foods whose nutrition differs enough between raw and
// cooked that the cooking method must be pinned down before searching.
var cookedStaples = []string{
	"гречка", "рис", "макароны", "курица", "мясо", "картофель", "овсянка",
	"rice", "buckwheat", "pasta", "chicken", "meat", "potato", "oatmeal",
}

var (
	foodPrefixRe = regexp.MustCompile(`(?i)^(я\s+)?(съел[аи]?|ел[аи]?|ate|had|i\s+ate|i\s+had)\s+`)
	quantityRe   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(г|гр|грамм[а-я]*|g|grams?|мл|ml|шт|pcs?)?`)
	splitRe      = regexp.MustCompile(`(?i)\s*(?:,|;|\sи\s|\sand\s)\s*`)
)

// Normalize turns free text into parsed food items, falling back to a regex
// parser when the language model is down, and raises clarifications for
// missing weights and ambiguous cooking methods.
func (s *Set) Normalize(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	items, reasons := s.parseItems(ctx, t, u)
	if len(items) == 0 {
		msg := "Could not understand the food description. Try something like: ate 150g of boiled rice."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}
	u.ParsedItems = items

	var requests []state.Clarification
	for i, item := range items {
		if item.Custom != nil {
			continue
		}
		if item.Quantity == nil {
			requests = append(requests, state.Clarification{
				Type:     state.ClarifyWeight,
				Question: fmt.Sprintf("How many grams of %s did you have?", item.Name),
				Context:  map[string]any{"food_index": i, "food_name": item.Name},
			})
			continue
		}
		if item.CookingMethod == "" && isCookedStaple(item.Name) {
			requests = append(requests, state.Clarification{
				Type:     state.ClarifyCookingMethod,
				Question: fmt.Sprintf("How was the %s prepared?", item.Name),
				Options:  []string{"Boiled", "Fried", "Steamed", "Baked", "Raw"},
				Context:  map[string]any{"food_index": i, "food_name": item.Name},
			})
		}
	}
	for _, r := range reasons {
		s.logger.Debug("parser requested clarification",
			zap.String("conversation_id", t.ConversationID), zap.String("reason", r))
	}

	if len(requests) > 0 {
		u.ClarificationRequests = requests
		u.NeedsClarification = state.Bool(true)
		u.ShouldEnd = true
		return u, nil
	}

	// Fully specified custom nutrition skips the database entirely.
	if hasCustom(items) {
		u.NextNode = state.NodeCustom
	}
	return u, nil
}

func (s *Set) parseItems(ctx context.Context, t *state.Turn, u *state.Update) ([]state.ParsedItem, []string) {
	res, err := s.nlu.ParseFoodText(ctx, t.RawText)
	if err != nil {
		s.logger.Warn("food text parsing failed, using fallback parser",
			zap.String("conversation_id", t.ConversationID), zap.Error(err))
		u.Errors = append(u.Errors, fmt.Sprintf("food parsing: %v", err))
		return fallbackParse(t.RawText), []string{"fallback parser"}
	}
	if len(res.Items) == 0 {
		return fallbackParse(t.RawText), []string{"empty parse"}
	}
	return res.Items, res.Reasons
}

func hasCustom(items []state.ParsedItem) bool {
	for _, item := range items {
		if item.Custom != nil {
			return true
		}
	}
	return false
}

func isCookedStaple(name string) bool {
	lower := strings.ToLower(name)
	for _, staple := range cookedStaples {
		if strings.Contains(lower, staple) {
			return true
		}
	}
	return false
}

// fallbackParse extracts food phrases with regular expressions when the
// language model is unavailable. It handles the common "ate 150g rice and
// 100g chicken" shape and leaves everything else for clarification.
func fallbackParse(text string) []state.ParsedItem {
	text = foodPrefixRe.ReplaceAllString(strings.TrimSpace(text), "")
	if text == "" {
		return nil
	}

	var items []state.ParsedItem
	for _, part := range splitRe.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		item := state.ParsedItem{Name: part}
		if m := quantityRe.FindStringSubmatchIndex(part); m != nil {
			raw := part[m[2]:m[3]]
			if q, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
				item.Quantity = &q
				item.Unit = normalizeUnit(submatch(part, m, 2))
				name := strings.TrimSpace(part[:m[0]] + part[m[1]:])
				if name != "" {
					item.Name = name
				}
			}
		}
		items = append(items, item)
	}
	return items
}

func submatch(s string, idx []int, n int) string {
	if len(idx) <= 2*n+1 || idx[2*n] < 0 {
		return ""
	}
	return s[idx[2*n] : idx[2*n+1]]
}

func normalizeUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "г", "гр", "g", "gram", "grams":
		return "g"
	case "мл", "ml":
		return "ml"
	case "шт", "pc", "pcs":
		return "pcs"
	case "":
		return "g"
	default:
		if strings.HasPrefix(strings.ToLower(unit), "грамм") {
			return "g"
		}
		return strings.ToLower(unit)
	}
}
