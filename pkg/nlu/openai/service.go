package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/papercomputeco/platelog/pkg/nlu"
	"github.com/papercomputeco/platelog/pkg/state"
)

const parseSystemPrompt = `You extract food items from a user's message about what they ate.
Reply with JSON: {"items": [{"name": string, "quantity": number|null, "unit": string|null,
"cooking_method": string|null, "custom_nutrition": {"calories": number, "protein": number,
"carbs": number, "fat": number, "is_per_100g": boolean}|null}],
"needs_clarification": boolean, "clarification_reasons": [string]}.
Keep the item name in the user's language. Quantities are numbers without units.
Set custom_nutrition only when the user states explicit calorie/macro values.`

const intentSystemPrompt = `You classify a message to a nutrition-tracking bot.
Reply with JSON: {"intent": "food_entry"|"view_report"|"question"|"chat", "confidence": number}.
"food_entry" means the user describes food they ate. "view_report" means they ask
for their totals or history. "question" is a nutrition question. "chat" is anything else.`

const photoSystemPrompt = `You identify the food product on a photo of its packaging.
Reply with JSON: {"product_name": string, "brand": string|null,
"search_query": string, "confidence": number}.
search_query is a short English phrase suitable for a food database search.
Set confidence between 0 and 1.`

const labelSystemPrompt = `You read a nutrition facts label from a photo.
Reply with JSON: {"product_name": string|null, "brand": string|null,
"nutrition_values": {"calories": number|null, "protein": number|null,
"carbohydrate": number|null, "fat": number|null}, "per_serving_weight": number,
"confidence": number}.
per_serving_weight is the gram basis the printed values refer to (100 for per-100g
labels, the serving weight otherwise). Use null for values not on the label.`

const reportSystemPrompt = `You determine which time window a report request asks about.
Reply with JSON: {"period": "today"|"yesterday"|"week"|"days", "days": number}.
Use "days" with a count only for explicit windows like "last 3 days".`

const adviceSystemPrompt = `You are a friendly nutrition coach. Given the user's totals for
today, reply with one or two short encouraging sentences. No lists, no emoji spam.`

const chatSystemPrompt = `You are a nutrition-tracking bot. Answer briefly and helpfully.
If the user seems to describe food, remind them you can log it for them.`

// ParseFoodText extracts food items from free text.
func (s *Service) ParseFoodText(ctx context.Context, text string) (*nlu.ParseResult, error) {
	var out struct {
		Items              []state.ParsedItem `json:"items"`
		NeedsClarification bool               `json:"needs_clarification"`
		Reasons            []string           `json:"clarification_reasons"`
	}
	if err := s.completeJSON(ctx, s.model, parseSystemPrompt, text, &out); err != nil {
		return nil, fmt.Errorf("parsing food text: %w", err)
	}
	return &nlu.ParseResult{
		Items:              out.Items,
		NeedsClarification: out.NeedsClarification,
		Reasons:            out.Reasons,
	}, nil
}

// RecognizeProductPhoto identifies the product on a packaging photo.
func (s *Service) RecognizeProductPhoto(ctx context.Context, photoRef string) (*nlu.PhotoRecognition, error) {
	var out nlu.PhotoRecognition
	if err := s.completeVisionJSON(ctx, photoSystemPrompt,
		"Identify the food product on this photo.", photoRef, &out); err != nil {
		return nil, fmt.Errorf("recognizing product photo: %w", err)
	}
	return &out, nil
}

// ParseNutritionLabel reads nutrition facts off a label photo.
func (s *Service) ParseNutritionLabel(ctx context.Context, photoRef string) (*nlu.LabelScan, error) {
	var out nlu.LabelScan
	if err := s.completeVisionJSON(ctx, labelSystemPrompt,
		"Read the nutrition facts label on this photo.", photoRef, &out); err != nil {
		return nil, fmt.Errorf("parsing nutrition label: %w", err)
	}
	return &out, nil
}

// DetectIntent classifies the user's message.
func (s *Service) DetectIntent(ctx context.Context, text string) (*nlu.IntentResult, error) {
	var out nlu.IntentResult
	if err := s.completeJSON(ctx, s.model, intentSystemPrompt, text, &out); err != nil {
		return nil, fmt.Errorf("detecting intent: %w", err)
	}
	return &out, nil
}

// Translate renders a food phrase in English for database search.
func (s *Service) Translate(ctx context.Context, text string) (string, error) {
	var out struct {
		Translation string `json:"translation"`
	}
	system := `Translate the food phrase to English for a food database search.
Reply with JSON: {"translation": string}. Keep it short; already-English input passes through.`
	if err := s.completeJSON(ctx, s.model, system, text, &out); err != nil {
		return "", fmt.Errorf("translating: %w", err)
	}
	return strings.TrimSpace(out.Translation), nil
}

// Advise writes a short coaching remark about today's totals.
func (s *Service) Advise(ctx context.Context, totals *state.Totals) (string, error) {
	user := "The user just logged a meal. No totals available."
	if totals != nil {
		user = fmt.Sprintf("Today so far: %.0f kcal, %.1fg protein, %.1fg carbs, %.1fg fat over %d entries.",
			totals.Calories, totals.Protein, totals.Carbohydrate, totals.Fat, totals.Entries)
	}
	req := &chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: adviceSystemPrompt},
			{Role: "user", Content: user},
		},
	}
	text, err := s.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generating advice: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// AnalyzeReportRequest resolves the time window a report question asks about.
func (s *Service) AnalyzeReportRequest(ctx context.Context, text string) (*nlu.ReportRequest, error) {
	var out nlu.ReportRequest
	if err := s.completeJSON(ctx, s.model, reportSystemPrompt, text, &out); err != nil {
		return nil, fmt.Errorf("analyzing report request: %w", err)
	}
	return &out, nil
}

// Chat answers a free-form message.
func (s *Service) Chat(ctx context.Context, text string) (string, error) {
	req := &chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: chatSystemPrompt},
			{Role: "user", Content: text},
		},
	}
	reply, err := s.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
