// Package nlu defines the boundary to the natural-language/vision
// collaborator. Every call may fail or come back low-confidence or empty;
// consumer nodes own the fallback behavior.
package nlu

import (
	"context"

	"github.com/papercomputeco/platelog/pkg/state"
)

// ParseResult is the structured output of free-text food parsing.
type ParseResult struct {
	Items              []state.ParsedItem `json:"items"`
	NeedsClarification bool               `json:"needs_clarification"`
	Reasons            []string           `json:"clarification_reasons,omitempty"`
}

// PhotoRecognition is the output of product-package recognition.
type PhotoRecognition struct {
	ProductName string  `json:"product_name"`
	Brand       string  `json:"brand,omitempty"`
	SearchQuery string  `json:"search_query,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// LabelScan is the output of nutrition-label OCR. Values are stated for
// PerServingWeight base units (100 when the label reads per 100g).
type LabelScan struct {
	ProductName      string          `json:"product_name,omitempty"`
	Brand            string          `json:"brand,omitempty"`
	Values           state.Nutrition `json:"nutrition_values"`
	PerServingWeight float64         `json:"per_serving_weight"`
	Confidence       float64         `json:"confidence"`
}

// HasMacros reports whether the scan captured any headline nutrient, which
// is what distinguishes a nutrition label from a plain product photo.
func (l *LabelScan) HasMacros() bool {
	if l == nil {
		return false
	}
	v := l.Values
	return v.Calories != nil || v.Protein != nil || v.Fat != nil
}

// IntentResult is the output of intent detection.
type IntentResult struct {
	Intent     state.Intent `json:"intent"`
	Confidence float64      `json:"confidence"`
}

// ReportRequest describes which time window a report question asks about.
type ReportRequest struct {
	Period string `json:"period"` // today, yesterday, week, days
	Days   int    `json:"days,omitempty"`
}

// Service is the NLU/vision collaborator consumed by graph nodes.
type Service interface {
	ParseFoodText(ctx context.Context, text string) (*ParseResult, error)
	RecognizeProductPhoto(ctx context.Context, photoRef string) (*PhotoRecognition, error)
	ParseNutritionLabel(ctx context.Context, photoRef string) (*LabelScan, error)
	DetectIntent(ctx context.Context, text string) (*IntentResult, error)
	Translate(ctx context.Context, text string) (string, error)
	Advise(ctx context.Context, totals *state.Totals) (string, error)
	AnalyzeReportRequest(ctx context.Context, text string) (*ReportRequest, error)
	Chat(ctx context.Context, text string) (string, error)
}
