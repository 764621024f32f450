package testutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/platelog/pkg/nlu"
	"github.com/papercomputeco/platelog/pkg/state"
)

// MockNLU is a test NLU service that returns configurable results and
// records the inputs it was called with.
type MockNLU struct {
	// ParseResult is returned by ParseFoodText for any text.
	ParseResult *nlu.ParseResult

	// PhotoResult is returned by RecognizeProductPhoto.
	PhotoResult *nlu.PhotoRecognition

	// LabelResult is returned by ParseNutritionLabel.
	LabelResult *nlu.LabelScan

	// IntentResult is returned by DetectIntent.
	IntentResult *nlu.IntentResult

	// Translations maps input text to a translated form. Unmapped input
	// passes through unchanged.
	Translations map[string]string

	// AdviceText is returned by Advise.
	AdviceText string

	// ReportResult is returned by AnalyzeReportRequest.
	ReportResult *nlu.ReportRequest

	// ChatText is returned by Chat.
	ChatText string

	// ParsedTexts accumulates all text passed to ParseFoodText.
	ParsedTexts []string

	// SearchedQueries accumulates all text passed to Translate.
	SearchedQueries []string

	// FailParse, FailPhoto, FailLabel, FailIntent, FailTranslate,
	// FailAdvise, FailReport and FailChat cause the matching call to fail.
	FailParse     bool
	FailPhoto     bool
	FailLabel     bool
	FailIntent    bool
	FailTranslate bool
	FailAdvise    bool
	FailReport    bool
	FailChat      bool
}

// NewMockNLU creates a mock NLU service with food-entry defaults.
func NewMockNLU() *MockNLU {
	return &MockNLU{
		IntentResult: &nlu.IntentResult{Intent: state.IntentFoodEntry, Confidence: 0.9},
		Translations: map[string]string{},
		AdviceText:   "Nice, keep it up!",
		ChatText:     "Happy to help.",
	}
}

func (m *MockNLU) ParseFoodText(_ context.Context, text string) (*nlu.ParseResult, error) {
	m.ParsedTexts = append(m.ParsedTexts, text)
	if m.FailParse {
		return nil, fmt.Errorf("mock parse failure")
	}
	if m.ParseResult != nil {
		return m.ParseResult, nil
	}
	return &nlu.ParseResult{Items: []state.ParsedItem{}}, nil
}

func (m *MockNLU) RecognizeProductPhoto(_ context.Context, _ string) (*nlu.PhotoRecognition, error) {
	if m.FailPhoto {
		return nil, fmt.Errorf("mock photo failure")
	}
	if m.PhotoResult != nil {
		return m.PhotoResult, nil
	}
	return &nlu.PhotoRecognition{}, nil
}

func (m *MockNLU) ParseNutritionLabel(_ context.Context, _ string) (*nlu.LabelScan, error) {
	if m.FailLabel {
		return nil, fmt.Errorf("mock label failure")
	}
	if m.LabelResult != nil {
		return m.LabelResult, nil
	}
	return &nlu.LabelScan{}, nil
}

func (m *MockNLU) DetectIntent(_ context.Context, _ string) (*nlu.IntentResult, error) {
	if m.FailIntent {
		return nil, fmt.Errorf("mock intent failure")
	}
	return m.IntentResult, nil
}

func (m *MockNLU) Translate(_ context.Context, text string) (string, error) {
	m.SearchedQueries = append(m.SearchedQueries, text)
	if m.FailTranslate {
		return "", fmt.Errorf("mock translate failure")
	}
	if translated, ok := m.Translations[text]; ok {
		return translated, nil
	}
	return text, nil
}

func (m *MockNLU) Advise(_ context.Context, _ *state.Totals) (string, error) {
	if m.FailAdvise {
		return "", fmt.Errorf("mock advise failure")
	}
	return m.AdviceText, nil
}

func (m *MockNLU) AnalyzeReportRequest(_ context.Context, _ string) (*nlu.ReportRequest, error) {
	if m.FailReport {
		return nil, fmt.Errorf("mock report failure")
	}
	if m.ReportResult != nil {
		return m.ReportResult, nil
	}
	return &nlu.ReportRequest{Period: "today"}, nil
}

func (m *MockNLU) Chat(_ context.Context, _ string) (string, error) {
	if m.FailChat {
		return "", fmt.Errorf("mock chat failure")
	}
	return m.ChatText, nil
}
