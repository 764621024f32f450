// Package state defines the turn state threaded through one graph execution:
// the complete, serializable record of a single conversation turn, plus the
// partial Update type nodes return to mutate it.
package state

import (
	"time"
)

// InputKind classifies the inbound message.
type InputKind string

const (
	InputText         InputKind = "text"
	InputPhoto        InputKind = "photo"
	InputCallback     InputKind = "callback"
	InputConfirmation InputKind = "confirmation"
)

// Intent is the detected user intent, produced by the NLU collaborator and
// consumed only for routing.
type Intent string

const (
	IntentFoodEntry  Intent = "food_entry"
	IntentViewReport Intent = "view_report"
	IntentQuestion   Intent = "question"
	IntentChat       Intent = "chat"
)

// NodeID names a graph node. Turn.NextNode is an explicit routing override
// the executor honors before a node's default routing function.
type NodeID string

const (
	NodeNone          NodeID = ""
	NodeDetectInput   NodeID = "detect_input"
	NodeDetectIntent  NodeID = "detect_intent"
	NodeNormalize     NodeID = "normalize_input"
	NodePhoto         NodeID = "process_photo"
	NodeLabel         NodeID = "process_label"
	NodeCustom        NodeID = "process_custom"
	NodeClarify       NodeID = "clarify"
	NodeSearch        NodeID = "search"
	NodePaginate      NodeID = "paginate"
	NodeSelectServing NodeID = "select_serving"
	NodeSaveEntry     NodeID = "save_entry"
	NodeTotals        NodeID = "totals"
	NodeAdvice        NodeID = "advice"
	NodeConverse      NodeID = "converse"
	NodeCreateCustom  NodeID = "create_custom"
	NodeEnd           NodeID = "end"
)

// ClarificationType tags what a clarification question is asking for.
type ClarificationType string

const (
	ClarifyWeight        ClarificationType = "weight"
	ClarifyWeightFor100  ClarificationType = "weight_for_100g"
	ClarifyCookingMethod ClarificationType = "cooking_method"
	ClarifyFoodSelection ClarificationType = "food_selection"
	ClarifyConfirmation  ClarificationType = "confirmation"
)

// Nutrition holds per-serving (or computed) nutrient values. Nil means the
// source never reported the nutrient; it is never coerced to zero.
type Nutrition struct {
	Calories     *float64 `json:"calories,omitempty"`
	Protein      *float64 `json:"protein,omitempty"`
	Carbohydrate *float64 `json:"carbohydrate,omitempty"`
	Fat          *float64 `json:"fat,omitempty"`
	SaturatedFat *float64 `json:"saturated_fat,omitempty"`
	Fiber        *float64 `json:"fiber,omitempty"`
	Sugar        *float64 `json:"sugar,omitempty"`
	Sodium       *float64 `json:"sodium,omitempty"`
}

// Scale multiplies every present nutrient by the servings multiplier,
// preserving nil values. Results are kept at full precision; rounding is a
// display concern.
func (n Nutrition) Scale(servings float64) Nutrition {
	mul := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		out := *v * servings
		return &out
	}
	return Nutrition{
		Calories:     mul(n.Calories),
		Protein:      mul(n.Protein),
		Carbohydrate: mul(n.Carbohydrate),
		Fat:          mul(n.Fat),
		SaturatedFat: mul(n.SaturatedFat),
		Fiber:        mul(n.Fiber),
		Sugar:        mul(n.Sugar),
		Sodium:       mul(n.Sodium),
	}
}

// CustomNutrition is nutrient data supplied directly by the user (or an OCR
// label scan) instead of looked up. PerHundred marks the values as stated per
// 100 base units rather than per total portion.
type CustomNutrition struct {
	Calories   *float64 `json:"calories,omitempty"`
	Protein    *float64 `json:"protein,omitempty"`
	Carbs      *float64 `json:"carbs,omitempty"`
	Fat        *float64 `json:"fat,omitempty"`
	PerHundred bool     `json:"is_per_100g"`
}

// ParsedItem is one food phrase extracted from the user's input.
type ParsedItem struct {
	Name          string           `json:"name"`
	Quantity      *float64         `json:"quantity,omitempty"`
	Unit          string           `json:"unit,omitempty"`
	CookingMethod string           `json:"cooking_method,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Custom        *CustomNutrition `json:"custom_nutrition,omitempty"`

	// OCRFallback carries label-scan nutrition to fall back on when the
	// food database yields nothing for this item.
	OCRFallback *CustomNutrition `json:"ocr_nutrition_fallback,omitempty"`
}

// Candidate is a food database search result awaiting user confirmation.
type Candidate struct {
	ID    string `json:"food_id"`
	Name  string `json:"food_name"`
	Brand string `json:"brand_name,omitempty"`
	Type  string `json:"food_type,omitempty"`
}

// Serving is one quantity/unit + nutrient profile option for a candidate.
type Serving struct {
	ID           string    `json:"serving_id"`
	Description  string    `json:"serving_description"`
	MetricAmount *float64  `json:"metric_serving_amount,omitempty"`
	MetricUnit   string    `json:"metric_serving_unit,omitempty"`
	Nutrition    Nutrition `json:"nutrition"`
}

// Clarification is a question the graph needs answered before it can proceed.
// Options are recorded at ask time; answer reconciliation matches against
// this snapshot, never against the live candidate list.
type Clarification struct {
	Type     ClarificationType `json:"type"`
	Question string            `json:"question"`
	Options  []string          `json:"options,omitempty"`
	Context  map[string]any    `json:"context,omitempty"`
}

// PendingEntry is a fully resolved nutrition record awaiting persistence.
type PendingEntry struct {
	FoodID             string    `json:"food_id,omitempty"`
	FoodName           string    `json:"food_name"`
	Brand              string    `json:"brand_name,omitempty"`
	ServingID          string    `json:"serving_id,omitempty"`
	ServingDescription string    `json:"serving_description,omitempty"`
	ServingAmount      *float64  `json:"serving_amount,omitempty"`
	ServingUnit        string    `json:"serving_unit,omitempty"`
	NumServings        float64   `json:"number_of_servings"`
	Nutrition          Nutrition `json:"nutrition"`
	MealType           string    `json:"meal_type,omitempty"`
	IsCustom           bool      `json:"is_custom"`
}

// Totals is a daily (or range) nutrition totals snapshot.
type Totals struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbohydrate float64 `json:"carbohydrates"`
	Fat          float64 `json:"fat"`
	Entries      int     `json:"entries"`
}

// Turn is the complete state of one conversation turn. ConversationID is
// immutable once assigned and is the sole key for persistence and resumption.
type Turn struct {
	// Identity
	UserID         int64     `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	MessageID      int64     `json:"message_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Input
	InputKind InputKind `json:"input_type"`
	RawText   string    `json:"raw_input"`
	PhotoRef  string    `json:"photo_ref,omitempty"`

	// Intent
	Intent           Intent  `json:"detected_intent,omitempty"`
	IntentConfidence float64 `json:"intent_confidence,omitempty"`

	// Parsing results
	ParsedItems []ParsedItem `json:"parsed_foods"`

	// Resolution working set
	Candidates      []Candidate   `json:"food_candidates"`
	CandidatePage   int           `json:"food_selection_page"`
	SelectedFood    *Candidate    `json:"selected_food,omitempty"`
	SelectedServing *Serving      `json:"selected_serving,omitempty"`
	PendingEntries  []PendingEntry `json:"pending_entries"`

	// Clarification
	NeedsClarification     bool              `json:"needs_clarification"`
	ClarificationRequests  []Clarification   `json:"clarification_requests"`
	ClarificationResponses map[string]string `json:"clarification_responses"`

	// Results
	SavedEntryIDs []int64  `json:"saved_entry_ids"`
	DailyTotals   *Totals  `json:"daily_totals,omitempty"`
	Advice        string   `json:"advice,omitempty"`
	Errors        []string `json:"errors"`

	// Control
	NextNode  NodeID `json:"next_node,omitempty"`
	ShouldEnd bool   `json:"should_end"`
}

// NewTurn creates a fresh turn for an inbound message that is not a reply to
// a pending clarification.
func NewTurn(userID int64, conversationID string, kind InputKind, rawText string, messageID int64, photoRef string, responses map[string]string) *Turn {
	now := time.Now().UTC()
	if responses == nil {
		responses = map[string]string{}
	}
	return &Turn{
		UserID:                 userID,
		ConversationID:         conversationID,
		MessageID:              messageID,
		CreatedAt:              now,
		UpdatedAt:              now,
		InputKind:              kind,
		RawText:                rawText,
		PhotoRef:               photoRef,
		ParsedItems:            []ParsedItem{},
		Candidates:             []Candidate{},
		PendingEntries:         []PendingEntry{},
		ClarificationRequests:  []Clarification{},
		ClarificationResponses: responses,
		SavedEntryIDs:          []int64{},
		Errors:                 []string{},
	}
}

// Resume rebuilds a turn from a persisted snapshot plus the user's answer.
// A keyed response map (a button tap) jumps straight to reconciliation;
// plain text goes back through input detection so a message that starts a
// new food entry can override the pending question.
func Resume(prev *Turn, rawText string, messageID int64, responses map[string]string) *Turn {
	t := *prev
	t.RawText = rawText
	t.MessageID = messageID
	t.NextNode = NodeNone
	if len(responses) > 0 {
		t.ClarificationResponses = responses
		t.NextNode = NodeClarify
	} else {
		t.ClarificationResponses = map[string]string{}
	}
	t.ShouldEnd = false
	t.Errors = []string{}
	t.Advice = ""
	t.UpdatedAt = time.Now().UTC()
	return &t
}

// HasCustomNutrition reports whether any parsed item carries an explicit
// nutrition block.
func (t *Turn) HasCustomNutrition() bool {
	for _, item := range t.ParsedItems {
		if item.Custom != nil {
			return true
		}
	}
	return false
}

// Float returns a pointer to v. Convenience for optional nutrient fields.
func Float(v float64) *float64 { return &v }
