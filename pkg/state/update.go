package state

import "time"

// Update is the partial state change a node returns. A nil or zero field
// means "leave the turn's field alone"; a set field fully replaces the
// corresponding turn field. Errors is the one accumulator: it appends.
type Update struct {
	InputKind        InputKind
	Intent           Intent
	IntentConfidence *float64

	ParsedItems []ParsedItem

	Candidates      []Candidate
	ClearCandidates bool
	CandidatePage   *int
	SelectedFood    *Candidate
	SelectedServing *Serving
	ClearSelection  bool
	PendingEntries  []PendingEntry

	NeedsClarification     *bool
	ClarificationRequests  []Clarification
	ClearClarifications    bool
	ClarificationResponses map[string]string
	ClearResponses         bool

	SavedEntryIDs []int64
	DailyTotals   *Totals
	Advice        string

	Errors []string

	NextNode  NodeID
	ShouldEnd bool
}

// Apply merges the update into the turn: each set field replaces the state
// field, Errors appends, and UpdatedAt is stamped. Clear flags run before
// their corresponding set fields so a node can clear and re-ask in one step.
func (u *Update) Apply(t *Turn) {
	if u == nil {
		return
	}
	if u.InputKind != "" {
		t.InputKind = u.InputKind
	}
	if u.Intent != "" {
		t.Intent = u.Intent
	}
	if u.IntentConfidence != nil {
		t.IntentConfidence = *u.IntentConfidence
	}
	if u.ParsedItems != nil {
		t.ParsedItems = u.ParsedItems
	}
	if u.ClearCandidates {
		t.Candidates = []Candidate{}
	}
	if u.Candidates != nil {
		t.Candidates = u.Candidates
	}
	if u.CandidatePage != nil {
		t.CandidatePage = *u.CandidatePage
	}
	if u.ClearSelection {
		t.SelectedFood = nil
		t.SelectedServing = nil
	}
	if u.SelectedFood != nil {
		t.SelectedFood = u.SelectedFood
	}
	if u.SelectedServing != nil {
		t.SelectedServing = u.SelectedServing
	}
	if u.PendingEntries != nil {
		t.PendingEntries = u.PendingEntries
	}
	if u.ClearClarifications {
		t.ClarificationRequests = []Clarification{}
	}
	if u.ClarificationRequests != nil {
		t.ClarificationRequests = u.ClarificationRequests
	}
	if u.ClearResponses {
		t.ClarificationResponses = map[string]string{}
	}
	if u.ClarificationResponses != nil {
		t.ClarificationResponses = u.ClarificationResponses
	}
	if u.NeedsClarification != nil {
		t.NeedsClarification = *u.NeedsClarification
	}
	if u.SavedEntryIDs != nil {
		t.SavedEntryIDs = u.SavedEntryIDs
	}
	if u.DailyTotals != nil {
		t.DailyTotals = u.DailyTotals
	}
	if u.Advice != "" {
		t.Advice = u.Advice
	}
	if len(u.Errors) > 0 {
		t.Errors = append(t.Errors, u.Errors...)
	}
	if u.NextNode != NodeNone {
		t.NextNode = u.NextNode
	}
	if u.ShouldEnd {
		t.ShouldEnd = true
	}
	t.UpdatedAt = time.Now().UTC()
}

// Bool returns a pointer to v. Convenience for optional update fields.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
