package state

import (
	"encoding/json"
	"fmt"
)

// MarshalTurn serializes a turn for durable storage. Timestamps encode as
// RFC 3339 strings and every nested structure (clarification requests,
// candidate lists, context maps) round-trips losslessly.
func MarshalTurn(t *Turn) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot marshal nil turn")
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshaling turn state: %w", err)
	}
	return data, nil
}

// UnmarshalTurn reconstructs a turn from its stored form. Slices and maps
// that were present at save time come back non-nil so nodes can rely on the
// same shape Load returns as what Save received.
func UnmarshalTurn(data []byte) (*Turn, error) {
	var t Turn
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshaling turn state: %w", err)
	}
	if t.ParsedItems == nil {
		t.ParsedItems = []ParsedItem{}
	}
	if t.Candidates == nil {
		t.Candidates = []Candidate{}
	}
	if t.PendingEntries == nil {
		t.PendingEntries = []PendingEntry{}
	}
	if t.ClarificationRequests == nil {
		t.ClarificationRequests = []Clarification{}
	}
	if t.ClarificationResponses == nil {
		t.ClarificationResponses = map[string]string{}
	}
	if t.SavedEntryIDs == nil {
		t.SavedEntryIDs = []int64{}
	}
	if t.Errors == nil {
		t.Errors = []string{}
	}
	return &t, nil
}

// CtxInt reads an integer out of a clarification context map, tolerating the
// float64 values JSON round-trips produce.
func CtxInt(ctx map[string]any, key string) (int, bool) {
	v, ok := ctx[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
