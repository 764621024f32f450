// Package eventstream publishes entry-logged events to an event stream
// backend, decoupled from the ingest hot path.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeEntryLogged is emitted after a food log entry is persisted.
	EventTypeEntryLogged = "platelog.entry.logged"
)

// EntryLoggedEvent is a transport-neutral event payload for a saved entry.
type EntryLoggedEvent struct {
	SchemaVersion  int       `json:"schema_version"`
	EventType      string    `json:"event_type"`
	EventID        string    `json:"event_id"`
	EmittedAt      time.Time `json:"emitted_at"`
	UserID         int64     `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	EntryID        int64     `json:"entry_id"`
	FoodName       string    `json:"food_name"`
	Calories       float64   `json:"calories"`
	IsCustom       bool      `json:"is_custom"`
}

// NewEntryLoggedEvent stamps the envelope fields on a freshly built event.
func NewEntryLoggedEvent(userID int64, conversationID string, entryID int64, foodName string, calories float64, isCustom bool) *EntryLoggedEvent {
	return &EntryLoggedEvent{
		SchemaVersion:  SchemaVersionV1,
		EventType:      EventTypeEntryLogged,
		EventID:        uuid.NewString(),
		EmittedAt:      time.Now().UTC(),
		UserID:         userID,
		ConversationID: conversationID,
		EntryID:        entryID,
		FoodName:       foodName,
		Calories:       calories,
		IsCustom:       isCustom,
	}
}
