package convstore

// ErrNotFound is returned when no active, unexpired state exists for a
// conversation id.
type ErrNotFound struct {
	ConversationID string
}

func (e ErrNotFound) Error() string {
	if e.ConversationID == "" {
		return "conversation state not found"
	}

	return "conversation state not found: " + e.ConversationID
}
