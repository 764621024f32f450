package nop

import (
	"context"

	"github.com/papercomputeco/platelog/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishEntry validates input and otherwise does nothing.
func (p *Publisher) PublishEntry(_ context.Context, event *eventstream.EntryLoggedEvent) error {
	if event == nil {
		return eventstream.ErrNilEntryEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
