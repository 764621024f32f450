package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/platelog/pkg/eventstream"
)

// MockPublisher is a test event publisher that records published events.
type MockPublisher struct {
	mu sync.Mutex

	// Published accumulates all events passed to PublishEntry.
	Published []*eventstream.EntryLoggedEvent

	// FailPublish causes PublishEntry to return an error.
	FailPublish bool

	// Closed reports whether Close was called.
	Closed bool
}

// NewMockPublisher creates an empty mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishEntry(_ context.Context, event *eventstream.EntryLoggedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPublish {
		return fmt.Errorf("mock publish failure")
	}
	m.Published = append(m.Published, event)
	return nil
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// PublishedCount returns how many events were published. Safe to call while
// pool workers are still running.
func (m *MockPublisher) PublishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published)
}
