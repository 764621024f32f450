// Package kafka provides a Kafka-backed eventstream publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/platelog/pkg/eventstream"
)

// Config holds Kafka publisher settings.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the topic entry events are written to.
	Topic string
}

// Publisher implements eventstream.Publisher over a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Kafka publisher. Messages are keyed by event id so
// partition ordering is stable per event, not per user.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafkago.LeastBytes{},
	}

	return &Publisher{writer: writer}, nil
}

// PublishEntry writes the event as a JSON message.
func (p *Publisher) PublishEntry(ctx context.Context, event *eventstream.EntryLoggedEvent) error {
	if event == nil {
		return eventstream.ErrNilEntryEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling entry event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.EventID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing entry event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
