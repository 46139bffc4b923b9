// Package kafka provides a Kafka-backed eventstream publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/spool/pkg/eventstream"
)

// Publisher publishes node events to a Kafka topic. Messages are keyed by
// graph id so all events of one conversation land in the same partition, in
// order.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Kafka publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafkago.Hash{},
		},
	}
}

// PublishNode marshals the event as JSON and writes it to the topic.
func (p *Publisher) PublishNode(ctx context.Context, event *eventstream.NodePersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilNodeEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal node event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.GraphID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish node event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Ensure Publisher implements eventstream.Publisher
var _ eventstream.Publisher = (*Publisher)(nil)
