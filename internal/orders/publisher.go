package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventOrderPlaced names the event emitted after a successful checkout.
const EventOrderPlaced = "order.placed"

// Envelope is the stable wrapper around every published event.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Publisher emits order events.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order Order) error
	Close() error
}

// NewEnvelope wraps order as an order.placed event.
func NewEnvelope(order Order, now time.Time) (Envelope, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode order: %w", err)
	}
	return Envelope{
		Version:    1,
		EventID:    uuid.NewString(),
		EventType:  EventOrderPlaced,
		OccurredAt: now.UTC(),
		Data:       data,
	}, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events to a Kafka topic keyed by user.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaPublisher builds a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, timeout: timeout}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, order Order) error {
	env, err := NewEnvelope(order, time.Now())
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.UserKey),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(EventOrderPlaced)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, Order) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }
