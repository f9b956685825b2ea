package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"sensorqc.evalgo.org/amqpconn"
	"sensorqc.evalgo.org/semantic"
)

// outcomeEnvelope and eventEnvelope wrap the bare QC records with a
// synthetic message ID, so a downstream consumer can dedup redelivered
// messages without the core data model carrying an ID field of its own.
type outcomeEnvelope struct {
	ID string `json:"id"`
	semantic.QCOutcomeQuantitative
}

type eventEnvelope struct {
	ID string `json:"id"`
	semantic.QCEvent
}

// AMQPSink publishes QC outcomes and events as JSON messages to two
// durable queues on the default exchange.
type AMQPSink struct {
	conn         amqpconn.Connection
	channel      amqpconn.Channel
	outcomeQueue string
	eventQueue   string
}

// NewAMQPSink dials url, declares both the outcome and event queues as
// durable, and returns a ready-to-use AMQPSink.
func NewAMQPSink(url, outcomeQueue, eventQueue string) (*AMQPSink, error) {
	return NewAMQPSinkWithDialer(url, outcomeQueue, eventQueue, amqpconn.RealDialer{})
}

// NewAMQPSinkWithDialer allows injecting a mock dialer for testing.
func NewAMQPSinkWithDialer(url, outcomeQueue, eventQueue string, dialer amqpconn.Dialer) (*AMQPSink, error) {
	conn, err := dialer.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to sink broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening sink channel: %w", err)
	}

	for _, q := range []string{outcomeQueue, eventQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declaring queue %s: %w", q, err)
		}
	}

	return &AMQPSink{conn: conn, channel: ch, outcomeQueue: outcomeQueue, eventQueue: eventQueue}, nil
}

// PublishOutcome implements sink.Sink.
func (s *AMQPSink) PublishOutcome(ctx context.Context, o semantic.QCOutcomeQuantitative) error {
	body, err := json.Marshal(outcomeEnvelope{ID: uuid.NewString(), QCOutcomeQuantitative: o})
	if err != nil {
		return fmt.Errorf("marshaling outcome: %w", err)
	}
	return s.publish(ctx, s.outcomeQueue, body)
}

// PublishEvent implements sink.Sink.
func (s *AMQPSink) PublishEvent(ctx context.Context, e semantic.QCEvent) error {
	body, err := json.Marshal(eventEnvelope{ID: uuid.NewString(), QCEvent: e})
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return s.publish(ctx, s.eventQueue, body)
}

func (s *AMQPSink) publish(ctx context.Context, queue string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.channel.Publish("", queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", queue, err)
	}
	return nil
}

// Close implements sink.Sink.
func (s *AMQPSink) Close() error {
	s.channel.Close()
	return s.conn.Close()
}
