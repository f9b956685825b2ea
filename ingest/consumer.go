// Package ingest turns inbound AMQP deliveries into semantic.Observation
// values and rejects rows that cannot be parsed.
package ingest

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"

	"sensorqc.evalgo.org/amqpconn"
	"sensorqc.evalgo.org/obslog"
	"sensorqc.evalgo.org/semantic"
)

// Handler processes a single parsed observation. An error causes the
// originating delivery to be rejected with requeue, since the failure is
// presumed transient (a downstream partition stall, a cancelled context)
// rather than a property of the row itself.
type Handler func(ctx context.Context, obs semantic.Observation) error

// Consumer pulls CSV-encoded observation rows off an AMQP queue and
// dispatches each successfully parsed row to a Handler. Rows that fail to
// parse are logged and rejected without requeue: retrying a malformed row
// unchanged can never make it well-formed.
type Consumer struct {
	conn    amqpconn.Connection
	channel amqpconn.Channel
	queue   string
	log     *obslog.Logger
}

// NewConsumer dials url, declares queue as durable, and returns a
// ready-to-use Consumer.
func NewConsumer(url, queue string, log *obslog.Logger) (*Consumer, error) {
	return NewConsumerWithDialer(url, queue, amqpconn.RealDialer{}, log)
}

// NewConsumerWithDialer allows injecting a mock dialer for testing.
func NewConsumerWithDialer(url, queue string, dialer amqpconn.Dialer, log *obslog.Logger) (*Consumer, error) {
	conn, err := dialer.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to ingestion broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening ingestion channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring queue %s: %w", queue, err)
	}

	return &Consumer{conn: conn, channel: ch, queue: queue, log: log}, nil
}

// Run registers a consumer on the queue and feeds every delivery through
// handle until ctx is cancelled or the delivery channel closes. It blocks.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("registering consumer on %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.process(ctx, msg, handle)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg amqp.Delivery, handle Handler) {
	obs, err := semantic.ParseCSVLine(string(msg.Body))
	if err != nil {
		c.log.WarnOncePerMinute(c.queue, fmt.Sprintf("rejecting malformed row: %v", err))
		msg.Nack(false, false)
		return
	}

	if err := handle(ctx, obs); err != nil {
		c.log.Warn(fmt.Sprintf("handler failed for %s, requeueing: %v", obs.PUID.String(), err))
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
}

// Close releases the channel and connection.
func (c *Consumer) Close() error {
	c.channel.Close()
	return c.conn.Close()
}
