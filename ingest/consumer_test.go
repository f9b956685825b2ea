package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorqc.evalgo.org/amqpconn"
	"sensorqc.evalgo.org/obslog"
	"sensorqc.evalgo.org/semantic"
)

// mockAcker implements amqp.Acknowledger so deliveries built in tests can
// have their Ack/Nack/Reject calls recorded instead of panicking on a nil
// Acknowledger field.
type mockAcker struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *mockAcker) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *mockAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *mockAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(t *testing.T, tag uint64, body string) (amqp.Delivery, *mockAcker) {
	t.Helper()
	acker := &mockAcker{}
	return amqp.Delivery{Acknowledger: acker, DeliveryTag: tag, Body: []byte(body)}, acker
}

func newTestConsumer(t *testing.T) (*Consumer, *amqpconn.MockChannel) {
	t.Helper()
	dialer, ch := amqpconn.NewMockDialer()
	log := obslog.NewConsole("test")
	c, err := NewConsumerWithDialer("amqp://broker", "observations", dialer, log)
	require.NoError(t, err)
	return c, ch
}

func TestConsumerProcessAcksOnSuccess(t *testing.T) {
	c, _ := newTestConsumer(t)
	msg, acker := delivery(t, 1, "A,B,C,1000,1.0")

	var handled semantic.Observation
	c.process(context.Background(), msg, func(_ context.Context, obs semantic.Observation) error {
		handled = obs
		return nil
	})

	assert.Equal(t, []uint64{1}, acker.acked)
	assert.Empty(t, acker.nacked)
	assert.Equal(t, "A", handled.PUID.Feature)
}

func TestConsumerProcessNacksWithoutRequeueOnMalformedRow(t *testing.T) {
	c, _ := newTestConsumer(t)
	msg, acker := delivery(t, 2, "not,enough,fields")

	called := false
	c.process(context.Background(), msg, func(_ context.Context, _ semantic.Observation) error {
		called = true
		return nil
	})

	assert.False(t, called, "a malformed row must never reach the handler")
	assert.Equal(t, []uint64{2}, acker.nacked)
	assert.Equal(t, []bool{false}, acker.requeue, "malformed rows are not requeued: retrying cannot fix them")
	assert.Empty(t, acker.acked)
}

func TestConsumerProcessNacksWithRequeueOnHandlerFailure(t *testing.T) {
	c, _ := newTestConsumer(t)
	msg, acker := delivery(t, 3, "A,B,C,1000,1.0")

	c.process(context.Background(), msg, func(_ context.Context, _ semantic.Observation) error {
		return fmt.Errorf("downstream partition stalled")
	})

	assert.Equal(t, []uint64{3}, acker.nacked)
	assert.Equal(t, []bool{true}, acker.requeue, "a transient handler failure should be retried")
	assert.Empty(t, acker.acked)
}

func TestConsumerRunDispatchesUntilChannelCloses(t *testing.T) {
	c, ch := newTestConsumer(t)
	msg1, acker1 := delivery(t, 1, "A,B,C,1000,1.0")
	msg2, acker2 := delivery(t, 2, "A,B,C,2000,2.0")
	ch.Deliveries <- msg1
	ch.Deliveries <- msg2
	close(ch.Deliveries)

	var seen []semantic.Observation
	var mu sync.Mutex
	err := c.Run(context.Background(), func(_ context.Context, obs semantic.Observation) error {
		mu.Lock()
		seen = append(seen, obs)
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, seen, 2)
	assert.Equal(t, []uint64{1}, acker1.acked)
	assert.Equal(t, []uint64{2}, acker2.acked)
}

func TestConsumerRunRespectsContextCancellation(t *testing.T) {
	c, _ := newTestConsumer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, func(context.Context, semantic.Observation) error { return nil }) }()

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestConsumerClose(t *testing.T) {
	c, _ := newTestConsumer(t)
	assert.NoError(t, c.Close())
}
