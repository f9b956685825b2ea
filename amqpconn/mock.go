package amqpconn

import (
	"fmt"

	"github.com/streadway/amqp"
)

// MockConnection is a test double for Connection.
type MockConnection struct {
	MockChannel Channel
	ChannelErr  error
	CloseErr    error
}

func (m *MockConnection) Channel() (Channel, error) {
	if m.ChannelErr != nil {
		return nil, m.ChannelErr
	}
	return m.MockChannel, nil
}

func (m *MockConnection) Close() error { return m.CloseErr }

// MockChannel is a test double for Channel, recording published messages
// and serving a caller-supplied delivery stream for Consume.
type MockChannel struct {
	PublishedMessages []amqp.Publishing
	PublishedKeys     []string
	Deliveries        chan amqp.Delivery

	QueueDeclareErr error
	PublishErr      error
	ConsumeErr      error
	CloseErr        error
}

func NewMockChannel() *MockChannel {
	return &MockChannel{Deliveries: make(chan amqp.Delivery, 64)}
}

func (m *MockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if m.QueueDeclareErr != nil {
		return amqp.Queue{}, m.QueueDeclareErr
	}
	return amqp.Queue{Name: name}, nil
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.PublishedMessages = append(m.PublishedMessages, msg)
	m.PublishedKeys = append(m.PublishedKeys, key)
	return nil
}

func (m *MockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if m.ConsumeErr != nil {
		return nil, m.ConsumeErr
	}
	return m.Deliveries, nil
}

func (m *MockChannel) Close() error { return m.CloseErr }

// MockDialer is a test double for Dialer.
type MockDialer struct {
	MockConnection Connection
	DialErr        error
	LastURL        string
}

func (m *MockDialer) Dial(url string) (Connection, error) {
	m.LastURL = url
	if m.DialErr != nil {
		return nil, m.DialErr
	}
	return m.MockConnection, nil
}

// NewMockDialer builds a MockDialer wired to a fresh MockChannel, and
// returns both for assertions.
func NewMockDialer() (*MockDialer, *MockChannel) {
	ch := NewMockChannel()
	conn := &MockConnection{MockChannel: ch}
	return &MockDialer{MockConnection: conn}, ch
}

// NewMockDialerWithError builds a MockDialer whose Dial always fails.
func NewMockDialerWithError(err error) *MockDialer {
	if err == nil {
		err = fmt.Errorf("dial failed")
	}
	return &MockDialer{DialErr: err}
}
