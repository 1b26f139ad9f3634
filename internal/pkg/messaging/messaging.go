// Package messaging publishes and consumes domain events without tying
// business code to a broker. Kafka, NATS and an in-process broker are provided.
package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrTopicRequired is returned when the destination is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned when a broker needs a consumer group.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
)

// Messaging can publish and consume messages.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher sends messages to a topic (Kafka topic, NATS subject).
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer blocks delivering messages of topic to handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. With auto ack, a nil error acks and
// a non-nil error nacks.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	// Key selects the Kafka partition; ignored by NATS.
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Message is a received message.
type Message interface {
	Topic() string
	Key() []byte
	Body() []byte
	// Header returns the first value of a header, or "".
	Header(key string) string

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}
