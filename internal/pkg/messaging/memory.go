package messaging

import (
	"context"
	"errors"
	"io"
	"maps"
	"sync"
)

// ErrMemoryBufferFull is returned when a subscriber cannot keep up.
var ErrMemoryBufferFull = errors.New("messaging: memory subscriber buffer is full")

const memoryBuffer = 256

// Memory is an in-process broker for local runs and tests. Each group
// receives every message once; consumers of the same group share it.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan *memoryMessage // topic -> group -> queue
	closed bool
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{groups: map[string]map[string]chan *memoryMessage{}}
}

// Close stops accepting publishes. Running consumers exit with their context.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Publish fans msg out to every group subscribed to topic. Without
// subscribers the message is dropped.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return io.ErrClosedPipe
	}

	for _, queue := range m.groups[topic] {
		mm := &memoryMessage{
			topic:   topic,
			key:     msg.Key,
			body:    append([]byte(nil), msg.Body...),
			headers: maps.Clone(msg.Headers),
		}
		select {
		case queue <- mm:
		default:
			return ErrMemoryBufferFull
		}
	}
	return nil
}

// Consume registers the group (default "") on topic and blocks until ctx is done.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	queue, err := m.subscribe(topic, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case mm := <-queue:
					deliver(ctx, DriverMemory, handler, mm, &mm.r, co.autoAck)
				}
			}
		})
	}
	wg.Wait()
	return nil
}

func (m *Memory) subscribe(topic, group string) (chan *memoryMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, io.ErrClosedPipe
	}

	if m.groups[topic] == nil {
		m.groups[topic] = map[string]chan *memoryMessage{}
	}
	queue, ok := m.groups[topic][group]
	if !ok {
		queue = make(chan *memoryMessage, memoryBuffer)
		m.groups[topic][group] = queue
	}
	return queue, nil
}

type memoryMessage struct {
	topic   string
	key     []byte
	body    []byte
	headers map[string]string
	r       responder

	acked  bool
	nacked bool
}

func (m *memoryMessage) Topic() string            { return m.topic }
func (m *memoryMessage) Key() []byte              { return m.key }
func (m *memoryMessage) Body() []byte             { return m.body }
func (m *memoryMessage) Header(key string) string { return m.headers[key] }

func (m *memoryMessage) Ack(context.Context) error {
	return m.r.respond(func() error {
		m.acked = true
		return nil
	})
}

func (m *memoryMessage) Nack(context.Context) error {
	return m.r.respond(func() error {
		m.nacked = true
		return nil
	})
}
