package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when the server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS driver.
type NATSConfig struct {
	URL  string
	Name string
}

// NATS is a Messaging backed by core NATS. Delivery is at most once.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	closed bool
}

// NewNATS connects to the server and keeps reconnecting forever.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, nats.Name(cfg.Name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}
	return &NATS{conn: conn}, nil
}

// Close drains the connection, letting in-flight handlers finish.
func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	err := n.conn.Drain()
	if errors.Is(err, nats.ErrConnectionClosed) {
		return nil
	}
	return err
}

// Publish sends msg to the subject and waits for the server to see it.
func (n *NATS) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}

	nm := nats.NewMsg(topic)
	nm.Data = msg.Body
	for key, value := range msg.Headers {
		nm.Header.Set(key, value)
	}

	if err := n.conn.PublishMsg(nm); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

// Consume subscribes with the queue group from WithGroup (plain subscription
// when empty) and blocks until ctx is done.
func (n *NATS) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(topic, handler); err != nil {
		return err
	}
	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return io.ErrClosedPipe
	}

	co := newConsumeOptions(opts...)
	msgs := make(chan *nats.Msg, 64*co.concurrency)

	sub, err := n.conn.ChanQueueSubscribe(topic, co.group, msgs)
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe %s: %w", topic, err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case m := <-msgs:
					nm := &natsMessage{msg: m}
					deliver(ctx, DriverNATS, handler, nm, &nm.r, co.autoAck)
				}
			}
		})
	}

	<-ctx.Done()
	uerr := sub.Unsubscribe()
	wg.Wait()

	if uerr != nil && !errors.Is(uerr, nats.ErrConnectionClosed) && !errors.Is(uerr, nats.ErrBadSubscription) {
		return fmt.Errorf("messaging: nats unsubscribe %s: %w", topic, uerr)
	}
	return nil
}

type natsMessage struct {
	msg *nats.Msg
	r   responder
}

func (m *natsMessage) Topic() string            { return m.msg.Subject }
func (m *natsMessage) Key() []byte              { return nil }
func (m *natsMessage) Body() []byte             { return m.msg.Data }
func (m *natsMessage) Header(key string) string { return m.msg.Header.Get(key) }

func (m *natsMessage) Ack(context.Context) error {
	return m.r.respond(func() error { return ignoreNoReply(m.msg.Ack()) })
}

func (m *natsMessage) Nack(context.Context) error {
	return m.r.respond(func() error { return ignoreNoReply(m.msg.Nak()) })
}

// ignoreNoReply treats acks on plain core NATS messages as no-ops.
func ignoreNoReply(err error) error {
	if errors.Is(err, nats.ErrMsgNoReply) || errors.Is(err, nats.ErrMsgNotBound) {
		return nil
	}
	return err
}
