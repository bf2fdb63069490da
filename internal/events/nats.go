package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// clientName identifies configuration connections in NATS monitoring.
	clientName = "edc-configuration"

	headerContentType = "Content-Type"
	headerPublishedAt = "Edc-Published-At"

	// subscriptionBuffer is how many undelivered messages a subscription
	// holds before it starts dropping.
	subscriptionBuffer = 64
)

// NATSPublisher publishes events as JSON on the subject named by the topic.
type NATSPublisher struct {
	conn *nats.Conn
	now  func() time.Time
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name(clientName))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc, now: time.Now}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	msg := nats.NewMsg(topic)
	msg.Data = data
	msg.Header.Set(headerContentType, "application/json")
	msg.Header.Set(headerPublishedAt, p.now().UTC().Format(time.RFC3339Nano))
	return p.conn.PublishMsg(msg)
}

// Close flushes buffered events before closing the connection.
func (p *NATSPublisher) Close() error {
	if !p.conn.IsClosed() {
		_ = p.conn.FlushTimeout(2 * time.Second)
	}
	p.conn.Close()
	return nil
}

// NATSSubscriber receives configuration events. It reconnects forever.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to url. opts are applied after the defaults, so
// callers can add disconnect and reconnect handlers.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	all := append([]nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}, opts...)
	nc, err := nats.Connect(url, all...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Subscribe delivers events on topic, which may use NATS wildcards such as
// TopicAll. A slow reader loses messages rather than stalling the
// connection. The returned cancel function unsubscribes and closes the
// channel; it is safe to call more than once.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	sub := &subscription{ch: make(chan Message, subscriptionBuffer)}

	ns, err := s.conn.Subscribe(topic, sub.deliver)
	if err != nil {
		close(sub.ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	sub.ns = ns

	// The subscription must reach the server before events published on
	// other connections are routed to it.
	if err := s.conn.Flush(); err != nil {
		sub.cancel()
		return nil, nil, fmt.Errorf("flushing subscription to %s: %w", topic, err)
	}
	return sub.ch, sub.cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}

// subscription bridges one NATS subscription to a Message channel. deliver
// and cancel share mu, so no send can race the close.
type subscription struct {
	ns *nats.Subscription
	ch chan Message

	mu     sync.Mutex
	closed bool
}

func (s *subscription) deliver(msg *nats.Msg) {
	m := Message{Topic: msg.Subject, Data: msg.Data}
	if v := msg.Header.Get(headerPublishedAt); v != "" {
		m.PublishedAt, _ = time.Parse(time.RFC3339Nano, v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- m:
	default:
	}
}

func (s *subscription) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.ns != nil {
		_ = s.ns.Unsubscribe()
	}
	// Unread messages are discarded.
	for len(s.ch) > 0 {
		<-s.ch
	}
	close(s.ch)
}
