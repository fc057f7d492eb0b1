// Package bus provides the event transports that carry Kestrel's
// decision pipeline events (application intake, scores, decisions,
// alerts) between the API, the async workers, and review tooling.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// replyTimeout bounds how long Request waits for a responder.
const replyTimeout = 30 * time.Second

// ChannelBus is the Community tier transport: an in-process bus built
// on Go channels. Delivery is at-most-once; a subscriber that cannot
// keep up has messages dropped rather than stalling the decision
// pipeline, and drops are counted so operators can size buffers.
type ChannelBus struct {
	mu         sync.RWMutex
	bufferSize int
	subs       map[string][]*channelSub
	closed     bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

type channelSub struct {
	id       string
	tenantID string
	topic    string
	handler  domain.MessageHandler
	msgCh    chan *domain.Message
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewChannelBus creates an in-process bus. bufferSize is the per
// subscriber queue depth; sizing it below the expected decision burst
// rate will drop events.
func NewChannelBus(bufferSize int) *ChannelBus {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &ChannelBus{
		bufferSize: bufferSize,
		subs:       make(map[string][]*channelSub),
	}
}

// Publish fans a message out to every subscriber of the tenant's
// topic without blocking the caller.
func (b *ChannelBus) Publish(ctx context.Context, tenantID string, topic string, payload []byte) error {
	if tenantID == "" {
		return fmt.Errorf("tenantID is required")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bus is closed")
	}

	msg := &domain.Message{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Topic:     topic,
		Payload:   payload,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UnixNano(),
	}

	subs := b.subs[b.subKey(tenantID, topic)]
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.msgCh <- msg:
			b.published.Add(1)
		default:
			// Subscriber queue is full. Decision events are
			// re-derivable from the repository, so drop rather
			// than block scoring.
			b.dropped.Add(1)
			slog.Warn("event dropped, subscriber queue full",
				"topic", topic,
				"tenant_id", tenantID,
			)
		}
	}

	return nil
}

// Subscribe registers a handler for a tenant's topic. Each
// subscription gets its own queue and delivery goroutine so one slow
// handler cannot starve the others.
func (b *ChannelBus) Subscribe(ctx context.Context, tenantID string, topic string, handler domain.MessageHandler) (domain.Subscription, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenantID is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}

	subCtx, cancel := context.WithCancel(ctx)

	sub := &channelSub{
		id:       uuid.New().String(),
		tenantID: tenantID,
		topic:    topic,
		handler:  handler,
		msgCh:    make(chan *domain.Message, b.bufferSize),
		ctx:      subCtx,
		cancel:   cancel,
	}

	go sub.deliver()

	key := b.subKey(tenantID, topic)
	b.subs[key] = append(b.subs[key], sub)

	return sub, nil
}

// deliver drains the subscription queue until it is cancelled.
func (s *channelSub) deliver() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.msgCh:
			if msg != nil {
				_ = s.handler(s.ctx, msg)
			}
		}
	}
}

// Request publishes to a topic and waits for a single reply on a
// one-off reply topic. Used by review tooling to query workers.
func (b *ChannelBus) Request(ctx context.Context, tenantID string, topic string, payload []byte) ([]byte, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenantID is required")
	}

	replyCh := make(chan []byte, 1)
	replyTopic := topic + ".reply." + uuid.New().String()

	sub, err := b.Subscribe(ctx, tenantID, replyTopic, func(ctx context.Context, msg *domain.Message) error {
		select {
		case replyCh <- msg.Payload:
		default:
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	if err := b.Publish(ctx, tenantID, topic, payload); err != nil {
		return nil, err
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(replyTimeout):
		return nil, fmt.Errorf("request timeout")
	}
}

// Ping reports whether the bus can accept traffic.
func (b *ChannelBus) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("bus is closed")
	}
	return nil
}

// Close cancels every subscription and rejects further publishes.
func (b *ChannelBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.cancel()
			close(sub.msgCh)
		}
	}

	b.subs = make(map[string][]*channelSub)
	return nil
}

// Stats reports delivery counters since the bus was created.
func (b *ChannelBus) Stats() DeliveryStats {
	return DeliveryStats{
		Published: b.published.Load(),
		Dropped:   b.dropped.Load(),
	}
}

// subKey scopes subscription lookup to a tenant. Tenants never see
// each other's events even on a shared in-process bus.
func (b *ChannelBus) subKey(tenantID, topic string) string {
	return tenantID + ":" + topic
}

// Unsubscribe stops delivery for this subscription.
func (s *channelSub) Unsubscribe() error {
	s.cancel()
	return nil
}

// Topic returns the subscribed topic.
func (s *channelSub) Topic() string {
	return s.topic
}
