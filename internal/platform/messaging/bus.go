package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"livevote/contexts/elections/voting-engine/ports"
)

var ErrBusClosed = errors.New("event bus closed")

// Bus is the in-process event bus the outbox relay publishes vote events to.
// Subscribers are registered per topic; each owns a buffered channel and a
// consumer goroutine. A full channel drops the event for that subscriber only.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan ports.EventEnvelope
	brokers     []string
	closed      bool
	logger      *slog.Logger
}

// NewBus keeps the broker list for logging; delivery stays in-process.
func NewBus(brokers []string, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string][]chan ports.EventEnvelope),
		brokers:     append([]string(nil), brokers...),
		logger:      logger,
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	subs := append([]chan ports.EventEnvelope(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case sub <- event:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"event", "bus_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
			)
		}
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"partition_key", event.PartitionKey,
		"subscribers", len(subs),
	)
	return nil
}

// Subscribe runs handler for every event on topic until ctx is done.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	ch := make(chan ports.EventEnvelope, 128)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(topic, ch)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// Close rejects further publishes and subscriptions. Running consumers exit
// with their own contexts.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.subscribers = make(map[string][]chan ports.EventEnvelope)
	b.logger.Info("event bus closed",
		"event", "bus_closed",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"brokers", b.brokers,
	)
}

func (b *Bus) removeSubscriber(topic string, target chan ports.EventEnvelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan ports.EventEnvelope, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	b.subscribers[topic] = filtered
}

var _ ports.EventPublisher = (*Bus)(nil)
