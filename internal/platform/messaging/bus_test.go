package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"livevote/contexts/elections/voting-engine/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToTopicSubscribers(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []string
	done := make(chan struct{}, 2)
	handler := func(_ context.Context, event ports.EventEnvelope) error {
		mu.Lock()
		received = append(received, event.EventID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}
	require.NoError(t, bus.Subscribe(ctx, "vote.cast", "tally-audit", handler))
	require.NoError(t, bus.Subscribe(ctx, "other.topic", "ignored", handler))

	require.NoError(t, bus.Publish(ctx, "vote.cast", ports.EventEnvelope{EventID: "evt-1", EventType: "vote.cast"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"evt-1"}, received)
}

func TestBusRemovesSubscriberOnCancel(t *testing.T) {
	bus := NewBus([]string{"localhost:9092"}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, bus.Subscribe(ctx, "vote.cast", "cg", func(context.Context, ports.EventEnvelope) error {
		return nil
	}))
	cancel()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subscribers["vote.cast"]) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBusRejectsAfterClose(t *testing.T) {
	bus := NewBus(nil, nil)
	bus.Close()
	bus.Close()

	err := bus.Publish(context.Background(), "vote.cast", ports.EventEnvelope{EventID: "evt"})
	assert.ErrorIs(t, err, ErrBusClosed)
	err = bus.Subscribe(context.Background(), "vote.cast", "cg", func(context.Context, ports.EventEnvelope) error { return nil })
	assert.ErrorIs(t, err, ErrBusClosed)
}
