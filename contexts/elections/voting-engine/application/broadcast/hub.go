// Package broadcast fans tally snapshots out to live subscribers.
//
// Every subscriber owns a bounded queue. Publish performs non-blocking sends
// while holding the hub lock, which keeps each queue in publish order and
// never waits on a consumer. A subscriber whose queue is full is dropped.
//
// Every queued snapshot is a private copy, so a consumer may keep or modify
// what it receives.
package broadcast

import (
	"context"
	"log/slog"
	"sync"

	application "livevote/contexts/elections/voting-engine/application"
	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"
)

const defaultQueueSize = 16

// Subscription is a handle on one live subscriber. Updates is closed when the
// subscriber is removed for any reason; Err reports why.
type Subscription struct {
	id      uint64
	updates chan entities.TallySnapshot
	done    chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

func (s *Subscription) ID() uint64 {
	return s.id
}

func (s *Subscription) Updates() <-chan entities.TallySnapshot {
	return s.updates
}

// Done is closed together with Updates.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err is nil after a plain unsubscribe, ErrSubscriberSlow after a drop and
// ErrHubClosed after the hub shut down.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) close(reason error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = reason
		s.mu.Unlock()
		close(s.updates)
		close(s.done)
	})
}

type HubConfig struct {
	// QueueSize bounds each subscriber's backlog. Zero selects the default.
	QueueSize int
	// Bootstrap queues the last published snapshot for every new subscriber.
	// Subscribers arriving before the first publish wait for it.
	Bootstrap bool
	Logger    *slog.Logger
}

type Hub struct {
	mu          sync.Mutex
	subscribers map[uint64]*Subscription
	nextID      uint64
	sequence    uint64
	last        *entities.TallySnapshot
	closed      bool

	queueSize int
	bootstrap bool
	logger    *slog.Logger
}

func NewHub(cfg HubConfig) *Hub {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Hub{
		subscribers: make(map[uint64]*Subscription),
		queueSize:   queueSize,
		bootstrap:   cfg.Bootstrap,
		logger:      application.ResolveLogger(cfg.Logger),
	}
}

// Subscribe registers a subscriber that lives until Unsubscribe is called or
// ctx is done. With Bootstrap enabled the first queued value is the latest
// published snapshot. The bootstrap value is taken under the same lock as
// Publish, so a subscriber never sees an older tally after a newer one.
func (h *Hub) Subscribe(ctx context.Context) (*Subscription, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, domainerrors.ErrHubClosed
	}
	h.nextID++
	sub := &Subscription{
		id:      h.nextID,
		updates: make(chan entities.TallySnapshot, h.queueSize),
		done:    make(chan struct{}),
	}
	if h.bootstrap && h.last != nil {
		sub.updates <- h.last.Clone()
	}
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Debug("tally subscriber registered",
		"event", "voting_tally_subscriber_registered",
		"module", "elections/voting-engine",
		"layer", "application",
		"subscriber_id", sub.id,
		"subscribers", count,
	)

	go func() {
		select {
		case <-ctx.Done():
			h.Unsubscribe(sub)
		case <-sub.done:
		}
	}()
	return sub, nil
}

// Unsubscribe is idempotent and safe to call after the hub is closed.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, registered := h.subscribers[sub.id]
	delete(h.subscribers, sub.id)
	sub.close(nil)
	count := len(h.subscribers)
	h.mu.Unlock()

	if registered {
		h.logger.Debug("tally subscriber removed",
			"event", "voting_tally_subscriber_removed",
			"module", "elections/voting-engine",
			"layer", "application",
			"subscriber_id", sub.id,
			"subscribers", count,
		)
	}
}

// Publish stamps the snapshot with the next sequence number and queues it for
// every subscriber. It returns the assigned sequence, or zero after Close.
func (h *Hub) Publish(snapshot entities.TallySnapshot) uint64 {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0
	}
	h.sequence++
	published := snapshot.Clone()
	published.Sequence = h.sequence
	h.last = &published

	var dropped []uint64
	for id, sub := range h.subscribers {
		select {
		case sub.updates <- published.Clone():
		default:
			delete(h.subscribers, id)
			sub.close(domainerrors.ErrSubscriberSlow)
			dropped = append(dropped, id)
		}
	}
	delivered := len(h.subscribers)
	h.mu.Unlock()

	for _, id := range dropped {
		h.logger.Warn("tally subscriber dropped",
			"event", "voting_tally_subscriber_dropped",
			"module", "elections/voting-engine",
			"layer", "application",
			"subscriber_id", id,
			"sequence", published.Sequence,
			"queue_size", h.queueSize,
		)
	}
	h.logger.Debug("tally snapshot published",
		"event", "voting_tally_published",
		"module", "elections/voting-engine",
		"layer", "application",
		"sequence", published.Sequence,
		"subscribers", delivered,
	)
	return published.Sequence
}

// Last returns the most recently published snapshot.
func (h *Hub) Last() (entities.TallySnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return entities.TallySnapshot{}, false
	}
	return h.last.Clone(), true
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close removes every subscriber and rejects later subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subscribers {
		delete(h.subscribers, id)
		sub.close(domainerrors.ErrHubClosed)
	}
}
