package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "livevote/contexts/elections/voting-engine/application"
	"livevote/contexts/elections/voting-engine/ports"
)

const defaultRelayBatch = 100

// OutboxRelay moves committed vote events from the outbox onto the event bus.
// Rows go out oldest first and a row is marked only after the bus took it.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce relays one batch and reports how many rows were published. It stops
// at the first failing row so later votes never overtake it; the next cycle
// starts again from that row.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	batch := r.BatchSize
	if batch <= 0 {
		batch = defaultRelayBatch
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, batch)
	if err != nil {
		logger.Error("vote outbox read failed",
			"event", "voting_outbox_list_failed",
			"module", "elections/voting-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	candidates := make(map[string]struct{})
	for i, row := range pending {
		if err := r.relay(ctx, logger, row); err != nil {
			return i, err
		}
		candidates[row.PartitionKey] = struct{}{}
	}

	logger.Info("vote outbox batch relayed",
		"event", "voting_outbox_relay_completed",
		"module", "elections/voting-engine",
		"layer", "worker",
		"published_count", len(pending),
		"candidate_count", len(candidates),
	)
	return len(pending), nil
}

func (r OutboxRelay) relay(ctx context.Context, logger *slog.Logger, row ports.OutboxMessage) error {
	fail := func(event string, err error) error {
		logger.Error("vote outbox row relay failed",
			"event", event,
			"module", "elections/voting-engine",
			"layer", "worker",
			"outbox_id", row.OutboxID,
			"candidate_id", row.PartitionKey,
			"error", err.Error(),
		)
		return err
	}

	var envelope ports.EventEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return fail("voting_outbox_decode_failed", err)
	}
	topic := envelope.EventType
	if topic == "" {
		topic = row.EventType
	}
	if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
		return fail("voting_outbox_publish_failed", err)
	}
	if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now()); err != nil {
		return fail("voting_outbox_mark_published_failed", err)
	}

	logger.Debug("vote event relayed",
		"event", "voting_outbox_row_relayed",
		"module", "elections/voting-engine",
		"layer", "worker",
		"event_id", envelope.EventID,
		"candidate_id", envelope.PartitionKey,
	)
	return nil
}

func (r OutboxRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// Run relays on a fixed interval until ctx is done. A failed cycle is logged
// by RunOnce and retried on the next tick.
func (r OutboxRelay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, _ = r.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
