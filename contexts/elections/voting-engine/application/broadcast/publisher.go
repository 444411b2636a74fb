package broadcast

import (
	"context"
	"log/slog"

	application "livevote/contexts/elections/voting-engine/application"
	"livevote/contexts/elections/voting-engine/ports"
)

// TallyPublisher turns change notifications into published snapshots. Signals
// coalesce in a one-slot channel, so a burst of votes costs one snapshot read
// and subscribers always receive the newest full tally. Snapshots are read
// from a single goroutine, which keeps every published counter monotonic.
type TallyPublisher struct {
	tally  ports.TallyReader
	hub    *Hub
	logger *slog.Logger
	signal chan struct{}
}

func NewTallyPublisher(tally ports.TallyReader, hub *Hub, logger *slog.Logger) *TallyPublisher {
	return &TallyPublisher{
		tally:  tally,
		hub:    hub,
		logger: application.ResolveLogger(logger),
		signal: make(chan struct{}, 1),
	}
}

// TallyChanged never blocks.
func (p *TallyPublisher) TallyChanged() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// Run publishes the current tally once and then once per coalesced change
// until ctx is done.
func (p *TallyPublisher) Run(ctx context.Context) error {
	p.logger.Info("tally publisher started",
		"event", "voting_tally_publisher_started",
		"module", "elections/voting-engine",
		"layer", "worker",
	)
	p.publish(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("tally publisher stopped",
				"event", "voting_tally_publisher_stopped",
				"module", "elections/voting-engine",
				"layer", "worker",
			)
			return nil
		case <-p.signal:
			p.publish(ctx)
		}
	}
}

func (p *TallyPublisher) publish(ctx context.Context) {
	snapshot, err := p.tally.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("tally snapshot read failed",
			"event", "voting_tally_snapshot_failed",
			"module", "elections/voting-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return
	}
	p.hub.Publish(snapshot)
}

var _ ports.TallyNotifier = (*TallyPublisher)(nil)
