package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	votingengine "livevote/contexts/elections/voting-engine"
	"livevote/contexts/elections/voting-engine/adapters/memory"
	postgresadapter "livevote/contexts/elections/voting-engine/adapters/postgres"
	workerapp "livevote/contexts/elections/voting-engine/application/workers"
	"livevote/contexts/elections/voting-engine/ports"
	"livevote/internal/platform/config"
	"livevote/internal/platform/db"
	"livevote/internal/platform/httpserver"
	"livevote/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	module   votingengine.Module
	bus      *messaging.Bus
	postgres *db.Postgres

	// outboxRelay is nil when a worker process owns the outbox.
	outboxRelay  *workerapp.OutboxRelay
	pollInterval time.Duration

	shutdown time.Duration
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	bus          *messaging.Bus
	pollInterval time.Duration
	logger       *slog.Logger
}

// storage is the set of adapters one backend contributes to the module.
type storage struct {
	voters     ports.VoterRegistry
	candidates ports.CandidateTally
	committer  ports.VoteCommitter
	outbox     interface {
		ports.OutboxWriter
		ports.OutboxRepository
	}
	clock ports.Clock
	ids   ports.IDGenerator
	pg    *db.Postgres
}

func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "api")

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newAPIApp(cfg, store, logger), nil
}

// newAPIApp relays the outbox in-process only for the memory backend. With
// postgres the rows are shared with the worker, which is their only relay.
func newAPIApp(cfg config.Config, store storage, logger *slog.Logger) *APIApp {
	module := votingengine.NewModule(votingengine.Dependencies{
		Voters:               store.voters,
		Candidates:           store.candidates,
		Committer:            store.committer,
		Slot:                 memory.NewSearchSlot(),
		Outbox:               store.outbox,
		Clock:                store.clock,
		IDGen:                store.ids,
		QueueSize:            cfg.BroadcastQueueSize,
		BootstrapSubscribers: cfg.BroadcastBootstrap,
		Logger:               logger,
	})

	bus := messaging.NewBus(cfg.KafkaBrokers, logger)
	app := &APIApp{
		server:       httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort)),
		module:       module,
		bus:          bus,
		postgres:     store.pg,
		pollInterval: cfg.OutboxPollInterval,
		shutdown:     cfg.ShutdownTimeout,
		logger:       logger,
	}
	if cfg.StorageBackend != config.StoragePostgres {
		relay := newOutboxRelay(cfg, store, bus, logger)
		app.outboxRelay = &relay
	}
	return app
}

func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "worker")
	if cfg.StorageBackend != config.StoragePostgres {
		return nil, errors.New("worker requires STORAGE_BACKEND=postgres")
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newWorkerApp(cfg, store, logger), nil
}

func newWorkerApp(cfg config.Config, store storage, logger *slog.Logger) *WorkerApp {
	bus := messaging.NewBus(cfg.KafkaBrokers, logger)
	return &WorkerApp{
		postgres:     store.pg,
		outboxRelay:  newOutboxRelay(cfg, store, bus, logger),
		bus:          bus,
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}
}

func newOutboxRelay(cfg config.Config, store storage, bus *messaging.Bus, logger *slog.Logger) workerapp.OutboxRelay {
	return workerapp.OutboxRelay{
		Outbox:    store.outbox,
		Publisher: bus,
		Clock:     store.clock,
		BatchSize: cfg.OutboxBatchSize,
		Logger:    logger,
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return storage{}, errors.New("POSTGRES_DSN is required")
		}
		pg, err := db.Connect(ctx, cfg.PostgresDSN, db.Options{}, logger)
		if err != nil {
			return storage{}, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if cfg.PostgresAutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				_ = pg.Close()
				return storage{}, err
			}
		}
		return storage{
			voters:     repo,
			candidates: repo,
			committer:  repo,
			outbox:     repo,
			clock:      postgresadapter.SystemClock{},
			ids:        postgresadapter.UUIDGenerator{},
			pg:         pg,
		}, nil
	case config.StorageMemory, "":
		store := memory.NewStore()
		return storage{
			voters:     store,
			candidates: store,
			outbox:     store,
			clock:      store,
			ids:        store,
		}, nil
	default:
		return storage{}, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

// Run serves HTTP and drives the tally publisher, plus the outbox relay for
// the memory backend, until ctx is done or one of them fails; the server is
// then shut down gracefully.
func (a *APIApp) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	if a.outboxRelay != nil {
		if err := subscribeVoteAudit(groupCtx, a.bus, a.logger); err != nil {
			return err
		}
	}

	group.Go(func() error {
		return a.module.Publisher.Run(groupCtx)
	})
	if a.outboxRelay != nil {
		group.Go(func() error {
			return a.outboxRelay.Run(groupCtx, a.pollInterval)
		})
	}
	group.Go(func() error {
		return a.server.Start()
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout())
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"outbox_relay", a.outboxRelay != nil,
		"poll_interval", a.pollInterval.String(),
	)
	return group.Wait()
}

func (a *APIApp) Close() error {
	a.bus.Close()
	a.module.Hub.Close()
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// subscribeVoteAudit logs every relayed vote event. It is registered on the
// bus of whichever process relays the outbox.
func subscribeVoteAudit(ctx context.Context, bus *messaging.Bus, logger *slog.Logger) error {
	return bus.Subscribe(ctx, ports.VoteCastEventType, "livevote-audit", func(_ context.Context, event ports.EventEnvelope) error {
		logger.Info("vote event relayed",
			"event", "bootstrap_vote_event_relayed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"event_id", event.EventID,
			"candidate_id", event.PartitionKey,
		)
		return nil
	})
}

func (a *APIApp) shutdownTimeout() time.Duration {
	if a.shutdown <= 0 {
		return 10 * time.Second
	}
	return a.shutdown
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := subscribeVoteAudit(ctx, w.bus, w.logger); err != nil {
		return err
	}
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)
	return w.outboxRelay.Run(ctx, w.pollInterval)
}

func (w *WorkerApp) Close() error {
	w.bus.Close()
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
