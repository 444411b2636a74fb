package votingengine

import (
	"context"
	"log/slog"

	httpadapter "livevote/contexts/elections/voting-engine/adapters/http"
	"livevote/contexts/elections/voting-engine/adapters/memory"
	"livevote/contexts/elections/voting-engine/application/broadcast"
	"livevote/contexts/elections/voting-engine/application/commands"
	"livevote/contexts/elections/voting-engine/application/queries"
	"livevote/contexts/elections/voting-engine/domain/entities"
	"livevote/contexts/elections/voting-engine/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Hub       *broadcast.Hub
	Publisher *broadcast.TallyPublisher
	Store     *memory.Store
}

type Dependencies struct {
	Voters     ports.VoterRegistry
	Candidates ports.CandidateTally
	Slot       ports.SearchSlot
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator

	// Committer is optional; stores with transactions set it.
	Committer ports.VoteCommitter

	// QueueSize bounds every live subscriber's backlog.
	QueueSize int

	// BootstrapSubscribers sends the last published tally to new subscribers.
	BootstrapSubscribers bool

	Logger *slog.Logger
}

type Seed struct {
	Voters     []entities.Voter
	Candidates []entities.Candidate
}

func NewModule(deps Dependencies) Module {
	hub := broadcast.NewHub(broadcast.HubConfig{
		QueueSize: deps.QueueSize,
		Bootstrap: deps.BootstrapSubscribers,
		Logger:    deps.Logger,
	})
	publisher := broadcast.NewTallyPublisher(deps.Candidates, hub, deps.Logger)

	return Module{
		Handler: httpadapter.Handler{
			Registration: commands.RegistrationUseCase{
				Voters:     deps.Voters,
				Candidates: deps.Candidates,
				Notifier:   publisher,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Votes: commands.CastVoteUseCase{
				Voters:     deps.Voters,
				Candidates: deps.Candidates,
				Committer:  deps.Committer,
				Notifier:   publisher,
				Outbox:     deps.Outbox,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Tally: queries.TallyUseCase{
				Candidates: deps.Candidates,
			},
			Search: queries.SearchUseCase{
				Voters: deps.Voters,
				Slot:   deps.Slot,
				Logger: deps.Logger,
			},
			Statistics: queries.StatisticsUseCase{
				Voters:     deps.Voters,
				Candidates: deps.Candidates,
			},
			Hub:    hub,
			Logger: deps.Logger,
		},
		Hub:       hub,
		Publisher: publisher,
	}
}

func NewInMemoryModule(seed Seed, logger *slog.Logger) (Module, error) {
	store := memory.NewStore()
	if err := store.Seed(context.Background(), seed.Voters, seed.Candidates); err != nil {
		return Module{}, err
	}
	module := NewModule(Dependencies{
		Voters:               store,
		Candidates:           store,
		Slot:                 store,
		Outbox:               store,
		Clock:                store,
		IDGen:                store,
		BootstrapSubscribers: true,
		Logger:               logger,
	})
	module.Store = store
	return module, nil
}
