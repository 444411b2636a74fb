package votingengine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"
	httptransport "livevote/contexts/elections/voting-engine/transport/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededModule(t *testing.T) Module {
	t.Helper()
	module, err := NewInMemoryModule(Seed{
		Voters: []entities.Voter{
			{VoterID: "v1", Name: "Ada"},
			{VoterID: "v2", Name: "Grace"},
		},
		Candidates: []entities.Candidate{
			{CandidateID: "c1", Name: "Alice", Category: "Mayor"},
			{CandidateID: "c2", Name: "Bob", Category: "Mayor"},
		},
	}, nil)
	require.NoError(t, err)
	return module
}

func TestModuleCastVoteAndStreamTally(t *testing.T) {
	module := newSeededModule(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := module.Handler.SubscribeTallyHandler(ctx)
	require.NoError(t, err)
	go func() { _ = module.Publisher.Run(ctx) }()

	resp, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{VoterID: "v1", CandidateID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.CandidateVoteCount)

	_, err = module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{VoterID: "v1", CandidateID: "c2"})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snapshot := <-sub.Updates():
			if snapshot.TotalVotes() == 1 {
				assert.Equal(t, uint64(1), snapshot.Entries[0].VoteCount)
				assert.Equal(t, uint64(0), snapshot.Entries[1].VoteCount)
				return
			}
		case <-deadline:
			t.Fatal("committed vote never reached the subscriber")
		}
	}
}

func TestModuleSimultaneousVotersCountedOnce(t *testing.T) {
	module := newSeededModule(t)
	ctx := context.Background()

	const voters = 200
	for i := 0; i < voters; i++ {
		_, err := module.Handler.RegisterVoterHandler(ctx, httptransport.RegisterVoterRequest{
			VoterID: fmt.Sprintf("load-%03d", i),
			Name:    "Load",
		})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		voterID := fmt.Sprintf("load-%03d", i)
		for attempt := 0; attempt < 3; attempt++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{VoterID: voterID, CandidateID: "c2"})
			}()
		}
	}
	wg.Wait()

	tally, err := module.Handler.TallyHandler(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(voters), tally.TotalVotes)

	stats, err := module.Handler.StatisticsHandler(ctx)
	require.NoError(t, err)
	assert.Equal(t, voters+2, stats.RegisteredVoters)
	assert.Equal(t, voters, stats.VotedVoters)
	assert.Equal(t, uint64(voters), stats.TotalVotes)
}

func TestModuleSearchAndCategories(t *testing.T) {
	module := newSeededModule(t)
	ctx := context.Background()

	_, ok := module.Handler.LastSearchedHandler(ctx)
	assert.False(t, ok)

	found, err := module.Handler.SearchVoterHandler(ctx, "v2")
	require.NoError(t, err)
	assert.False(t, found.HasVoted)

	last, ok := module.Handler.LastSearchedHandler(ctx)
	require.True(t, ok)
	assert.Equal(t, "v2", last.VoterID)

	created, err := module.Handler.RegisterCandidateHandler(ctx, httptransport.RegisterCandidateRequest{Name: "Carol", Category: "Council"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.CandidateID)

	categories, err := module.Handler.ListCategoriesHandler(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Council", "Mayor"}, categories.Items)
}

func TestNewInMemoryModuleRejectsInconsistentSeed(t *testing.T) {
	choice := "c1"
	_, err := NewInMemoryModule(Seed{
		Voters:     []entities.Voter{{VoterID: "v1", VotedFor: &choice}},
		Candidates: []entities.Candidate{{CandidateID: "c1", Name: "Alice"}},
	}, nil)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}
