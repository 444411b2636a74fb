package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"livevote/contexts/elections/voting-engine/adapters/memory"
	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"
	"livevote/contexts/elections/voting-engine/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	calls atomic.Int64
}

func (n *countingNotifier) TallyChanged() {
	n.calls.Add(1)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newCastVoteFixture(t *testing.T, voterIDs []string, candidateIDs []string) (CastVoteUseCase, *memory.Store, *countingNotifier) {
	t.Helper()
	store := memory.NewStore()
	voters := make([]entities.Voter, 0, len(voterIDs))
	for _, id := range voterIDs {
		voters = append(voters, entities.Voter{VoterID: id, Name: "voter " + id})
	}
	candidates := make([]entities.Candidate, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		candidates = append(candidates, entities.Candidate{CandidateID: id, Name: "candidate " + id, Category: "general"})
	}
	require.NoError(t, store.Seed(context.Background(), voters, candidates))

	notifier := &countingNotifier{}
	return CastVoteUseCase{
		Voters:     store,
		Candidates: store,
		Notifier:   notifier,
		Outbox:     store,
		Clock:      fixedClock{now: time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)},
		IDGen:      store,
	}, store, notifier
}

func tallyCounts(t *testing.T, reader ports.TallyReader) map[string]uint64 {
	t.Helper()
	snapshot, err := reader.Snapshot(context.Background())
	require.NoError(t, err)
	counts := make(map[string]uint64, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		counts[entry.CandidateID] = entry.VoteCount
	}
	return counts
}

func TestCastVoteSequentialScenario(t *testing.T) {
	ctx := context.Background()
	uc, store, notifier := newCastVoteFixture(t, []string{"v1", "v2"}, []string{"c1", "c2"})

	committed, err := uc.Execute(ctx, CastVoteCommand{VoterID: "v1", CandidateID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), committed.CandidateVoteCount)
	assert.Equal(t, map[string]uint64{"c1": 1, "c2": 0}, tallyCounts(t, store))

	_, err = uc.Execute(ctx, CastVoteCommand{VoterID: "v1", CandidateID: "c2"})
	require.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)
	assert.Equal(t, map[string]uint64{"c1": 1, "c2": 0}, tallyCounts(t, store))

	committed, err = uc.Execute(ctx, CastVoteCommand{VoterID: "v2", CandidateID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), committed.CandidateVoteCount)
	assert.Equal(t, map[string]uint64{"c1": 2, "c2": 0}, tallyCounts(t, store))

	voter, err := store.GetVoter(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, voter.VotedFor)
	assert.Equal(t, "c1", *voter.VotedFor)
	assert.Equal(t, int64(2), notifier.calls.Load())
}

func TestCastVoteSimultaneousSameVoter(t *testing.T) {
	ctx := context.Background()
	uc, store, _ := newCastVoteFixture(t, []string{"v3"}, []string{"c1"})

	var wg sync.WaitGroup
	results := make([]error, 2)
	start := make(chan struct{})
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = uc.Execute(ctx, CastVoteCommand{VoterID: "v3", CandidateID: "c1"})
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, uint64(1), tallyCounts(t, store)["c1"])
}

func TestCastVoteTallyMatchesVotedVotersUnderLoad(t *testing.T) {
	ctx := context.Background()
	const voterCount = 200
	voterIDs := make([]string, 0, voterCount)
	for i := 0; i < voterCount; i++ {
		voterIDs = append(voterIDs, fmt.Sprintf("v%03d", i))
	}
	candidateIDs := []string{"c1", "c2", "c3"}
	uc, store, _ := newCastVoteFixture(t, voterIDs, candidateIDs)

	var wg sync.WaitGroup
	var succeeded atomic.Int64
	for i, voterID := range voterIDs {
		for attempt := 0; attempt < 3; attempt++ {
			wg.Add(1)
			go func(voterID string, candidateID string) {
				defer wg.Done()
				_, err := uc.Execute(ctx, CastVoteCommand{VoterID: voterID, CandidateID: candidateID})
				if err == nil {
					succeeded.Add(1)
					return
				}
				assert.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)
			}(voterID, candidateIDs[(i+attempt)%len(candidateIDs)])
		}
	}
	wg.Wait()

	snapshot, err := store.Snapshot(ctx)
	require.NoError(t, err)
	stats, err := store.VoterStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(voterCount), succeeded.Load())
	assert.Equal(t, voterCount, stats.VotedVoters)
	assert.Equal(t, uint64(stats.VotedVoters), snapshot.TotalVotes())
}

func TestCastVoteRejectsUnknownReferences(t *testing.T) {
	ctx := context.Background()
	uc, store, notifier := newCastVoteFixture(t, []string{"v1"}, []string{"c1"})

	_, err := uc.Execute(ctx, CastVoteCommand{VoterID: "ghost", CandidateID: "c1"})
	assert.ErrorIs(t, err, domainerrors.ErrVoterNotFound)

	_, err = uc.Execute(ctx, CastVoteCommand{VoterID: "v1", CandidateID: "ghost"})
	assert.ErrorIs(t, err, domainerrors.ErrCandidateNotFound)

	_, err = uc.Execute(ctx, CastVoteCommand{VoterID: " ", CandidateID: "c1"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	voter, err := store.GetVoter(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, voter.HasVoted(), "a rejected candidate must not spend the voter")
	assert.Zero(t, notifier.calls.Load())
}

func TestCastVoteCancelledBeforeGateHasNoEffect(t *testing.T) {
	uc, store, notifier := newCastVoteFixture(t, []string{"v1"}, []string{"c1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Execute(ctx, CastVoteCommand{VoterID: "v1", CandidateID: "c1"})
	require.ErrorIs(t, err, context.Canceled)

	voter, err := store.GetVoter(context.Background(), "v1")
	require.NoError(t, err)
	assert.False(t, voter.HasVoted())
	assert.Equal(t, uint64(0), tallyCounts(t, store)["c1"])
	assert.Zero(t, notifier.calls.Load())
}

// cancellingRegistry cancels the caller's context right after the gate.
type cancellingRegistry struct {
	ports.VoterRegistry
	cancel context.CancelFunc
}

func (r cancellingRegistry) TryMarkVoted(ctx context.Context, voterID string, candidateID string, votedAt time.Time) error {
	err := r.VoterRegistry.TryMarkVoted(ctx, voterID, candidateID, votedAt)
	r.cancel()
	return err
}

// contextCheckingTally fails increments that run on a cancelled context.
type contextCheckingTally struct {
	ports.CandidateTally
}

func (t contextCheckingTally) Increment(ctx context.Context, candidateID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return t.CandidateTally.Increment(ctx, candidateID)
}

func TestCastVoteCompletesWhenCancelledAfterGate(t *testing.T) {
	uc, store, notifier := newCastVoteFixture(t, []string{"v1"}, []string{"c1"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	uc.Voters = cancellingRegistry{VoterRegistry: store, cancel: cancel}
	uc.Candidates = contextCheckingTally{CandidateTally: store}

	committed, err := uc.Execute(ctx, CastVoteCommand{VoterID: "v1", CandidateID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), committed.CandidateVoteCount)
	assert.Error(t, ctx.Err())
	assert.Equal(t, uint64(1), tallyCounts(t, store)["c1"])
	assert.Equal(t, int64(1), notifier.calls.Load())
}

type recordingCommitter struct {
	calls  atomic.Int64
	result uint64
	err    error
}

func (c *recordingCommitter) CommitVote(_ context.Context, _ string, _ string, _ time.Time) (uint64, error) {
	c.calls.Add(1)
	return c.result, c.err
}

func TestCastVoteUsesCommitterWhenConfigured(t *testing.T) {
	ctx := context.Background()
	uc, store, _ := newCastVoteFixture(t, []string{"v1"}, []string{"c1"})
	committer := &recordingCommitter{result: 41}
	uc.Committer = committer

	committed, err := uc.Execute(ctx, CastVoteCommand{VoterID: "v1", CandidateID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(41), committed.CandidateVoteCount)
	assert.Equal(t, int64(1), committer.calls.Load())
	assert.Equal(t, uint64(0), tallyCounts(t, store)["c1"], "the committer owns the increment")

	committer.err = domainerrors.ErrAlreadyVoted
	_, err = uc.Execute(ctx, CastVoteCommand{VoterID: "v1", CandidateID: "c1"})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)
}

type failingOutbox struct{}

func (failingOutbox) AppendOutbox(context.Context, ports.EventEnvelope) error {
	return errors.New("outbox offline")
}

func TestCastVoteAppendsOutboxEvent(t *testing.T) {
	ctx := context.Background()
	uc, store, _ := newCastVoteFixture(t, []string{"v1"}, []string{"c1"})

	_, err := uc.Execute(ctx, CastVoteCommand{VoterID: "v1", CandidateID: "c1"})
	require.NoError(t, err)

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "vote.cast", pending[0].EventType)
	assert.Equal(t, "c1", pending[0].PartitionKey)

	var envelope ports.EventEnvelope
	require.NoError(t, json.Unmarshal(pending[0].Payload, &envelope))
	var data ports.VoteCastPayload
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "v1", data.VoterID)
	assert.Equal(t, "c1", data.CandidateID)
	assert.Equal(t, uint64(1), data.CandidateVoteCount)
	assert.False(t, data.CommittedAt.IsZero())
	assert.Equal(t, ports.VoteCastEventType, envelope.EventType)
	assert.Equal(t, "candidate_id", envelope.PartitionKeyPath)
}

func TestCastVoteSurvivesOutboxFailure(t *testing.T) {
	ctx := context.Background()
	uc, store, _ := newCastVoteFixture(t, []string{"v1"}, []string{"c1"})
	uc.Outbox = failingOutbox{}

	_, err := uc.Execute(ctx, CastVoteCommand{VoterID: "v1", CandidateID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tallyCounts(t, store)["c1"])
}
