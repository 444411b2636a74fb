package commands

import (
	"context"
	"errors"
	"testing"

	"livevote/contexts/elections/voting-engine/adapters/memory"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIDs struct {
	ids []string
	err error
}

func (g *staticIDs) NewID(context.Context) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	id := g.ids[0]
	g.ids = g.ids[1:]
	return id, nil
}

func TestRegisterVoter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uc := RegistrationUseCase{Voters: store, Candidates: store, IDGen: store}

	voter, err := uc.RegisterVoter(ctx, RegisterVoterCommand{VoterID: " v1 ", Name: " Ada "})
	require.NoError(t, err)
	assert.Equal(t, "v1", voter.VoterID)
	assert.Equal(t, "Ada", voter.Name)
	assert.False(t, voter.HasVoted())
	assert.False(t, voter.RegisteredAt.IsZero())

	_, err = uc.RegisterVoter(ctx, RegisterVoterCommand{VoterID: "v1", Name: "Other"})
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateVoter)

	_, err = uc.RegisterVoter(ctx, RegisterVoterCommand{Name: "Nameless"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestRegisterCandidateStartsAtZeroAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := &countingNotifier{}
	uc := RegistrationUseCase{
		Voters:     store,
		Candidates: store,
		Notifier:   notifier,
		IDGen:      &staticIDs{ids: []string{"cand-1"}},
	}

	candidate, err := uc.RegisterCandidate(ctx, RegisterCandidateCommand{Name: "Alice", Category: " Mayor "})
	require.NoError(t, err)
	assert.Equal(t, "cand-1", candidate.CandidateID)
	assert.Equal(t, "Mayor", candidate.Category)
	assert.Zero(t, candidate.VoteCount)
	assert.Equal(t, int64(1), notifier.calls.Load())

	stored, err := store.GetCandidate(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.Name)

	_, err = uc.RegisterCandidate(ctx, RegisterCandidateCommand{Category: "Mayor"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestRegisterCandidatePropagatesIDFailure(t *testing.T) {
	store := memory.NewStore()
	boom := errors.New("entropy exhausted")
	uc := RegistrationUseCase{Voters: store, Candidates: store, IDGen: &staticIDs{err: boom}}

	_, err := uc.RegisterCandidate(context.Background(), RegisterCandidateCommand{Name: "Alice"})
	assert.ErrorIs(t, err, boom)
}
