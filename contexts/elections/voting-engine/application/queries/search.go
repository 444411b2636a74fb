package queries

import (
	"context"
	"log/slog"
	"strings"

	application "livevote/contexts/elections/voting-engine/application"
	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"
	"livevote/contexts/elections/voting-engine/ports"
)

// SearchUseCase looks voters up and remembers the last hit in the shared
// search slot. A miss leaves the slot untouched.
type SearchUseCase struct {
	Voters ports.VoterRegistry
	Slot   ports.SearchSlot
	Logger *slog.Logger
}

func (uc SearchUseCase) SearchVoter(ctx context.Context, voterID string) (entities.Voter, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return entities.Voter{}, domainerrors.ErrInvalidInput
	}
	voter, err := uc.Voters.GetVoter(ctx, voterID)
	if err != nil {
		application.ResolveLogger(uc.Logger).Debug("voter search missed",
			"event", "voting_voter_search_missed",
			"module", "elections/voting-engine",
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
		return entities.Voter{}, err
	}
	uc.Slot.Set(voter)
	return voter, nil
}

func (uc SearchUseCase) LastSearched(_ context.Context) (entities.Voter, bool) {
	return uc.Slot.Get()
}
