package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "livevote/contexts/elections/voting-engine/application"
	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"
	"livevote/contexts/elections/voting-engine/ports"
)

type RegisterVoterCommand struct {
	VoterID string
	Name    string
}

type RegisterCandidateCommand struct {
	Name     string
	Category string
}

// RegistrationUseCase creates voters and candidates. It never touches vote
// state; a new voter always starts without a choice and a new candidate at zero.
type RegistrationUseCase struct {
	Voters     ports.VoterRegistry
	Candidates ports.CandidateTally
	Notifier   ports.TallyNotifier
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc RegistrationUseCase) RegisterVoter(ctx context.Context, cmd RegisterVoterCommand) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	if voterID == "" {
		logger.Warn("voter registration validation failed",
			"event", "voting_voter_register_validation_failed",
			"module", "elections/voting-engine",
			"layer", "application",
		)
		return entities.Voter{}, domainerrors.ErrInvalidInput
	}

	voter := entities.Voter{
		VoterID:      voterID,
		Name:         strings.TrimSpace(cmd.Name),
		RegisteredAt: uc.now(),
	}
	if err := uc.Voters.RegisterVoter(ctx, voter); err != nil {
		logger.Warn("voter registration rejected",
			"event", "voting_voter_register_rejected",
			"module", "elections/voting-engine",
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
		return entities.Voter{}, err
	}

	logger.Info("voter registered",
		"event", "voting_voter_registered",
		"module", "elections/voting-engine",
		"layer", "application",
		"voter_id", voterID,
	)
	return voter, nil
}

func (uc RegistrationUseCase) RegisterCandidate(ctx context.Context, cmd RegisterCandidateCommand) (entities.Candidate, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		logger.Warn("candidate registration validation failed",
			"event", "voting_candidate_register_validation_failed",
			"module", "elections/voting-engine",
			"layer", "application",
		)
		return entities.Candidate{}, domainerrors.ErrInvalidInput
	}

	candidateID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Candidate{}, err
	}
	candidate := entities.Candidate{
		CandidateID: candidateID,
		Name:        name,
		Category:    strings.TrimSpace(cmd.Category),
		CreatedAt:   uc.now(),
	}
	if err := uc.Candidates.RegisterCandidate(ctx, candidate); err != nil {
		logger.Error("candidate registration failed",
			"event", "voting_candidate_register_failed",
			"module", "elections/voting-engine",
			"layer", "application",
			"candidate_name", name,
			"error", err.Error(),
		)
		return entities.Candidate{}, err
	}

	// A new zero row changes the shape of the tally observers render.
	if uc.Notifier != nil {
		uc.Notifier.TallyChanged()
	}

	logger.Info("candidate registered",
		"event", "voting_candidate_registered",
		"module", "elections/voting-engine",
		"layer", "application",
		"candidate_id", candidate.CandidateID,
		"category", candidate.Category,
	)
	return candidate, nil
}

func (uc RegistrationUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
