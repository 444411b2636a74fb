package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "livevote/contexts/elections/voting-engine/application"
	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"
	"livevote/contexts/elections/voting-engine/ports"
)

// CastVoteCommand is the write-model input for a single ballot.
type CastVoteCommand struct {
	VoterID     string
	CandidateID string
}

// CastVoteUseCase is the only writer of vote state. It validates both sides,
// passes the per-voter gate, increments the tally and then hands the change
// to the notifier without waiting for subscribers.
//
// Every increment is preceded by exactly one successful TryMarkVoted, so the
// sum of candidate counters always converges to the number of voters with a
// recorded choice.
type CastVoteUseCase struct {
	Voters     ports.VoterRegistry
	Candidates ports.CandidateTally
	Committer  ports.VoteCommitter
	Notifier   ports.TallyNotifier
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CastVoteUseCase) Execute(ctx context.Context, cmd CastVoteCommand) (entities.CommittedVote, error) {
	logger := application.ResolveLogger(uc.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	logger.Info("vote cast processing started",
		"event", "voting_vote_cast_started",
		"module", "elections/voting-engine",
		"layer", "application",
		"voter_id", voterID,
		"candidate_id", candidateID,
	)
	if voterID == "" || candidateID == "" {
		logger.Warn("vote cast validation failed",
			"event", "voting_vote_cast_validation_failed",
			"module", "elections/voting-engine",
			"layer", "application",
			"voter_id", voterID,
			"candidate_id", candidateID,
		)
		return entities.CommittedVote{}, domainerrors.ErrInvalidInput
	}

	if _, err := uc.Voters.GetVoter(ctx, voterID); err != nil {
		uc.logRejected(ctx, logger, "voter lookup", voterID, candidateID, err)
		return entities.CommittedVote{}, err
	}
	// The candidate must exist before the voter is marked, otherwise a voter
	// could be spent on a ballot that can never be counted.
	if _, err := uc.Candidates.GetCandidate(ctx, candidateID); err != nil {
		uc.logRejected(ctx, logger, "candidate lookup", voterID, candidateID, err)
		return entities.CommittedVote{}, err
	}

	if err := ctx.Err(); err != nil {
		logger.Info("vote cast cancelled before commit",
			"event", "voting_vote_cast_cancelled",
			"module", "elections/voting-engine",
			"layer", "application",
			"voter_id", voterID,
			"candidate_id", candidateID,
		)
		return entities.CommittedVote{}, err
	}

	now := uc.now()
	count, err := uc.commit(ctx, voterID, candidateID, now)
	if err != nil {
		return entities.CommittedVote{}, err
	}
	// The vote is committed: cancellation no longer applies past this point.
	commitCtx := context.WithoutCancel(ctx)

	if uc.Notifier != nil {
		uc.Notifier.TallyChanged()
	}
	committed := entities.CommittedVote{
		VoterID:            voterID,
		CandidateID:        candidateID,
		CandidateVoteCount: count,
		CommittedAt:        now,
	}
	if err := uc.appendVoteEvent(commitCtx, committed); err != nil {
		logger.Error("vote event append failed",
			"event", "voting_vote_outbox_append_failed",
			"module", "elections/voting-engine",
			"layer", "application",
			"voter_id", voterID,
			"candidate_id", candidateID,
			"error", err.Error(),
		)
	}

	logger.Info("vote cast committed",
		"event", "voting_vote_cast_committed",
		"module", "elections/voting-engine",
		"layer", "application",
		"voter_id", voterID,
		"candidate_id", candidateID,
		"candidate_vote_count", count,
	)
	return committed, nil
}

// commit passes the per-voter gate and increments the tally. Without a
// VoteCommitter the two steps run back to back, and the increment runs on a
// context detached from the caller so a cancelled request cannot leave a
// marked voter uncounted.
func (uc CastVoteUseCase) commit(ctx context.Context, voterID string, candidateID string, now time.Time) (uint64, error) {
	logger := application.ResolveLogger(uc.Logger)
	if uc.Committer != nil {
		count, err := uc.Committer.CommitVote(ctx, voterID, candidateID, now)
		if err != nil {
			uc.logRejected(ctx, logger, "vote commit", voterID, candidateID, err)
			return 0, err
		}
		return count, nil
	}

	if err := uc.Voters.TryMarkVoted(ctx, voterID, candidateID, now); err != nil {
		uc.logRejected(ctx, logger, "vote gate", voterID, candidateID, err)
		return 0, err
	}
	count, err := uc.Candidates.Increment(context.WithoutCancel(ctx), candidateID)
	if err != nil {
		logger.Error("vote tally increment failed after gate",
			"event", "voting_vote_increment_failed",
			"module", "elections/voting-engine",
			"layer", "application",
			"voter_id", voterID,
			"candidate_id", candidateID,
			"error", err.Error(),
		)
		return 0, err
	}
	return count, nil
}

func (uc CastVoteUseCase) logRejected(ctx context.Context, logger *slog.Logger, stage string, voterID string, candidateID string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, domainerrors.ErrUnavailable) {
		level = slog.LevelError
	}
	logger.Log(ctx, level, "vote cast rejected",
		"event", "voting_vote_cast_rejected",
		"module", "elections/voting-engine",
		"layer", "application",
		"stage", stage,
		"voter_id", voterID,
		"candidate_id", candidateID,
		"error", err.Error(),
	)
}

func (uc CastVoteUseCase) appendVoteEvent(ctx context.Context, vote entities.CommittedVote) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil || uc.IDGen == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newVoteCastEnvelope(eventID, vote)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc CastVoteUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
