package postgresadapter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestVoterModelRoundTripNormalizesFields(t *testing.T) {
	votedFor := " c1 "
	votedAt := time.Date(2026, 5, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	row := voterModelFromEntity(entities.Voter{
		VoterID:  " v1 ",
		Name:     " Ada ",
		VotedFor: &votedFor,
		VotedAt:  &votedAt,
	})

	assert.Equal(t, "v1", row.VoterID)
	assert.Equal(t, "Ada", row.Name)
	assert.Equal(t, "c1", *row.VotedFor)
	assert.False(t, row.RegisteredAt.IsZero())
	assert.Equal(t, time.UTC, row.VotedAt.Location())

	voter := row.toEntity()
	assert.True(t, voter.HasVoted())
	assert.Equal(t, "c1", *voter.VotedFor)
	assert.True(t, voter.VotedAt.Equal(votedAt))
}

func TestCandidateModelCarriesCount(t *testing.T) {
	row := candidateModelFromEntity(entities.Candidate{CandidateID: "c1", Name: "Alice", Category: " Mayor ", VoteCount: 12})
	assert.Equal(t, int64(12), row.VoteCount)
	assert.Equal(t, "Mayor", row.Category)
	assert.Equal(t, uint64(12), row.toEntity().VoteCount)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "voters", voterModel{}.TableName())
	assert.Equal(t, "candidates", candidateModel{}.TableName())
	assert.Equal(t, "voting_outbox", outboxModel{}.TableName())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, isDomainError(domainerrors.ErrVoterNotFound))
	assert.True(t, isDomainError(domainerrors.ErrCandidateNotFound))
	assert.True(t, isDomainError(domainerrors.ErrAlreadyVoted))
	assert.True(t, isDomainError(fmt.Errorf("%w: timeout", domainerrors.ErrUnavailable)))
	assert.False(t, isDomainError(errors.New("connection reset")))
}
