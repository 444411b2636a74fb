package memory

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"
	"livevote/contexts/elections/voting-engine/ports"
)

type ballot struct {
	candidateID string
	votedAt     time.Time
}

type voterRecord struct {
	voterID      string
	name         string
	registeredAt time.Time
	ballot       atomic.Pointer[ballot]
}

func (r *voterRecord) toEntity() entities.Voter {
	voter := entities.Voter{
		VoterID:      r.voterID,
		Name:         r.name,
		RegisteredAt: r.registeredAt,
	}
	if cast := r.ballot.Load(); cast != nil {
		candidateID := cast.candidateID
		votedAt := cast.votedAt
		voter.VotedFor = &candidateID
		voter.VotedAt = &votedAt
	}
	return voter
}

// VoterRegistry keeps voters in a read-mostly index. The index lock is only
// written on registration; the vote gate is a per-record pointer swap, so
// votes for different voters never wait on each other.
type VoterRegistry struct {
	mu     sync.RWMutex
	voters map[string]*voterRecord
	voted  atomic.Int64
}

func NewVoterRegistry() *VoterRegistry {
	return &VoterRegistry{
		voters: make(map[string]*voterRecord),
	}
}

func (r *VoterRegistry) RegisterVoter(_ context.Context, voter entities.Voter) error {
	voterID := strings.TrimSpace(voter.VoterID)
	if voterID == "" {
		return domainerrors.ErrInvalidInput
	}
	record := &voterRecord{
		voterID:      voterID,
		name:         strings.TrimSpace(voter.Name),
		registeredAt: voter.RegisteredAt.UTC(),
	}
	if voter.VotedFor != nil {
		cast := &ballot{candidateID: strings.TrimSpace(*voter.VotedFor)}
		if voter.VotedAt != nil {
			cast.votedAt = voter.VotedAt.UTC()
		}
		record.ballot.Store(cast)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.voters[voterID]; exists {
		return domainerrors.ErrDuplicateVoter
	}
	r.voters[voterID] = record
	if voter.VotedFor != nil {
		r.voted.Add(1)
	}
	return nil
}

func (r *VoterRegistry) GetVoter(_ context.Context, voterID string) (entities.Voter, error) {
	record, ok := r.lookup(voterID)
	if !ok {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	return record.toEntity(), nil
}

// TryMarkVoted sets the voter's choice only if no choice exists yet. Exactly
// one of any number of concurrent callers for the same voter succeeds.
func (r *VoterRegistry) TryMarkVoted(_ context.Context, voterID string, candidateID string, votedAt time.Time) error {
	record, ok := r.lookup(voterID)
	if !ok {
		return domainerrors.ErrVoterNotFound
	}
	cast := &ballot{
		candidateID: strings.TrimSpace(candidateID),
		votedAt:     votedAt.UTC(),
	}
	if !record.ballot.CompareAndSwap(nil, cast) {
		return domainerrors.ErrAlreadyVoted
	}
	r.voted.Add(1)
	return nil
}

func (r *VoterRegistry) VoterStatistics(_ context.Context) (entities.VoterStatistics, error) {
	r.mu.RLock()
	registered := len(r.voters)
	r.mu.RUnlock()
	return entities.VoterStatistics{
		RegisteredVoters: registered,
		VotedVoters:      int(r.voted.Load()),
	}, nil
}

func (r *VoterRegistry) lookup(voterID string) (*voterRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.voters[strings.TrimSpace(voterID)]
	return record, ok
}

var _ ports.VoterRegistry = (*VoterRegistry)(nil)
