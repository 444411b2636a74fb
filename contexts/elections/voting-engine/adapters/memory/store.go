package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"livevote/contexts/elections/voting-engine/domain/entities"
	domainerrors "livevote/contexts/elections/voting-engine/domain/errors"
	"livevote/contexts/elections/voting-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store bundles the in-memory voter registry, candidate tally and search slot
// with an outbox, clock and id generator so a single value can satisfy every
// port of the module.
type Store struct {
	*VoterRegistry
	*CandidateTally
	*SearchSlot

	mu     sync.RWMutex
	outbox map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		VoterRegistry:  NewVoterRegistry(),
		CandidateTally: NewCandidateTally(),
		SearchSlot:     NewSearchSlot(),
		outbox:         make(map[string]outboxRecord),
	}
}

// Seed loads voters and candidates, stopping at the first rejected record.
// Seeded ballots must name a seeded candidate and the seeded counters must
// add up to the number of voters who already voted.
func (s *Store) Seed(ctx context.Context, voters []entities.Voter, candidates []entities.Candidate) error {
	if err := checkSeedBallots(voters, candidates); err != nil {
		return err
	}
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.CandidateID) == "" {
			candidate.CandidateID = uuid.NewString()
		}
		if candidate.CreatedAt.IsZero() {
			candidate.CreatedAt = s.Now()
		}
		if err := s.RegisterCandidate(ctx, candidate); err != nil {
			return err
		}
	}
	for _, voter := range voters {
		if voter.RegisteredAt.IsZero() {
			voter.RegisteredAt = s.Now()
		}
		if err := s.RegisterVoter(ctx, voter); err != nil {
			return err
		}
	}
	return nil
}

func checkSeedBallots(voters []entities.Voter, candidates []entities.Candidate) error {
	known := make(map[string]struct{}, len(candidates))
	var counted uint64
	for _, candidate := range candidates {
		if candidateID := strings.TrimSpace(candidate.CandidateID); candidateID != "" {
			known[candidateID] = struct{}{}
		}
		counted += candidate.VoteCount
	}
	var cast uint64
	for _, voter := range voters {
		if voter.VotedFor == nil {
			continue
		}
		if _, ok := known[strings.TrimSpace(*voter.VotedFor)]; !ok {
			return fmt.Errorf("%w: voter %q voted for unknown candidate %q", domainerrors.ErrInvalidInput, voter.VoterID, *voter.VotedFor)
		}
		cast++
	}
	if counted != cast {
		return fmt.Errorf("%w: seeded vote counts total %d but %d voters have voted", domainerrors.ErrInvalidInput, counted, cast)
	}
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
