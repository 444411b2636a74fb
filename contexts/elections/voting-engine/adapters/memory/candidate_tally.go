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

type candidateRecord struct {
	candidateID string
	name        string
	category    string
	createdAt   time.Time
	votes       atomic.Uint64
}

func (r *candidateRecord) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID: r.candidateID,
		Name:        r.name,
		Category:    r.category,
		VoteCount:   r.votes.Load(),
		CreatedAt:   r.createdAt,
	}
}

// CandidateTally stores one atomic counter per candidate. The lock guards the
// index and registration order only; increments never take it for writing.
type CandidateTally struct {
	mu    sync.RWMutex
	byID  map[string]*candidateRecord
	order []*candidateRecord
}

func NewCandidateTally() *CandidateTally {
	return &CandidateTally{
		byID: make(map[string]*candidateRecord),
	}
}

func (t *CandidateTally) RegisterCandidate(_ context.Context, candidate entities.Candidate) error {
	candidateID := strings.TrimSpace(candidate.CandidateID)
	if candidateID == "" {
		return domainerrors.ErrInvalidInput
	}
	record := &candidateRecord{
		candidateID: candidateID,
		name:        strings.TrimSpace(candidate.Name),
		category:    strings.TrimSpace(candidate.Category),
		createdAt:   candidate.CreatedAt.UTC(),
	}
	record.votes.Store(candidate.VoteCount)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.byID[candidateID]; exists {
		return domainerrors.ErrConflict
	}
	t.byID[candidateID] = record
	t.order = append(t.order, record)
	return nil
}

func (t *CandidateTally) GetCandidate(_ context.Context, candidateID string) (entities.Candidate, error) {
	t.mu.RLock()
	record, ok := t.byID[strings.TrimSpace(candidateID)]
	t.mu.RUnlock()
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return record.toEntity(), nil
}

func (t *CandidateTally) ListCandidates(_ context.Context, category string) ([]entities.Candidate, error) {
	category = strings.TrimSpace(category)
	t.mu.RLock()
	defer t.mu.RUnlock()
	items := make([]entities.Candidate, 0, len(t.order))
	for _, record := range t.order {
		if category != "" && !strings.EqualFold(record.category, category) {
			continue
		}
		items = append(items, record.toEntity())
	}
	return items, nil
}

func (t *CandidateTally) Increment(_ context.Context, candidateID string) (uint64, error) {
	t.mu.RLock()
	record, ok := t.byID[strings.TrimSpace(candidateID)]
	t.mu.RUnlock()
	if !ok {
		return 0, domainerrors.ErrCandidateNotFound
	}
	return record.votes.Add(1), nil
}

// Snapshot copies every counter with an atomic load. Counters may advance
// between two loads, but no single value is ever observed half-written.
func (t *CandidateTally) Snapshot(_ context.Context) (entities.TallySnapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := make([]entities.TallyEntry, 0, len(t.order))
	for _, record := range t.order {
		entries = append(entries, entities.TallyEntry{
			CandidateID: record.candidateID,
			Name:        record.name,
			Category:    record.category,
			VoteCount:   record.votes.Load(),
		})
	}
	return entities.TallySnapshot{
		TakenAt: time.Now().UTC(),
		Entries: entries,
	}, nil
}

var _ ports.CandidateTally = (*CandidateTally)(nil)
