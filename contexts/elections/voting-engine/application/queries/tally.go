package queries

import (
	"context"
	"sort"
	"strings"

	"livevote/contexts/elections/voting-engine/domain/entities"
	"livevote/contexts/elections/voting-engine/ports"
)

type TallyUseCase struct {
	Candidates ports.CandidateTally
}

func (uc TallyUseCase) Tally(ctx context.Context) (entities.TallySnapshot, error) {
	return uc.Candidates.Snapshot(ctx)
}

func (uc TallyUseCase) ListCandidates(ctx context.Context, category string) ([]entities.Candidate, error) {
	return uc.Candidates.ListCandidates(ctx, strings.TrimSpace(category))
}

// Categories returns the distinct candidate categories, sorted
// case-insensitively. Categories differing only by case collapse to the first
// spelling registered.
func (uc TallyUseCase) Categories(ctx context.Context) ([]string, error) {
	candidates, err := uc.Candidates.ListCandidates(ctx, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(candidates))
	items := make([]string, 0)
	for _, candidate := range candidates {
		category := strings.TrimSpace(candidate.Category)
		if category == "" {
			continue
		}
		key := strings.ToLower(category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, category)
	}
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i]) < strings.ToLower(items[j])
	})
	return items, nil
}

type Statistics struct {
	RegisteredVoters int
	VotedVoters      int
	Candidates       int
	TotalVotes       uint64
}

type StatisticsUseCase struct {
	Voters     ports.VoterRegistry
	Candidates ports.CandidateTally
}

func (uc StatisticsUseCase) Statistics(ctx context.Context) (Statistics, error) {
	voters, err := uc.Voters.VoterStatistics(ctx)
	if err != nil {
		return Statistics{}, err
	}
	snapshot, err := uc.Candidates.Snapshot(ctx)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{
		RegisteredVoters: voters.RegisteredVoters,
		VotedVoters:      voters.VotedVoters,
		Candidates:       len(snapshot.Entries),
		TotalVotes:       snapshot.TotalVotes(),
	}, nil
}
