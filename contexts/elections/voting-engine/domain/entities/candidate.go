package entities

import "time"

type Candidate struct {
	CandidateID string
	Name        string
	Category    string
	VoteCount   uint64
	CreatedAt   time.Time
}

type TallyEntry struct {
	CandidateID string
	Name        string
	Category    string
	VoteCount   uint64
}

// TallySnapshot is a read-only copy of every candidate counter. Entries keep
// candidate registration order. Sequence is assigned by the broadcast hub and
// stays zero for snapshots read directly from the tally.
type TallySnapshot struct {
	Sequence uint64
	TakenAt  time.Time
	Entries  []TallyEntry
}

func (s TallySnapshot) TotalVotes() uint64 {
	var total uint64
	for _, entry := range s.Entries {
		total += entry.VoteCount
	}
	return total
}

// Clone returns a copy that shares no backing array with s.
func (s TallySnapshot) Clone() TallySnapshot {
	entries := make([]TallyEntry, len(s.Entries))
	copy(entries, s.Entries)
	return TallySnapshot{
		Sequence: s.Sequence,
		TakenAt:  s.TakenAt,
		Entries:  entries,
	}
}
