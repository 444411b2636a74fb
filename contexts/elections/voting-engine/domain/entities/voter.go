package entities

import "time"

// Voter is a registered elector. VotedFor is set at most once.
type Voter struct {
	VoterID      string
	Name         string
	VotedFor     *string
	RegisteredAt time.Time
	VotedAt      *time.Time
}

func (v Voter) HasVoted() bool {
	return v.VotedFor != nil
}

// CommittedVote is returned once the voter gate and the tally increment have
// both been applied.
type CommittedVote struct {
	VoterID            string
	CandidateID        string
	CandidateVoteCount uint64
	CommittedAt        time.Time
}

type VoterStatistics struct {
	RegisteredVoters int
	VotedVoters      int
}
