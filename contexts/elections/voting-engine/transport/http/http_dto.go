package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterVoterRequest struct {
	VoterID string `json:"voter_id"`
	Name    string `json:"name"`
}

type VoterResponse struct {
	VoterID      string     `json:"voter_id"`
	Name         string     `json:"name"`
	VotedFor     *string    `json:"voted_for,omitempty"`
	HasVoted     bool       `json:"has_voted"`
	RegisteredAt time.Time  `json:"registered_at"`
	VotedAt      *time.Time `json:"voted_at,omitempty"`
}

type RegisterCandidateRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type CandidateResponse struct {
	CandidateID string    `json:"candidate_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	VoteCount   uint64    `json:"vote_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type CandidateListResponse struct {
	Items []CandidateResponse `json:"items"`
}

type CategoryListResponse struct {
	Items []string `json:"items"`
}

type CastVoteRequest struct {
	VoterID     string `json:"voter_id"`
	CandidateID string `json:"candidate_id"`
}

type CastVoteResponse struct {
	VoterID            string    `json:"voter_id"`
	CandidateID        string    `json:"candidate_id"`
	CandidateVoteCount uint64    `json:"candidate_vote_count"`
	CommittedAt        time.Time `json:"committed_at"`
}

type TallyItem struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	VoteCount   uint64 `json:"vote_count"`
}

// TallyResponse is both the GET /v1/tally body and the payload of every
// streamed tally event.
type TallyResponse struct {
	Sequence   uint64      `json:"sequence,omitempty"`
	TakenAt    time.Time   `json:"taken_at"`
	TotalVotes uint64      `json:"total_votes"`
	Items      []TallyItem `json:"items"`
}

type StatisticsResponse struct {
	RegisteredVoters int    `json:"registered_voters"`
	VotedVoters      int    `json:"voted_voters"`
	Candidates       int    `json:"candidates"`
	TotalVotes       uint64 `json:"total_votes"`
	Subscribers      int    `json:"subscribers"`
}
