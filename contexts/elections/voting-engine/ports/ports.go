package ports

import (
	"context"
	"encoding/json"
	"time"

	"livevote/contexts/elections/voting-engine/domain/entities"
)

// VoterRegistry owns voter records. TryMarkVoted is the only mutation of an
// existing voter and must behave as a compare-and-set keyed by voter id.
type VoterRegistry interface {
	RegisterVoter(ctx context.Context, voter entities.Voter) error
	GetVoter(ctx context.Context, voterID string) (entities.Voter, error)
	TryMarkVoted(ctx context.Context, voterID string, candidateID string, votedAt time.Time) error
	VoterStatistics(ctx context.Context) (entities.VoterStatistics, error)
}

// VoteCommitter passes the vote gate and increments the candidate counter as
// one atomic unit. Stores that cannot offer that leave it unimplemented and
// the use case falls back to TryMarkVoted followed by Increment.
type VoteCommitter interface {
	CommitVote(ctx context.Context, voterID string, candidateID string, votedAt time.Time) (uint64, error)
}

type TallyReader interface {
	Snapshot(ctx context.Context) (entities.TallySnapshot, error)
}

// CandidateTally owns candidates and their counters. Increment must never lose
// updates under concurrent calls.
type CandidateTally interface {
	TallyReader
	RegisterCandidate(ctx context.Context, candidate entities.Candidate) error
	GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error)
	ListCandidates(ctx context.Context, category string) ([]entities.Candidate, error)
	Increment(ctx context.Context, candidateID string) (uint64, error)
}

type SearchSlot interface {
	Set(voter entities.Voter)
	Get() (entities.Voter, bool)
}

// TallyNotifier is told that the tally changed. Implementations must return
// without waiting on subscribers.
type TallyNotifier interface {
	TallyChanged()
}

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// VoteCastEventType names the event appended for every committed vote. It
// is also the bus topic the relay publishes it on.
const VoteCastEventType = "vote.cast"

// VoteCastPayload is the Data of a vote.cast envelope.
type VoteCastPayload struct {
	VoterID            string    `json:"voter_id"`
	CandidateID        string    `json:"candidate_id"`
	CandidateVoteCount uint64    `json:"candidate_vote_count"`
	CommittedAt        time.Time `json:"committed_at"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
