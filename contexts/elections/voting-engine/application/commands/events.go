package commands

import (
	"encoding/json"

	"livevote/contexts/elections/voting-engine/domain/entities"
	"livevote/contexts/elections/voting-engine/ports"
)

// newVoteCastEnvelope wraps a committed vote for the outbox. The envelope is
// keyed by candidate so consumers see each candidate's counts in order.
func newVoteCastEnvelope(eventID string, vote entities.CommittedVote) (ports.EventEnvelope, error) {
	data, err := json.Marshal(ports.VoteCastPayload{
		VoterID:            vote.VoterID,
		CandidateID:        vote.CandidateID,
		CandidateVoteCount: vote.CandidateVoteCount,
		CommittedAt:        vote.CommittedAt.UTC(),
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        ports.VoteCastEventType,
		OccurredAt:       vote.CommittedAt.UTC(),
		SourceService:    "voting-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "candidate_id",
		PartitionKey:     vote.CandidateID,
		Data:             data,
	}, nil
}
