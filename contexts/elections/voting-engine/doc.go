// Package votingengine implements the vote casting and live tally module
// inside the elections context.
//
// The module owns the one-vote-per-voter gate, per-candidate counters and the
// fan-out of tally snapshots to live subscribers. Business rules stay in the
// application/domain layers; storage, transport and the event bus sit behind
// ports and adapters.
package votingengine
