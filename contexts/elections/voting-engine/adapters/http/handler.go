package httpadapter

import (
	"context"
	"log/slog"

	application "livevote/contexts/elections/voting-engine/application"
	"livevote/contexts/elections/voting-engine/application/broadcast"
	"livevote/contexts/elections/voting-engine/application/commands"
	"livevote/contexts/elections/voting-engine/application/queries"
	"livevote/contexts/elections/voting-engine/domain/entities"
	httptransport "livevote/contexts/elections/voting-engine/transport/http"
)

type Handler struct {
	Registration commands.RegistrationUseCase
	Votes        commands.CastVoteUseCase
	Tally        queries.TallyUseCase
	Search       queries.SearchUseCase
	Statistics   queries.StatisticsUseCase
	Hub          *broadcast.Hub
	Logger       *slog.Logger
}

// RegisterVoterHandler godoc
// @Summary Register a voter
// @Description Creates a voter that has not voted yet. Voter ids are external and unique.
// @Tags voting-engine
// @Accept json
// @Produce json
// @Param request body httptransport.RegisterVoterRequest true "Voter"
// @Success 201 {object} httptransport.VoterResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/voters [post]
func (h Handler) RegisterVoterHandler(ctx context.Context, req httptransport.RegisterVoterRequest) (httptransport.VoterResponse, error) {
	voter, err := h.Registration.RegisterVoter(ctx, commands.RegisterVoterCommand{
		VoterID: req.VoterID,
		Name:    req.Name,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return MapVoter(voter), nil
}

// SearchVoterHandler godoc
// @Summary Search a voter
// @Description Looks a voter up by id and remembers it as the last searched voter.
// @Tags voting-engine
// @Produce json
// @Param voter_id path string true "Voter id"
// @Success 200 {object} httptransport.VoterResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/voters/{voter_id} [get]
func (h Handler) SearchVoterHandler(ctx context.Context, voterID string) (httptransport.VoterResponse, error) {
	voter, err := h.Search.SearchVoter(ctx, voterID)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return MapVoter(voter), nil
}

// LastSearchedHandler godoc
// @Summary Last searched voter
// @Description Returns the voter found by the most recent successful search, process-wide.
// @Tags voting-engine
// @Produce json
// @Success 200 {object} httptransport.VoterResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/voters/last-searched [get]
func (h Handler) LastSearchedHandler(ctx context.Context) (httptransport.VoterResponse, bool) {
	voter, ok := h.Search.LastSearched(ctx)
	if !ok {
		return httptransport.VoterResponse{}, false
	}
	return MapVoter(voter), true
}

// RegisterCandidateHandler godoc
// @Summary Register a candidate
// @Description Creates a candidate with zero votes inside a category.
// @Tags voting-engine
// @Accept json
// @Produce json
// @Param request body httptransport.RegisterCandidateRequest true "Candidate"
// @Success 201 {object} httptransport.CandidateResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/candidates [post]
func (h Handler) RegisterCandidateHandler(ctx context.Context, req httptransport.RegisterCandidateRequest) (httptransport.CandidateResponse, error) {
	candidate, err := h.Registration.RegisterCandidate(ctx, commands.RegisterCandidateCommand{
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(candidate), nil
}

// ListCandidatesHandler godoc
// @Summary List candidates
// @Tags voting-engine
// @Produce json
// @Param category query string false "Category filter (case-insensitive)"
// @Success 200 {object} httptransport.CandidateListResponse
// @Router /v1/candidates [get]
func (h Handler) ListCandidatesHandler(ctx context.Context, category string) (httptransport.CandidateListResponse, error) {
	candidates, err := h.Tally.ListCandidates(ctx, category)
	if err != nil {
		return httptransport.CandidateListResponse{}, err
	}
	items := make([]httptransport.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, mapCandidate(candidate))
	}
	return httptransport.CandidateListResponse{Items: items}, nil
}

// ListCategoriesHandler godoc
// @Summary List candidate categories
// @Tags voting-engine
// @Produce json
// @Success 200 {object} httptransport.CategoryListResponse
// @Router /v1/categories [get]
func (h Handler) ListCategoriesHandler(ctx context.Context) (httptransport.CategoryListResponse, error) {
	categories, err := h.Tally.Categories(ctx)
	if err != nil {
		return httptransport.CategoryListResponse{}, err
	}
	return httptransport.CategoryListResponse{Items: categories}, nil
}

// CastVoteHandler godoc
// @Summary Cast a vote
// @Description Records the voter's single vote and increments the candidate tally.
// @Tags voting-engine
// @Accept json
// @Produce json
// @Param request body httptransport.CastVoteRequest true "Ballot"
// @Success 201 {object} httptransport.CastVoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /v1/votes [post]
func (h Handler) CastVoteHandler(ctx context.Context, req httptransport.CastVoteRequest) (httptransport.CastVoteResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("cast vote request received",
		"event", "http_cast_vote_received",
		"module", "elections/voting-engine",
		"layer", "transport",
		"voter_id", req.VoterID,
		"candidate_id", req.CandidateID,
	)
	committed, err := h.Votes.Execute(ctx, commands.CastVoteCommand{
		VoterID:     req.VoterID,
		CandidateID: req.CandidateID,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		VoterID:            committed.VoterID,
		CandidateID:        committed.CandidateID,
		CandidateVoteCount: committed.CandidateVoteCount,
		CommittedAt:        committed.CommittedAt,
	}, nil
}

// TallyHandler godoc
// @Summary Current tally
// @Description Returns every candidate's vote count in registration order.
// @Tags voting-engine
// @Produce json
// @Success 200 {object} httptransport.TallyResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /v1/tally [get]
func (h Handler) TallyHandler(ctx context.Context) (httptransport.TallyResponse, error) {
	snapshot, err := h.Tally.Tally(ctx)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return MapTally(snapshot), nil
}

// SubscribeTallyHandler godoc
// @Summary Stream tally changes
// @Description Server-Sent Events stream; each "tally" event carries the full TallyResponse.
// @Tags voting-engine
// @Produce text/event-stream
// @Success 200 {object} httptransport.TallyResponse
// @Router /v1/tally/stream [get]
func (h Handler) SubscribeTallyHandler(ctx context.Context) (*broadcast.Subscription, error) {
	return h.Hub.Subscribe(ctx)
}

// StatisticsHandler godoc
// @Summary Voting statistics
// @Tags voting-engine
// @Produce json
// @Success 200 {object} httptransport.StatisticsResponse
// @Router /v1/stats [get]
func (h Handler) StatisticsHandler(ctx context.Context) (httptransport.StatisticsResponse, error) {
	stats, err := h.Statistics.Statistics(ctx)
	if err != nil {
		return httptransport.StatisticsResponse{}, err
	}
	subscribers := 0
	if h.Hub != nil {
		subscribers = h.Hub.Len()
	}
	return httptransport.StatisticsResponse{
		RegisteredVoters: stats.RegisteredVoters,
		VotedVoters:      stats.VotedVoters,
		Candidates:       stats.Candidates,
		TotalVotes:       stats.TotalVotes,
		Subscribers:      subscribers,
	}, nil
}

func MapVoter(voter entities.Voter) httptransport.VoterResponse {
	return httptransport.VoterResponse{
		VoterID:      voter.VoterID,
		Name:         voter.Name,
		VotedFor:     voter.VotedFor,
		HasVoted:     voter.HasVoted(),
		RegisteredAt: voter.RegisteredAt,
		VotedAt:      voter.VotedAt,
	}
}

func MapTally(snapshot entities.TallySnapshot) httptransport.TallyResponse {
	items := make([]httptransport.TallyItem, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		items = append(items, httptransport.TallyItem{
			CandidateID: entry.CandidateID,
			Name:        entry.Name,
			Category:    entry.Category,
			VoteCount:   entry.VoteCount,
		})
	}
	return httptransport.TallyResponse{
		Sequence:   snapshot.Sequence,
		TakenAt:    snapshot.TakenAt,
		TotalVotes: snapshot.TotalVotes(),
		Items:      items,
	}
}

func mapCandidate(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		CandidateID: candidate.CandidateID,
		Name:        candidate.Name,
		Category:    candidate.Category,
		VoteCount:   candidate.VoteCount,
		CreatedAt:   candidate.CreatedAt,
	}
}
