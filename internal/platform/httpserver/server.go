package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	votingengine "livevote/contexts/elections/voting-engine"
	httpadapter "livevote/contexts/elections/voting-engine/adapters/http"
	votingerrors "livevote/contexts/elections/voting-engine/domain/errors"
	votinghttp "livevote/contexts/elections/voting-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "livevote/internal/platform/httpserver/docs"
)

const (
	maxRequestBodyBytes = 1 << 20
	streamHeartbeat     = 15 * time.Second
)

type Server struct {
	mux    *http.ServeMux
	http   *http.Server
	logger *slog.Logger
	addr   string
	voting votingengine.Module

	heartbeat time.Duration
}

func New(voting votingengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		voting:    voting,
		heartbeat: streamHeartbeat,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called. A clean
// shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes the tally hub first so open streams end, then drains the
// remaining requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.voting.Hub != nil {
		s.voting.Hub.Close()
	}
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.http.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/voters", s.handleRegisterVoter)
	s.mux.HandleFunc("GET /v1/voters/last-searched", s.handleLastSearched)
	s.mux.HandleFunc("GET /v1/voters/{voter_id}", s.handleSearchVoter)

	s.mux.HandleFunc("POST /v1/candidates", s.handleRegisterCandidate)
	s.mux.HandleFunc("GET /v1/candidates", s.handleListCandidates)
	s.mux.HandleFunc("GET /v1/categories", s.handleListCategories)

	s.mux.HandleFunc("POST /v1/votes", s.handleCastVote)

	s.mux.HandleFunc("GET /v1/tally", s.handleTally)
	s.mux.HandleFunc("GET /v1/tally/stream", s.handleTallyStream)
	s.mux.HandleFunc("GET /v1/stats", s.handleStatistics)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req votinghttp.RegisterVoterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.voting.Handler.RegisterVoterHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSearchVoter(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.SearchVoterHandler(r.Context(), r.PathValue("voter_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLastSearched(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.voting.Handler.LastSearchedHandler(r.Context())
	if !ok {
		writeVotingError(w, http.StatusNotFound, "no_voter_searched", "no voter has been searched yet")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterCandidate(w http.ResponseWriter, r *http.Request) {
	var req votinghttp.RegisterCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.voting.Handler.RegisterCandidateHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	resp, err := s.voting.Handler.ListCandidatesHandler(r.Context(), category)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.ListCategoriesHandler(r.Context())
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req votinghttp.CastVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.voting.Handler.CastVoteHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.TallyHandler(r.Context())
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.StatisticsHandler(r.Context())
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTallyStream relays published tally snapshots as Server-Sent Events
// until the client disconnects or the subscription is dropped.
func (s *Server) handleTallyStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeVotingError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer cannot stream")
		return
	}

	sub, err := s.voting.Handler.SubscribeTallyHandler(r.Context())
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	defer s.voting.Hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.logger.Info("tally stream opened",
		"event", "http_tally_stream_opened",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"subscriber_id", sub.ID(),
		"remote_addr", r.RemoteAddr,
	)

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snapshot, open := <-sub.Updates():
			if !open {
				s.closeStream(w, flusher, sub.ID(), sub.Err())
				return
			}
			payload, err := json.Marshal(httpadapter.MapTally(snapshot))
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: tally\ndata: %s\n\n", snapshot.Sequence, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) closeStream(w http.ResponseWriter, flusher http.Flusher, subscriberID uint64, reason error) {
	if reason == nil {
		return
	}
	code := "stream_closed"
	if errors.Is(reason, votingerrors.ErrSubscriberSlow) {
		code = "subscriber_too_slow"
	}
	payload, _ := json.Marshal(votinghttp.ErrorResponse{Code: code, Message: reason.Error()})
	_, _ = fmt.Fprintf(w, "event: closed\ndata: %s\n\n", payload)
	flusher.Flush()

	s.logger.Info("tally stream closed",
		"event", "http_tally_stream_closed",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"subscriber_id", subscriberID,
		"reason", code,
	)
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votingerrors.ErrInvalidInput):
		writeVotingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, votingerrors.ErrVoterNotFound):
		writeVotingError(w, http.StatusNotFound, "voter_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrCandidateNotFound):
		writeVotingError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrNotFound):
		writeVotingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, votingerrors.ErrDuplicateVoter):
		writeVotingError(w, http.StatusConflict, "duplicate_voter", err.Error())
	case errors.Is(err, votingerrors.ErrAlreadyVoted):
		writeVotingError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, votingerrors.ErrConflict):
		writeVotingError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, votingerrors.ErrUnavailable),
		errors.Is(err, votingerrors.ErrHubClosed):
		writeVotingError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeVotingError(w, http.StatusServiceUnavailable, "request_canceled", err.Error())
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
