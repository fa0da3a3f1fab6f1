// Package server exposes a minimal read-only HTTP surface over the
// workspace: status, strategy listing and single-record lookup. It never
// accepts writes; all state transitions happen through the CLI.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/extremevalue/research-kit/internal/domain"
	"github.com/extremevalue/research-kit/internal/store"
)

// Server is the read-only workspace status API.
type Server struct {
	store *store.Store
	log   zerolog.Logger
}

// New builds a chi Router wired to the given store.
func New(s *store.Store, log zerolog.Logger) http.Handler {
	srv := &Server{store: s, log: log.With().Str("component", "server").Logger()}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))
	r.Get("/status", srv.handleStatus)
	r.Get("/strategies", srv.handleListStrategies)
	r.Get("/strategies/{id}", srv.handleGetStrategy)
	r.Get("/proposals", srv.handleListProposals)
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	var summaries []store.StrategySummary
	var err error
	if state != "" {
		summaries, err = s.store.ListByState(domain.StrategyState(state))
	} else {
		summaries, err = s.store.AllStrategies()
	}
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if summaries == nil {
		summaries = []store.StrategySummary{}
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	strat, err := s.store.GetStrategy(id)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, strat)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	status := domain.ProposalStatus(r.URL.Query().Get("status"))
	proposals, err := s.store.ListProposals(status)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, proposals)
}
