package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/scriptcoffee/challenge/internal/session"
)

// PingHandler answers health checks.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("pong"))
}

// SessionsHandler lists the sessions that still accept players.
func (s *Server) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]interface{}{
		"sessions": s.joinableNames(),
	})
}

// TournamentStartHandler kicks off one round-robin over the ready players
// of the named tournament. The round runs in the background.
func (s *Server) TournamentStartHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tour, ok := s.tournament(r.URL.Query().Get("session"))
	if !ok {
		http.Error(w, "Tournament not found", http.StatusNotFound)
		return
	}

	go func() {
		if err := tour.Start(context.Background()); err != nil {
			s.Logger.Errorf("tournament %s round failed: %v", tour.Name, err)
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

// RankingHandler returns the standings of the named tournament, sorted by
// rating.
func (s *Server) RankingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tour, ok := s.tournament(r.URL.Query().Get("session"))
	if !ok {
		http.Error(w, "Tournament not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"session": tour.Name,
		"ranking": tour.Ranking.Standings(),
	})
}

func (s *Server) tournament(name string) (*session.TournamentSession, bool) {
	sess, ok := s.Store.Get(name)
	if !ok {
		return nil, false
	}
	tour, ok := sess.(*session.TournamentSession)
	return tour, ok
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
