// Package ranking keeps tournament standings in memory: per-player
// win/loss counts plus a Glicko2 rating updated after every pairing.
package ranking

import (
	"sort"
	"sync"
)

// Standing is one player's entry in the tournament ranking.
type Standing struct {
	Name   string  `json:"name"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Rating float64 `json:"rating"`
	RD     float64 `json:"rd"`
	sigma  float64
}

// Ranking is a thread-safe collection of standings.
type Ranking struct {
	mu      sync.Mutex
	players map[string]*Standing
}

// New returns an empty ranking.
func New() *Ranking {
	return &Ranking{players: make(map[string]*Standing)}
}

// AddPlayer registers a player at the baseline rating. Registering the
// same name twice keeps the existing standing.
func (r *Ranking) AddPlayer(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[name]; ok {
		return
	}
	r.players[name] = &Standing{
		Name:   name,
		Rating: DefaultMu,
		RD:     DefaultPhi,
		sigma:  DefaultSigma,
	}
}

// RecordResult applies one pairing outcome to both players. Unknown names
// are registered at the baseline first.
func (r *Ranking) RecordResult(winner, loser string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.ensure(winner)
	l := r.ensure(loser)

	w.Wins++
	l.Losses++

	wr := newGlicko2Rating(w.Rating, w.RD, w.sigma)
	lr := newGlicko2Rating(l.Rating, l.RD, l.sigma)
	newW := updateGlicko(wr, lr, 1)
	newL := updateGlicko(lr, wr, 0)

	w.Rating = newW.toElo()
	w.RD = newW.Phi * GlickoScale
	w.sigma = newW.Sigma
	l.Rating = newL.toElo()
	l.RD = newL.Phi * GlickoScale
	l.sigma = newL.Sigma
}

func (r *Ranking) ensure(name string) *Standing {
	s, ok := r.players[name]
	if !ok {
		s = &Standing{Name: name, Rating: DefaultMu, RD: DefaultPhi, sigma: DefaultSigma}
		r.players[name] = s
	}
	return s
}

// Get returns a copy of one player's standing.
func (r *Ranking) Get(name string) (Standing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.players[name]
	if !ok {
		return Standing{}, false
	}
	return *s, true
}

// Standings returns a snapshot sorted by rating, highest first. Ties are
// broken by name for stable output.
func (r *Ranking) Standings() []Standing {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Standing, 0, len(r.players))
	for _, s := range r.players {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Name < out[j].Name
	})
	return out
}
