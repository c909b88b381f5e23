// Package session owns match lifecycles: the single-match Session with its
// iterative game cycle, the in-memory session store and the tournament
// variant with round-robin pairings.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scriptcoffee/challenge/internal/api"
	"github.com/scriptcoffee/challenge/internal/game"
	"github.com/scriptcoffee/challenge/internal/history"
	"github.com/scriptcoffee/challenge/internal/messages"
)

// DefaultMaxPoints is the score a team must reach, while strictly leading,
// to win the match.
const DefaultMaxPoints = 2500

// ErrSessionNotComplete is returned by Start when fewer than four players
// are seated.
var ErrSessionNotComplete = errors.New("not enough players to start game")

// Session is one single match: exactly four players in two teams, an owned
// ClientApi and a rotating starting player. Games are run in a loop until
// one team both leads and reaches MaxPoints.
type Session struct {
	ID   uuid.UUID
	Name string

	// MaxPoints may be lowered before Start for short matches.
	MaxPoints int

	// KeepConnections leaves the websockets open after a regular win.
	// Tournament pairings set this so participants survive their match.
	KeepConnections bool

	// Seed produces the deal seed for each round. Overridable in tests.
	Seed func() int64

	clientAPI *api.ClientApi
	log       *logrus.Entry

	// forfeited is closed once handlePlayerLeft has recorded the forfeit
	// winner, so Start can observe it after an aborted game.
	forfeited chan struct{}

	mu             sync.Mutex
	players        []*game.Player
	teams          [2]*game.Team
	startingPlayer int
	started        bool
	ended          bool
	forfeit        *game.Team
	cancel         context.CancelCauseFunc
}

// New creates an empty session with two fresh teams.
func New(name string) *Session {
	id, _ := uuid.NewRandom()
	return &Session{
		ID:        id,
		Name:      name,
		MaxPoints: DefaultMaxPoints,
		Seed:      func() int64 { return time.Now().UnixNano() },
		forfeited: make(chan struct{}),
		clientAPI: api.New(),
		teams: [2]*game.Team{
			{Name: "Team 1"},
			{Name: "Team 2"},
		},
		log: logrus.WithFields(logrus.Fields{"session": name}),
	}
}

// AddPlayer seats a connection. Seats alternate between the two teams; the
// connection's close notification is watched for the whole match and
// forfeits it when it fires.
func (s *Session) AddPlayer(c *api.Client, name string) (*game.Player, error) {
	s.mu.Lock()
	if len(s.players) >= 4 {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s already has 4 players", s.Name)
	}
	p := &game.Player{
		ID:     len(s.players),
		Name:   name,
		Team:   s.teams[len(s.players)%2],
		Client: c,
	}
	s.players = append(s.players, p)
	playersInSession := s.playerInfos()
	s.mu.Unlock()

	closed := s.clientAPI.AddClient(c)
	go func() {
		info := <-closed
		s.handlePlayerLeft(p, info)
	}()

	s.clientAPI.Broadcast(messages.BroadcastSessionJoined, messages.SessionJoinedData{
		SessionName:      s.Name,
		Player:           p.Info(),
		PlayersInSession: playersInSession,
	})
	return p, nil
}

// AddSpectator registers a connection that receives every broadcast but is
// never prompted.
func (s *Session) AddSpectator(c *api.Client) {
	s.clientAPI.AddClient(c)
}

// IsComplete reports whether all four seats are taken.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players) == 4
}

// SessionName identifies the session in the store.
func (s *Session) SessionName() string {
	return s.Name
}

// CanJoin reports whether a player may still claim a seat.
func (s *Session) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.started && !s.ended && len(s.players) < 4
}

// Start runs the match to completion and returns the winning team. The
// game cycle is iterative: one team must strictly lead AND reach MaxPoints
// after a completed round; a tie at or above the threshold plays on.
func (s *Session) Start(ctx context.Context) (*game.Team, error) {
	s.mu.Lock()
	if len(s.players) != 4 {
		s.mu.Unlock()
		return nil, ErrSessionNotComplete
	}
	if s.started {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s already started", s.Name)
	}
	s.started = true
	players := make([]*game.Player, 4)
	copy(players, s.players)
	ctx, cancel := context.WithCancelCause(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel(nil)

	s.clientAPI.Broadcast(messages.BroadcastTeams, s.teamInfos())
	s.log.Info("session started")

	for {
		g := game.New(s.clientAPI, players, s.nextStartingPlayer(), s.Seed(), s.log)
		if err := g.Start(ctx); err != nil {
			if errors.Is(err, api.ErrClientGone) {
				// handlePlayerLeft runs concurrently; wait until it has
				// recorded the forfeit winner.
				<-s.forfeited
				s.mu.Lock()
				forfeit := s.forfeit
				s.mu.Unlock()
				s.publishResult(forfeit, true)
				return forfeit, nil
			}
			return nil, err
		}

		winner := s.winningTeam()
		if winner == nil {
			continue
		}

		s.mu.Lock()
		if s.ended {
			forfeit := s.forfeit
			s.mu.Unlock()
			return forfeit, nil
		}
		s.ended = true
		s.mu.Unlock()

		s.log.WithField("winner", winner.Name).Info("session finished")
		s.clientAPI.Broadcast(messages.BroadcastWinnerTeam, s.teamInfo(winner))
		if !s.KeepConnections {
			s.clientAPI.CloseAll(messages.CodeNormal, "Game Finished")
		}
		s.publishResult(winner, false)
		return winner, nil
	}
}

// winningTeam applies the match termination predicate.
func (s *Session) winningTeam() *game.Team {
	a, b := s.teams[0], s.teams[1]
	if a.Points > b.Points && a.Points >= s.MaxPoints {
		return a
	}
	if b.Points > a.Points && b.Points >= s.MaxPoints {
		return b
	}
	return nil
}

// nextStartingPlayer rotates through the seats, strictly incrementing
// across game cycles.
func (s *Session) nextStartingPlayer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat := s.startingPlayer % 4
	s.startingPlayer++
	return seat
}

// handlePlayerLeft forfeits the match for the leaving player's team: the
// other team is declared winner and every connection is closed with the
// triggering code and reason.
func (s *Session) handlePlayerLeft(p *game.Player, info api.CloseInfo) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	started := s.started
	winner := s.teams[0]
	if p.Team == winner {
		winner = s.teams[1]
	}
	s.forfeit = winner
	cancel := s.cancel
	s.mu.Unlock()
	defer close(s.forfeited)

	if !started {
		// Still in the waiting room; no match to forfeit, the session is
		// simply abandoned.
		s.log.WithField("player", p.Name).Info("player left while waiting, closing session")
		if !s.KeepConnections {
			s.clientAPI.CloseAll(info.Code, info.Reason)
		}
		return
	}

	s.log.WithFields(logrus.Fields{
		"player": p.Name,
		"code":   info.Code,
		"reason": info.Reason,
	}).Warn("player left, forfeiting match")

	s.clientAPI.Broadcast(messages.BroadcastWinnerTeam, s.teamInfo(winner))
	// In a tournament pairing only the offender drops out; the roster
	// handles their sibling connection. Otherwise the match tears down.
	if !s.KeepConnections {
		s.clientAPI.CloseAll(info.Code, info.Reason)
	}
	if cancel != nil {
		cancel(api.ErrClientGone)
	}
}

// Teams exposes both teams, first the one of seats 0 and 2.
func (s *Session) Teams() [2]*game.Team {
	return s.teams
}

func (s *Session) playerInfos() []messages.PlayerInfo {
	infos := make([]messages.PlayerInfo, len(s.players))
	for i, p := range s.players {
		infos[i] = p.Info()
	}
	return infos
}

func (s *Session) teamInfos() []messages.TeamInfo {
	infos := make([]messages.TeamInfo, 0, 2)
	for _, t := range s.teams {
		infos = append(infos, s.teamInfo(t))
	}
	return infos
}

func (s *Session) teamInfo(t *game.Team) messages.TeamInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := messages.TeamInfo{Name: t.Name, Points: t.Points}
	for _, p := range s.players {
		if p.Team == t {
			info.Players = append(info.Players, p.Info())
		}
	}
	return info
}

// teamMembers lists the names of a team's players.
func (s *Session) teamMembers(t *game.Team) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, p := range s.players {
		if p.Team == t {
			names = append(names, p.Name)
		}
	}
	return names
}

func (s *Session) publishResult(winner *game.Team, forfeited bool) {
	loser := s.teams[0]
	if winner == loser {
		loser = s.teams[1]
	}
	if err := history.PublishMatchResult(context.Background(), history.MatchRecord{
		SessionID:    s.ID,
		SessionName:  s.Name,
		WinnerTeam:   winner.Name,
		Winners:      s.teamMembers(winner),
		Losers:       s.teamMembers(loser),
		WinnerPoints: winner.Points,
		LoserPoints:  loser.Points,
		Forfeited:    forfeited,
	}); err != nil {
		s.log.Debugf("history publish failed: %v", err)
	}
}
