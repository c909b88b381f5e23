package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/scriptcoffee/challenge/internal/api"
	"github.com/scriptcoffee/challenge/internal/messages"
	"github.com/scriptcoffee/challenge/internal/ranking"
)

// clientsPerPlayer is how many connections a tournament participant needs
// before being paired: each participant fields both seats of one team.
const clientsPerPlayer = 2

// tournamentPlayer is one roster entry. A participant connects twice under
// the same name; both connections play on the same team during a pairing.
type tournamentPlayer struct {
	Name      string
	IsPlaying bool
	Connected bool
	Clients   []*api.Client
}

func (p *tournamentPlayer) ready() bool {
	return p.Connected && !p.IsPlaying && len(p.Clients) == clientsPerPlayer
}

// TournamentSession pairs roster players round-robin, runs each pairing as
// an independent single match and feeds results into the ranking.
type TournamentSession struct {
	Name    string
	Ranking *ranking.Ranking

	// newSession builds the single-match session for one pairing.
	// Overridable in tests.
	newSession func(name string) *Session

	clientAPI *api.ClientApi
	log       *logrus.Entry

	mu      sync.Mutex
	roster  []*tournamentPlayer
	ranked  map[string]bool
	started bool
}

// NewTournament creates an empty tournament session.
func NewTournament(name string) *TournamentSession {
	t := &TournamentSession{
		Name:      name,
		Ranking:   ranking.New(),
		clientAPI: api.New(),
		ranked:    make(map[string]bool),
		log:       logrus.WithField("tournament", name),
	}
	t.newSession = func(name string) *Session {
		s := New(name)
		s.KeepConnections = true
		return s
	}
	return t
}

// SessionName identifies the tournament in the store.
func (t *TournamentSession) SessionName() string {
	return t.Name
}

// CanJoin reports whether players may still register.
func (t *TournamentSession) CanJoin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.started
}

// AddPlayer registers a connection under a roster name. The first two
// connections per name are accepted; any further one is closed abnormally.
// A close on any accepted connection disconnects the whole participant.
func (t *TournamentSession) AddPlayer(c *api.Client, name string) error {
	t.mu.Lock()
	p := t.findPlayer(name)
	if p == nil {
		p = &tournamentPlayer{Name: name}
		t.roster = append(t.roster, p)
	}
	if len(p.Clients) >= clientsPerPlayer {
		t.mu.Unlock()
		c.Close(messages.CodeAbnormal, "Player already has 2 clients")
		return fmt.Errorf("player %s already has %d clients", name, clientsPerPlayer)
	}
	p.Clients = append(p.Clients, c)
	p.Connected = true
	t.mu.Unlock()

	closed := t.clientAPI.AddClient(c)
	go func() {
		<-closed
		t.handleClientLost(p, c)
	}()

	t.clientAPI.Broadcast(messages.BroadcastSessionJoined, messages.SessionJoinedData{
		SessionName: t.Name,
		Player:      messages.PlayerInfo{Name: name},
	})
	t.log.WithFields(logrus.Fields{
		"player":  name,
		"clients": len(p.Clients),
	}).Info("tournament player connected")
	return nil
}

// AddSpectator registers a broadcast-only connection.
func (t *TournamentSession) AddSpectator(c *api.Client) {
	t.clientAPI.AddClient(c)
}

// handleClientLost marks the participant disconnected and force-closes the
// sibling connection so the roster entry fails as a whole.
func (t *TournamentSession) handleClientLost(p *tournamentPlayer, gone *api.Client) {
	t.mu.Lock()
	if !p.Connected {
		t.mu.Unlock()
		return
	}
	p.Connected = false
	siblings := make([]*api.Client, 0, len(p.Clients))
	for _, c := range p.Clients {
		if c != gone {
			siblings = append(siblings, c)
		}
	}
	t.mu.Unlock()

	t.log.WithField("player", p.Name).Warn("tournament player disconnected")
	for _, c := range siblings {
		t.clientAPI.RemoveClient(c, messages.CodeAbnormal, "Partner connection lost")
	}
}

// PlayerNames lists the roster in join order.
func (t *TournamentSession) PlayerNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, len(t.roster))
	for i, p := range t.roster {
		names[i] = p.Name
	}
	return names
}

// Start runs one round-robin over all currently ready players: every pair
// among them plays exactly one match, each on its own goroutine. Results
// are recorded in the ranking before Start returns. Start may be called
// repeatedly to run further rounds as players come and go.
func (t *TournamentSession) Start(ctx context.Context) error {
	t.mu.Lock()
	t.started = true
	var ready []*tournamentPlayer
	for _, p := range t.roster {
		if !t.ranked[p.Name] {
			t.Ranking.AddPlayer(p.Name)
			t.ranked[p.Name] = true
		}
		if p.ready() {
			p.IsPlaying = true
			ready = append(ready, p)
		}
	}
	t.mu.Unlock()

	if len(ready) < 2 {
		t.setIdle(ready)
		return fmt.Errorf("tournament %s has %d ready players, need at least 2", t.Name, len(ready))
	}

	t.log.WithField("players", len(ready)).Info("tournament round-robin starting")

	// Every pair plays exactly once. Rounds are scheduled so that no
	// player is in two matches at the same time; matches within a round
	// run concurrently.
	for _, round := range roundRobinRounds(ready) {
		var wg sync.WaitGroup
		for _, match := range round {
			wg.Add(1)
			go func(a, b *tournamentPlayer) {
				defer wg.Done()
				t.playPairing(ctx, a, b)
			}(match[0], match[1])
		}
		wg.Wait()
	}

	t.setIdle(ready)
	return nil
}

// roundRobinRounds builds a circle-method schedule: with n players there
// are n-1 rounds (n rounds for odd n, one player sitting out each).
func roundRobinRounds(players []*tournamentPlayer) [][][2]*tournamentPlayer {
	arr := make([]*tournamentPlayer, len(players))
	copy(arr, players)
	if len(arr)%2 == 1 {
		arr = append(arr, nil)
	}
	n := len(arr)

	var rounds [][][2]*tournamentPlayer
	for r := 0; r < n-1; r++ {
		var matches [][2]*tournamentPlayer
		for i := 0; i < n/2; i++ {
			a, b := arr[i], arr[n-1-i]
			if a != nil && b != nil {
				matches = append(matches, [2]*tournamentPlayer{a, b})
			}
		}
		rounds = append(rounds, matches)

		rotated := make([]*tournamentPlayer, 0, n)
		rotated = append(rotated, arr[0], arr[n-1])
		rotated = append(rotated, arr[1:n-1]...)
		arr = rotated
	}
	return rounds
}

// playPairing runs one match between two participants. Seats 0 and 2 are
// player a's connections, seats 1 and 3 player b's, so team 1 belongs to a
// and team 2 to b.
func (t *TournamentSession) playPairing(ctx context.Context, a, b *tournamentPlayer) {
	s := t.newSession(fmt.Sprintf("%s: %s vs %s", t.Name, a.Name, b.Name))

	seats := []struct {
		client *api.Client
		name   string
	}{
		{a.Clients[0], a.Name},
		{b.Clients[0], b.Name},
		{a.Clients[1], a.Name},
		{b.Clients[1], b.Name},
	}
	for _, seat := range seats {
		if _, err := s.AddPlayer(seat.client, seat.name); err != nil {
			t.log.Errorf("failed to seat %s: %v", seat.name, err)
			return
		}
	}

	winner, err := s.Start(ctx)
	if err != nil {
		t.log.WithFields(logrus.Fields{
			"pairing": s.Name,
			"error":   err,
		}).Error("pairing aborted")
		return
	}
	if winner == nil {
		return
	}

	winnerName, loserName := a.Name, b.Name
	if winner == s.Teams()[1] {
		winnerName, loserName = b.Name, a.Name
	}
	t.Ranking.RecordResult(winnerName, loserName)
	t.log.WithFields(logrus.Fields{
		"winner": winnerName,
		"loser":  loserName,
	}).Info("pairing finished")
}

func (t *TournamentSession) setIdle(players []*tournamentPlayer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range players {
		p.IsPlaying = false
	}
}

// findPlayer must be called with the mutex held.
func (t *TournamentSession) findPlayer(name string) *tournamentPlayer {
	for _, p := range t.roster {
		if p.Name == name {
			return p
		}
	}
	return nil
}
