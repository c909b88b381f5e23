package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptcoffee/challenge/internal/api"
	"github.com/scriptcoffee/challenge/internal/messages"
)

// joinTournamentPlayer connects both of a participant's clients.
func joinTournamentPlayer(t *testing.T, tour *TournamentSession, name string) [2]*sessionBot {
	t.Helper()
	bots := [2]*sessionBot{newSessionBot(), newSessionBot()}
	for _, b := range bots {
		require.NoError(t, tour.AddPlayer(api.NewClientTransport(b), name))
	}
	return bots
}

func TestThirdClientForSameNameRejected(t *testing.T) {
	tour := NewTournament("cup")
	joinTournamentPlayer(t, tour, "anna")

	third := newSessionBot()
	err := tour.AddPlayer(api.NewClientTransport(third), "anna")
	require.Error(t, err)
	assert.True(t, third.gone(), "surplus client must be closed")
	assert.Equal(t, messages.CodeAbnormal, third.code())
	assert.Equal(t, []string{"anna"}, tour.PlayerNames())
}

func TestClientLossDisconnectsSibling(t *testing.T) {
	tour := NewTournament("cup")
	bots := joinTournamentPlayer(t, tour, "anna")

	require.NoError(t, bots[0].Close(messages.CodeAbnormal, "gone"))

	require.Eventually(t, bots[1].gone, time.Second, 10*time.Millisecond,
		"sibling client must be force-closed")
	assert.Equal(t, messages.CodeAbnormal, bots[1].code())
	assert.False(t, tour.roster[0].Connected)
}

func TestStartNeedsTwoReadyPlayers(t *testing.T) {
	tour := NewTournament("cup")
	joinTournamentPlayer(t, tour, "anna")

	err := tour.Start(context.Background())
	assert.Error(t, err)
}

func TestHalfConnectedPlayerIsNotPaired(t *testing.T) {
	tour := NewTournament("cup")
	joinTournamentPlayer(t, tour, "anna")
	joinTournamentPlayer(t, tour, "beat")
	// "clara" only brought one client and cannot field a team.
	require.NoError(t, tour.AddPlayer(api.NewClientTransport(newSessionBot()), "clara"))

	tour.newSession = quickSessionFactory()
	require.NoError(t, tour.Start(context.Background()))

	standings := tour.Ranking.Standings()
	require.Len(t, standings, 3, "every roster name is ranked")
	for _, s := range standings {
		if s.Name == "clara" {
			assert.Zero(t, s.Wins+s.Losses, "unpaired player has no results")
		} else {
			assert.Equal(t, 1, s.Wins+s.Losses)
		}
	}
}

func TestBusyPlayerIsNotDoubleBooked(t *testing.T) {
	tour := NewTournament("cup")
	joinTournamentPlayer(t, tour, "anna")
	joinTournamentPlayer(t, tour, "beat")
	joinTournamentPlayer(t, tour, "clara")
	tour.roster[2].IsPlaying = true

	tour.newSession = quickSessionFactory()
	require.NoError(t, tour.Start(context.Background()))

	standings := tour.Ranking.Standings()
	require.Len(t, standings, 3)
	for _, s := range standings {
		if s.Name == "clara" {
			assert.Zero(t, s.Wins+s.Losses, "busy player must not be paired")
		} else {
			assert.Equal(t, 1, s.Wins+s.Losses)
		}
	}
	assert.True(t, tour.roster[2].IsPlaying, "busy flag untouched by a round it sat out")
}

func TestRoundRobinPlaysEveryPair(t *testing.T) {
	tour := NewTournament("cup")
	joinTournamentPlayer(t, tour, "anna")
	joinTournamentPlayer(t, tour, "beat")
	joinTournamentPlayer(t, tour, "clara")

	tour.newSession = quickSessionFactory()

	done := make(chan error, 1)
	go func() { done <- tour.Start(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("tournament did not finish")
	}

	standings := tour.Ranking.Standings()
	require.Len(t, standings, 3)
	totalWins, totalLosses := 0, 0
	for _, s := range standings {
		assert.Equal(t, 2, s.Wins+s.Losses, "%s plays both opponents", s.Name)
		totalWins += s.Wins
		totalLosses += s.Losses
	}
	assert.Equal(t, 3, totalWins, "three pairings, one winner each")
	assert.Equal(t, 3, totalLosses)

	for _, p := range tour.roster {
		assert.False(t, p.IsPlaying, "players are idle again after the round-robin")
	}
}

func TestRoundRobinScheduleHasNoDoubleBooking(t *testing.T) {
	players := []*tournamentPlayer{
		{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"},
	}
	rounds := roundRobinRounds(players)

	seen := make(map[[2]string]bool)
	for _, round := range rounds {
		busy := make(map[string]bool)
		for _, match := range round {
			a, b := match[0].Name, match[1].Name
			assert.False(t, busy[a] || busy[b], "player scheduled twice in one round")
			busy[a], busy[b] = true, true
			key := [2]string{a, b}
			if a > b {
				key = [2]string{b, a}
			}
			assert.False(t, seen[key], "pair %v scheduled twice", key)
			seen[key] = true
		}
	}
	assert.Len(t, seen, 10, "every pair among 5 players plays once")
}

// quickSessionFactory builds pairing sessions that finish after a single
// deterministic round.
func quickSessionFactory() func(name string) *Session {
	var seed int64
	return func(name string) *Session {
		s := New(name)
		s.KeepConnections = true
		s.MaxPoints = 1
		seed += 104729
		localSeed := seed
		s.Seed = func() int64 { return localSeed }
		return s
	}
}
