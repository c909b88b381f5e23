package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayerIsIdempotent(t *testing.T) {
	r := New()
	r.AddPlayer("anna")
	r.RecordResult("anna", "beat")
	r.AddPlayer("anna")

	s, ok := r.Get("anna")
	require.True(t, ok)
	assert.Equal(t, 1, s.Wins, "re-adding must not reset the standing")
}

func TestRecordResultUpdatesBothPlayers(t *testing.T) {
	r := New()
	r.RecordResult("anna", "beat")

	winner, ok := r.Get("anna")
	require.True(t, ok)
	loser, ok := r.Get("beat")
	require.True(t, ok)

	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 0, winner.Losses)
	assert.Equal(t, 0, loser.Wins)
	assert.Equal(t, 1, loser.Losses)

	assert.Greater(t, winner.Rating, DefaultMu, "winning raises the rating")
	assert.Less(t, loser.Rating, DefaultMu, "losing lowers the rating")
	assert.Less(t, winner.RD, DefaultPhi, "playing reduces the deviation")
	assert.Less(t, loser.RD, DefaultPhi)
}

func TestUpsetStillRewardsTheWinner(t *testing.T) {
	r := New()
	// Build a gap, then let the underdog win once.
	r.RecordResult("strong", "weak")
	r.RecordResult("strong", "weak")
	r.RecordResult("strong", "weak")

	weakBefore, _ := r.Get("weak")
	strongBefore, _ := r.Get("strong")
	r.RecordResult("weak", "strong")
	weakAfter, _ := r.Get("weak")
	strongAfter, _ := r.Get("strong")

	assert.Greater(t, weakAfter.Rating, weakBefore.Rating)
	assert.Less(t, strongAfter.Rating, strongBefore.Rating)
	assert.Equal(t, 1, weakAfter.Wins)
	assert.Equal(t, 3, weakAfter.Losses)
}

func TestStandingsSortedByRating(t *testing.T) {
	r := New()
	r.AddPlayer("idle")
	r.RecordResult("anna", "beat")
	r.RecordResult("anna", "clara")

	standings := r.Standings()
	require.Len(t, standings, 4)
	assert.Equal(t, "anna", standings[0].Name)
	for i := 1; i < len(standings); i++ {
		assert.GreaterOrEqual(t, standings[i-1].Rating, standings[i].Rating)
	}
}
