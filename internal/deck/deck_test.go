package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsDeterministicPerSeed(t *testing.T) {
	a, err := New(42).Deal(Size)
	require.NoError(t, err)
	b, err := New(42).Deal(Size)
	require.NoError(t, err)

	assert.Equal(t, a, b, "same seed must yield the same order")
}

func TestDistinctSeedsShuffleDifferently(t *testing.T) {
	a, _ := New(1).Deal(Size)
	b, _ := New(2).Deal(Size)

	assert.NotEqual(t, a, b)
}

func TestShuffleIsPermutationOfFullSet(t *testing.T) {
	cards, err := New(7).Deal(Size)
	require.NoError(t, err)
	require.Len(t, cards, Size)

	seen := map[Card]bool{}
	for _, c := range cards {
		assert.False(t, seen[c], "duplicate card %v", c)
		seen[c] = true
		assert.GreaterOrEqual(t, c.Number, 6)
		assert.LessOrEqual(t, c.Number, Ace)
	}
	assert.Len(t, seen, Size)
}

func TestDealRemovesCards(t *testing.T) {
	d := New(3)
	for i := 0; i < 4; i++ {
		hand, err := d.Deal(HandSize)
		require.NoError(t, err)
		assert.Len(t, hand, HandSize)
		assert.Equal(t, Size-(i+1)*HandSize, d.Remaining())
	}
	assert.Equal(t, 0, d.Remaining())
}

func TestDealMoreThanRemainingFails(t *testing.T) {
	d := New(3)
	_, err := d.Deal(30)
	require.NoError(t, err)

	_, err = d.Deal(7)
	assert.Error(t, err)
	assert.Equal(t, 6, d.Remaining(), "failed deal must not consume cards")
}
