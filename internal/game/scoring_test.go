package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scriptcoffee/challenge/internal/deck"
)

func fullDeckValue(gt GameType) int {
	total := 0
	for number := 6; number <= deck.Ace; number++ {
		for _, color := range deck.Colors() {
			total += CardValue(gt, deck.Card{Number: number, Color: color})
		}
	}
	return total + LastStichBonus
}

func TestEveryModeTotals157(t *testing.T) {
	assert.Equal(t, RoundTotal, fullDeckValue(GameType{Mode: ModeTrumpf, TrumpfColor: deck.Hearts}))
	assert.Equal(t, RoundTotal, fullDeckValue(GameType{Mode: ModeObeabe}))
	assert.Equal(t, RoundTotal, fullDeckValue(GameType{Mode: ModeUndeufe}))
}

func TestTrumpfCardValues(t *testing.T) {
	gt := GameType{Mode: ModeTrumpf, TrumpfColor: deck.Spades}

	assert.Equal(t, 20, CardValue(gt, deck.Card{Number: deck.Jack, Color: deck.Spades}))
	assert.Equal(t, 14, CardValue(gt, deck.Card{Number: 9, Color: deck.Spades}))
	assert.Equal(t, 2, CardValue(gt, deck.Card{Number: deck.Jack, Color: deck.Hearts}))
	assert.Equal(t, 0, CardValue(gt, deck.Card{Number: 9, Color: deck.Hearts}))
	assert.Equal(t, 11, CardValue(gt, deck.Card{Number: deck.Ace, Color: deck.Clubs}))
}

func TestUndeufeValuesInvert(t *testing.T) {
	gt := GameType{Mode: ModeUndeufe}

	assert.Equal(t, 11, CardValue(gt, deck.Card{Number: 6, Color: deck.Hearts}))
	assert.Equal(t, 0, CardValue(gt, deck.Card{Number: deck.Ace, Color: deck.Hearts}))
	assert.Equal(t, 8, CardValue(gt, deck.Card{Number: 8, Color: deck.Hearts}))
}

func TestGameTypeValidity(t *testing.T) {
	assert.True(t, GameType{Mode: ModeTrumpf, TrumpfColor: deck.Hearts}.Valid())
	assert.True(t, GameType{Mode: ModeObeabe}.Valid())
	assert.True(t, GameType{Mode: ModeUndeufe}.Valid())

	assert.False(t, GameType{Mode: ModeTrumpf}.Valid(), "TRUMPF needs a color")
	assert.False(t, GameType{Mode: ModeObeabe, TrumpfColor: deck.Hearts}.Valid())
	assert.False(t, GameType{Mode: ModeSchiebe}.Valid(), "SCHIEBE is not a playable mode")
	assert.False(t, GameType{Mode: "POKER"}.Valid())
}
