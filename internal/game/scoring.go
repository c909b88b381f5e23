package game

import "github.com/scriptcoffee/challenge/internal/deck"

// LastStichBonus is awarded to the team winning the ninth trick. With it,
// every full round is worth 157 points.
const LastStichBonus = 5

// RoundTotal is the point sum of one complete round, last-trick bonus
// included.
const RoundTotal = 157

var trumpfValues = map[int]int{
	deck.Jack:  20,
	9:          14,
	deck.Ace:   11,
	10:         10,
	deck.King:  4,
	deck.Queen: 3,
}

var plainValues = map[int]int{
	deck.Ace:   11,
	10:         10,
	deck.King:  4,
	deck.Queen: 3,
	deck.Jack:  2,
}

var obeabeValues = map[int]int{
	deck.Ace:   11,
	10:         10,
	deck.King:  4,
	deck.Queen: 3,
	deck.Jack:  2,
	8:          8,
}

var undeufeValues = map[int]int{
	6:          11,
	8:          8,
	10:         10,
	deck.King:  4,
	deck.Queen: 3,
	deck.Jack:  2,
}

// CardValue returns the point value of a card under the given game type.
func CardValue(gt GameType, c deck.Card) int {
	switch gt.Mode {
	case ModeTrumpf:
		if c.Color == gt.TrumpfColor {
			return trumpfValues[c.Number]
		}
		return plainValues[c.Number]
	case ModeObeabe:
		return obeabeValues[c.Number]
	case ModeUndeufe:
		return undeufeValues[c.Number]
	}
	return 0
}
