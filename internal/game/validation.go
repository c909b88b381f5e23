package game

import "github.com/scriptcoffee/challenge/internal/deck"

// CardLegal reports whether playing the card is allowed given the cards
// already on the table. The first card of a trick is free; afterwards the
// lead color must be followed, with two exceptions: trump may always be
// played, and a player whose only card of the lead (trump) color is the
// trump jack is not forced to part with it.
func CardLegal(gt GameType, hand []deck.Card, table *Stich, card deck.Card) bool {
	lead := table.LeadColor()
	if lead == "" {
		return true
	}
	if card.Color == lead {
		return true
	}
	if gt.Mode == ModeTrumpf && card.Color == gt.TrumpfColor {
		return true
	}
	return !mustFollow(gt, hand, lead)
}

// mustFollow reports whether the hand can serve the lead color.
func mustFollow(gt GameType, hand []deck.Card, lead deck.CardColor) bool {
	for _, c := range hand {
		if c.Color != lead {
			continue
		}
		if gt.Mode == ModeTrumpf && lead == gt.TrumpfColor && c.Number == deck.Jack {
			// Holding only the Buur never compels following.
			continue
		}
		return true
	}
	return false
}
