package game

import "github.com/scriptcoffee/challenge/internal/deck"

// PlayedCard is one card on the table together with the seat that played it.
type PlayedCard struct {
	Card deck.Card
	Seat int
}

// Stich collects the four cards of one trick in play order.
type Stich struct {
	cards []PlayedCard
}

// Add appends a card to the trick. The first card determines the lead
// color.
func (s *Stich) Add(seat int, card deck.Card) {
	s.cards = append(s.cards, PlayedCard{Card: card, Seat: seat})
}

// Cards returns the cards on the table in play order.
func (s *Stich) Cards() []deck.Card {
	out := make([]deck.Card, len(s.cards))
	for i, pc := range s.cards {
		out[i] = pc.Card
	}
	return out
}

// LeadColor is the color of the first card played, or "" on an empty trick.
func (s *Stich) LeadColor() deck.CardColor {
	if len(s.cards) == 0 {
		return ""
	}
	return s.cards[0].Card.Color
}

// Complete reports whether all four cards have been played.
func (s *Stich) Complete() bool {
	return len(s.cards) == 4
}

// Winner returns the seat that takes the trick under the given game type.
func (s *Stich) Winner(gt GameType) int {
	best := s.cards[0]
	for _, pc := range s.cards[1:] {
		if beats(gt, s.LeadColor(), pc.Card, best.Card) {
			best = pc
		}
	}
	return best.Seat
}

// Points sums the trick's card values, without the last-trick bonus.
func (s *Stich) Points(gt GameType) int {
	total := 0
	for _, pc := range s.cards {
		total += CardValue(gt, pc.Card)
	}
	return total
}

// trumpfOrder ranks cards inside the trump color: Buur above Nell above the
// rest.
var trumpfOrder = map[int]int{
	deck.Jack:  9,
	9:          8,
	deck.Ace:   7,
	deck.King:  6,
	deck.Queen: 5,
	10:         4,
	8:          3,
	7:          2,
	6:          1,
}

// beats reports whether challenger takes the trick from the current best
// card, given the lead color.
func beats(gt GameType, lead deck.CardColor, challenger, best deck.Card) bool {
	if gt.Mode == ModeTrumpf {
		challengerTrumpf := challenger.Color == gt.TrumpfColor
		bestTrumpf := best.Color == gt.TrumpfColor
		switch {
		case challengerTrumpf && bestTrumpf:
			return trumpfOrder[challenger.Number] > trumpfOrder[best.Number]
		case challengerTrumpf:
			return true
		case bestTrumpf:
			return false
		}
	}

	if challenger.Color != lead {
		return false
	}
	if best.Color != lead {
		return true
	}
	if gt.Mode == ModeUndeufe {
		return challenger.Number < best.Number
	}
	return challenger.Number > best.Number
}
