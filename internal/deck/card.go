// Package deck models the fixed 36-card Swiss Jass deck and seeded dealing.
package deck

import "fmt"

// CardColor is one of the four Jass suits.
type CardColor string

const (
	Hearts   CardColor = "HEARTS"
	Diamonds CardColor = "DIAMONDS"
	Clubs    CardColor = "CLUBS"
	Spades   CardColor = "SPADES"
)

// Colors returns the suits in their canonical order.
func Colors() []CardColor {
	return []CardColor{Hearts, Diamonds, Clubs, Spades}
}

// Card numbers run from 6 to 14; face cards map to 11 (jack), 12 (queen),
// 13 (king) and 14 (ace).
const (
	Jack  = 11
	Queen = 12
	King  = 13
	Ace   = 14
)

// Card is an immutable rank/suit pair. Two cards with equal number and
// color are interchangeable.
type Card struct {
	Number int       `json:"number"`
	Color  CardColor `json:"color"`
}

func (c Card) String() string {
	return fmt.Sprintf("%d of %s", c.Number, c.Color)
}

// IsZero reports whether c is the zero value, i.e. not a real card.
func (c Card) IsZero() bool {
	return c.Number == 0 && c.Color == ""
}
