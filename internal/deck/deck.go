package deck

import (
	"fmt"
	"math/rand"
)

// Size is the number of cards in a full Jass deck: 9 ranks by 4 suits.
const Size = 36

// HandSize is the number of cards dealt to each of the four players.
const HandSize = 9

// Deck is an ordered, mutable sequence of the 36 unique cards. Deal removes
// cards from the front.
type Deck struct {
	cards []Card
}

// New builds the full card set and shuffles it with a seeded source.
// The same seed always produces the same order.
func New(seed int64) *Deck {
	cards := make([]Card, 0, Size)
	for number := 6; number <= Ace; number++ {
		for _, color := range Colors() {
			cards = append(cards, Card{Number: number, Color: color})
		}
	}

	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// Deal removes and returns the first n cards.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("cannot deal %d cards, only %d remaining", n, len(d.cards))
	}
	hand := d.cards[:n:n]
	d.cards = d.cards[n:]
	return hand, nil
}

// Remaining reports how many cards are left to deal.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
