// Package game implements the Jass round state machine: deal, trump
// selection, nine tricks and round scoring, driven over the ClientApi.
package game

import (
	"github.com/scriptcoffee/challenge/internal/api"
	"github.com/scriptcoffee/challenge/internal/deck"
	"github.com/scriptcoffee/challenge/internal/messages"
)

// Player is one of the four seats of a match. It is created when a
// connection claims a seat and lives for the whole session; a disconnect
// marks it unreachable but never removes it.
type Player struct {
	ID     int
	Name   string
	Team   *Team
	Client *api.Client

	Hand []deck.Card
}

// Info returns the player's broadcast representation.
func (p *Player) Info() messages.PlayerInfo {
	return messages.PlayerInfo{ID: p.ID, Name: p.Name}
}

// HasCard reports whether the card is still in the player's hand.
func (p *Player) HasCard(c deck.Card) bool {
	for _, h := range p.Hand {
		if h == c {
			return true
		}
	}
	return false
}

// removeCard takes the card out of the hand. The caller must have verified
// it is present.
func (p *Player) removeCard(c deck.Card) {
	for i, h := range p.Hand {
		if h == c {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return
		}
	}
}
