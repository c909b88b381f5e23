package game

import "github.com/scriptcoffee/challenge/internal/deck"

// GameMode is the kind of round being played. SCHIEBE is never an accepted
// mode; it only defers the trump decision.
type GameMode string

const (
	ModeTrumpf  GameMode = "TRUMPF"
	ModeObeabe  GameMode = "OBEABE"
	ModeUndeufe GameMode = "UNDEUFE"
	ModeSchiebe GameMode = "SCHIEBE"
)

// GameType is a player's trump choice: a mode, plus the trump color when
// the mode is TRUMPF.
type GameType struct {
	Mode        GameMode       `json:"mode"`
	TrumpfColor deck.CardColor `json:"trumpfColor,omitempty"`
}

// Valid reports whether the choice is accepted by the rules. TRUMPF needs a
// real color, the no-trump modes must not carry one.
func (gt GameType) Valid() bool {
	switch gt.Mode {
	case ModeTrumpf:
		for _, c := range deck.Colors() {
			if gt.TrumpfColor == c {
				return true
			}
		}
		return false
	case ModeObeabe, ModeUndeufe:
		return gt.TrumpfColor == ""
	default:
		return false
	}
}
