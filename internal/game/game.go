package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scriptcoffee/challenge/internal/api"
	"github.com/scriptcoffee/challenge/internal/deck"
	"github.com/scriptcoffee/challenge/internal/history"
	"github.com/scriptcoffee/challenge/internal/messages"
)

// StichData is the payload of BROADCAST_STICH: the trick winner, the cards
// on the table and the current team scores.
type StichData struct {
	Name        string              `json:"name"`
	ID          int                 `json:"id"`
	PlayedCards []deck.Card         `json:"playedCards"`
	Teams       []messages.TeamInfo `json:"teams"`
}

// RejectCardData tells a player which card was refused and what was on the
// table at the time.
type RejectCardData struct {
	Card         deck.Card   `json:"card"`
	CardsOnTable []deck.Card `json:"cardsOnTable"`
}

// TrumpfRequestData asks a player for a trump choice; Pushed marks the
// request as the result of a Geschoben.
type TrumpfRequestData struct {
	Pushed bool `json:"pushed"`
}

// Game runs exactly one round: deal, trump selection, nine tricks, round
// scoring. Team totals are updated when the round completes.
type Game struct {
	ID uuid.UUID

	clientAPI      *api.ClientApi
	players        []*Player
	startingPlayer int
	seed           int64
	log            *logrus.Entry

	gameType       GameType
	trumpfSelector int
	roundPoints    map[*Team]int
}

// New prepares a round for the four seated players. The seed fixes the
// deal.
func New(clientAPI *api.ClientApi, players []*Player, startingPlayer int, seed int64, log *logrus.Entry) *Game {
	id, _ := uuid.NewRandom()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Game{
		ID:             id,
		clientAPI:      clientAPI,
		players:        players,
		startingPlayer: startingPlayer,
		seed:           seed,
		log:            log.WithField("game", id),
		roundPoints:    make(map[*Team]int),
	}
}

// GameType returns the accepted trump choice once selection has finished.
func (g *Game) GameType() GameType {
	return g.gameType
}

// Start drives the round to completion. Invalid replies and illegal cards
// are recovered locally by re-prompting; a lost connection aborts the round
// and propagates as api.ErrClientGone.
func (g *Game) Start(ctx context.Context) error {
	if len(g.players) != 4 {
		return fmt.Errorf("a round needs 4 players, have %d", len(g.players))
	}

	if err := g.deal(); err != nil {
		return err
	}

	if err := g.chooseTrumpf(ctx); err != nil {
		return err
	}
	g.clientAPI.Broadcast(messages.BroadcastTrumpf, g.gameType)
	g.publishAction("trumpf_chosen", map[string]interface{}{
		"mode":        g.gameType.Mode,
		"trumpfColor": g.gameType.TrumpfColor,
		"selector":    g.players[g.trumpfSelector].Name,
	})

	leader := g.trumpfSelector
	for trick := 0; trick < deck.HandSize; trick++ {
		stich, err := g.playTrick(ctx, leader)
		if err != nil {
			return err
		}

		winner := stich.Winner(g.gameType)
		points := stich.Points(g.gameType)
		g.roundPoints[g.players[winner].Team] += points

		g.clientAPI.Broadcast(messages.BroadcastStich, StichData{
			Name:        g.players[winner].Name,
			ID:          g.players[winner].ID,
			PlayedCards: stich.Cards(),
			Teams:       g.teamScores(),
		})
		g.publishAction("stich", map[string]interface{}{
			"trick":  trick,
			"winner": g.players[winner].Name,
			"points": points,
		})

		leader = winner
	}

	g.roundPoints[g.players[leader].Team] += LastStichBonus
	for _, p := range g.players[:2] {
		p.Team.AddPoints(g.roundPoints[p.Team])
	}
	return nil
}

// deal creates a freshly seeded deck and hands nine cards to every seat.
func (g *Game) deal() error {
	d := deck.New(g.seed)
	for _, p := range g.players {
		hand, err := d.Deal(deck.HandSize)
		if err != nil {
			return fmt.Errorf("deal failed: %w", err)
		}
		p.Hand = hand
		g.clientAPI.Tell(p.Client, messages.DealCards, hand)
	}
	return nil
}

// chooseTrumpf runs the trump-selection protocol. The starting player may
// defer (Geschoben) to their partner; a second consecutive defer falls
// through to the next player in turn order, who must then choose.
func (g *Game) chooseTrumpf(ctx context.Context) error {
	seat := g.startingPlayer
	defers := 0
	for {
		p := g.players[seat]
		data, err := g.clientAPI.Ask(ctx, p.Client,
			messages.RequestTrumpf, TrumpfRequestData{Pushed: defers > 0},
			messages.ChooseTrumpf)
		if errors.Is(err, api.ErrInvalidAnswer) {
			g.log.Warnf("invalid trumpf answer from %s: %v", p.Name, err)
			continue
		}
		if err != nil {
			return err
		}

		var gt GameType
		if err := json.Unmarshal(data, &gt); err != nil {
			g.clientAPI.Tell(p.Client, messages.RejectTrumpf, gt)
			continue
		}

		if gt.Mode == ModeSchiebe {
			switch defers {
			case 0:
				seat = (seat + 2) % 4
				defers = 1
				continue
			case 1:
				seat = (g.startingPlayer + 1) % 4
				defers = 2
				continue
			default:
				// The choice is mandatory now.
				g.clientAPI.Tell(p.Client, messages.RejectTrumpf, gt)
				continue
			}
		}

		if !gt.Valid() {
			g.clientAPI.Tell(p.Client, messages.RejectTrumpf, gt)
			continue
		}

		g.gameType = gt
		g.trumpfSelector = seat
		return nil
	}
}

// playTrick asks the four seats in order, starting from the leader, for one
// card each. An illegal card is rejected and the same seat re-prompted;
// turn order never advances on a rejection.
func (g *Game) playTrick(ctx context.Context, leader int) (*Stich, error) {
	stich := &Stich{}
	for i := 0; i < 4; i++ {
		seat := (leader + i) % 4
		p := g.players[seat]

		for {
			data, err := g.clientAPI.Ask(ctx, p.Client,
				messages.RequestCard, stich.Cards(),
				messages.ChooseCard)
			if errors.Is(err, api.ErrInvalidAnswer) {
				g.log.Warnf("invalid card answer from %s: %v", p.Name, err)
				continue
			}
			if err != nil {
				return nil, err
			}

			var card deck.Card
			if err := json.Unmarshal(data, &card); err != nil || card.IsZero() {
				g.clientAPI.Tell(p.Client, messages.RejectCard, RejectCardData{Card: card, CardsOnTable: stich.Cards()})
				continue
			}
			if !p.HasCard(card) || !CardLegal(g.gameType, p.Hand, stich, card) {
				g.clientAPI.Tell(p.Client, messages.RejectCard, RejectCardData{Card: card, CardsOnTable: stich.Cards()})
				continue
			}

			p.removeCard(card)
			stich.Add(seat, card)
			g.clientAPI.Broadcast(messages.PlayedCards, stich.Cards())
			break
		}
	}
	return stich, nil
}

// teamScores reports both teams' totals including the running round points.
func (g *Game) teamScores() []messages.TeamInfo {
	seen := make(map[*Team]bool)
	var infos []messages.TeamInfo
	for _, p := range g.players {
		if seen[p.Team] {
			continue
		}
		seen[p.Team] = true
		infos = append(infos, messages.TeamInfo{
			Name:   p.Team.Name,
			Points: p.Team.Points + g.roundPoints[p.Team],
		})
	}
	return infos
}

func (g *Game) publishAction(action string, payload map[string]interface{}) {
	if err := history.PublishAction(context.Background(), history.ActionRecord{
		GameID:  g.ID,
		Action:  action,
		Payload: payload,
	}); err != nil {
		g.log.Debugf("history publish failed: %v", err)
	}
}
