// Package messages defines the JSON wire protocol spoken between the Jass
// server and its clients. Every frame is an envelope of the form
// {"type": <MessageType>, "data": <payload>}.
package messages

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies a protocol message.
type MessageType string

// Server -> client message types.
const (
	RequestPlayerName      MessageType = "REQUEST_PLAYER_NAME"
	RequestSessionChoice   MessageType = "REQUEST_SESSION_CHOICE"
	BroadcastSessionJoined MessageType = "BROADCAST_SESSION_JOINED"
	BroadcastTeams         MessageType = "BROADCAST_TEAMS"
	DealCards              MessageType = "DEAL_CARDS"
	RequestTrumpf          MessageType = "REQUEST_TRUMPF"
	RejectTrumpf           MessageType = "REJECT_TRUMPF"
	BroadcastTrumpf        MessageType = "BROADCAST_TRUMPF"
	RequestCard            MessageType = "REQUEST_CARD"
	RejectCard             MessageType = "REJECT_CARD"
	PlayedCards            MessageType = "PLAYED_CARDS"
	BroadcastStich         MessageType = "BROADCAST_STICH"
	BroadcastWinnerTeam    MessageType = "BROADCAST_WINNER_TEAM"
	BadMessage             MessageType = "BAD_MESSAGE"
)

// Client -> server reply types.
const (
	ChoosePlayerName MessageType = "CHOOSE_PLAYER_NAME"
	ChooseSession    MessageType = "CHOOSE_SESSION"
	ChooseTrumpf     MessageType = "CHOOSE_TRUMPF"
	ChooseCard       MessageType = "CHOOSE_CARD"
)

// Message is the parsed form of an inbound frame. Data is left raw so the
// caller can unmarshal it into the payload type it expects.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type envelope struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ErrMissingType is returned by Parse when a frame carries no message type.
var ErrMissingType = errors.New("message has no type")

// Marshal builds the wire representation of a message.
func Marshal(t MessageType, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(envelope{Type: t, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", t, err)
	}
	return raw, nil
}

// Parse decodes an inbound frame. An empty or malformed frame, or one
// without a type, is an error.
func Parse(raw []byte) (Message, error) {
	var msg Message
	if len(raw) == 0 {
		return msg, errors.New("empty message")
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, fmt.Errorf("malformed message: %w", err)
	}
	if msg.Type == "" {
		return msg, ErrMissingType
	}
	return msg, nil
}

// SessionChoice is a client's answer to REQUEST_SESSION_CHOICE.
type SessionChoice string

const (
	Autojoin      SessionChoice = "AUTOJOIN"
	CreateNew     SessionChoice = "CREATE_NEW"
	JoinExisting  SessionChoice = "JOIN_EXISTING"
	JoinSpectator SessionChoice = "SPECTATOR"
)

// SessionType distinguishes single matches from tournaments when a client
// creates a new session.
type SessionType string

const (
	SingleGame SessionType = "SINGLE_GAME"
	Tournament SessionType = "TOURNAMENT"
)

// PlayerNameData is the payload of CHOOSE_PLAYER_NAME.
type PlayerNameData struct {
	PlayerName string `json:"playerName"`
}

// SessionChoiceRequestData is the payload of REQUEST_SESSION_CHOICE: the
// sessions a player may still join.
type SessionChoiceRequestData struct {
	Sessions []string `json:"sessions"`
}

// SessionChoiceData is the payload of CHOOSE_SESSION.
type SessionChoiceData struct {
	SessionChoice SessionChoice `json:"sessionChoice"`
	SessionName   string        `json:"sessionName,omitempty"`
	SessionType   SessionType   `json:"sessionType,omitempty"`
}

// PlayerInfo identifies a seated player in broadcasts.
type PlayerInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SessionJoinedData is the payload of BROADCAST_SESSION_JOINED.
type SessionJoinedData struct {
	SessionName      string       `json:"sessionName"`
	Player           PlayerInfo   `json:"player"`
	PlayersInSession []PlayerInfo `json:"playersInSession"`
}

// TeamInfo describes one team in BROADCAST_TEAMS and BROADCAST_WINNER_TEAM.
type TeamInfo struct {
	Name    string       `json:"name"`
	Players []PlayerInfo `json:"players,omitempty"`
	Points  int          `json:"points"`
}
