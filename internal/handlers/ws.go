// Package handlers wires HTTP and websocket endpoints to the session
// layer: the upgrade plus acquisition dialogue on /ws and the JSON
// endpoints for session listings, tournament control and rankings.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scriptcoffee/challenge/internal/api"
	"github.com/scriptcoffee/challenge/internal/messages"
	"github.com/scriptcoffee/challenge/internal/middleware"
	"github.com/scriptcoffee/challenge/internal/session"
)

// Server bundles the shared state behind the endpoints.
type Server struct {
	Logger *logrus.Logger
	Store  *session.Store
}

// NewServer returns a Server with an empty session store.
func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		Logger: logger,
		Store:  session.NewStore(),
	}
}

// WSHandler upgrades the connection and runs the acquisition dialogue:
// first the player's name, then the session choice. Once seated, the
// handler stays alive until the connection dies so the disconnect can be
// logged with its close code.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"jass"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			s.Logger.Warnf("websocket accept error: %v", err)
			return
		}
		middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr)

		client := api.NewClient(conn)
		closed := client.CloseNotify()

		if err := s.acquire(r.Context(), client); err != nil {
			if !errors.Is(err, api.ErrClientGone) {
				client.Close(messages.CodeAbnormal, err.Error())
			}
		}

		info := <-closed
		middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, int(info.Code), info.Reason)
	}
}

// acquire runs the dialogue until the client is seated in a session or the
// connection is lost. Invalid answers are re-prompted indefinitely; the
// client already saw a BAD_MESSAGE for each.
func (s *Server) acquire(ctx context.Context, client *api.Client) error {
	name, err := s.askPlayerName(ctx, client)
	if err != nil {
		return err
	}

	for {
		choice, err := s.askSessionChoice(ctx, client)
		if err != nil {
			return err
		}
		if err := s.seat(client, name, choice); err != nil {
			if errors.Is(err, api.ErrClientGone) {
				return err
			}
			s.Logger.WithFields(logrus.Fields{
				"player": name,
				"error":  err,
			}).Debug("session choice failed, re-prompting")
			continue
		}
		return nil
	}
}

func (s *Server) askPlayerName(ctx context.Context, client *api.Client) (string, error) {
	for {
		raw, err := api.Ask(ctx, client, messages.RequestPlayerName, nil, messages.ChoosePlayerName)
		if errors.Is(err, api.ErrInvalidAnswer) {
			continue
		}
		if err != nil {
			return "", err
		}
		var data messages.PlayerNameData
		if err := json.Unmarshal(raw, &data); err != nil {
			continue
		}
		name := strings.TrimSpace(data.PlayerName)
		if name == "" {
			continue
		}
		return name, nil
	}
}

func (s *Server) askSessionChoice(ctx context.Context, client *api.Client) (messages.SessionChoiceData, error) {
	for {
		request := messages.SessionChoiceRequestData{Sessions: s.joinableNames()}
		raw, err := api.Ask(ctx, client, messages.RequestSessionChoice, request, messages.ChooseSession)
		if errors.Is(err, api.ErrInvalidAnswer) {
			continue
		}
		if err != nil {
			return messages.SessionChoiceData{}, err
		}
		var data messages.SessionChoiceData
		if err := json.Unmarshal(raw, &data); err != nil {
			continue
		}
		switch data.SessionChoice {
		case messages.Autojoin, messages.CreateNew, messages.JoinExisting, messages.JoinSpectator:
			return data, nil
		}
	}
}

// seat places the client according to its choice. A failed join (unknown
// name, full session, name collision) is reported so the dialogue can
// offer the choice again.
func (s *Server) seat(client *api.Client, name string, choice messages.SessionChoiceData) error {
	switch choice.SessionChoice {
	case messages.Autojoin:
		if sess, ok := s.Store.FirstJoinable(); ok {
			return s.join(sess, client, name)
		}
		return s.join(s.create(randomSessionName(), messages.SingleGame), client, name)

	case messages.CreateNew:
		sessionName := choice.SessionName
		if sessionName == "" {
			return fmt.Errorf("no session name given")
		}
		if existing, ok := s.Store.Get(sessionName); ok {
			// Creating a name that exists joins it when still possible.
			return s.join(existing, client, name)
		}
		return s.join(s.create(sessionName, choice.SessionType), client, name)

	case messages.JoinExisting:
		sess, ok := s.Store.Get(choice.SessionName)
		if !ok {
			return fmt.Errorf("session %q does not exist", choice.SessionName)
		}
		return s.join(sess, client, name)

	case messages.JoinSpectator:
		sess, ok := s.Store.Get(choice.SessionName)
		if !ok {
			return fmt.Errorf("session %q does not exist", choice.SessionName)
		}
		s.spectate(sess, client)
		return nil
	}
	return fmt.Errorf("unsupported session choice %q", choice.SessionChoice)
}

func (s *Server) create(name string, sessionType messages.SessionType) session.Joinable {
	var sess session.Joinable
	if sessionType == messages.Tournament {
		sess = session.NewTournament(name)
	} else {
		sess = session.New(name)
	}
	s.Store.Add(sess)
	s.Logger.WithFields(logrus.Fields{
		"session": name,
		"type":    sessionType,
	}).Info("session created")
	return sess
}

func (s *Server) join(sess session.Joinable, client *api.Client, name string) error {
	switch v := sess.(type) {
	case *session.Session:
		if _, err := v.AddPlayer(client, name); err != nil {
			return err
		}
		if v.IsComplete() {
			s.Store.Delete(v.Name)
			go s.runMatch(v)
		}
		return nil
	case *session.TournamentSession:
		return v.AddPlayer(client, name)
	}
	return fmt.Errorf("session %q cannot be joined", sess.SessionName())
}

func (s *Server) spectate(sess session.Joinable, client *api.Client) {
	switch v := sess.(type) {
	case *session.Session:
		v.AddSpectator(client)
	case *session.TournamentSession:
		v.AddSpectator(client)
	}
}

// runMatch drives a complete single match in the background.
func (s *Server) runMatch(sess *session.Session) {
	winner, err := sess.Start(context.Background())
	if err != nil {
		s.Logger.WithFields(logrus.Fields{
			"session": sess.Name,
			"error":   err,
		}).Error("match aborted")
		return
	}
	s.Logger.WithFields(logrus.Fields{
		"session": sess.Name,
		"winner":  winner.Name,
		"points":  winner.Points,
	}).Info("match finished")
}

func (s *Server) joinableNames() []string {
	var names []string
	for _, name := range s.Store.Names() {
		if sess, ok := s.Store.Get(name); ok && sess.CanJoin() {
			names = append(names, name)
		}
	}
	return names
}

func randomSessionName() string {
	id, _ := uuid.NewRandom()
	return "session-" + id.String()[:8]
}
