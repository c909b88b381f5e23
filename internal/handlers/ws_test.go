package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptcoffee/challenge/internal/deck"
	"github.com/scriptcoffee/challenge/internal/game"
	"github.com/scriptcoffee/challenge/internal/messages"
)

// wsPlayer is a real websocket client that walks through the acquisition
// dialogue and then plays legally until the server closes the connection.
type wsPlayer struct {
	name   string
	conn   *websocket.Conn
	seated chan struct{}

	mu       sync.Mutex
	hand     []deck.Card
	received map[messages.MessageType]int
}

func dialPlayer(t *testing.T, url, name string) *wsPlayer {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"jass"},
	})
	require.NoError(t, err)
	conn.SetReadLimit(1 << 20)

	return &wsPlayer{
		name:     name,
		conn:     conn,
		seated:   make(chan struct{}),
		received: map[messages.MessageType]int{},
	}
}

// run answers every server request until the connection closes, and
// returns the close status observed. It runs off the test goroutine, so
// protocol surprises end the loop instead of failing the test directly.
func (p *wsPlayer) run(choice messages.SessionChoiceData) websocket.StatusCode {
	ctx := context.Background()
	seatedOnce := sync.Once{}

	for {
		_, raw, err := p.conn.Read(ctx)
		if err != nil {
			return websocket.CloseStatus(err)
		}
		msg, err := messages.Parse(raw)
		if err != nil {
			p.conn.Close(websocket.StatusInvalidFramePayloadData, err.Error())
			return websocket.StatusInvalidFramePayloadData
		}

		p.mu.Lock()
		p.received[msg.Type]++
		p.mu.Unlock()

		switch msg.Type {
		case messages.RequestPlayerName:
			p.send(messages.ChoosePlayerName, messages.PlayerNameData{PlayerName: p.name})

		case messages.RequestSessionChoice:
			p.send(messages.ChooseSession, choice)

		case messages.BroadcastSessionJoined:
			var data messages.SessionJoinedData
			if json.Unmarshal(msg.Data, &data) == nil && data.Player.Name == p.name {
				seatedOnce.Do(func() { close(p.seated) })
			}

		case messages.DealCards:
			p.mu.Lock()
			p.hand = nil
			_ = json.Unmarshal(msg.Data, &p.hand)
			p.mu.Unlock()

		case messages.RequestTrumpf:
			p.send(messages.ChooseTrumpf, game.GameType{Mode: game.ModeObeabe})

		case messages.RequestCard:
			var table []deck.Card
			_ = json.Unmarshal(msg.Data, &table)
			p.send(messages.ChooseCard, p.pickCard(table))
		}
	}
}

func (p *wsPlayer) send(msgType messages.MessageType, data interface{}) {
	raw, err := messages.Marshal(msgType, data)
	if err != nil {
		return
	}
	_ = p.conn.Write(context.Background(), websocket.MessageText, raw)
}

func (p *wsPlayer) pickCard(table []deck.Card) deck.Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	card := p.hand[0]
	if len(table) > 0 {
		for _, c := range p.hand {
			if c.Color == table[0].Color {
				card = c
				break
			}
		}
	}
	for i, c := range p.hand {
		if c == card {
			p.hand = append(p.hand[:i], p.hand[i+1:]...)
			break
		}
	}
	return card
}

func (p *wsPlayer) count(t messages.MessageType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.received[t]
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	srv := NewServer(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", PingHandler)
	mux.HandleFunc("/ws", srv.WSHandler())
	mux.HandleFunc("/sessions", srv.SessionsHandler)
	mux.HandleFunc("/tournament/start", srv.TournamentStartHandler)
	mux.HandleFunc("/tournament/ranking", srv.RankingHandler)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestFullMatchOverWebsockets(t *testing.T) {
	if testing.Short() {
		t.Skip("full match takes a while")
	}
	_, ts := newTestServer(t)

	choices := []messages.SessionChoiceData{
		{SessionChoice: messages.CreateNew, SessionName: "e2e", SessionType: messages.SingleGame},
		{SessionChoice: messages.JoinExisting, SessionName: "e2e"},
		{SessionChoice: messages.JoinExisting, SessionName: "e2e"},
		{SessionChoice: messages.Autojoin},
	}

	players := make([]*wsPlayer, 4)
	statuses := make([]chan websocket.StatusCode, 4)
	for i, choice := range choices {
		p := dialPlayer(t, wsURL(ts), fmt.Sprintf("player-%d", i))
		players[i] = p
		statuses[i] = make(chan websocket.StatusCode, 1)
		go func(i int, choice messages.SessionChoiceData) {
			statuses[i] <- p.run(choice)
		}(i, choice)

		// Joins are sequential so the session exists before anyone
		// tries to join or autojoin it.
		select {
		case <-p.seated:
		case <-time.After(5 * time.Second):
			t.Fatalf("player %d was not seated", i)
		}
	}

	for i := range players {
		select {
		case status := <-statuses[i]:
			assert.Equal(t, websocket.StatusNormalClosure, status, "player %d", i)
		case <-time.After(2 * time.Minute):
			t.Fatalf("player %d: match did not finish", i)
		}
	}

	for i, p := range players {
		assert.GreaterOrEqual(t, p.count(messages.DealCards), 1, "player %d", i)
		assert.Equal(t, 1, p.count(messages.BroadcastTeams), "player %d", i)
		assert.Equal(t, 1, p.count(messages.BroadcastWinnerTeam), "player %d", i)
	}
}

func TestSessionsEndpointListsJoinableSessions(t *testing.T) {
	_, ts := newTestServer(t)

	p := dialPlayer(t, wsURL(ts), "lonely")
	status := make(chan websocket.StatusCode, 1)
	go func() {
		status <- p.run(messages.SessionChoiceData{
			SessionChoice: messages.CreateNew,
			SessionName:   "open-table",
			SessionType:   messages.SingleGame,
		})
	}()
	select {
	case <-p.seated:
	case <-time.After(5 * time.Second):
		t.Fatal("player was not seated")
	}

	resp, err := http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "open-table")

	p.conn.Close(websocket.StatusNormalClosure, "done")
	<-status
}

func TestTournamentEndpointsRejectUnknownSession(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/tournament/start?session=nope", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/tournament/ranking?session=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTournamentJoinAndRanking(t *testing.T) {
	_, ts := newTestServer(t)

	var players []*wsPlayer
	for _, name := range []string{"anna", "anna", "beat", "beat"} {
		p := dialPlayer(t, wsURL(ts), name)
		players = append(players, p)
		go p.run(messages.SessionChoiceData{
			SessionChoice: messages.CreateNew,
			SessionName:   "cup",
			SessionType:   messages.Tournament,
		})
		select {
		case <-p.seated:
		case <-time.After(5 * time.Second):
			t.Fatalf("%s was not seated", name)
		}
	}

	resp, err := http.Get(ts.URL + "/tournament/ranking?session=cup")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		Session string `json:"session"`
		Ranking []struct {
			Name string `json:"name"`
		} `json:"ranking"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&data))
	assert.Equal(t, "cup", data.Session)

	for _, p := range players {
		p.conn.Close(websocket.StatusNormalClosure, "done")
	}
}
