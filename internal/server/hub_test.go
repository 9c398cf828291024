package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shadowcraft/shadowcraft-server-go/internal/config"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game"
)

func newTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	rs := game.DefaultRuleSet()
	rs.Seed = 11
	engine := game.NewEngine(zaptest.NewLogger(t), game.NewHarnessLibrary(t, ""), rs)
	hub := NewHub(engine, config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(msgType, gameID string, data any) {
	c.t.Helper()
	frame, err := encode(msgType, gameID, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, frame))
}

func (c *testClient) next() WSMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	var msg WSMessage
	require.NoError(c.t, json.Unmarshal(data, &msg))
	return msg
}

// await reads until a message of msgType arrives.
func (c *testClient) await(msgType string) WSMessage {
	c.t.Helper()
	for {
		msg := c.next()
		if msg.Type == msgType {
			return msg
		}
	}
}

// play answers every request (keep the hand, end the turn, first targets)
// until the game is over, and returns the final view. With concede set the
// player gives up on its first action request.
func (c *testClient) play(concede bool) game.GameView {
	for {
		msg := c.next()
		switch msg.Type {
		case MsgMulliganRequest:
			c.send(MsgMulligan, msg.GameID, MulliganMessage{})
		case MsgActionRequest:
			if concede {
				c.send(MsgConcede, msg.GameID, nil)
				continue
			}
			c.send(MsgAction, msg.GameID, ActionMessage{Action: game.EndTurn()})
		case MsgTargetRequest:
			var req game.TargetRequest
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.t.Errorf("decode target request: %v", err)
				return game.GameView{}
			}
			c.send(MsgTargets, msg.GameID, TargetsMessage{Keys: []string{req.Candidates[0].Key}})
		case MsgGameOver:
			var view game.GameView
			if err := json.Unmarshal(msg.Data, &view); err != nil {
				c.t.Errorf("decode final view: %v", err)
			}
			return view
		}
	}
}

func seatAt(t *testing.T, alice, bob *testClient) string {
	t.Helper()
	alice.send(MsgCreateGame, "", SeatRequest{Name: "alice", Deck: game.Repeat("Filler", 10)})
	created := alice.await(MsgGameCreated)
	var seat SeatAssigned
	require.NoError(t, json.Unmarshal(created.Data, &seat))
	require.NotEmpty(t, seat.GameID)
	assert.Equal(t, 0, seat.Seat)

	bob.send(MsgJoinGame, seat.GameID, SeatRequest{Name: "bob", Deck: game.Repeat("Filler", 10)})
	joined := bob.await(MsgGameJoined)
	require.NoError(t, json.Unmarshal(joined.Data, &seat))
	assert.Equal(t, 1, seat.Seat)
	return seat.GameID
}

func TestGamePlaysToCompletion(t *testing.T) {
	_, url := newTestServer(t)
	alice, bob := dial(t, url), dial(t, url)
	seatAt(t, alice, bob)

	done := make(chan game.GameView, 1)
	go func() { done <- bob.play(false) }()
	final := alice.play(false)

	select {
	case other := <-done:
		assert.Equal(t, final.Winner, other.Winner)
	case <-time.After(10 * time.Second):
		t.Fatalf("bob never saw the game end")
	}
	assert.NotEmpty(t, final.Winner)
	assert.Equal(t, "game_over", final.State)
}

func TestConcedeEndsGame(t *testing.T) {
	_, url := newTestServer(t)
	alice, bob := dial(t, url), dial(t, url)
	seatAt(t, alice, bob)

	done := make(chan game.GameView, 1)
	go func() { done <- bob.play(true) }()
	final := alice.play(false)
	assert.Equal(t, "alice", final.Winner)
	assert.Equal(t, "conceded", final.Reason)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("bob never saw the game end")
	}
}

func TestRefusedMessages(t *testing.T) {
	hub, url := newTestServer(t)
	c := dial(t, url)

	c.send(MsgJoinGame, "missing", SeatRequest{Name: "carol", Deck: game.Repeat("Filler", 10)})
	assert.Equal(t, MsgError, c.next().Type)

	c.send(MsgCreateGame, "", SeatRequest{Name: "carol"})
	assert.Equal(t, MsgError, c.next().Type)

	c.send(MsgCreateGame, "", SeatRequest{Name: "carol", Deck: []string{"Nobody"}})
	assert.Equal(t, MsgError, c.next().Type)

	c.send(MsgAction, "", ActionMessage{Action: game.EndTurn()})
	assert.Equal(t, MsgError, c.next().Type)

	c.send("dance", "", nil)
	assert.Equal(t, MsgError, c.next().Type)

	assert.Empty(t, hub.Tables())
}

func TestLeavingBeforeStartClosesTable(t *testing.T) {
	hub, url := newTestServer(t)
	c := dial(t, url)
	c.send(MsgCreateGame, "", SeatRequest{Name: "carol", Deck: game.Repeat("Filler", 10)})
	c.await(MsgGameCreated)
	require.Len(t, hub.Tables(), 1)

	c.conn.Close()
	require.Eventually(t, func() bool { return len(hub.Tables()) == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestSeatProviderRejectsUnaskedAnswers(t *testing.T) {
	p := newSeatProvider("alice", func(string, any) {}, nil)
	assert.ErrorIs(t, p.answer(MsgActionRequest, json.RawMessage(`{}`)), errNotPending)

	p.leave()
	_, err := p.RequestAction(context.Background(), game.ActionRequest{})
	assert.ErrorIs(t, err, ErrSeatLeft)
}
