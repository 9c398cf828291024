// Package server exposes the game engine over websockets: clients create or
// join a table, receive views, events and decision requests, and answer
// them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/config"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool

	// set by the hub goroutine handling this client's reads
	table    *table
	seat     int
	provider *SeatProvider
}

type seat struct {
	name     string
	deck     []string
	client   *Client
	provider *SeatProvider
}

type table struct {
	id string

	mu         sync.Mutex
	seats      []*seat
	spectators map[*Client]bool
	game       *game.Game
	cancel     context.CancelFunc
}

func (t *table) clients() []*Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Client, 0, len(t.seats)+len(t.spectators))
	for _, s := range t.seats {
		out = append(out, s.client)
	}
	for c := range t.spectators {
		out = append(out, c)
	}
	return out
}

// Hub owns the connected clients and the tables they sit at.
type Hub struct {
	engine   *game.Engine
	logger   *zap.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	tables map[string]*table
}

// NewHub creates a hub serving games of engine and subscribes it to the
// engine's events.
func NewHub(engine *game.Engine, cfg config.WebSocketConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		engine: engine,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		ctx:        ctx,
		cancel:     cancel,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		tables:     make(map[string]*table),
	}
	engine.Subscribe(h.forward)
	return h
}

// Run processes client registration until ctx ends. Games still running
// are cancelled on return.
func (h *Hub) Run(ctx context.Context) {
	defer h.cancel()
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", zap.String("remote", client.conn.RemoteAddr().String()))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.leave(client)
				h.logger.Debug("client unregistered", zap.String("remote", client.conn.RemoteAddr().String()))
			}
		}
	}
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256), seat: game.SpectatorSeat}

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.logger.Debug("malformed message", zap.Error(err))
			c.reply(MsgError, "", ErrorMessage{Error: "malformed message"})
			continue
		}
		if err := c.hub.handleMessage(c, msg); err != nil {
			c.reply(MsgError, msg.GameID, ErrorMessage{Error: err.Error()})
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// reply queues a message without blocking; a full buffer drops it.
func (c *Client) reply(msgType, gameID string, data any) {
	frame, err := encode(msgType, gameID, data)
	if err != nil {
		c.hub.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.hub.logger.Warn("client buffer full, dropping message", zap.String("type", msgType))
	}
}

func (h *Hub) handleMessage(c *Client, msg WSMessage) error {
	switch msg.Type {
	case MsgCreateGame:
		var req SeatRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return fmt.Errorf("bad %s payload: %w", msg.Type, err)
		}
		return h.createTable(c, req)

	case MsgJoinGame:
		var req SeatRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return fmt.Errorf("bad %s payload: %w", msg.Type, err)
		}
		if req.GameID == "" {
			req.GameID = msg.GameID
		}
		return h.joinTable(c, req)

	case MsgSpectate:
		return h.spectate(c, msg.GameID)

	case MsgAction:
		return c.answer(MsgActionRequest, msg.Data)
	case MsgTargets:
		return c.answer(MsgTargetRequest, msg.Data)
	case MsgMulligan:
		return c.answer(MsgMulliganRequest, msg.Data)

	case MsgConcede:
		return h.concede(c)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (c *Client) answer(kind string, data json.RawMessage) error {
	if c.provider == nil {
		return errors.New("not seated at a game")
	}
	return c.provider.answer(kind, data)
}

func (h *Hub) checkSeat(c *Client, req SeatRequest) error {
	if c.table != nil {
		return errors.New("already at a table")
	}
	if req.Name == "" {
		return errors.New("name is required")
	}
	if len(req.Deck) == 0 {
		return errors.New("deck is required")
	}
	return h.engine.Library().CheckDeck(req.Deck)
}

func (h *Hub) createTable(c *Client, req SeatRequest) error {
	if err := h.checkSeat(c, req); err != nil {
		return err
	}
	t := &table{id: uuid.New().String(), spectators: make(map[*Client]bool)}
	if err := h.seatClient(t, c, req, 0); err != nil {
		return err
	}

	h.mu.Lock()
	h.tables[t.id] = t
	h.mu.Unlock()

	h.logger.Info("table created", zap.String("game_id", t.id), zap.String("player", req.Name))
	c.reply(MsgGameCreated, t.id, SeatAssigned{GameID: t.id, Seat: 0, Name: req.Name})
	return nil
}

func (h *Hub) joinTable(c *Client, req SeatRequest) error {
	if err := h.checkSeat(c, req); err != nil {
		return err
	}
	h.mu.RLock()
	t, ok := h.tables[req.GameID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, req.GameID)
	}

	if err := h.seatClient(t, c, req, 1); err != nil {
		return err
	}
	c.reply(MsgGameJoined, t.id, SeatAssigned{GameID: t.id, Seat: 1, Name: req.Name})
	go h.runTable(t)
	return nil
}

func (h *Hub) seatClient(t *table, c *Client, req SeatRequest, index int) error {
	send := func(msgType string, data any) { c.reply(msgType, t.id, data) }
	prompt := func() { h.broadcastViews(t) }
	s := &seat{
		name:     req.Name,
		deck:     req.Deck,
		client:   c,
		provider: newSeatProvider(req.Name, send, prompt),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.seats) != index {
		return errors.New("table is full")
	}
	for _, other := range t.seats {
		if other.name == req.Name {
			return fmt.Errorf("name %q is taken", req.Name)
		}
	}
	c.table = t
	c.seat = index
	c.provider = s.provider
	t.seats = append(t.seats, s)
	return nil
}

func (h *Hub) spectate(c *Client, gameID string) error {
	if c.table != nil {
		return errors.New("already at a table")
	}
	h.mu.RLock()
	t, ok := h.tables[gameID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	c.table = t
	t.mu.Lock()
	t.spectators[c] = true
	g := t.game
	t.mu.Unlock()
	if g != nil {
		c.reply(MsgGameState, t.id, g.View(game.SpectatorSeat))
	}
	return nil
}

func (h *Hub) concede(c *Client) error {
	t := c.table
	if t == nil || c.provider == nil {
		return errors.New("not seated at a game")
	}
	t.mu.Lock()
	g, cancel := t.game, t.cancel
	t.mu.Unlock()
	if g == nil {
		return errors.New("game has not started")
	}
	if err := g.Concede(c.provider.name); err != nil {
		return err
	}
	// wake the seat that is deciding
	cancel()
	return nil
}

// leave releases a disconnected client's seat. A seated player leaving a
// running game fails its pending decisions, which aborts the game.
func (h *Hub) leave(c *Client) {
	t := c.table
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.spectators, c)
	started := t.game != nil
	t.mu.Unlock()
	if c.provider == nil {
		return
	}
	c.provider.leave()
	if !started {
		h.removeTable(t)
	}
}

func (h *Hub) runTable(t *table) {
	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	t.mu.Lock()
	t.cancel = cancel
	setups := make([]game.PlayerSetup, len(t.seats))
	for i, s := range t.seats {
		setups[i] = game.PlayerSetup{Name: s.name, Deck: s.deck, Provider: s.provider}
	}
	t.mu.Unlock()

	defer h.removeTable(t)
	g, err := h.engine.StartGame(ctx, t.id, setups)
	if err != nil {
		h.logger.Warn("failed to start game", zap.String("game_id", t.id), zap.Error(err))
		for _, c := range t.clients() {
			c.reply(MsgError, t.id, ErrorMessage{Error: err.Error()})
		}
		return
	}
	t.mu.Lock()
	t.game = g
	t.mu.Unlock()

	if err := g.Run(ctx); err != nil {
		h.logger.Warn("game aborted", zap.String("game_id", t.id), zap.Error(err))
	}
	h.broadcastViews(t)
	for _, c := range t.clients() {
		c.reply(MsgGameOver, t.id, g.View(game.SpectatorSeat))
	}
	if err := h.engine.EndGame(t.id); err != nil && !errors.Is(err, game.ErrGameNotFound) {
		h.logger.Warn("failed to end game", zap.String("game_id", t.id), zap.Error(err))
	}
}

func (h *Hub) removeTable(t *table) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tables[t.id] == t {
		delete(h.tables, t.id)
	}
}

// broadcastViews sends every client of t the view for its seat. It must not
// run under the game lock.
func (h *Hub) broadcastViews(t *table) {
	t.mu.Lock()
	g := t.game
	t.mu.Unlock()
	if g == nil {
		return
	}
	for _, c := range t.clients() {
		c.reply(MsgGameState, t.id, g.View(c.seat))
	}
}

// forward relays an engine event to the clients of its table. It runs
// under the game lock.
func (h *Hub) forward(evt rules.Event) {
	h.mu.RLock()
	t, ok := h.tables[evt.GameID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	for _, c := range t.clients() {
		c.reply(MsgEvent, t.id, evt)
	}
}

// Tables lists the ids of the open tables.
func (h *Hub) Tables() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.tables))
	for id := range h.tables {
		out = append(out, id)
	}
	return out
}
