package server

import (
	"encoding/json"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game"
)

// Message types sent by clients.
const (
	MsgCreateGame = "create_game"
	MsgJoinGame   = "join_game"
	MsgSpectate   = "spectate"
	MsgAction     = "action"
	MsgTargets    = "targets"
	MsgMulligan   = "mulligan"
	MsgConcede    = "concede"
)

// Message types sent by the server.
const (
	MsgGameCreated     = "game_created"
	MsgGameJoined      = "game_joined"
	MsgGameState       = "game_state"
	MsgActionRequest   = "action_request"
	MsgTargetRequest   = "target_request"
	MsgMulliganRequest = "mulligan_request"
	MsgEvent           = "event"
	MsgGameOver        = "game_over"
	MsgError           = "error"
)

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// SeatRequest is the payload of create_game and join_game.
type SeatRequest struct {
	GameID string   `json:"game_id,omitempty"`
	Name   string   `json:"name"`
	Deck   []string `json:"deck"`
}

// SeatAssigned is the reply to create_game and join_game.
type SeatAssigned struct {
	GameID string `json:"game_id"`
	Seat   int    `json:"seat"`
	Name   string `json:"name"`
}

// ActionMessage carries an answer to an action_request.
type ActionMessage struct {
	Action game.Action `json:"action"`
}

// TargetsMessage carries an answer to a target_request.
type TargetsMessage struct {
	Keys []string `json:"keys"`
}

// MulliganMessage carries an answer to a mulligan_request.
type MulliganMessage struct {
	Cards []uint64 `json:"cards"`
}

// ErrorMessage reports a refused client message.
type ErrorMessage struct {
	Error string `json:"error"`
}

func encode(msgType, gameID string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		body, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = body
	}
	return json.Marshal(WSMessage{Type: msgType, GameID: gameID, Data: raw})
}
