package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game"
)

// ErrSeatLeft is returned to the engine when the seat's client disconnects.
var ErrSeatLeft = errors.New("player left the game")

// errNotPending rejects an answer nobody asked for.
var errNotPending = errors.New("no decision pending")

// SeatProvider relays engine decisions to a websocket client and waits for
// its answer.
type SeatProvider struct {
	name     string
	send     func(msgType string, data any)
	onPrompt func()

	mu      sync.Mutex
	pending string
	answers chan json.RawMessage
	left    chan struct{}
	once    sync.Once
}

func newSeatProvider(name string, send func(string, any), onPrompt func()) *SeatProvider {
	return &SeatProvider{
		name:     name,
		send:     send,
		onPrompt: onPrompt,
		answers:  make(chan json.RawMessage, 1),
		left:     make(chan struct{}),
	}
}

// RequestAction implements game.DecisionProvider.
func (p *SeatProvider) RequestAction(ctx context.Context, req game.ActionRequest) (game.Action, error) {
	if p.onPrompt != nil {
		p.onPrompt()
	}
	raw, err := p.ask(ctx, MsgActionRequest, req)
	if err != nil {
		return game.Action{}, err
	}
	var msg ActionMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		// a malformed answer is an illegal action, not a broken seat
		return game.Action{Kind: "malformed"}, nil
	}
	return msg.Action, nil
}

// RequestTargets implements game.DecisionProvider.
func (p *SeatProvider) RequestTargets(ctx context.Context, req game.TargetRequest) ([]string, error) {
	raw, err := p.ask(ctx, MsgTargetRequest, req)
	if err != nil {
		return nil, err
	}
	var msg TargetsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, nil
	}
	return msg.Keys, nil
}

// RequestMulligan implements game.MulliganProvider.
func (p *SeatProvider) RequestMulligan(ctx context.Context, req game.MulliganRequest) ([]uint64, error) {
	raw, err := p.ask(ctx, MsgMulliganRequest, req)
	if err != nil {
		return nil, err
	}
	var msg MulliganMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, nil
	}
	return msg.Cards, nil
}

func (p *SeatProvider) ask(ctx context.Context, kind string, req any) (json.RawMessage, error) {
	p.mu.Lock()
	p.pending = kind
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.pending = ""
		p.mu.Unlock()
	}()

	p.send(kind, req)
	select {
	case raw := <-p.answers:
		return raw, nil
	case <-p.left:
		return nil, fmt.Errorf("%s: %w", p.name, ErrSeatLeft)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// answer hands a client reply to the waiting request. kind is the request
// type the reply belongs to.
func (p *SeatProvider) answer(kind string, raw json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != kind {
		return fmt.Errorf("%w: got answer to %s", errNotPending, kind)
	}
	select {
	case p.answers <- raw:
		p.pending = ""
		return nil
	default:
		return fmt.Errorf("%w: already answered", errNotPending)
	}
}

// leave fails the pending and all future requests.
func (p *SeatProvider) leave() {
	p.once.Do(func() { close(p.left) })
}
