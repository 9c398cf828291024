package rules

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// GameState is the coarse state of a match.
type GameState string

const (
	GameStateNotStarted GameState = "not_started"
	GameStateMulligan   GameState = "mulligan"
	GameStateInTurn     GameState = "in_turn"
	GameStateGameOver   GameState = "game_over"
)

const (
	eventDeal   = "deal"
	eventBegin  = "begin"
	eventFinish = "finish"
)

// Lifecycle is the whole-game state machine:
// not_started -> mulligan -> in_turn -> game_over.
type Lifecycle struct {
	machine *fsm.FSM
}

// NewLifecycle builds the machine. onEnter, if set, observes every transition.
func NewLifecycle(onEnter func(from, to GameState)) *Lifecycle {
	callbacks := fsm.Callbacks{}
	if onEnter != nil {
		callbacks["enter_state"] = func(_ context.Context, e *fsm.Event) {
			onEnter(GameState(e.Src), GameState(e.Dst))
		}
	}
	return &Lifecycle{
		machine: fsm.NewFSM(
			string(GameStateNotStarted),
			fsm.Events{
				{Name: eventDeal, Src: []string{string(GameStateNotStarted)}, Dst: string(GameStateMulligan)},
				{Name: eventBegin, Src: []string{string(GameStateMulligan)}, Dst: string(GameStateInTurn)},
				{Name: eventFinish, Src: []string{
					string(GameStateNotStarted),
					string(GameStateMulligan),
					string(GameStateInTurn),
				}, Dst: string(GameStateGameOver)},
			},
			callbacks,
		),
	}
}

// State returns the current state.
func (l *Lifecycle) State() GameState {
	return GameState(l.machine.Current())
}

// IsOver reports whether the game has ended.
func (l *Lifecycle) IsOver() bool {
	return l.machine.Is(string(GameStateGameOver))
}

// Deal enters the mulligan state.
func (l *Lifecycle) Deal(ctx context.Context) error {
	return l.machine.Event(ctx, eventDeal)
}

// Begin enters the turn loop.
func (l *Lifecycle) Begin(ctx context.Context) error {
	return l.machine.Event(ctx, eventBegin)
}

// Finish ends the game. Finishing twice is a no-op.
func (l *Lifecycle) Finish(ctx context.Context) error {
	if l.IsOver() {
		return nil
	}
	err := l.machine.Event(ctx, eventFinish)
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}
