package game

import (
	"errors"
	"fmt"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

var (
	ErrInsufficientEnergy = errors.New("insufficient energy")
	ErrBoardFull          = errors.New("board is full")
	ErrNoTargets          = errors.New("no legal targets")
	ErrCannotAttack       = errors.New("card cannot attack")
	ErrCannotEvolve       = errors.New("card cannot evolve")
	ErrInvalidTarget      = errors.New("invalid target")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrUnknownAction      = errors.New("unknown action")
	ErrUnknownCardIndex   = errors.New("unknown card")
	ErrGameOver           = errors.New("game is over")
	ErrGameNotFound       = errors.New("game not found")
	ErrGameExists         = errors.New("game already exists")
)

// IllegalActionError reports an action refused by the legality checks. The
// game state is untouched when it is returned.
type IllegalActionError struct {
	Player string
	Action Action
	Reason string
	Err    error
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal %s by %s: %s", e.Action.Kind, e.Player, e.Reason)
}

func (e *IllegalActionError) Unwrap() error { return e.Err }

// reasonErrors maps legality reasons to the sentinel callers match on.
var reasonErrors = map[string]error{
	rules.ReasonInsufficientEnergy: ErrInsufficientEnergy,
	rules.ReasonBoardFull:          ErrBoardFull,
	rules.ReasonNoTargets:          ErrNoTargets,
	rules.ReasonNotInHand:          ErrUnknownCardIndex,
	rules.ReasonNotOnBoard:         ErrUnknownCardIndex,
	rules.ReasonNotMonster:         ErrCannotAttack,
	rules.ReasonCannotAttack:       ErrCannotAttack,
	rules.ReasonCannotAttackLeader: ErrCannotAttack,
	rules.ReasonInvalidTarget:      ErrInvalidTarget,
	rules.ReasonEvolveUnavailable:  ErrCannotEvolve,
	rules.ReasonAlreadyEvolved:     ErrCannotEvolve,
	rules.ReasonModeUnavailable:    ErrInsufficientEnergy,
	rules.ReasonGameOver:           ErrGameOver,
	rules.ReasonNotYourTurn:        ErrNotYourTurn,
	rules.ReasonUnknownAction:      ErrUnknownAction,
}

func illegal(player string, action Action, res rules.LegalityResult) *IllegalActionError {
	err, ok := reasonErrors[res.Reason]
	if !ok {
		err = ErrUnknownAction
	}
	return &IllegalActionError{Player: player, Action: action, Reason: res.Reason, Err: err}
}
