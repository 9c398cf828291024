package rules

import (
	"fmt"
	"strings"
)

// Phase is one of the strictly ordered parts of a turn.
type Phase int

const (
	PhaseStartTurn Phase = iota
	PhaseActionLoop
	PhaseEndTurn
)

var phaseNames = map[Phase]string{
	PhaseStartTurn:  "START_TURN",
	PhaseActionLoop: "ACTION_LOOP",
	PhaseEndTurn:    "END_TURN",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// TurnManager tracks the active player, the game-wide turn number and the
// current phase.
type TurnManager struct {
	order       []string
	activeIndex int
	turnNumber  int
	phase       Phase
}

// NewTurnManager creates a turn manager on turn 1, start phase, with the
// first listed player active.
func NewTurnManager(players ...string) *TurnManager {
	order := make([]string, 0, len(players))
	for _, p := range players {
		order = append(order, strings.TrimSpace(p))
	}
	return &TurnManager{
		order:      order,
		turnNumber: 1,
		phase:      PhaseStartTurn,
	}
}

// TurnNumber returns the game-wide turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the player who currently has the turn.
func (tm *TurnManager) ActivePlayer() string {
	if len(tm.order) == 0 {
		return ""
	}
	return tm.order[tm.activeIndex]
}

// ActiveIndex returns the seat of the active player.
func (tm *TurnManager) ActiveIndex() int {
	return tm.activeIndex
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return tm.phase
}

// AdvancePhase moves to the next phase. Leaving the end phase hands the
// turn to the next player and increments the turn number.
func (tm *TurnManager) AdvancePhase() Phase {
	switch tm.phase {
	case PhaseStartTurn:
		tm.phase = PhaseActionLoop
	case PhaseActionLoop:
		tm.phase = PhaseEndTurn
	default:
		tm.phase = PhaseStartTurn
		tm.turnNumber++
		if len(tm.order) > 0 {
			tm.activeIndex = (tm.activeIndex + 1) % len(tm.order)
		}
	}
	return tm.phase
}
