package targeting

import (
	"fmt"
	"strings"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/expr"
)

// TargetType restricts candidates by kind.
type TargetType string

const (
	// TargetTypeEnemyPlayer replaces the pool with the opposing player.
	TargetTypeEnemyPlayer TargetType = "EnemyPlayer"
	// TargetTypeFriendlyPlayer replaces the pool with the acting player.
	TargetTypeFriendlyPlayer TargetType = "FriendlyPlayer"
	// TargetTypeMonster keeps monster cards.
	TargetTypeMonster TargetType = "Monster"
	// TargetTypeAmulet keeps amulet cards.
	TargetTypeAmulet TargetType = "Amulet"
)

// Location restricts card candidates by zone and owner.
type Location string

const (
	LocationFriendlyBoard Location = "onFriendlyBoard"
	LocationEnemyBoard    Location = "onEnemyBoard"
	LocationFriendlyHand  Location = "inFriendlyHand"
)

// Criteria is one target specification. Empty fields apply no filter.
type Criteria struct {
	Type     TargetType `json:",omitempty"`
	Location Location   `json:",omitempty"`
	Test     string     `json:",omitempty"`

	guard *expr.Expr
}

// Validate checks the enumerations and compiles the test.
func (c *Criteria) Validate() error {
	switch c.Type {
	case "", TargetTypeEnemyPlayer, TargetTypeFriendlyPlayer, TargetTypeMonster, TargetTypeAmulet:
	default:
		return fmt.Errorf("unknown target type %q", c.Type)
	}
	switch c.Location {
	case "", LocationFriendlyBoard, LocationEnemyBoard, LocationFriendlyHand:
	default:
		return fmt.Errorf("unknown target location %q", c.Location)
	}
	if _, err := c.Guard(); err != nil {
		return fmt.Errorf("target test: %w", err)
	}
	return nil
}

// Guard returns the compiled test, or nil.
func (c *Criteria) Guard() (*expr.Expr, error) {
	if strings.TrimSpace(c.Test) == "" {
		return nil, nil
	}
	if c.guard == nil {
		g, err := expr.Parse(c.Test)
		if err != nil {
			return nil, err
		}
		c.guard = g
	}
	return c.guard, nil
}

// Candidate is a card or player that can be chosen as a target.
type Candidate interface {
	// TargetKey identifies the candidate within a game.
	TargetKey() string
	// TargetOwner is the owning player's name (the player itself for players).
	TargetOwner() string
	IsPlayer() bool
	// CardType is Monster, Spell or Amulet; empty for players.
	CardType() string
	OnBoard() bool
	InHand() bool
}

// CheckSelection verifies that chosen keys name exactly min(count, len(candidates))
// distinct candidates, and returns them in the chosen order.
func CheckSelection(candidates []Candidate, chosen []string, count int) ([]Candidate, error) {
	want := count
	if want > len(candidates) {
		want = len(candidates)
	}
	if len(chosen) != want {
		return nil, fmt.Errorf("expected %d targets, got %d", want, len(chosen))
	}
	byKey := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byKey[c.TargetKey()] = c
	}
	seen := make(map[string]struct{}, len(chosen))
	out := make([]Candidate, 0, len(chosen))
	for _, key := range chosen {
		c, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("target %s is not a legal candidate", key)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("target %s chosen twice", key)
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// Keys lists candidate keys in order.
func Keys(candidates []Candidate) []string {
	keys := make([]string, 0, len(candidates))
	for _, c := range candidates {
		keys = append(keys, c.TargetKey())
	}
	return keys
}
