package effects

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/counters"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/expr"
)

// TypeInvocation marks effects registered while the card is still in the deck.
const TypeInvocation = "Invocation"

// Spec is one declarative effect entry of a card definition.
type Spec struct {
	Trigger     string
	Effect      Op
	Test        string
	Amount      *int
	Refill      string
	Unstackable bool
	Type        string

	guard *expr.Expr
}

// IsInvocation reports whether the effect registers from the deck.
func (s Spec) IsInvocation() bool {
	return s.Type == TypeInvocation
}

// MaxAmount is the activation budget; an omitted Amount is unlimited.
func (s Spec) MaxAmount() int {
	if s.Amount == nil {
		return counters.Unlimited
	}
	return *s.Amount
}

// Guard returns the compiled Test, or nil when the effect has none.
// Specs that were not compiled are parsed on demand.
func (s *Spec) Guard() (*expr.Expr, error) {
	if s.Test == "" {
		return nil, nil
	}
	if s.guard == nil {
		g, err := expr.Parse(s.Test)
		if err != nil {
			return nil, err
		}
		s.guard = g
	}
	return s.guard, nil
}

// Validate checks the effect structurally and compiles its guard. Trigger
// names are checked by the caller, which owns the trigger taxonomy.
func (s *Spec) Validate() error {
	if s.Trigger == "" {
		return errors.New("effect has no trigger")
	}
	if s.Effect == nil {
		return fmt.Errorf("effect on %s has no op", s.Trigger)
	}
	if err := s.Effect.Validate(); err != nil {
		return fmt.Errorf("effect on %s: %w", s.Trigger, err)
	}
	if s.Amount != nil && *s.Amount != counters.Unlimited && *s.Amount <= 0 {
		return fmt.Errorf("effect on %s: amount must be positive or -1, got %d", s.Trigger, *s.Amount)
	}
	switch s.Type {
	case "", TypeInvocation:
	default:
		return fmt.Errorf("effect on %s: unknown type %q", s.Trigger, s.Type)
	}
	if _, err := s.Guard(); err != nil {
		return fmt.Errorf("effect on %s: %w", s.Trigger, err)
	}
	return nil
}

// Key is the structural identity used to refuse stacking: the owning card
// name plus the canonical encoding of the definition.
func (s Spec) Key(cardName string) (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return cardName + "|" + string(body), nil
}

// Triggers lists every trigger name the spec refers to, including nested
// registrations, so callers can validate them.
func (s Spec) Triggers() []string {
	names := []string{s.Trigger}
	if s.Refill != "" {
		names = append(names, s.Refill)
	}
	walk(s.Effect, func(op Op) {
		if r, ok := op.(Register); ok {
			names = append(names, r.Effect.Triggers()...)
		}
	})
	return names
}

// CardNames lists the card names referenced by AddCards and Summon ops.
func (s Spec) CardNames() []string {
	var names []string
	walk(s.Effect, func(op Op) {
		switch o := op.(type) {
		case AddCards:
			names = append(names, o.Names...)
		case Summon:
			names = append(names, o.Names...)
		case Register:
			names = append(names, o.Effect.CardNames()...)
		}
	})
	return names
}

func walk(op Op, visit func(Op)) {
	if op == nil {
		return
	}
	visit(op)
	switch o := op.(type) {
	case All:
		for _, child := range o.Ops {
			walk(child, visit)
		}
	case Necromancy:
		walk(o.Then, visit)
	}
}
