package game

import (
	"fmt"
	"strings"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/expr"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/targeting"
)

// triggerContext travels with a sequence: the card it is about, the targets
// chosen for it and the amounts it produced. Steps share one pointer so a
// target choice is visible to every later step.
type triggerContext struct {
	subject *Card
	targets []targeting.Candidate
	amount  int
	shadows int
}

func (tc *triggerContext) firstTarget() targeting.Candidate {
	if tc == nil || len(tc.targets) == 0 {
		return nil
	}
	return tc.targets[0]
}

// env answers guard paths against live game state.
type env struct {
	g      *Game
	self   *Card
	owner  *Player
	target targeting.Candidate
	tc     *triggerContext
}

func (g *Game) effectEnv(self *Card, tc *triggerContext) *env {
	return &env{g: g, self: self, owner: self.Owner, target: tc.firstTarget(), tc: tc}
}

// Lookup implements expr.Env.
func (e *env) Lookup(path []string) (any, error) {
	if len(path) < 2 {
		return nil, unknownPath(path)
	}
	owner := e.owner
	if owner == nil && e.self != nil {
		owner = e.self.Owner
	}
	field := path[1:]

	switch path[0] {
	case "self":
		if e.self != nil {
			return cardField(e.self, field)
		}
	case "owner":
		if owner != nil {
			return playerField(owner, field)
		}
	case "opponent":
		if owner != nil {
			return playerField(e.g.opponent(owner), field)
		}
	case "target":
		switch t := e.target.(type) {
		case *Card:
			return cardField(t, field)
		case *Player:
			return playerField(t, field)
		}
	case "subject":
		if e.tc != nil && e.tc.subject != nil {
			return cardField(e.tc.subject, field)
		}
	case "event":
		if e.tc != nil && len(field) == 1 {
			switch field[0] {
			case "amount":
				return e.tc.amount, nil
			case "shadows":
				return e.tc.shadows, nil
			case "targets":
				return len(e.tc.targets), nil
			}
		}
	case "game":
		if len(field) == 1 && field[0] == "turn" {
			return e.g.turns.TurnNumber(), nil
		}
	}
	return nil, unknownPath(path)
}

func cardField(c *Card, field []string) (any, error) {
	if len(field) != 1 {
		return nil, unknownPath(append([]string{"card"}, field...))
	}
	switch field[0] {
	case "name":
		return c.Name, nil
	case "index":
		return int(c.Index), nil
	case "cost":
		return c.Cost, nil
	case "type":
		return string(c.Type), nil
	case "trait":
		return c.Trait, nil
	case "owner":
		return c.Owner.Name, nil
	case "attack":
		return c.Attack, nil
	case "defense":
		return c.Defense, nil
	case "countdown":
		return c.countdown(), nil
	case "evolved":
		return c.Evolved, nil
	case "state":
		return c.State.String(), nil
	case "attackState":
		return c.AttackState.String(), nil
	case "onBoard":
		return c.OnBoard(), nil
	case "inHand":
		return c.InHand(), nil
	}
	return nil, unknownPath(append([]string{"card"}, field...))
}

func playerField(p *Player, field []string) (any, error) {
	if len(field) != 1 {
		return nil, unknownPath(append([]string{"player"}, field...))
	}
	switch field[0] {
	case "name":
		return p.Name, nil
	case "health":
		return p.Health, nil
	case "maxHealth":
		return p.MaxHealth, nil
	case "energy":
		return p.Energy, nil
	case "totalEnergy":
		return p.TotalEnergy, nil
	case "shadows":
		return p.Shadows, nil
	case "evolutions":
		return p.EvolutionPoints, nil
	case "turnsPlayed":
		return p.TurnsPlayed, nil
	case "handSize":
		return p.Hand.Len(), nil
	case "boardSize":
		return p.Board.Len(), nil
	case "deckSize":
		return p.Deck.Len(), nil
	case "hasEvolved":
		return p.HasEvolvedThisTurn, nil
	case "invoked":
		return len(p.Invoked), nil
	}
	return nil, unknownPath(append([]string{"player"}, field...))
}

func unknownPath(path []string) error {
	return fmt.Errorf("%w: %s", expr.ErrUnknownPath, strings.Join(path, "."))
}
