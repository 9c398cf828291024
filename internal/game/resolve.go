package game

import (
	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// Work is expressed as stack items. A step that needs follow-up work pushes
// it, so nested work always finishes before anything scheduled earlier.
// Only the exported entry points drain the stack.

func (g *Game) step(desc string, fn func() error) rules.StackItem {
	return rules.StackItem{Kind: rules.StackItemKindStep, Description: desc, Resolve: fn}
}

// do wraps a step that cannot fail.
func (g *Game) do(desc string, fn func()) rules.StackItem {
	return g.step(desc, func() error {
		fn()
		return nil
	})
}

// schedule pushes items so that items[0] runs next.
func (g *Game) schedule(items ...rules.StackItem) {
	g.stack.PushAll(items...)
}

// settle drains the stack, discarding what is left once the game ends.
func (g *Game) settle() error {
	return g.stack.Drain(g.IsOver)
}

// popCard fires t on c: the active face's effects first, then the card's own.
func (g *Game) popCard(c *Card, t rules.Trigger, tc *triggerContext) rules.StackItem {
	return g.do(t.String()+" "+c.String(), func() {
		g.firePop(c, t, tc)
	})
}

func (g *Game) firePop(c *Card, t rules.Trigger, tc *triggerContext) {
	var items []rules.StackItem
	for _, reg := range c.registries() {
		reg.Pop(t, func(e *rules.Effect) {
			items = append(items, g.effectItem(e, tc))
		})
	}
	g.schedule(items...)
}

// popPlayer fires t on the player's own registry.
func (g *Game) popPlayer(p *Player, t rules.Trigger, tc *triggerContext) rules.StackItem {
	return g.do(t.String()+" "+p.Name, func() {
		var items []rules.StackItem
		p.effects.Pop(t, func(e *rules.Effect) {
			items = append(items, g.effectItem(e, tc))
		})
		g.schedule(items...)
	})
}

// resolveAll fires a player-scoped trigger on the player and then on every
// card they hold in hand, on the board and in the deck. Zone membership is
// read when the step runs; cards that leave play before their turn are
// skipped.
func (g *Game) resolveAll(p *Player, t rules.Trigger, tc *triggerContext) rules.StackItem {
	return g.do("all "+t.String()+" "+p.Name, func() {
		items := []rules.StackItem{g.popPlayer(p, t, tc)}
		for _, zone := range [][]*Card{p.Hand.Cards(), p.Board.Cards(), p.Deck.Cards()} {
			for _, c := range zone {
				c := c
				items = append(items, g.do(t.String()+" "+c.String(), func() {
					if c.Owner == p && c.InZone() {
						g.firePop(c, t, tc)
					}
				}))
			}
		}
		g.schedule(items...)
	})
}

// broadcast notifies actor through the friendly trigger and the opponent
// through the enemy trigger.
func (g *Game) broadcast(b rules.Broadcast, actor *Player, tc *triggerContext) rules.StackItem {
	return g.do(b.String(), func() {
		g.schedule(
			g.resolveAll(actor, b.Friendly(), tc),
			g.resolveAll(g.opponent(actor), b.Enemy(), tc),
		)
	})
}

// effectItem checks guard and budget when it reaches the top of the stack.
// The budget is consumed by a settle item pushed beneath the action's own
// work, so it is spent only once the action has fully resolved.
func (g *Game) effectItem(e *rules.Effect, tc *triggerContext) rules.StackItem {
	src, _ := e.Source.(*Card)
	item := rules.StackItem{
		ID:          e.ID,
		Kind:        rules.StackItemKindEffect,
		SourceID:    e.SourceName,
		Description: e.Trigger.String() + " " + e.SourceName,
	}
	if src == nil {
		return item
	}
	item.Controller = src.Owner.Name
	item.Resolve = func() error {
		ok, err := e.Ready(g.effectEnv(src, tc))
		if err != nil {
			g.logger.Warn("effect guard failed",
				zap.String("card", src.String()),
				zap.String("trigger", e.Trigger.String()),
				zap.String("test", e.Guard.String()),
				zap.Error(err),
			)
			return nil
		}
		if !ok {
			return nil
		}
		e.Begin()
		g.schedule(rules.StackItem{
			ID:          e.ID,
			Kind:        rules.StackItemKindSettle,
			Controller:  src.Owner.Name,
			SourceID:    e.SourceName,
			Description: "settle " + e.SourceName,
			Resolve: func() error {
				e.Consume()
				evt := g.event(rules.EventEffectResolved, src.Key(), src.Name, src.Owner.Name)
				evt.Data = string(e.Op.Kind())
				evt.Description = e.Trigger.String()
				g.publish(evt)
				return nil
			},
		})
		g.logger.Debug("effect resolving",
			zap.String("card", src.String()),
			zap.String("trigger", e.Trigger.String()),
			zap.String("op", string(e.Op.Kind())),
		)
		return g.perform(e.Op, src, tc)
	}
	return item
}
