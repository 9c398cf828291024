package game

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// drawStep draws the top card of p's deck. An empty deck loses the game.
func (g *Game) drawStep(p *Player) rules.StackItem {
	return g.do("draw "+p.Name, func() {
		c, ok := p.Deck.DrawTop()
		if !ok {
			g.lose(p, "drew from an empty deck")
			return
		}
		g.registerEffects(c)
		if !g.putInHand(c) {
			return
		}
		g.publish(g.event(rules.EventCardDrawn, c.Key(), c.Name, p.Name))
		tc := &triggerContext{subject: c}
		g.schedule(
			g.popCard(c, rules.OnDrawn, tc),
			g.broadcast(rules.BroadcastCardDrawn, p, tc),
		)
	})
}

func (g *Game) drawSteps(p *Player, n int) []rules.StackItem {
	items := make([]rules.StackItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, g.drawStep(p))
	}
	return items
}

// putInHand adds c to its owner's hand. A full hand discards it instead,
// rewarding a shadow; false is returned in that case.
func (g *Game) putInHand(c *Card) bool {
	if c.Owner.Hand.Add(c) {
		c.State = StateHeld
		return true
	}
	g.logger.Debug("hand full, card discarded",
		zap.String("player", c.Owner.Name),
		zap.String("card", c.String()),
	)
	g.discarded(c)
	return false
}

// discarded finishes a card that left the hand (or never reached it).
func (g *Game) discarded(c *Card) {
	c.State = StateDestroyed
	g.gainShadows(c.Owner, 1, c)
	g.publish(g.event(rules.EventCardDiscarded, c.Key(), c.Name, c.Owner.Name))
	tc := &triggerContext{subject: c}
	g.schedule(
		g.popCard(c, rules.OnDiscarded, tc),
		g.broadcast(rules.BroadcastCardDiscarded, c.Owner, tc),
	)
}

// discard removes a hand card.
func (g *Game) discard(c *Card) rules.StackItem {
	return g.do("discard "+c.String(), func() {
		if !c.Owner.Hand.Remove(c) {
			return
		}
		g.discarded(c)
	})
}

func (g *Game) gainShadows(p *Player, n int, source *Card) {
	if n <= 0 {
		return
	}
	p.gainShadows(n)
	src := ""
	if source != nil {
		src = source.Name
	}
	g.publish(g.amountEvent(rules.EventShadowsGained, p.Name, src, p.Name, n))
}

func (g *Game) amountEvent(t rules.EventType, target, source, controller string, amount int) rules.Event {
	evt := g.event(t, target, source, controller)
	evt.Amount = amount
	return evt
}

// enterBoard places c on its owner's board with fresh stats. It reports
// false when the board is full.
func (g *Game) enterBoard(c *Card) bool {
	if !c.Owner.Board.Add(c) {
		return false
	}
	c.State = StatePlayed
	if c.Evolved {
		c.State = StateEvolved
	}
	if c.IsMonster() {
		c.resetStats()
		c.AttackState = c.initialAttackState()
	}
	if c.IsAmulet() && c.Def.Base.Countdown > 0 {
		c.Countdown.Count = c.Def.Base.Countdown
	}
	return true
}

// leaveBoard removes c and settles its final state.
func (g *Game) leaveBoard(c *Card, final CardState) bool {
	if !c.Owner.Board.Remove(c) {
		return false
	}
	c.State = final
	return true
}

// damageCard lowers a monster's defense and schedules its destruction when
// it drops to zero while on the board. It returns the damage dealt.
func (g *Game) damageCard(c *Card, n int, source string) int {
	if n <= 0 || !c.IsMonster() {
		return 0
	}
	c.Defense -= n
	g.publish(g.amountEvent(rules.EventDamage, c.Key(), source, c.Owner.Name, n))
	if c.Defense <= 0 && c.OnBoard() {
		g.schedule(g.destroy(c))
	}
	return n
}

// damagePlayer lowers health; reaching zero loses the game at once.
// Health changes are broadcast with a signed amount.
func (g *Game) damagePlayer(p *Player, n int, source string) int {
	if n <= 0 {
		return 0
	}
	p.Health -= n
	g.publish(g.amountEvent(rules.EventDamage, p.Key(), source, p.Name, n))
	if p.Health <= 0 {
		g.lose(p, "health reached zero")
		return n
	}
	g.schedule(g.broadcast(rules.BroadcastChanged, p, &triggerContext{amount: -n}))
	return n
}

func (g *Game) healPlayer(p *Player, n int, source string) int {
	healed := p.heal(n)
	if healed > 0 {
		g.publish(g.amountEvent(rules.EventHeal, p.Key(), source, p.Name, healed))
		g.schedule(g.broadcast(rules.BroadcastChanged, p, &triggerContext{amount: healed}))
	}
	return healed
}

// destroy runs the destroy sequence if c is still on the board when it
// starts. Monsters fire onDestroying, onDestroyed and onLeavesBoard;
// amulets skip onLeavesBoard. Either way the owner gains a shadow.
func (g *Game) destroy(c *Card) rules.StackItem {
	return g.do("destroy "+c.String(), func() {
		if !c.OnBoard() {
			return
		}
		owner := c.Owner
		tc := &triggerContext{subject: c}
		items := []rules.StackItem{
			g.popCard(c, rules.OnDestroying, tc),
			g.do("remove "+c.String(), func() {
				if !g.leaveBoard(c, StateDestroyed) {
					return
				}
				g.logger.Debug("card destroyed", zap.String("card", c.String()))
				g.publish(g.event(rules.EventCardDestroyed, c.Key(), c.Name, owner.Name))
				g.gainShadows(owner, 1, c)
			}),
			g.popCard(c, rules.OnDestroyed, tc),
		}
		// amulets stop at onDestroyed
		if c.IsMonster() {
			items = append(items,
				g.popCard(c, rules.OnLeavesBoard, tc),
				g.broadcast(rules.BroadcastCardDestroyed, owner, tc),
			)
		}
		g.schedule(items...)
	})
}

// banish is destroy without the shadow reward.
func (g *Game) banish(c *Card) rules.StackItem {
	return g.do("banish "+c.String(), func() {
		if !c.OnBoard() {
			return
		}
		tc := &triggerContext{subject: c}
		items := []rules.StackItem{
			g.popCard(c, rules.OnBanishing, tc),
			g.do("remove "+c.String(), func() {
				if g.leaveBoard(c, StateBanished) {
					g.publish(g.event(rules.EventCardBanished, c.Key(), c.Name, c.Owner.Name))
				}
			}),
			g.popCard(c, rules.OnBanished, tc),
		}
		if c.IsMonster() {
			items = append(items, g.popCard(c, rules.OnLeavesBoard, tc))
		}
		g.schedule(items...)
	})
}

// evolve flips c to its evolved face. Paid evolutions spend the owner's
// point for the turn; effect-driven ones are free.
func (g *Game) evolve(c *Card, paid bool) rules.StackItem {
	return g.do("evolve "+c.String(), func() {
		if !c.CanEvolve() {
			return
		}
		owner := c.Owner
		attack, defense := c.Def.Evolve.Gains()
		c.active = c.evolved
		c.Attack += attack
		c.Defense += defense
		c.Evolved = true
		c.State = StateEvolved
		if c.AttackState == AttackSickness {
			c.AttackState = AttackRush
		}
		if paid {
			owner.EvolutionPoints--
			owner.HasEvolvedThisTurn = true
		}
		g.publish(g.event(rules.EventCardEvolved, c.Key(), c.Name, owner.Name))
		tc := &triggerContext{subject: c}
		g.schedule(
			g.popCard(c, rules.OnEvolved, tc),
			g.broadcast(rules.BroadcastCardEvolved, owner, tc),
		)
	})
}

// summon creates name directly on p's board.
func (g *Game) summon(p *Player, name string) rules.StackItem {
	return g.do("summon "+name, func() {
		if !p.Board.HasSpace() {
			g.logger.Debug("board full, summon fizzles", zap.String("player", p.Name), zap.String("card", name))
			return
		}
		c, err := g.createCard(name, p, StateHeld)
		if err != nil {
			g.logger.Error("cannot summon", zap.String("card", name), zap.Error(err))
			return
		}
		g.registerEffects(c)
		g.enterBoard(c)
		g.publish(g.event(rules.EventCardSummoned, c.Key(), c.Name, p.Name))
		tc := &triggerContext{subject: c}
		g.schedule(
			g.popCard(c, rules.OnSummoned, tc),
			g.popCard(c, rules.OnEntersBoard, tc),
			g.broadcast(rules.BroadcastCardSummoned, p, tc),
			g.broadcast(rules.BroadcastCardEntersBattlefield, p, tc),
		)
	})
}

// addCard creates name in p's hand, discarding it if the hand is full.
func (g *Game) addCard(p *Player, name string) rules.StackItem {
	return g.do("add "+name, func() {
		c, err := g.createCard(name, p, StateHeld)
		if err != nil {
			g.logger.Error("cannot create card", zap.String("card", name), zap.Error(err))
			return
		}
		g.registerEffects(c)
		g.putInHand(c)
	})
}

// invoke plays c from its owner's deck. A name invokes at most once per
// turn and only into free board space.
func (g *Game) invoke(c *Card) rules.StackItem {
	return g.do("invoke "+c.String(), func() {
		p := c.Owner
		if !c.InDeck() || !p.Deck.Contains(c) || !p.Board.HasSpace() || p.hasInvoked(c.Name) {
			return
		}
		p.Deck.Remove(c)
		p.Invoked = append(p.Invoked, c.Name)
		g.registerEffects(c)
		g.enterBoard(c)
		g.publish(g.event(rules.EventCardInvoked, c.Key(), c.Name, p.Name))
		tc := &triggerContext{subject: c}
		g.schedule(
			g.popCard(c, rules.OnInvoked, tc),
			g.popCard(c, rules.OnEntersBoard, tc),
			g.broadcast(rules.BroadcastCardInvoked, p, tc),
			g.broadcast(rules.BroadcastCardEntersBattlefield, p, tc),
		)
	})
}

// tutor moves up to n random deck cards of type t into p's hand.
func (g *Game) tutor(p *Player, t carddef.CardType, n int) rules.StackItem {
	return g.do("tutor "+string(t)+" x"+strconv.Itoa(n), func() {
		for i := 0; i < n; i++ {
			var pool []*Card
			for _, c := range p.Deck.cards {
				if t == "" || c.Type == t {
					pool = append(pool, c)
				}
			}
			if len(pool) == 0 {
				return
			}
			c := pool[g.rng.IntN(len(pool))]
			p.Deck.Remove(c)
			g.registerEffects(c)
			g.putInHand(c)
		}
	})
}
