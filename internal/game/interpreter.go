package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/effects"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// perform executes op for an effect of src. Simple mutations apply at once;
// anything that cascades is scheduled.
func (g *Game) perform(op effects.Op, src *Card, tc *triggerContext) error {
	if tc == nil {
		tc = &triggerContext{}
	}
	owner := src.Owner
	switch o := op.(type) {
	case effects.Buff:
		for _, c := range g.subjectCards(o.Subject, src, tc) {
			g.buff(c, o.Attack, o.Defense)
		}
	case effects.Damage:
		for _, c := range g.subjectCards(o.Subject, src, tc) {
			g.damageCard(c, o.Amount, src.Name)
		}
		for _, p := range g.subjectPlayers(o.Subject, src, tc) {
			g.damagePlayer(p, o.Amount, src.Name)
		}
	case effects.Heal:
		for _, p := range g.subjectPlayers(o.Subject, src, tc) {
			g.healPlayer(p, o.Amount, src.Name)
		}
	case effects.GainShadows:
		for _, p := range g.subjectPlayers(o.Subject, src, tc) {
			g.gainShadows(p, o.Amount, src)
		}
	case effects.GainEnergy:
		for _, p := range g.subjectPlayers(o.Subject, src, tc) {
			p.gainEnergy(o.Amount)
		}
	case effects.GainTotalEnergy:
		for _, p := range g.subjectPlayers(o.Subject, src, tc) {
			p.gainTotalEnergy(o.Amount, g.rules.MaxEnergy)
		}
	case effects.Draw:
		var items []rules.StackItem
		for _, p := range g.subjectPlayers(o.Subject, src, tc) {
			items = append(items, g.drawSteps(p, o.Count)...)
		}
		g.schedule(items...)
	case effects.AddCards:
		var items []rules.StackItem
		for _, p := range g.subjectPlayers(o.Subject, src, tc) {
			for _, name := range o.Names {
				items = append(items, g.addCard(p, name))
			}
		}
		g.schedule(items...)
	case effects.Summon:
		var items []rules.StackItem
		for _, p := range g.subjectPlayers(o.Subject, src, tc) {
			for _, name := range o.Names {
				items = append(items, g.summon(p, name))
			}
		}
		g.schedule(items...)
	case effects.Tutor:
		g.schedule(g.tutor(owner, carddef.CardType(o.Type), o.Count))
	case effects.Invoke:
		g.schedule(g.invoke(src))
	case effects.Necromancy:
		if owner.Shadows < o.Shadows {
			return nil
		}
		owner.Shadows -= o.Shadows
		g.publish(g.amountEvent(rules.EventNecromancy, owner.Name, src.Name, owner.Name, o.Shadows))
		paid := &triggerContext{subject: src, targets: tc.targets, amount: tc.amount, shadows: o.Shadows}
		items := []rules.StackItem{}
		if o.Then != nil {
			then := o.Then
			items = append(items, g.step("necromancy "+src.Name, func() error {
				return g.perform(then, src, paid)
			}))
		}
		items = append(items, g.broadcast(rules.BroadcastNecromancy, owner, paid))
		g.schedule(items...)
	case effects.Destroy:
		var items []rules.StackItem
		for _, c := range g.subjectCards(o.Subject, src, tc) {
			items = append(items, g.destroy(c))
		}
		g.schedule(items...)
	case effects.Banish:
		var items []rules.StackItem
		for _, c := range g.subjectCards(o.Subject, src, tc) {
			items = append(items, g.banish(c))
		}
		g.schedule(items...)
	case effects.Discard:
		var items []rules.StackItem
		for _, c := range g.subjectCards(o.Subject, src, tc) {
			items = append(items, g.discard(c))
		}
		g.schedule(items...)
	case effects.SetAttackState:
		state, err := ParseAttackState(o.State)
		if err != nil {
			return err
		}
		for _, c := range g.subjectCards(o.Subject, src, tc) {
			grantAttackState(c, state)
		}
	case effects.Countdown:
		var items []rules.StackItem
		for _, c := range g.subjectCards(o.Subject, src, tc) {
			if g.tickCountdown(c, o.Amount) {
				items = append(items, g.destroy(c))
			}
		}
		g.schedule(items...)
	case effects.Evolve:
		var items []rules.StackItem
		for _, c := range g.subjectCards(o.Subject, src, tc) {
			items = append(items, g.evolve(c, false))
		}
		g.schedule(items...)
	case effects.Register:
		reg := owner.effects
		if o.Holder == effects.HolderSelf {
			reg = src.effects
		}
		g.registerOn(reg, o.Effect, src)
	case effects.All:
		items := make([]rules.StackItem, 0, len(o.Ops))
		for _, child := range o.Ops {
			child := child
			items = append(items, g.step(string(child.Kind())+" "+src.Name, func() error {
				return g.perform(child, src, tc)
			}))
		}
		g.schedule(items...)
	default:
		return fmt.Errorf("%w: %T", effects.ErrUnknownOp, op)
	}
	return nil
}

// buff changes a monster's stats. A buff that drops defense to zero
// destroys a board monster.
func (g *Game) buff(c *Card, attack, defense int) {
	if !c.IsMonster() {
		return
	}
	c.Attack += attack
	if c.Attack < 0 {
		c.Attack = 0
	}
	c.Defense += defense
	if c.Defense <= 0 && c.OnBoard() {
		g.schedule(g.destroy(c))
	}
}

// grantAttackState only ever readies a monster further; it never takes
// back an attack already spent.
func grantAttackState(c *Card, state AttackState) {
	if !c.IsMonster() || !c.OnBoard() || c.AttackState == AttackAttacked {
		return
	}
	if state > c.AttackState {
		c.AttackState = state
	}
}

// tickCountdown lowers an amulet's countdown and reports whether it expired
// on the board.
func (g *Game) tickCountdown(c *Card, n int) bool {
	if c.Countdown == nil || !c.OnBoard() {
		return false
	}
	c.Countdown.Remove(n)
	g.logger.Debug("countdown", zap.String("card", c.String()), zap.Int("left", c.Countdown.Count))
	return c.Countdown.Expired()
}

// subjectCards resolves a subject to the cards an op applies to.
func (g *Game) subjectCards(s effects.Subject, src *Card, tc *triggerContext) []*Card {
	switch s {
	case effects.SubjectSelf:
		return []*Card{src}
	case effects.SubjectSubject:
		if tc != nil && tc.subject != nil {
			return []*Card{tc.subject}
		}
	case effects.SubjectTargets:
		var out []*Card
		if tc != nil {
			for _, t := range tc.targets {
				if c, ok := t.(*Card); ok {
					out = append(out, c)
				}
			}
		}
		return out
	case effects.SubjectFriendlyBoard:
		return src.Owner.Board.Cards()
	case effects.SubjectEnemyBoard:
		return g.opponent(src.Owner).Board.Cards()
	}
	return nil
}

// subjectPlayers resolves a subject to the players an op applies to.
func (g *Game) subjectPlayers(s effects.Subject, src *Card, tc *triggerContext) []*Player {
	switch s {
	case effects.SubjectOwner:
		return []*Player{src.Owner}
	case effects.SubjectOpponent:
		return []*Player{g.opponent(src.Owner)}
	case effects.SubjectTargets:
		var out []*Player
		if tc != nil {
			for _, t := range tc.targets {
				if p, ok := t.(*Player); ok {
					out = append(out, p)
				}
			}
		}
		return out
	}
	return nil
}
