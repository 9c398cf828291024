package game

import (
	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/targeting"
)

// attack schedules the combat sequence for a validated attack.
func (g *Game) attack(attacker *Card, target targeting.Candidate) rules.StackItem {
	switch t := target.(type) {
	case *Player:
		return g.attackLeader(attacker, t)
	case *Card:
		return g.clash(attacker, t)
	}
	return g.do("attack", func() {})
}

// attackLeader: onAttacking, the attacking broadcast, onLeaderClashing,
// damage to the player, onDealtDamage, drain, then the attack is spent.
func (g *Game) attackLeader(att *Card, enemy *Player) rules.StackItem {
	return g.do("attack "+att.String()+" -> "+enemy.Name, func() {
		owner := att.Owner
		g.logger.Debug("attack leader", zap.String("attacker", att.String()), zap.String("player", enemy.Name))
		g.publish(g.amountEvent(rules.EventAttack, enemy.Key(), att.Key(), owner.Name, att.Attack))

		tc := &triggerContext{subject: att}
		g.schedule(
			g.popCard(att, rules.OnAttacking, tc),
			g.broadcast(rules.BroadcastCardAttacking, owner, tc),
			g.popCard(att, rules.OnLeaderClashing, tc),
			g.do("strike "+enemy.Name, func() {
				tc.amount = g.damagePlayer(enemy, att.Attack, att.Name)
			}),
			g.popCard(att, rules.OnDealtDamage, tc),
			g.do("drain "+att.String(), func() { g.drain(att, tc.amount) }),
			g.do("spent "+att.String(), func() { att.AttackState = AttackAttacked }),
		)
	})
}

// clash resolves a monster attacking a monster. Damage is always exchanged
// both ways, and each side's destruction is checked even if the other side
// already died.
func (g *Game) clash(att, def *Card) rules.StackItem {
	return g.do("clash "+att.String()+" -> "+def.String(), func() {
		owner := att.Owner
		g.logger.Debug("clash", zap.String("attacker", att.String()), zap.String("defender", def.String()))
		g.publish(g.amountEvent(rules.EventAttack, def.Key(), att.Key(), owner.Name, att.Attack))

		atc := &triggerContext{subject: def}
		dtc := &triggerContext{subject: att}
		g.schedule(
			g.popCard(att, rules.OnAttacking, atc),
			g.broadcast(rules.BroadcastCardAttacking, owner, atc),
			g.popCard(att, rules.OnClashing, atc),
			g.popCard(def, rules.OnClashing, dtc),

			// attacker strikes
			g.do("strike "+def.String(), func() {
				atc.amount = g.damageCard(def, att.Attack, att.Name)
			}),
			g.popCard(att, rules.OnDealtDamage, atc),
			g.do("drain "+att.String(), func() { g.drain(att, atc.amount) }),
			g.do("took damage "+def.String(), func() {
				dtc.amount = atc.amount
				g.firePop(def, rules.OnTookDamage, dtc)
			}),
			g.do("bane "+att.String(), func() {
				if att.HasAbility(carddef.AbilityBane) && def.OnBoard() {
					g.schedule(g.destroy(def))
				}
			}),

			// defender strikes back
			g.do("strike back "+att.String(), func() {
				dtc.amount = g.damageCard(att, def.Attack, def.Name)
			}),
			g.popCard(def, rules.OnDealtDamage, dtc),
			g.do("took damage "+att.String(), func() {
				atc.amount = dtc.amount
				g.firePop(att, rules.OnTookDamage, atc)
			}),
			g.do("bane "+def.String(), func() {
				if def.HasAbility(carddef.AbilityBane) && att.OnBoard() {
					g.schedule(g.destroy(att))
				}
			}),
			g.do("spent "+att.String(), func() {
				att.AttackState = g.rules.ClashEndState
			}),
		)
	})
}

// drain heals the attacker's owner by the damage it dealt.
func (g *Game) drain(att *Card, dealt int) {
	if dealt <= 0 || !att.HasAbility(carddef.AbilityDrain) {
		return
	}
	g.healPlayer(att.Owner, dealt, att.Name)
}
