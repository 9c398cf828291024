package game

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/effects"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/targeting"
)

// checkAction validates a from p without changing anything.
func (g *Game) checkAction(p *Player, a Action) rules.LegalityResult {
	if g.IsOver() {
		return rules.Illegal(rules.ReasonGameOver)
	}
	if g.lifecycle.State() != rules.GameStateInTurn || g.ActivePlayer() != p {
		return rules.Illegal(rules.ReasonNotYourTurn, "player", p.Name)
	}
	switch a.Kind {
	case ActionEndTurn:
		return rules.Legal()
	case ActionPlay:
		c, ok := g.cards[a.Card]
		if !ok {
			return rules.Illegal(rules.ReasonNotInHand, "card", strconv.FormatUint(a.Card, 10))
		}
		return g.checkPlay(p, c, a.Mode)
	case ActionAttack:
		c, ok := g.cards[a.Card]
		if !ok {
			return rules.Illegal(rules.ReasonNotOnBoard, "card", strconv.FormatUint(a.Card, 10))
		}
		return g.checkAttack(p, c, a.Target)
	case ActionEvolve:
		c, ok := g.cards[a.Card]
		if !ok {
			return rules.Illegal(rules.ReasonNotOnBoard, "card", strconv.FormatUint(a.Card, 10))
		}
		return g.checkEvolve(p, c)
	}
	return rules.Illegal(rules.ReasonUnknownAction, "kind", string(a.Kind))
}

// checkPlay applies the per-mode play rules.
func (g *Game) checkPlay(p *Player, c *Card, mode PlayMode) rules.LegalityResult {
	if c.Owner != p || !c.InHand() || !p.Hand.Contains(c) {
		return rules.Illegal(rules.ReasonNotInHand, "card", c.String())
	}
	def := c.Def
	switch mode {
	case ModeNormal, "":
		if p.Energy < c.Cost {
			return rules.Illegal(rules.ReasonInsufficientEnergy, "cost", strconv.Itoa(c.Cost))
		}
		return g.checkPlacement(p, c)
	case ModeAccelerate:
		accel := def.Accelerate
		if accel == nil || p.Energy >= c.Cost {
			return rules.Illegal(rules.ReasonModeUnavailable, "mode", string(mode))
		}
		if p.Energy < accel.Cost {
			return rules.Illegal(rules.ReasonInsufficientEnergy, "cost", strconv.Itoa(accel.Cost))
		}
		if len(accel.Targets) > 0 && len(g.targetsBesides(p, c, accel.Targets)) == 0 {
			return rules.Illegal(rules.ReasonNoTargets, "card", c.String())
		}
		return rules.Legal()
	case ModeEnhance:
		if def.Enhance == nil {
			return rules.Illegal(rules.ReasonModeUnavailable, "mode", string(mode))
		}
		if p.Energy < def.Enhance.Cost {
			return rules.Illegal(rules.ReasonInsufficientEnergy, "cost", strconv.Itoa(def.Enhance.Cost))
		}
		return g.checkPlacement(p, c)
	}
	return rules.Illegal(rules.ReasonModeUnavailable, "mode", string(mode))
}

// checkPlacement: permanents need board space, targeted spells need a target.
func (g *Game) checkPlacement(p *Player, c *Card) rules.LegalityResult {
	if !c.IsSpell() && !p.Board.HasSpace() {
		return rules.Illegal(rules.ReasonBoardFull)
	}
	if c.IsSpell() && len(c.Def.Base.Targets) > 0 && len(g.targetsBesides(p, c, c.Def.Base.Targets)) == 0 {
		return rules.Illegal(rules.ReasonNoTargets, "card", c.String())
	}
	return rules.Legal()
}

// targetsBesides is legalTargets without c, which leaves the hand before
// its targets are chosen.
func (g *Game) targetsBesides(p *Player, c *Card, criteria []targeting.Criteria) []targeting.Candidate {
	var out []targeting.Candidate
	for _, cand := range g.legalTargets(p, criteria) {
		if cand.TargetKey() != c.Key() {
			out = append(out, cand)
		}
	}
	return out
}

// CanPlayCard reports whether c can leave p's hand in any mode.
func (g *Game) CanPlayCard(p *Player, c *Card) bool {
	for _, mode := range []PlayMode{ModeNormal, ModeAccelerate, ModeEnhance} {
		if g.checkPlay(p, c, mode).Legal {
			return true
		}
	}
	return false
}

func (g *Game) checkAttack(p *Player, c *Card, target string) rules.LegalityResult {
	if c.Owner != p || !p.Board.Contains(c) {
		return rules.Illegal(rules.ReasonNotOnBoard, "card", c.String())
	}
	if !c.IsMonster() {
		return rules.Illegal(rules.ReasonNotMonster, "card", c.String())
	}
	enemy := g.opponent(p)
	cand, ok := g.candidate(target)
	if !ok {
		return rules.Illegal(rules.ReasonInvalidTarget, "target", target)
	}
	switch t := cand.(type) {
	case *Player:
		if t != enemy {
			return rules.Illegal(rules.ReasonInvalidTarget, "target", target)
		}
		if !c.CanAttackLeader() {
			return rules.Illegal(rules.ReasonCannotAttackLeader, "card", c.String())
		}
	case *Card:
		if t.Owner != enemy || !t.IsMonster() || !enemy.Board.Contains(t) {
			return rules.Illegal(rules.ReasonInvalidTarget, "target", target)
		}
		if !c.CanAttack() {
			return rules.Illegal(rules.ReasonCannotAttack, "card", c.String(), "state", c.AttackState.String())
		}
	}
	return rules.Legal()
}

// evolveAvailable covers the per-player half of the evolve rule.
func (g *Game) evolveAvailable(p *Player) bool {
	return p.TurnsPlayed >= g.rules.EvolveAfterTurns && !p.HasEvolvedThisTurn && p.EvolutionPoints > 0
}

func (g *Game) checkEvolve(p *Player, c *Card) rules.LegalityResult {
	if c.Owner != p || !p.Board.Contains(c) {
		return rules.Illegal(rules.ReasonNotOnBoard, "card", c.String())
	}
	if !c.IsMonster() {
		return rules.Illegal(rules.ReasonNotMonster, "card", c.String())
	}
	if c.Evolved {
		return rules.Illegal(rules.ReasonAlreadyEvolved, "card", c.String())
	}
	if !g.evolveAvailable(p) {
		return rules.Illegal(rules.ReasonEvolveUnavailable,
			"turns_played", strconv.Itoa(p.TurnsPlayed),
			"points", strconv.Itoa(p.EvolutionPoints))
	}
	return rules.Legal()
}

// playCard pays for c, takes it out of the hand and schedules its play
// sequence.
func (g *Game) playCard(ctx context.Context, p *Player, c *Card, mode PlayMode) {
	if mode == "" {
		mode = ModeNormal
	}
	cost := c.Cost
	switch mode {
	case ModeAccelerate:
		cost = c.Def.Accelerate.Cost
	case ModeEnhance:
		cost = c.Def.Enhance.Cost
	}
	p.spendEnergy(cost)
	p.Hand.Remove(c)
	g.registerEffects(c)

	g.logger.Debug("card played",
		zap.String("player", p.Name),
		zap.String("card", c.String()),
		zap.String("mode", string(mode)),
		zap.Int("cost", cost),
	)
	evt := g.amountEvent(rules.EventCardPlayed, c.Key(), c.Name, p.Name, cost)
	evt.Data = string(mode)
	g.publish(evt)

	tc := &triggerContext{subject: c}
	switch {
	case mode == ModeAccelerate:
		g.schedule(g.accelerateSteps(ctx, p, c, tc)...)
	case c.IsSpell():
		g.schedule(g.spellSteps(ctx, p, c, tc)...)
	default:
		g.schedule(g.permanentSteps(ctx, p, c, mode == ModeEnhance, tc)...)
	}
}

func (g *Game) permanentSteps(ctx context.Context, p *Player, c *Card, enhance bool, tc *triggerContext) []rules.StackItem {
	items := []rules.StackItem{
		g.do("enter "+c.String(), func() {
			if !g.enterBoard(c) {
				// the board filled up between the check and the step
				g.discarded(c)
				return
			}
			if enhance {
				g.applyEnhance(c)
			}
		}),
	}
	if len(c.Def.Base.Targets) > 0 {
		items = append(items, g.chooseTargets(ctx, p, c, c.Def.Base.Targets, c.Def.BaseTargetCount(), tc))
	}
	items = append(items,
		g.popCard(c, rules.OnPlayed, tc),
		g.popIfTargeted(c, rules.OnTargetsChosen, tc, c.registries()...),
	)
	if enhance {
		items = append(items, g.popCard(c, rules.OnEnhanced, tc))
	}
	items = append(items,
		g.popCard(c, rules.OnEntersBoard, tc),
		g.broadcast(rules.BroadcastCardPlayed, p, tc),
		g.broadcast(rules.BroadcastCardEntersBattlefield, p, tc),
	)
	return items
}

func (g *Game) applyEnhance(c *Card) {
	enh := c.Def.Enhance
	c.enhanced = true
	if c.IsMonster() {
		if enh.Attack != nil {
			c.Attack = *enh.Attack
		}
		if enh.Defense != nil {
			c.Defense = *enh.Defense
		}
	}
	for _, spec := range enh.Effects {
		g.registerOn(c.effects, spec, c)
	}
}

func (g *Game) spellSteps(ctx context.Context, p *Player, c *Card, tc *triggerContext) []rules.StackItem {
	items := []rules.StackItem{
		g.do("cast "+c.String(), func() { c.State = StateResolving }),
	}
	if len(c.Def.Base.Targets) > 0 {
		items = append(items, g.chooseTargets(ctx, p, c, c.Def.Base.Targets, c.Def.BaseTargetCount(), tc))
	}
	return append(items,
		g.popCard(c, rules.OnPlayed, tc),
		g.popIfTargeted(c, rules.OnTargetsChosen, tc, c.registries()...),
		g.do("spent "+c.String(), func() {
			c.State = StateDestroyed
			g.gainShadows(p, 1, c)
		}),
		g.broadcast(rules.BroadcastCardPlayed, p, tc),
	)
}

// accelerateSteps play a monster as a spell. Only the accelerate effects,
// which live on the card itself, answer its triggers.
func (g *Game) accelerateSteps(ctx context.Context, p *Player, c *Card, tc *triggerContext) []rules.StackItem {
	accel := c.Def.Accelerate
	items := []rules.StackItem{
		g.do("accelerate "+c.String(), func() {
			c.State = StateResolving
			g.gainShadows(p, 1, c)
			for _, spec := range accel.Effects {
				g.registerOn(c.effects, spec, c)
			}
		}),
	}
	if len(accel.Targets) > 0 {
		items = append(items, g.chooseTargets(ctx, p, c, accel.Targets, c.Def.AccelerateTargetCount(), tc))
	}
	return append(items,
		g.popOn(c.String(), c.effects, rules.OnPlayed, tc),
		g.popIfTargeted(c, rules.OnTargetsChosen, tc, c.effects),
		g.popOn(c.String(), c.effects, rules.OnAccelerated, tc),
		g.do("spent "+c.String(), func() { c.State = StateDestroyed }),
		g.broadcast(rules.BroadcastCardPlayed, p, tc),
	)
}

// popOn fires t on a single registry.
func (g *Game) popOn(label string, reg *rules.Registry, t rules.Trigger, tc *triggerContext) rules.StackItem {
	return g.do(t.String()+" "+label, func() {
		var items []rules.StackItem
		reg.Pop(t, func(e *rules.Effect) {
			items = append(items, g.effectItem(e, tc))
		})
		g.schedule(items...)
	})
}

// popIfTargeted fires t only when targets were chosen.
func (g *Game) popIfTargeted(c *Card, t rules.Trigger, tc *triggerContext, regs ...*rules.Registry) rules.StackItem {
	return g.do(t.String()+" "+c.String(), func() {
		if len(tc.targets) == 0 {
			return
		}
		var items []rules.StackItem
		for _, reg := range regs {
			reg.Pop(t, func(e *rules.Effect) {
				items = append(items, g.effectItem(e, tc))
			})
		}
		g.schedule(items...)
	})
}

// chooseTargets asks p to pick count targets among the legal candidates and
// stores them in tc. When there are no more candidates than needed they are
// all taken without asking. Invalid answers are re-requested up to the
// rejection limit, after which the first candidates are used.
func (g *Game) chooseTargets(ctx context.Context, p *Player, c *Card, criteria []targeting.Criteria, count int, tc *triggerContext) rules.StackItem {
	return g.step("targets "+c.String(), func() error {
		candidates := g.legalTargets(p, criteria)
		if len(candidates) == 0 {
			return nil
		}
		if len(candidates) <= count {
			tc.targets = candidates
			return nil
		}

		req := TargetRequest{
			GameID:     g.ID,
			Player:     p.Name,
			Source:     c.Index,
			SourceName: c.Name,
			Count:      count,
		}
		for _, cand := range candidates {
			req.Candidates = append(req.Candidates, TargetOption{Key: cand.TargetKey(), Label: g.label(cand)})
		}
		for attempt := 0; attempt < g.maxRejections(); attempt++ {
			req.View = g.view(p.Seat)
			var (
				keys []string
				err  error
			)
			g.outside(func() {
				keys, err = p.provider.RequestTargets(ctx, req)
			})
			if err != nil {
				return fmt.Errorf("request targets from %s: %w", p.Name, err)
			}
			chosen, err := targeting.CheckSelection(candidates, keys, count)
			if err == nil {
				tc.targets = chosen
				return nil
			}
			req.Rejected = err.Error()
			g.logger.Info("target choice rejected", zap.String("player", p.Name), zap.Error(err))
			evt := g.event(rules.EventActionRejected, c.Key(), c.Name, p.Name)
			evt.Data = err.Error()
			g.publish(evt)
		}
		tc.targets = candidates[:count]
		return nil
	})
}

func (g *Game) maxRejections() int {
	if g.rules.MaxRejections <= 0 {
		return 1
	}
	return g.rules.MaxRejections
}

func (g *Game) label(cand targeting.Candidate) string {
	switch t := cand.(type) {
	case *Card:
		return fmt.Sprintf("%s (%s)", t.Name, t.Owner.Name)
	case *Player:
		return t.Name
	}
	return cand.TargetKey()
}

// playOptions lists every legal play for p.
func (g *Game) playOptions(p *Player) []PlayOption {
	var out []PlayOption
	for _, c := range p.Hand.cards {
		if g.checkPlay(p, c, ModeNormal).Legal {
			out = append(out, PlayOption{Card: c.Index, Name: c.Name, Mode: ModeNormal, Cost: c.Cost})
		}
		if g.checkPlay(p, c, ModeAccelerate).Legal {
			out = append(out, PlayOption{Card: c.Index, Name: c.Name, Mode: ModeAccelerate, Cost: c.Def.Accelerate.Cost})
		}
		if g.checkPlay(p, c, ModeEnhance).Legal {
			out = append(out, PlayOption{Card: c.Index, Name: c.Name, Mode: ModeEnhance, Cost: c.Def.Enhance.Cost})
		}
	}
	return out
}

// attackOptions lists every ready attacker with the targets it may hit.
func (g *Game) attackOptions(p *Player) []AttackOption {
	enemy := g.opponent(p)
	var out []AttackOption
	for _, c := range p.Board.Monsters() {
		if !c.CanAttack() {
			continue
		}
		opt := AttackOption{Card: c.Index, Name: c.Name}
		if c.CanAttackLeader() {
			opt.Targets = append(opt.Targets, enemy.Key())
		}
		for _, m := range enemy.Board.Monsters() {
			opt.Targets = append(opt.Targets, m.Key())
		}
		if len(opt.Targets) > 0 {
			out = append(out, opt)
		}
	}
	return out
}

func (g *Game) evolveOptions(p *Player) []EvolveOption {
	if !g.evolveAvailable(p) {
		return nil
	}
	var out []EvolveOption
	for _, c := range p.Board.Monsters() {
		if c.CanEvolve() {
			out = append(out, EvolveOption{Card: c.Index, Name: c.Name})
		}
	}
	return out
}

// effectSpecs is used by views to describe a face.
func effectSpecs(specs []effects.Spec) []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		if s.Effect != nil {
			out = append(out, s.Trigger+": "+string(s.Effect.Kind()))
		}
	}
	return out
}
