package game

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// outside runs fn with the game lock released, for calls into providers.
func (g *Game) outside(fn func()) {
	g.mu.Unlock()
	defer g.mu.Lock()
	fn()
}

// deal draws the opening hands and runs the optional mulligan. Opening
// draws fire no triggers.
func (g *Game) deal(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.lifecycle.Deal(ctx); err != nil {
		return fmt.Errorf("deal: %w", err)
	}
	sizes := [2]int{g.rules.FirstHand, g.rules.SecondHand}
	for i, p := range g.players {
		for n := 0; n < sizes[i]; n++ {
			c, ok := p.Deck.DrawTop()
			if !ok {
				break
			}
			g.registerEffects(c)
			g.putInHand(c)
		}
	}
	// overflowing opening hands only happen with odd configurations
	if err := g.settle(); err != nil {
		return err
	}

	for _, p := range g.players {
		if err := g.mulligan(ctx, p); err != nil {
			return err
		}
	}
	if err := g.lifecycle.Begin(ctx); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	g.logger.Info("game started",
		zap.String("first", g.players[0].Name),
		zap.String("second", g.players[1].Name),
		zap.Uint64("seed", g.seed),
	)
	evt := g.event(rules.EventGameStarted, "", "", g.players[0].Name)
	evt.Data = fmt.Sprintf("seed=%d", g.seed)
	g.publish(evt)
	return nil
}

// mulligan lets p return opening cards to the deck and draw replacements.
func (g *Game) mulligan(ctx context.Context, p *Player) error {
	mp, ok := p.provider.(MulliganProvider)
	if !ok {
		return nil
	}
	req := MulliganRequest{GameID: g.ID, Player: p.Name, Hand: cardViews(p.Hand.cards)}
	var (
		picks []uint64
		err   error
	)
	g.outside(func() {
		picks, err = mp.RequestMulligan(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("mulligan from %s: %w", p.Name, err)
	}

	returned := 0
	for _, index := range picks {
		c, ok := g.cards[index]
		if !ok || c.Owner != p || !p.Hand.Remove(c) {
			continue
		}
		c.State = StateInDeck
		g.disarm(c)
		p.Deck.Add(c)
		returned++
	}
	if returned == 0 {
		return nil
	}
	p.Deck.Shuffle(g.rng)
	for i := 0; i < returned; i++ {
		c, ok := p.Deck.DrawTop()
		if !ok {
			break
		}
		g.registerEffects(c)
		g.putInHand(c)
	}
	g.publish(g.amountEvent(rules.EventMulligan, p.Name, "", p.Name, returned))
	return g.settle()
}

// startTurnSteps: draw, energy, ready the board, count amulets down,
// turn-start broadcast and the catch-up draw on the configured turn.
func (g *Game) startTurnSteps(p *Player) []rules.StackItem {
	turn := g.turns.TurnNumber()
	items := []rules.StackItem{
		g.drawStep(p),
		g.do("energy "+p.Name, func() {
			p.gainTotalEnergy(1, g.rules.MaxEnergy)
			p.Energy = p.TotalEnergy
		}),
		g.do("ready "+p.Name, func() {
			for _, c := range p.Board.Monsters() {
				c.AttackState = AttackStorm
			}
			p.HasEvolvedThisTurn = false
		}),
		g.do("countdown "+p.Name, func() {
			var expired []rules.StackItem
			for _, c := range p.Board.Amulets() {
				if g.tickCountdown(c, 1) {
					expired = append(expired, g.destroy(c))
				}
			}
			g.schedule(expired...)
		}),
		g.broadcast(rules.BroadcastTurnStart, p, &triggerContext{}),
	}
	if turn == g.rules.CatchUpTurn {
		items = append(items, g.drawStep(p))
	}
	return items
}

// endTurnSteps: friendly turn end on the board then the hand, the player's
// own registry, enemy turn end for the opponent, then bookkeeping.
func (g *Game) endTurnSteps(p *Player) []rules.StackItem {
	tc := &triggerContext{}
	items := []rules.StackItem{
		g.do("turn end "+p.Name, func() {
			var pops []rules.StackItem
			for _, zone := range [][]*Card{p.Board.Cards(), p.Hand.Cards()} {
				for _, c := range zone {
					c := c
					pops = append(pops, g.do(rules.OnFriendlyTurnEnd.String()+" "+c.String(), func() {
						if c.Owner == p && c.InZone() {
							g.firePop(c, rules.OnFriendlyTurnEnd, tc)
						}
					}))
				}
			}
			pops = append(pops, g.popPlayer(p, rules.OnFriendlyTurnEnd, tc))
			g.schedule(pops...)
		}),
		g.resolveAll(g.opponent(p), rules.OnEnemyTurnEnd, tc),
		g.do("close turn "+p.Name, func() {
			p.Invoked = nil
			p.TurnsPlayed++
		}),
	}
	return items
}

// StartTurn runs the start of the current turn.
func (g *Game) StartTurn(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.startTurn(ctx)
}

func (g *Game) startTurn(_ context.Context) error {
	if g.IsOver() {
		return ErrGameOver
	}
	if g.turns.CurrentPhase() != rules.PhaseStartTurn {
		return fmt.Errorf("start turn in phase %s", g.turns.CurrentPhase())
	}
	p := g.ActivePlayer()
	g.logger.Debug("turn started", zap.Int("turn", g.turns.TurnNumber()), zap.String("player", p.Name))
	g.publish(g.event(rules.EventTurnStarted, p.Name, "", p.Name))

	g.schedule(g.startTurnSteps(p)...)
	if err := g.settle(); err != nil {
		return err
	}
	if !g.IsOver() {
		g.turns.AdvancePhase()
	}
	return nil
}

// EndTurn ends the active player's turn and starts the opponent's.
func (g *Game) EndTurn(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.endTurn(ctx)
}

func (g *Game) endTurn(ctx context.Context) error {
	if g.IsOver() {
		return ErrGameOver
	}
	if g.turns.CurrentPhase() != rules.PhaseActionLoop {
		return fmt.Errorf("end turn in phase %s", g.turns.CurrentPhase())
	}
	p := g.ActivePlayer()
	g.turns.AdvancePhase()
	g.schedule(g.endTurnSteps(p)...)
	if err := g.settle(); err != nil {
		return err
	}
	g.publish(g.event(rules.EventTurnEnded, p.Name, "", p.Name))
	if g.IsOver() {
		return nil
	}
	g.turns.AdvancePhase()
	return g.startTurn(ctx)
}

// Perform validates and resolves one action of player. Illegal actions
// return an *IllegalActionError and change nothing.
func (g *Game) Perform(ctx context.Context, player string, a Action) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.PlayerByName(player)
	if !ok {
		return fmt.Errorf("%w: no player %q", ErrUnknownAction, player)
	}
	res := g.checkAction(p, a)
	if !res.Legal {
		evt := g.event(rules.EventActionRejected, "", "", p.Name)
		evt.Data = string(a.Kind)
		evt.Description = res.Reason
		g.publish(evt)
		return illegal(p.Name, a, res)
	}

	switch a.Kind {
	case ActionEndTurn:
		return g.endTurn(ctx)
	case ActionPlay:
		g.playCard(ctx, p, g.cards[a.Card], a.Mode)
	case ActionAttack:
		target, _ := g.candidate(a.Target)
		g.schedule(g.attack(g.cards[a.Card], target))
	case ActionEvolve:
		g.schedule(g.evolve(g.cards[a.Card], true))
	}
	return g.settle()
}

// Run plays the game to the end, asking each seat's provider for actions.
// It returns nil once a player has lost; provider failures and cancelled
// contexts abort the game and are returned.
func (g *Game) Run(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			g.mu.Lock()
			g.abort(err.Error())
			g.mu.Unlock()
		}
	}()

	g.mu.Lock()
	needStart := g.turns.TurnNumber() == 1 && g.turns.CurrentPhase() == rules.PhaseStartTurn
	g.mu.Unlock()
	if needStart {
		if err := g.StartTurn(ctx); err != nil && !errors.Is(err, ErrGameOver) {
			return err
		}
	}

	rejected := ""
	rejections := 0
	for !g.IsOver() {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.mu.Lock()
		p := g.ActivePlayer()
		req := g.actionRequest(p, rejected)
		g.mu.Unlock()

		action, err := p.provider.RequestAction(ctx, req)
		if err != nil {
			if g.IsOver() {
				// conceded or ended while the player was deciding
				return nil
			}
			return fmt.Errorf("request action from %s: %w", p.Name, err)
		}

		err = g.Perform(ctx, p.Name, action)
		var illegalErr *IllegalActionError
		switch {
		case errors.As(err, &illegalErr):
			rejections++
			rejected = illegalErr.Reason
			g.logger.Info("action rejected",
				zap.String("player", p.Name),
				zap.String("action", string(action.Kind)),
				zap.String("reason", illegalErr.Reason),
			)
			if rejections >= g.maxRejections() {
				g.logger.Warn("too many rejected actions, ending turn", zap.String("player", p.Name))
				rejected, rejections = "", 0
				if err := g.Perform(ctx, p.Name, EndTurn()); err != nil && !errors.Is(err, ErrGameOver) {
					return err
				}
			}
		case errors.Is(err, ErrGameOver):
			return nil
		case err != nil && g.IsOver():
			return nil
		case err != nil:
			return err
		default:
			rejected, rejections = "", 0
		}
	}
	return nil
}

// actionRequest builds the request for p under the game lock.
func (g *Game) actionRequest(p *Player, rejected string) ActionRequest {
	return ActionRequest{
		GameID:   g.ID,
		Player:   p.Name,
		Turn:     g.turns.TurnNumber(),
		View:     g.view(p.Seat),
		Plays:    g.playOptions(p),
		Attacks:  g.attackOptions(p),
		Evolves:  g.evolveOptions(p),
		Rejected: rejected,
	}
}

// LegalActions returns the request p would receive now.
func (g *Game) LegalActions(player string) (ActionRequest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.PlayerByName(player)
	if !ok {
		return ActionRequest{}, fmt.Errorf("no player %q", player)
	}
	return g.actionRequest(p, ""), nil
}
