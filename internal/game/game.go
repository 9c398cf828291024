package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/effects"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/expr"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/targeting"
)

// PlayerSetup describes one seat of a new game.
type PlayerSetup struct {
	Name     string
	Deck     []string
	Provider DecisionProvider
}

// Game is one match between two players. Its exported operations are safe to
// call from several goroutines; the engine releases the lock while a
// provider is deciding.
type Game struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	logger    *zap.Logger
	rules     RuleSet
	library   *carddef.Library
	players   [2]*Player
	turns     *rules.TurnManager
	lifecycle *rules.Lifecycle
	stack     *rules.StackManager
	bus       *rules.EventBus
	resolver  *targeting.Resolver
	rng       *rand.Rand
	seed      uint64
	cards     map[uint64]*Card

	winner     string
	overReason string
}

func newGame(id string, logger *zap.Logger, rs RuleSet, lib *carddef.Library, seats []PlayerSetup) (*Game, error) {
	if len(seats) != 2 {
		return nil, fmt.Errorf("a game needs exactly 2 players, got %d", len(seats))
	}
	if seats[0].Name == "" || seats[1].Name == "" {
		return nil, errors.New("player names are required")
	}
	if seats[0].Name == seats[1].Name {
		return nil, fmt.Errorf("player names must differ, both are %q", seats[0].Name)
	}
	for _, seat := range seats {
		if seat.Provider == nil {
			return nil, fmt.Errorf("player %s has no decision provider", seat.Name)
		}
		if err := lib.CheckDeck(seat.Deck); err != nil {
			return nil, fmt.Errorf("player %s: %w", seat.Name, err)
		}
	}

	seed := rs.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	g := &Game{
		ID:        id,
		CreatedAt: time.Now(),
		logger:    logger.With(zap.String("game_id", id)),
		rules:     rs,
		library:   lib,
		stack:     rules.NewStackManager(),
		bus:       rules.NewEventBus(),
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed:      seed,
		cards:     make(map[uint64]*Card),
	}
	g.resolver = targeting.NewResolver(g.logger)
	g.lifecycle = rules.NewLifecycle(func(from, to rules.GameState) {
		g.logger.Debug("game state changed", zap.String("from", string(from)), zap.String("to", string(to)))
	})
	for i, seat := range seats {
		g.players[i] = newPlayer(seat.Name, i, rs, seat.Provider)
	}
	g.turns = rules.NewTurnManager(seats[0].Name, seats[1].Name)

	for i, seat := range seats {
		p := g.players[i]
		for _, name := range seat.Deck {
			c, err := g.createCard(name, p, StateInDeck)
			if err != nil {
				return nil, err
			}
			p.Deck.Add(c)
		}
		p.Deck.Shuffle(g.rng)
	}
	return g, nil
}

// createCard builds an instance of name owned by owner. Cards born in the
// deck register their invocation effects immediately.
func (g *Game) createCard(name string, owner *Player, state CardState) (*Card, error) {
	def, err := g.library.Lookup(name)
	if err != nil {
		return nil, err
	}
	c := newCard(def, owner, state)
	g.cards[c.Index] = c
	owner.known = append(owner.known, c)
	if state == StateInDeck {
		g.registerInvocations(c)
	}
	return c, nil
}

func (g *Game) registerInvocations(c *Card) {
	if c.invocationsRegistered {
		return
	}
	c.invocationsRegistered = true
	for _, spec := range c.base.specs {
		if spec.IsInvocation() {
			g.registerOn(c.base.effects, spec, c)
		}
	}
}

// registerEffects arms a card's face effects once it leaves the deck.
func (g *Game) registerEffects(c *Card) {
	if c.effectsRegistered {
		return
	}
	c.effectsRegistered = true
	for _, face := range []*Face{c.base, c.evolved} {
		if face == nil {
			continue
		}
		for _, spec := range face.specs {
			if !spec.IsInvocation() {
				g.registerOn(face.effects, spec, c)
			}
		}
	}
}

// disarm drops everything a card returning to the deck holds, keeping only
// its invocations.
func (g *Game) disarm(c *Card) {
	for _, face := range []*Face{c.base, c.evolved} {
		if face != nil {
			face.effects = rules.NewRegistry()
		}
	}
	c.effects = rules.NewRegistry()
	c.effectsRegistered = false
	c.invocationsRegistered = false
	g.registerInvocations(c)
}

func (g *Game) registerOn(reg *rules.Registry, spec effects.Spec, source *Card) bool {
	e, err := rules.NewEffect(spec, source.Name, source)
	if err != nil {
		g.logger.Error("cannot register effect",
			zap.String("card", source.String()),
			zap.String("trigger", spec.Trigger),
			zap.Error(err),
		)
		return false
	}
	if !reg.Register(e) {
		g.logger.Debug("unstackable effect already held",
			zap.String("card", source.String()),
			zap.String("trigger", spec.Trigger),
		)
		return false
	}
	return true
}

// Seed returns the seed of the game's random source.
func (g *Game) Seed() uint64 { return g.seed }

// Events exposes the presentation event bus.
func (g *Game) Events() *rules.EventBus { return g.bus }

// Rules returns the rule set the game runs under.
func (g *Game) Rules() RuleSet { return g.rules }

// IsOver reports whether a player has lost.
func (g *Game) IsOver() bool { return g.lifecycle.IsOver() }

// Winner names the winning player, empty while the game runs or after an abort.
func (g *Game) Winner() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner
}

// Player returns the player in seat (0 or 1).
func (g *Game) Player(seat int) *Player { return g.players[seat] }

// PlayerByName looks a player up by name.
func (g *Game) PlayerByName(name string) (*Player, bool) {
	for _, p := range g.players {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// ActivePlayer returns the player whose turn it is.
func (g *Game) ActivePlayer() *Player { return g.players[g.turns.ActiveIndex()] }

// Turn returns the current turn number.
func (g *Game) Turn() int { return g.turns.TurnNumber() }

func (g *Game) opponent(p *Player) *Player { return g.players[1-p.Seat] }

// Card finds a card instance by index.
func (g *Game) Card(index uint64) (*Card, bool) {
	c, ok := g.cards[index]
	return c, ok
}

// candidate resolves a target key to a card or player.
func (g *Game) candidate(key string) (targeting.Candidate, bool) {
	for _, p := range g.players {
		if p.Key() == key {
			return p, true
		}
	}
	for _, c := range g.cards {
		if c.Key() == key {
			return c, true
		}
	}
	return nil, false
}

// lose ends the game with p as the loser. Later losses are ignored.
func (g *Game) lose(p *Player, reason string) {
	if g.IsOver() {
		return
	}
	p.Lost = true
	g.winner = g.opponent(p).Name
	g.overReason = reason
	if err := g.lifecycle.Finish(context.Background()); err != nil {
		g.logger.Error("cannot finish game", zap.Error(err))
	}
	g.logger.Info("game over",
		zap.String("winner", g.winner),
		zap.String("loser", p.Name),
		zap.String("reason", reason),
		zap.Int("turn", g.Turn()),
	)
	evt := g.event(rules.EventGameOver, p.Name, g.winner, p.Name)
	evt.Data = reason
	g.publish(evt)
}

// abort finishes the game without a winner.
func (g *Game) abort(reason string) {
	if g.IsOver() {
		return
	}
	g.overReason = reason
	if err := g.lifecycle.Finish(context.Background()); err != nil {
		g.logger.Error("cannot finish game", zap.Error(err))
	}
	evt := g.event(rules.EventGameOver, "", "", "")
	evt.Data = reason
	g.publish(evt)
}

func (g *Game) event(t rules.EventType, target, source, controller string) rules.Event {
	evt := rules.NewEvent(t, target, source, controller)
	evt.GameID = g.ID
	evt.Turn = g.turns.TurnNumber()
	return evt
}

func (g *Game) publish(evt rules.Event) {
	g.bus.Publish(evt)
}

// targeting.State

func (g *Game) BoardCandidates() []targeting.Candidate {
	var out []targeting.Candidate
	for _, p := range g.players {
		for _, c := range p.Board.cards {
			out = append(out, c)
		}
	}
	return out
}

func (g *Game) HandCandidates(player string) []targeting.Candidate {
	p, ok := g.PlayerByName(player)
	if !ok {
		return nil
	}
	out := make([]targeting.Candidate, 0, p.Hand.Len())
	for _, c := range p.Hand.cards {
		out = append(out, c)
	}
	return out
}

func (g *Game) PlayerCandidate(player string) targeting.Candidate {
	p, ok := g.PlayerByName(player)
	if !ok {
		return nil
	}
	return p
}

func (g *Game) OpponentOf(player string) string {
	p, ok := g.PlayerByName(player)
	if !ok {
		return ""
	}
	return g.opponent(p).Name
}

func (g *Game) TargetEnv(player string, candidate targeting.Candidate) expr.Env {
	p, _ := g.PlayerByName(player)
	return &env{g: g, owner: p, target: candidate}
}

// legalTargets resolves criteria for the owner of source.
func (g *Game) legalTargets(owner *Player, criteria []targeting.Criteria) []targeting.Candidate {
	if len(criteria) == 0 {
		return nil
	}
	return g.resolver.Resolve(owner.Name, criteria, g)
}
