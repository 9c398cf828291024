package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// HarnessLibrary is the card set scenario tests play with.
const HarnessLibrary = `{
  "Filler":  {"Cost": 1, "Type": "Monster", "Base": {"Attack": 1, "Defense": 1}},
  "Fighter": {"Cost": 2, "Type": "Monster", "Base": {"Attack": 2, "Defense": 2}},
  "Glass":   {"Cost": 2, "Type": "Monster", "Base": {"Attack": 3, "Defense": 1}},
  "Stormer": {"Cost": 2, "Type": "Monster", "Abilities": ["Storm"], "Base": {"Attack": 2, "Defense": 2}},
  "Rusher":  {"Cost": 2, "Type": "Monster", "Abilities": ["Rush"], "Base": {"Attack": 2, "Defense": 1}},
  "Drainer": {"Cost": 2, "Type": "Monster", "Abilities": ["Drain"], "Base": {"Attack": 2, "Defense": 3}},
  "Baner":   {"Cost": 2, "Type": "Monster", "Abilities": ["Bane"], "Base": {"Attack": 1, "Defense": 3}},
  "Wall":    {"Cost": 3, "Type": "Monster", "Base": {"Attack": 0, "Defense": 9}},
  "Bolt": {
    "Cost": 1, "Type": "Spell",
    "Base": {
      "Targets": [{"Type": "Monster", "Location": "onEnemyBoard"}],
      "Effects": [{"Trigger": "onTargetsChosen", "Effect": {"Op": "Damage", "Amount": 3}}]
    }
  },
  "Insight": {
    "Cost": 0, "Type": "Spell",
    "Base": {"Effects": [{"Trigger": "onPlayed", "Effect": {"Op": "Draw"}}]}
  },
  "Oracle": {
    "Cost": 0, "Type": "Spell",
    "Base": {"Effects": [{"Trigger": "onPlayed", "Test": "owner.nonsense > 1", "Effect": {"Op": "Draw"}}]}
  },
  "Hourglass": {
    "Cost": 1, "Type": "Amulet",
    "Base": {"Countdown": 2, "Effects": [{"Trigger": "onDestroyed", "Effect": {"Op": "Draw"}}]}
  },
  "Watcher": {
    "Cost": 1, "Type": "Amulet",
    "Base": {"Effects": [{"Trigger": "onFriendlyCardPlayed", "Amount": 2, "Effect": {"Op": "GainShadows", "Amount": 1}}]}
  },
  "Totem": {
    "Cost": 0, "Type": "Spell",
    "Base": {"Effects": [{"Trigger": "onPlayed", "Effect": {
      "Op": "Register", "Holder": "Owner",
      "Effect": {"Trigger": "onFriendlyTurnEnd", "Unstackable": true, "Effect": {"Op": "GainShadows", "Amount": 1}}
    }}]}
  },
  "Herald": {
    "Cost": 1, "Type": "Monster",
    "Base": {
      "Attack": 1, "Defense": 1,
      "Effects": [
        {"Trigger": "onPlayed", "Effect": {"Op": "Summon", "Names": ["Squire"]}},
        {"Trigger": "onPlayed", "Effect": {"Op": "GainShadows", "Amount": 1}}
      ]
    }
  },
  "Squire": {
    "Cost": 1, "Type": "Monster",
    "Base": {
      "Attack": 1, "Defense": 1,
      "Effects": [{"Trigger": "onSummoned", "Effect": {"Op": "GainShadows", "Amount": 1}}]
    }
  },
  "Reaper": {
    "Cost": 2, "Type": "Monster",
    "Base": {
      "Attack": 2, "Defense": 2,
      "Effects": [{"Trigger": "onPlayed", "Effect": {"Op": "Necromancy", "Shadows": 2, "Then": {"Op": "Buff", "Attack": 2, "Defense": 2}}}]
    }
  },
  "Summoner": {
    "Cost": 6, "Type": "Monster",
    "Base": {
      "Attack": 5, "Defense": 5,
      "Effects": [{"Trigger": "onFriendlyTurnStart", "Type": "Invocation", "Test": "owner.shadows >= 3", "Effect": {"Op": "Invoke"}}]
    }
  },
  "Minthe": {
    "Cost": 3, "Type": "Monster",
    "Base": {
      "Attack": 3, "Defense": 2,
      "Effects": [{"Trigger": "onPlayed", "Effect": {"Op": "GainShadows", "Amount": 5}}]
    },
    "Accelerate": {"Cost": 1, "Effects": [{"Trigger": "onAccelerated", "Effect": {"Op": "Draw"}}]},
    "Enhance": {"Cost": 5, "Attack": 5, "Defense": 5, "Effects": [{"Trigger": "onEnhanced", "Effect": {"Op": "Draw", "Count": 2}}]}
  },
  "Evolver": {
    "Cost": 2, "Type": "Monster",
    "Base": {"Attack": 2, "Defense": 2},
    "Evolve": {"Effects": [{"Trigger": "onEvolved", "Effect": {"Op": "Damage", "Subject": "Opponent", "Amount": 1}}]}
  }
}`

// ScriptedProvider answers from queues. An empty action queue ends the
// turn; an empty target queue picks the first candidates.
type ScriptedProvider struct {
	mu       sync.Mutex
	actions  []Action
	targets  [][]string
	mulligan []uint64

	ActionRequests []ActionRequest
	TargetRequests []TargetRequest
}

// QueueActions appends actions to answer with.
func (p *ScriptedProvider) QueueActions(actions ...Action) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, actions...)
}

// QueueTargets appends one target answer.
func (p *ScriptedProvider) QueueTargets(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets = append(p.targets, keys)
}

// SetMulligan sets the card indices returned during the mulligan.
func (p *ScriptedProvider) SetMulligan(indices ...uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mulligan = indices
}

// RequestAction implements DecisionProvider.
func (p *ScriptedProvider) RequestAction(_ context.Context, req ActionRequest) (Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ActionRequests = append(p.ActionRequests, req)
	if len(p.actions) == 0 {
		return EndTurn(), nil
	}
	a := p.actions[0]
	p.actions = p.actions[1:]
	return a, nil
}

// RequestTargets implements DecisionProvider.
func (p *ScriptedProvider) RequestTargets(_ context.Context, req TargetRequest) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TargetRequests = append(p.TargetRequests, req)
	if len(p.targets) > 0 {
		keys := p.targets[0]
		p.targets = p.targets[1:]
		return keys, nil
	}
	keys := make([]string, 0, req.Count)
	for i := 0; i < req.Count && i < len(req.Candidates); i++ {
		keys = append(keys, req.Candidates[i].Key)
	}
	return keys, nil
}

// RequestMulligan implements MulliganProvider.
func (p *ScriptedProvider) RequestMulligan(_ context.Context, _ MulliganRequest) ([]uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mulligan, nil
}

// GameHarness builds games over HarnessLibrary with scripted seats and
// records every published event.
type GameHarness struct {
	t         *testing.T
	ctx       context.Context
	Engine    *Engine
	Game      *Game
	Providers [2]*ScriptedProvider

	mu     sync.Mutex
	events []rules.Event
}

// HarnessOptions tunes a harness game.
type HarnessOptions struct {
	Rules *RuleSet
	// Decks default to twenty Filler cards each.
	Decks [2][]string
	// Library adds definitions to HarnessLibrary.
	Library string
	// Prepare runs on the providers before the opening deal.
	Prepare func(first, second *ScriptedProvider)
}

// NewHarnessLibrary builds HarnessLibrary plus extra definitions.
func NewHarnessLibrary(t *testing.T, extra string) *carddef.Library {
	t.Helper()
	entries, err := carddef.SplitDocument([]byte(HarnessLibrary))
	if err != nil {
		t.Fatalf("harness library: %v", err)
	}
	if extra != "" {
		more, err := carddef.SplitDocument([]byte(extra))
		if err != nil {
			t.Fatalf("extra library: %v", err)
		}
		entries = append(entries, more...)
	}
	lib, rejected := carddef.Build(entries, zaptest.NewLogger(t))
	if len(rejected) > 0 {
		t.Fatalf("harness library rejected definitions: %v", rejected)
	}
	return lib
}

// NewGameHarness starts a game between "alice" (first) and "bob".
// The first turn has not started yet.
func NewGameHarness(t *testing.T, opts HarnessOptions) *GameHarness {
	t.Helper()
	rs := DefaultRuleSet()
	rs.Seed = 42
	if opts.Rules != nil {
		rs = *opts.Rules
	}
	for i := range opts.Decks {
		if opts.Decks[i] == nil {
			opts.Decks[i] = Repeat("Filler", 20)
		}
	}

	h := &GameHarness{
		t:         t,
		ctx:       context.Background(),
		Providers: [2]*ScriptedProvider{{}, {}},
	}
	if opts.Prepare != nil {
		opts.Prepare(h.Providers[0], h.Providers[1])
	}
	h.Engine = NewEngine(zaptest.NewLogger(t), NewHarnessLibrary(t, opts.Library), rs)
	h.Engine.Subscribe(h.record)

	g, err := h.Engine.StartGame(h.ctx, "harness", []PlayerSetup{
		{Name: "alice", Deck: opts.Decks[0], Provider: h.Providers[0]},
		{Name: "bob", Deck: opts.Decks[1], Provider: h.Providers[1]},
	})
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	h.Game = g
	return h
}

// Repeat returns a deck of n copies of name.
func Repeat(name string, n int) []string {
	deck := make([]string, n)
	for i := range deck {
		deck[i] = name
	}
	return deck
}

func (h *GameHarness) record(evt rules.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
}

// Events returns the recorded events of type t, or all of them when t is empty.
func (h *GameHarness) Events(t rules.EventType) []rules.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []rules.Event
	for _, evt := range h.events {
		if t == "" || evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

// Player returns the player in seat.
func (h *GameHarness) Player(seat int) *Player {
	return h.Game.Player(seat)
}

// StartTurn runs the start of the current turn.
func (h *GameHarness) StartTurn() {
	h.t.Helper()
	if err := h.Game.StartTurn(h.ctx); err != nil {
		h.t.Fatalf("start turn: %v", err)
	}
}

// Do performs an action for the player in seat.
func (h *GameHarness) Do(seat int, a Action) error {
	return h.Game.Perform(h.ctx, h.Player(seat).Name, a)
}

// MustDo performs an action that has to be legal.
func (h *GameHarness) MustDo(seat int, a Action) {
	h.t.Helper()
	if err := h.Do(seat, a); err != nil {
		h.t.Fatalf("%s by seat %d: %v", a.Kind, seat, err)
	}
}

// SetEnergy fills the seat's energy to n.
func (h *GameHarness) SetEnergy(seat, n int) {
	h.Game.mu.Lock()
	defer h.Game.mu.Unlock()
	p := h.Player(seat)
	p.TotalEnergy = n
	p.Energy = n
}

// SetShadows sets the seat's shadow count.
func (h *GameHarness) SetShadows(seat, n int) {
	h.Game.mu.Lock()
	defer h.Game.mu.Unlock()
	h.Player(seat).Shadows = n
}

// PutInHand creates name in the seat's hand without firing triggers.
func (h *GameHarness) PutInHand(seat int, name string) *Card {
	h.t.Helper()
	h.Game.mu.Lock()
	defer h.Game.mu.Unlock()
	c, err := h.Game.createCard(name, h.Player(seat), StateHeld)
	if err != nil {
		h.t.Fatalf("create %s: %v", name, err)
	}
	h.Game.registerEffects(c)
	if !h.Player(seat).Hand.Add(c) {
		h.t.Fatalf("hand of seat %d is full", seat)
	}
	return c
}

// PutOnBoard creates name on the seat's board without firing triggers.
// Monsters are ready to attack when ready is set.
func (h *GameHarness) PutOnBoard(seat int, name string, ready bool) *Card {
	h.t.Helper()
	h.Game.mu.Lock()
	defer h.Game.mu.Unlock()
	c, err := h.Game.createCard(name, h.Player(seat), StateHeld)
	if err != nil {
		h.t.Fatalf("create %s: %v", name, err)
	}
	h.Game.registerEffects(c)
	if !h.Game.enterBoard(c) {
		h.t.Fatalf("board of seat %d is full", seat)
	}
	if ready && c.IsMonster() {
		c.AttackState = AttackStorm
	}
	return c
}

// PutOnDeck creates name on top of the seat's deck.
func (h *GameHarness) PutOnDeck(seat int, name string) *Card {
	h.t.Helper()
	h.Game.mu.Lock()
	defer h.Game.mu.Unlock()
	c, err := h.Game.createCard(name, h.Player(seat), StateInDeck)
	if err != nil {
		h.t.Fatalf("create %s: %v", name, err)
	}
	h.Player(seat).Deck.Add(c)
	return c
}

// EmptyDeck removes every card from the seat's deck.
func (h *GameHarness) EmptyDeck(seat int) {
	h.Game.mu.Lock()
	defer h.Game.mu.Unlock()
	d := h.Player(seat).Deck
	for _, c := range d.Cards() {
		d.Remove(c)
	}
}

// Run drives the game with its providers until it ends.
func (h *GameHarness) Run() error {
	return h.Game.Run(h.ctx)
}

// ViewJSON renders the seat's view, for debugging failed scenarios.
func (h *GameHarness) ViewJSON(seat int) string {
	body, err := json.MarshalIndent(h.Game.View(seat), "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(body)
}

// With runs fn under the game lock, for direct state setup.
func (h *GameHarness) With(fn func(g *Game)) {
	h.Game.mu.Lock()
	defer h.Game.mu.Unlock()
	fn(h.Game)
}
