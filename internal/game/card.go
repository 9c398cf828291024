package game

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/counters"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/effects"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// CardState is where a card instance is in its life.
type CardState int

const (
	StateInDeck CardState = iota
	StateHeld
	StatePlayed
	StateEvolved
	StateDestroyed
	StateBanished
	// StateResolving is a spell, or a monster played as one, between leaving
	// the hand and being spent. It is in no zone.
	StateResolving
)

var cardStateNames = [...]string{"inDeck", "held", "played", "evolved", "destroyed", "banished", "resolving"}

func (s CardState) String() string {
	if int(s) < len(cardStateNames) {
		return cardStateNames[s]
	}
	return "CardState(" + strconv.Itoa(int(s)) + ")"
}

// AttackState is a monster's readiness to attack this turn.
type AttackState int

const (
	AttackSickness AttackState = iota
	AttackRush
	AttackStorm
	AttackAttacked
)

var attackStateNames = [...]string{"sickness", "rush", "storm", "attacked"}

func (s AttackState) String() string {
	if int(s) < len(attackStateNames) {
		return attackStateNames[s]
	}
	return "AttackState(" + strconv.Itoa(int(s)) + ")"
}

// ParseAttackState resolves an attack state by name.
func ParseAttackState(name string) (AttackState, error) {
	for i, n := range attackStateNames {
		if n == name {
			return AttackState(i), nil
		}
	}
	return AttackSickness, fmt.Errorf("unknown attack state %q", name)
}

// card indices are unique per process so concurrent games never collide
var cardIndex atomic.Uint64

func nextCardIndex() uint64 {
	return cardIndex.Add(1)
}

// Face is one side of a card: its stats, keywords and the effects it holds.
type Face struct {
	Attack    int
	Defense   int
	Abilities []string

	specs   []effects.Spec
	effects *rules.Registry
}

func newFace(attack, defense int, abilities []string, specs []effects.Spec) *Face {
	return &Face{
		Attack:    attack,
		Defense:   defense,
		Abilities: abilities,
		specs:     specs,
		effects:   rules.NewRegistry(),
	}
}

// Card is one instance of a definition owned by a player.
type Card struct {
	Index uint64
	Name  string
	Cost  int
	Type  carddef.CardType
	Trait string
	State CardState
	Owner *Player
	Def   *carddef.Definition

	// Monster state.
	Attack      int
	Defense     int
	AttackState AttackState
	Evolved     bool

	// Amulet state; nil when the amulet has no countdown.
	Countdown *counters.Counter

	base    *Face
	evolved *Face
	active  *Face
	effects *rules.Registry

	invocationsRegistered bool
	effectsRegistered     bool
	enhanced              bool
}

func newCard(def *carddef.Definition, owner *Player, state CardState) *Card {
	c := &Card{
		Index:   nextCardIndex(),
		Name:    def.Name,
		Cost:    def.Cost,
		Type:    def.Type,
		Trait:   def.Trait,
		State:   state,
		Owner:   owner,
		Def:     def,
		Attack:  def.Base.Attack,
		Defense: def.Base.Defense,
		effects: rules.NewRegistry(),
	}
	c.base = newFace(def.Base.Attack, def.Base.Defense, def.Base.Abilities, def.Base.Effects)
	if def.Type == carddef.TypeMonster {
		attack, defense := def.Evolve.Gains()
		var abilities []string
		var specs []effects.Spec
		if def.Evolve != nil {
			abilities = def.Evolve.Abilities
			specs = def.Evolve.Effects
		}
		c.evolved = newFace(def.Base.Attack+attack, def.Base.Defense+defense, abilities, specs)
	}
	c.active = c.base
	if def.Type == carddef.TypeAmulet && def.Base.Countdown > 0 {
		c.Countdown = counters.NewCounter(counters.CounterCountdown, def.Base.Countdown)
	}
	return c
}

// Key identifies the card as a target.
func (c *Card) Key() string {
	return "card:" + strconv.FormatUint(c.Index, 10)
}

func (c *Card) String() string {
	return fmt.Sprintf("%s#%d", c.Name, c.Index)
}

func (c *Card) IsMonster() bool { return c.Type == carddef.TypeMonster }
func (c *Card) IsSpell() bool   { return c.Type == carddef.TypeSpell }
func (c *Card) IsAmulet() bool  { return c.Type == carddef.TypeAmulet }

// TargetKey implements targeting.Candidate.
func (c *Card) TargetKey() string   { return c.Key() }
func (c *Card) TargetOwner() string { return c.Owner.Name }
func (c *Card) IsPlayer() bool      { return false }
func (c *Card) CardType() string    { return string(c.Type) }

// OnBoard reports board membership: played or evolved.
func (c *Card) OnBoard() bool {
	return c.State == StatePlayed || c.State == StateEvolved
}

func (c *Card) InHand() bool { return c.State == StateHeld }

func (c *Card) InDeck() bool { return c.State == StateInDeck }

// InZone is false once the card has been destroyed or banished.
func (c *Card) InZone() bool {
	return c.State != StateDestroyed && c.State != StateBanished
}

// HasAbility checks the card-level keywords and the active face.
func (c *Card) HasAbility(name string) bool {
	for _, a := range c.Def.Abilities {
		if a == name {
			return true
		}
	}
	for _, a := range c.active.Abilities {
		if a == name {
			return true
		}
	}
	// evolving keeps the base face keywords
	if c.active != c.base {
		for _, a := range c.base.Abilities {
			if a == name {
				return true
			}
		}
	}
	return false
}

// Abilities lists the keywords currently in effect.
func (c *Card) Abilities() []string {
	var out []string
	for _, name := range []string{carddef.AbilityStorm, carddef.AbilityRush, carddef.AbilityDrain, carddef.AbilityBane} {
		if c.HasAbility(name) {
			out = append(out, name)
		}
	}
	return out
}

// CanAttack reports whether a board monster may attack an enemy monster.
func (c *Card) CanAttack() bool {
	return c.IsMonster() && c.OnBoard() && (c.AttackState == AttackRush || c.AttackState == AttackStorm)
}

// CanAttackLeader reports whether a board monster may attack the enemy player.
func (c *Card) CanAttackLeader() bool {
	return c.IsMonster() && c.OnBoard() && c.AttackState == AttackStorm
}

// CanEvolve reports whether the card is an un-evolved board monster.
func (c *Card) CanEvolve() bool {
	return c.IsMonster() && c.OnBoard() && !c.Evolved && c.evolved != nil
}

// resetStats restores the active face's printed stats.
func (c *Card) resetStats() {
	c.Attack = c.active.Attack
	c.Defense = c.active.Defense
}

// initialAttackState is sickness unless a keyword readies the monster.
func (c *Card) initialAttackState() AttackState {
	switch {
	case c.HasAbility(carddef.AbilityStorm):
		return AttackStorm
	case c.HasAbility(carddef.AbilityRush):
		return AttackRush
	default:
		return AttackSickness
	}
}

// registries lists the places the card's effects live, in pop order.
func (c *Card) registries() []*rules.Registry {
	return []*rules.Registry{c.active.effects, c.effects}
}

func (c *Card) countdown() int {
	if c.Countdown == nil {
		return 0
	}
	return c.Countdown.Count
}
