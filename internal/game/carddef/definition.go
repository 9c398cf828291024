package carddef

import (
	"errors"
	"fmt"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/effects"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/targeting"
)

// ErrInvalidDefinition wraps every structural problem found in a definition.
var ErrInvalidDefinition = errors.New("invalid card definition")

// CardType is the kind of card a definition describes.
type CardType string

const (
	TypeMonster CardType = "Monster"
	TypeSpell   CardType = "Spell"
	TypeAmulet  CardType = "Amulet"
)

// Keyword abilities understood by the engine.
const (
	AbilityStorm = "Storm"
	AbilityRush  = "Rush"
	AbilityDrain = "Drain"
	AbilityBane  = "Bane"
)

var knownAbilities = map[string]struct{}{
	AbilityStorm: {},
	AbilityRush:  {},
	AbilityDrain: {},
	AbilityBane:  {},
}

// Default evolution buff when a definition leaves it out.
const DefaultEvolveChange = 2

// Definition is the immutable description of a card, shared by every
// instance built from it.
type Definition struct {
	Name       string
	Cost       int
	Type       CardType
	Trait      string   `json:",omitempty"`
	Abilities  []string `json:",omitempty"`
	Base       Face
	Evolve     *Evolution  `json:",omitempty"`
	Accelerate *Accelerate `json:",omitempty"`
	Enhance    *Enhance    `json:",omitempty"`
}

// Face is the base side of a card.
type Face struct {
	Attack      int                  `json:",omitempty"`
	Defense     int                  `json:",omitempty"`
	Countdown   int                  `json:",omitempty"`
	Abilities   []string             `json:",omitempty"`
	Targets     []targeting.Criteria `json:",omitempty"`
	TargetCount int                  `json:",omitempty"`
	Effects     []effects.Spec       `json:",omitempty"`
}

// Evolution is the evolved side of a monster.
type Evolution struct {
	AttackChange  *int           `json:",omitempty"`
	DefenseChange *int           `json:",omitempty"`
	Abilities     []string       `json:",omitempty"`
	Effects       []effects.Spec `json:",omitempty"`
}

// Accelerate lets a monster be played as a cheaper spell.
type Accelerate struct {
	Cost        int
	Targets     []targeting.Criteria `json:",omitempty"`
	TargetCount int                  `json:",omitempty"`
	Effects     []effects.Spec       `json:",omitempty"`
}

// Enhance is a costlier play with overridden stats and extra effects.
type Enhance struct {
	Cost    int
	Attack  *int           `json:",omitempty"`
	Defense *int           `json:",omitempty"`
	Effects []effects.Spec `json:",omitempty"`
}

// Gains returns the attack and defense added on evolution.
func (e *Evolution) Gains() (int, int) {
	attack, defense := DefaultEvolveChange, DefaultEvolveChange
	if e == nil {
		return attack, defense
	}
	if e.AttackChange != nil {
		attack = *e.AttackChange
	}
	if e.DefenseChange != nil {
		defense = *e.DefenseChange
	}
	return attack, defense
}

func targetCount(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// BaseTargetCount is the number of targets chosen on a normal play.
func (d *Definition) BaseTargetCount() int { return targetCount(d.Base.TargetCount) }

// AccelerateTargetCount is the number of targets chosen on an accelerated play.
func (d *Definition) AccelerateTargetCount() int {
	if d.Accelerate == nil {
		return 0
	}
	return targetCount(d.Accelerate.TargetCount)
}

// HasAbility reports whether the definition carries the keyword innately.
func (d *Definition) HasAbility(name string) bool {
	for _, a := range d.Abilities {
		if a == name {
			return true
		}
	}
	for _, a := range d.Base.Abilities {
		if a == name {
			return true
		}
	}
	return false
}

// Validate checks the definition and compiles every guard it carries.
func (d *Definition) Validate() error {
	if err := d.validate(); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidDefinition, d.Name, err)
	}
	return nil
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return errors.New("missing name")
	}
	if d.Cost < 0 {
		return fmt.Errorf("negative cost %d", d.Cost)
	}
	switch d.Type {
	case TypeMonster:
		if d.Base.Defense <= 0 {
			return fmt.Errorf("monster defense must be positive, got %d", d.Base.Defense)
		}
		if d.Base.Attack < 0 {
			return fmt.Errorf("negative attack %d", d.Base.Attack)
		}
	case TypeSpell:
		if d.Evolve != nil {
			return errors.New("spells cannot evolve")
		}
	case TypeAmulet:
		if d.Evolve != nil {
			return errors.New("amulets cannot evolve")
		}
		if d.Base.Countdown < 0 {
			return fmt.Errorf("negative countdown %d", d.Base.Countdown)
		}
	default:
		return fmt.Errorf("unknown type %q", d.Type)
	}
	if d.Accelerate != nil && d.Type != TypeMonster {
		return errors.New("only monsters can accelerate")
	}

	if err := checkAbilities(d.Abilities); err != nil {
		return err
	}
	if err := checkAbilities(d.Base.Abilities); err != nil {
		return err
	}
	if err := checkTargets(d.Base.Targets); err != nil {
		return fmt.Errorf("base: %w", err)
	}
	if err := checkEffects(d.Base.Effects); err != nil {
		return fmt.Errorf("base: %w", err)
	}
	if e := d.Evolve; e != nil {
		if err := checkAbilities(e.Abilities); err != nil {
			return err
		}
		if err := checkEffects(e.Effects); err != nil {
			return fmt.Errorf("evolve: %w", err)
		}
	}
	if a := d.Accelerate; a != nil {
		if a.Cost < 0 {
			return fmt.Errorf("negative accelerate cost %d", a.Cost)
		}
		if err := checkTargets(a.Targets); err != nil {
			return fmt.Errorf("accelerate: %w", err)
		}
		if err := checkEffects(a.Effects); err != nil {
			return fmt.Errorf("accelerate: %w", err)
		}
	}
	if e := d.Enhance; e != nil {
		if e.Cost < d.Cost {
			return fmt.Errorf("enhance cost %d below base cost %d", e.Cost, d.Cost)
		}
		if e.Defense != nil && *e.Defense <= 0 {
			return fmt.Errorf("enhance defense must be positive, got %d", *e.Defense)
		}
		if err := checkEffects(e.Effects); err != nil {
			return fmt.Errorf("enhance: %w", err)
		}
	}
	return nil
}

func checkAbilities(abilities []string) error {
	for _, a := range abilities {
		if _, ok := knownAbilities[a]; !ok {
			return fmt.Errorf("unknown ability %q", a)
		}
	}
	return nil
}

func checkTargets(criteria []targeting.Criteria) error {
	for i := range criteria {
		if err := criteria[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func checkEffects(specs []effects.Spec) error {
	for i := range specs {
		if err := specs[i].Validate(); err != nil {
			return err
		}
		for _, name := range specs[i].Triggers() {
			if _, err := rules.ParseTrigger(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// CardNames lists every card name the definition's effects create.
func (d *Definition) CardNames() []string {
	var names []string
	collect := func(specs []effects.Spec) {
		for _, s := range specs {
			names = append(names, s.CardNames()...)
		}
	}
	collect(d.Base.Effects)
	if d.Evolve != nil {
		collect(d.Evolve.Effects)
	}
	if d.Accelerate != nil {
		collect(d.Accelerate.Effects)
	}
	if d.Enhance != nil {
		collect(d.Enhance.Effects)
	}
	return names
}
