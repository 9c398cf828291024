package effects

import (
	"errors"
	"fmt"
)

// ErrUnknownOp is returned when an effect names an operation that does not exist.
var ErrUnknownOp = errors.New("unknown effect op")

// Kind tags an effect operation.
type Kind string

const (
	KindBuff            Kind = "Buff"
	KindDamage          Kind = "Damage"
	KindHeal            Kind = "Heal"
	KindGainShadows     Kind = "GainShadows"
	KindGainEnergy      Kind = "GainEnergy"
	KindGainTotalEnergy Kind = "GainTotalEnergy"
	KindDraw            Kind = "Draw"
	KindAddCards        Kind = "AddCards"
	KindSummon          Kind = "Summon"
	KindTutor           Kind = "Tutor"
	KindInvoke          Kind = "Invoke"
	KindNecromancy      Kind = "Necromancy"
	KindDestroy         Kind = "Destroy"
	KindBanish          Kind = "Banish"
	KindDiscard         Kind = "Discard"
	KindSetAttackState  Kind = "SetAttackState"
	KindCountdown       Kind = "Countdown"
	KindEvolve          Kind = "Evolve"
	KindRegister        Kind = "Register"
	KindAll             Kind = "All"
)

// Subject selects who an operation applies to, relative to the effect's
// source card and the trigger that fired it.
type Subject string

const (
	SubjectSelf          Subject = "Self"
	SubjectOwner         Subject = "Owner"
	SubjectOpponent      Subject = "Opponent"
	SubjectTargets       Subject = "Targets"
	SubjectSubject       Subject = "Subject"
	SubjectFriendlyBoard Subject = "FriendlyBoard"
	SubjectEnemyBoard    Subject = "EnemyBoard"
)

// Holder selects where a Register op stores the new effect.
type Holder string

const (
	HolderOwner Holder = "Owner"
	HolderSelf  Holder = "Self"
)

// Op is one typed effect operation.
type Op interface {
	Kind() Kind
	Validate() error
}

// Buff changes attack and defense of monsters.
type Buff struct {
	Subject Subject
	Attack  int
	Defense int
}

// Damage deals damage to monsters or players.
type Damage struct {
	Subject Subject
	Amount  int
}

// Heal restores player health up to the cap.
type Heal struct {
	Subject Subject
	Amount  int
}

// GainShadows adds shadows to players.
type GainShadows struct {
	Subject Subject
	Amount  int
}

// GainEnergy restores current energy, bounded by total energy.
type GainEnergy struct {
	Subject Subject
	Amount  int
}

// GainTotalEnergy raises total energy, bounded by the energy cap.
type GainTotalEnergy struct {
	Subject Subject
	Amount  int
}

// Draw makes players draw cards.
type Draw struct {
	Subject Subject
	Count   int
}

// AddCards creates named cards in a player's hand.
type AddCards struct {
	Subject Subject
	Names   []string
}

// Summon creates named cards directly on a player's board.
type Summon struct {
	Subject Subject
	Names   []string
}

// Tutor moves random deck cards of a type into the owner's hand.
type Tutor struct {
	Type  string
	Count int
}

// Invoke plays the source card from its owner's deck.
type Invoke struct{}

// Necromancy spends shadows and, if it could, runs Then.
type Necromancy struct {
	Shadows int
	Then    Op
}

// Destroy runs the destroy sequence on board cards.
type Destroy struct {
	Subject Subject
}

// Banish runs the banish sequence on board cards.
type Banish struct {
	Subject Subject
}

// Discard removes cards from hand.
type Discard struct {
	Subject Subject
}

// SetAttackState grants rush or storm.
type SetAttackState struct {
	Subject Subject
	State   string
}

// Countdown reduces amulet countdowns.
type Countdown struct {
	Subject Subject
	Amount  int
}

// Evolve evolves monsters without spending evolution points.
type Evolve struct {
	Subject Subject
}

// Register adds a new effect to the owner or to the source card.
type Register struct {
	Holder Holder
	Effect Spec
}

// All runs its ops in order.
type All struct {
	Ops []Op
}

func (Buff) Kind() Kind            { return KindBuff }
func (Damage) Kind() Kind          { return KindDamage }
func (Heal) Kind() Kind            { return KindHeal }
func (GainShadows) Kind() Kind     { return KindGainShadows }
func (GainEnergy) Kind() Kind      { return KindGainEnergy }
func (GainTotalEnergy) Kind() Kind { return KindGainTotalEnergy }
func (Draw) Kind() Kind            { return KindDraw }
func (AddCards) Kind() Kind        { return KindAddCards }
func (Summon) Kind() Kind          { return KindSummon }
func (Tutor) Kind() Kind           { return KindTutor }
func (Invoke) Kind() Kind          { return KindInvoke }
func (Necromancy) Kind() Kind      { return KindNecromancy }
func (Destroy) Kind() Kind         { return KindDestroy }
func (Banish) Kind() Kind          { return KindBanish }
func (Discard) Kind() Kind         { return KindDiscard }
func (SetAttackState) Kind() Kind  { return KindSetAttackState }
func (Countdown) Kind() Kind       { return KindCountdown }
func (Evolve) Kind() Kind          { return KindEvolve }
func (Register) Kind() Kind        { return KindRegister }
func (All) Kind() Kind             { return KindAll }

var (
	cardSubjects   = []Subject{SubjectSelf, SubjectTargets, SubjectSubject, SubjectFriendlyBoard, SubjectEnemyBoard}
	playerSubjects = []Subject{SubjectOwner, SubjectOpponent, SubjectTargets}
	anySubjects    = []Subject{SubjectSelf, SubjectOwner, SubjectOpponent, SubjectTargets, SubjectSubject, SubjectFriendlyBoard, SubjectEnemyBoard}
)

func checkSubject(kind Kind, s Subject, allowed []Subject) error {
	for _, a := range allowed {
		if s == a {
			return nil
		}
	}
	return fmt.Errorf("%s: subject %q not allowed", kind, s)
}

func checkAmount(kind Kind, n int) error {
	if n < 0 {
		return fmt.Errorf("%s: negative amount %d", kind, n)
	}
	return nil
}

func (o Buff) Validate() error { return checkSubject(o.Kind(), o.Subject, cardSubjects) }

func (o Damage) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, anySubjects); err != nil {
		return err
	}
	return checkAmount(o.Kind(), o.Amount)
}

func (o Heal) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, playerSubjects); err != nil {
		return err
	}
	return checkAmount(o.Kind(), o.Amount)
}

func (o GainShadows) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, playerSubjects); err != nil {
		return err
	}
	return checkAmount(o.Kind(), o.Amount)
}

func (o GainEnergy) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, playerSubjects); err != nil {
		return err
	}
	return checkAmount(o.Kind(), o.Amount)
}

func (o GainTotalEnergy) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, playerSubjects); err != nil {
		return err
	}
	return checkAmount(o.Kind(), o.Amount)
}

func (o Draw) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, playerSubjects); err != nil {
		return err
	}
	return checkAmount(o.Kind(), o.Count)
}

func (o AddCards) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, playerSubjects); err != nil {
		return err
	}
	return checkNames(o.Kind(), o.Names)
}

func (o Summon) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, playerSubjects); err != nil {
		return err
	}
	return checkNames(o.Kind(), o.Names)
}

func checkNames(kind Kind, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%s: no card names", kind)
	}
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("%s: empty card name", kind)
		}
	}
	return nil
}

func (o Tutor) Validate() error {
	switch o.Type {
	case "", "Monster", "Spell", "Amulet":
	default:
		return fmt.Errorf("%s: unknown card type %q", o.Kind(), o.Type)
	}
	return checkAmount(o.Kind(), o.Count)
}

func (Invoke) Validate() error { return nil }

func (o Necromancy) Validate() error {
	if o.Shadows <= 0 {
		return fmt.Errorf("%s: shadow cost must be positive", o.Kind())
	}
	if o.Then == nil {
		return fmt.Errorf("%s: missing Then", o.Kind())
	}
	return o.Then.Validate()
}

func (o Destroy) Validate() error { return checkSubject(o.Kind(), o.Subject, cardSubjects) }
func (o Banish) Validate() error  { return checkSubject(o.Kind(), o.Subject, cardSubjects) }
func (o Discard) Validate() error { return checkSubject(o.Kind(), o.Subject, cardSubjects) }
func (o Evolve) Validate() error  { return checkSubject(o.Kind(), o.Subject, cardSubjects) }

func (o SetAttackState) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, cardSubjects); err != nil {
		return err
	}
	if o.State != "rush" && o.State != "storm" {
		return fmt.Errorf("%s: state must be rush or storm, got %q", o.Kind(), o.State)
	}
	return nil
}

func (o Countdown) Validate() error {
	if err := checkSubject(o.Kind(), o.Subject, cardSubjects); err != nil {
		return err
	}
	return checkAmount(o.Kind(), o.Amount)
}

func (o Register) Validate() error {
	if o.Holder != HolderOwner && o.Holder != HolderSelf {
		return fmt.Errorf("%s: holder must be Owner or Self, got %q", o.Kind(), o.Holder)
	}
	return o.Effect.Validate()
}

func (o All) Validate() error {
	if len(o.Ops) == 0 {
		return fmt.Errorf("%s: no ops", o.Kind())
	}
	for i, op := range o.Ops {
		if op == nil {
			return fmt.Errorf("%s: op %d is empty", o.Kind(), i)
		}
		if err := op.Validate(); err != nil {
			return fmt.Errorf("%s[%d]: %w", o.Kind(), i, err)
		}
	}
	return nil
}
