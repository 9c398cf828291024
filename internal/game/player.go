package game

import (
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// Player is one seat of a game with its resources and zones.
type Player struct {
	Name string
	Seat int

	Health      int
	MaxHealth   int
	Energy      int
	TotalEnergy int
	Shadows     int

	EvolutionPoints    int
	HasEvolvedThisTurn bool
	TurnsPlayed        int
	// Invoked lists the card names invoked during the current turn.
	Invoked []string

	Deck  *Deck
	Hand  *Hand
	Board *Board

	Lost bool

	effects  *rules.Registry
	provider DecisionProvider
	// every card ever owned, in creation order
	known []*Card
}

func newPlayer(name string, seat int, rs RuleSet, provider DecisionProvider) *Player {
	points := rs.EvolutionPoints
	if seat == 1 {
		points = rs.SecondPlayerEvolutionPoints
	}
	return &Player{
		Name:            name,
		Seat:            seat,
		Health:          rs.MaxHealth,
		MaxHealth:       rs.MaxHealth,
		EvolutionPoints: points,
		Deck:            &Deck{},
		Hand:            &Hand{capacity: rs.HandCapacity},
		Board:           &Board{capacity: rs.BoardCapacity},
		effects:         rules.NewRegistry(),
		provider:        provider,
	}
}

// Key identifies the player as a target.
func (p *Player) Key() string { return "player:" + p.Name }

// TargetKey implements targeting.Candidate.
func (p *Player) TargetKey() string   { return p.Key() }
func (p *Player) TargetOwner() string { return p.Name }
func (p *Player) IsPlayer() bool      { return true }
func (p *Player) CardType() string    { return "" }
func (p *Player) OnBoard() bool       { return false }
func (p *Player) InHand() bool        { return false }

func (p *Player) hasInvoked(name string) bool {
	for _, n := range p.Invoked {
		if n == name {
			return true
		}
	}
	return false
}

// Known returns every card the player has owned this game.
func (p *Player) Known() []*Card {
	out := make([]*Card, len(p.known))
	copy(out, p.known)
	return out
}

func (p *Player) gainShadows(n int) {
	if n > 0 {
		p.Shadows += n
	}
}

func (p *Player) heal(n int) int {
	if n <= 0 {
		return 0
	}
	before := p.Health
	p.Health += n
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	return p.Health - before
}

func (p *Player) gainEnergy(n int) {
	p.Energy += n
	if p.Energy > p.TotalEnergy {
		p.Energy = p.TotalEnergy
	}
	if p.Energy < 0 {
		p.Energy = 0
	}
}

func (p *Player) gainTotalEnergy(n, max int) {
	p.TotalEnergy += n
	if p.TotalEnergy > max {
		p.TotalEnergy = max
	}
	if p.TotalEnergy < 0 {
		p.TotalEnergy = 0
	}
	if p.Energy > p.TotalEnergy {
		p.Energy = p.TotalEnergy
	}
}

func (p *Player) spendEnergy(n int) {
	p.Energy -= n
	if p.Energy < 0 {
		p.Energy = 0
	}
}
