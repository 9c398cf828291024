package game

import (
	"github.com/shadowcraft/shadowcraft-server-go/internal/config"
)

// RuleSet carries the numeric rules of a match.
type RuleSet struct {
	MaxHealth                   int
	MaxEnergy                   int
	HandCapacity                int
	BoardCapacity               int
	FirstHand                   int
	SecondHand                  int
	EvolutionPoints             int
	SecondPlayerEvolutionPoints int
	EvolveAfterTurns            int
	CatchUpTurn                 int
	ClashEndState               AttackState
	// Seed drives shuffling and random selection; zero picks a random seed.
	Seed uint64
	// MaxRejections bounds how many illegal choices a provider may make in a
	// row before the engine decides for it.
	MaxRejections int
}

// DefaultRuleSet mirrors the configuration defaults.
func DefaultRuleSet() RuleSet {
	return RuleSetFromConfig(config.Default().Rules)
}

// RuleSetFromConfig converts validated configuration into rules.
func RuleSetFromConfig(cfg config.RulesConfig) RuleSet {
	clash := AttackSickness
	if cfg.ClashEndState == "attacked" {
		clash = AttackAttacked
	}
	return RuleSet{
		MaxHealth:                   cfg.MaxHealth,
		MaxEnergy:                   cfg.MaxEnergy,
		HandCapacity:                cfg.HandCapacity,
		BoardCapacity:               cfg.BoardCapacity,
		FirstHand:                   cfg.FirstHand,
		SecondHand:                  cfg.SecondHand,
		EvolutionPoints:             cfg.EvolutionPoints,
		SecondPlayerEvolutionPoints: cfg.SecondPlayerEvolutionPoints,
		EvolveAfterTurns:            cfg.EvolveAfterTurns,
		CatchUpTurn:                 cfg.CatchUpTurn,
		ClashEndState:               clash,
		Seed:                        uint64(cfg.Seed),
		MaxRejections:               8,
	}
}
