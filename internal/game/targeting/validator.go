package targeting

import (
	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/expr"
)

// State exposes the candidate pools of a game to the resolver.
type State interface {
	// BoardCandidates returns the cards on both boards, seat order.
	BoardCandidates() []Candidate
	// HandCandidates returns the cards in player's hand.
	HandCandidates(player string) []Candidate
	// PlayerCandidate returns the player as a candidate.
	PlayerCandidate(player string) Candidate
	// OpponentOf names player's opponent.
	OpponentOf(player string) string
	// TargetEnv is the guard context with candidate bound as target.
	TargetEnv(player string, candidate Candidate) expr.Env
}

// Resolver computes legal target sets.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve returns the deduplicated union, in first-seen order, of the
// candidates matching at least one criteria entry for actor.
func (r *Resolver) Resolve(actor string, criteria []Criteria, st State) []Candidate {
	var (
		out  []Candidate
		seen = make(map[string]struct{})
	)
	for i := range criteria {
		for _, c := range r.resolveOne(actor, &criteria[i], st) {
			if _, dup := seen[c.TargetKey()]; dup {
				continue
			}
			seen[c.TargetKey()] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func (r *Resolver) resolveOne(actor string, c *Criteria, st State) []Candidate {
	board := st.BoardCandidates()
	hand := st.HandCandidates(actor)
	pool := make([]Candidate, 0, len(board)+len(hand))
	pool = append(pool, board...)
	pool = append(pool, hand...)

	switch c.Type {
	case TargetTypeEnemyPlayer:
		pool = []Candidate{st.PlayerCandidate(st.OpponentOf(actor))}
	case TargetTypeFriendlyPlayer:
		pool = []Candidate{st.PlayerCandidate(actor)}
	case TargetTypeMonster, TargetTypeAmulet:
		pool = filter(pool, func(cand Candidate) bool {
			return !cand.IsPlayer() && cand.CardType() == string(c.Type)
		})
	}

	switch c.Location {
	case LocationFriendlyBoard:
		pool = filter(pool, func(cand Candidate) bool {
			return cand.OnBoard() && cand.TargetOwner() == actor
		})
	case LocationEnemyBoard:
		pool = filter(pool, func(cand Candidate) bool {
			return cand.OnBoard() && cand.TargetOwner() != actor
		})
	case LocationFriendlyHand:
		pool = filter(pool, func(cand Candidate) bool {
			return cand.InHand() && cand.TargetOwner() == actor
		})
	}

	guard, err := c.Guard()
	if err != nil {
		r.logger.Warn("target test does not compile",
			zap.String("test", c.Test),
			zap.Error(err),
		)
		return nil
	}
	if guard != nil {
		pool = filter(pool, func(cand Candidate) bool {
			ok, err := guard.Eval(st.TargetEnv(actor, cand))
			if err != nil {
				r.logger.Warn("target test failed",
					zap.String("test", c.Test),
					zap.String("candidate", cand.TargetKey()),
					zap.Error(err),
				)
				return false
			}
			return ok
		})
	}
	return pool
}

func filter(pool []Candidate, keep func(Candidate) bool) []Candidate {
	out := pool[:0:0]
	for _, c := range pool {
		if c != nil && keep(c) {
			out = append(out, c)
		}
	}
	return out
}
