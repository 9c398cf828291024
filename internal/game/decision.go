package game

import (
	"context"
	"math/rand/v2"
)

// ActionKind names what a player does during the action loop.
type ActionKind string

const (
	ActionPlay    ActionKind = "play"
	ActionAttack  ActionKind = "attack"
	ActionEvolve  ActionKind = "evolve"
	ActionEndTurn ActionKind = "end_turn"
)

// PlayMode selects how a card leaves the hand.
type PlayMode string

const (
	ModeNormal     PlayMode = "normal"
	ModeAccelerate PlayMode = "accelerate"
	ModeEnhance    PlayMode = "enhance"
)

// Action is one decision of the acting player. Card is a card index; Target
// is a target key ("card:<index>" or "player:<name>").
type Action struct {
	Kind   ActionKind `json:"kind"`
	Card   uint64     `json:"card,omitempty"`
	Mode   PlayMode   `json:"mode,omitempty"`
	Target string     `json:"target,omitempty"`
}

// EndTurn is the action that hands the turn over.
func EndTurn() Action { return Action{Kind: ActionEndTurn} }

// Play plays a hand card normally.
func Play(card uint64) Action { return Action{Kind: ActionPlay, Card: card, Mode: ModeNormal} }

// PlayAs plays a hand card in a given mode.
func PlayAs(card uint64, mode PlayMode) Action {
	return Action{Kind: ActionPlay, Card: card, Mode: mode}
}

// Attack attacks target with a board monster.
func Attack(card uint64, target string) Action {
	return Action{Kind: ActionAttack, Card: card, Target: target}
}

// Evolve spends an evolution point on a board monster.
func Evolve(card uint64) Action { return Action{Kind: ActionEvolve, Card: card} }

// PlayOption is a legal play offered to the player.
type PlayOption struct {
	Card uint64   `json:"card"`
	Name string   `json:"name"`
	Mode PlayMode `json:"mode"`
	Cost int      `json:"cost"`
}

// AttackOption is a ready attacker and the keys it may attack.
type AttackOption struct {
	Card    uint64   `json:"card"`
	Name    string   `json:"name"`
	Targets []string `json:"targets"`
}

// EvolveOption is a monster that may evolve now.
type EvolveOption struct {
	Card uint64 `json:"card"`
	Name string `json:"name"`
}

// ActionRequest asks the acting player for their next action.
type ActionRequest struct {
	GameID  string         `json:"game_id"`
	Player  string         `json:"player"`
	Turn    int            `json:"turn"`
	View    GameView       `json:"view"`
	Plays   []PlayOption   `json:"plays"`
	Attacks []AttackOption `json:"attacks"`
	Evolves []EvolveOption `json:"evolves"`
	// Rejected explains why the previous answer was refused.
	Rejected string `json:"rejected,omitempty"`
}

// TargetOption is one selectable target.
type TargetOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// TargetRequest asks a player to pick targets for a card.
type TargetRequest struct {
	GameID     string         `json:"game_id"`
	Player     string         `json:"player"`
	Source     uint64         `json:"source"`
	SourceName string         `json:"source_name"`
	Candidates []TargetOption `json:"candidates"`
	Count      int            `json:"count"`
	View       GameView       `json:"view"`
	Rejected   string         `json:"rejected,omitempty"`
}

// MulliganRequest offers the opening hand for replacement.
type MulliganRequest struct {
	GameID string     `json:"game_id"`
	Player string     `json:"player"`
	Hand   []CardView `json:"hand"`
}

// DecisionProvider supplies a seat's choices. Calls block until the player
// answers or ctx ends.
type DecisionProvider interface {
	RequestAction(ctx context.Context, req ActionRequest) (Action, error)
	RequestTargets(ctx context.Context, req TargetRequest) ([]string, error)
}

// MulliganProvider is implemented by providers that take part in the
// mulligan. Providers without it keep their opening hand.
type MulliganProvider interface {
	RequestMulligan(ctx context.Context, req MulliganRequest) ([]uint64, error)
}

// RandomProvider picks uniformly among the legal options. Ending the turn is
// one option among the rest, so turns stay short.
type RandomProvider struct {
	rng *rand.Rand
}

// NewRandomProvider seeds a provider; equal seeds replay equal choices.
func NewRandomProvider(seed uint64) *RandomProvider {
	return &RandomProvider{rng: rand.New(rand.NewPCG(seed, seed^0x5eed))}
}

// RequestAction implements DecisionProvider.
func (p *RandomProvider) RequestAction(_ context.Context, req ActionRequest) (Action, error) {
	options := []Action{EndTurn()}
	for _, play := range req.Plays {
		options = append(options, PlayAs(play.Card, play.Mode))
	}
	for _, atk := range req.Attacks {
		for _, target := range atk.Targets {
			options = append(options, Attack(atk.Card, target))
		}
	}
	for _, evo := range req.Evolves {
		options = append(options, Evolve(evo.Card))
	}
	return options[p.rng.IntN(len(options))], nil
}

// RequestTargets implements DecisionProvider.
func (p *RandomProvider) RequestTargets(_ context.Context, req TargetRequest) ([]string, error) {
	keys := make([]string, len(req.Candidates))
	for i, c := range req.Candidates {
		keys[i] = c.Key
	}
	p.rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	n := req.Count
	if n > len(keys) {
		n = len(keys)
	}
	return keys[:n], nil
}
