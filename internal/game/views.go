package game

// SpectatorSeat views the game without either hand.
const SpectatorSeat = -1

// CardView is the presentation snapshot of one card.
type CardView struct {
	Index       uint64   `json:"index"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Trait       string   `json:"trait,omitempty"`
	Cost        int      `json:"cost"`
	State       string   `json:"state"`
	Attack      int      `json:"attack,omitempty"`
	Defense     int      `json:"defense,omitempty"`
	AttackState string   `json:"attack_state,omitempty"`
	Evolved     bool     `json:"evolved,omitempty"`
	Countdown   int      `json:"countdown,omitempty"`
	Abilities   []string `json:"abilities,omitempty"`
	Effects     []string `json:"effects,omitempty"`
}

// PlayerView is one seat as seen by the viewer. Hand is only filled for the
// viewer's own seat.
type PlayerView struct {
	Name               string     `json:"name"`
	Seat               int        `json:"seat"`
	Health             int        `json:"health"`
	MaxHealth          int        `json:"max_health"`
	Energy             int        `json:"energy"`
	TotalEnergy        int        `json:"total_energy"`
	Shadows            int        `json:"shadows"`
	EvolutionPoints    int        `json:"evolution_points"`
	HasEvolvedThisTurn bool       `json:"has_evolved_this_turn"`
	DeckSize           int        `json:"deck_size"`
	HandSize           int        `json:"hand_size"`
	Hand               []CardView `json:"hand,omitempty"`
	Board              []CardView `json:"board"`
	Lost               bool       `json:"lost,omitempty"`
}

// GameView is the presentation snapshot handed to providers and clients.
type GameView struct {
	GameID       string       `json:"game_id"`
	State        string       `json:"state"`
	Turn         int          `json:"turn"`
	Phase        string       `json:"phase"`
	ActivePlayer string       `json:"active_player"`
	Winner       string       `json:"winner,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Players      []PlayerView `json:"players"`
}

// View returns the game as seen from seat; SpectatorSeat hides both hands.
func (g *Game) View(seat int) GameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view(seat)
}

func (g *Game) view(seat int) GameView {
	v := GameView{
		GameID:       g.ID,
		State:        string(g.lifecycle.State()),
		Turn:         g.turns.TurnNumber(),
		Phase:        g.turns.CurrentPhase().String(),
		ActivePlayer: g.ActivePlayer().Name,
		Winner:       g.winner,
		Reason:       g.overReason,
		Players:      make([]PlayerView, 0, len(g.players)),
	}
	for _, p := range g.players {
		pv := PlayerView{
			Name:               p.Name,
			Seat:               p.Seat,
			Health:             p.Health,
			MaxHealth:          p.MaxHealth,
			Energy:             p.Energy,
			TotalEnergy:        p.TotalEnergy,
			Shadows:            p.Shadows,
			EvolutionPoints:    p.EvolutionPoints,
			HasEvolvedThisTurn: p.HasEvolvedThisTurn,
			DeckSize:           p.Deck.Len(),
			HandSize:           p.Hand.Len(),
			Board:              cardViews(p.Board.cards),
			Lost:               p.Lost,
		}
		if p.Seat == seat {
			pv.Hand = cardViews(p.Hand.cards)
		}
		v.Players = append(v.Players, pv)
	}
	return v
}

func cardViews(cards []*Card) []CardView {
	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.view())
	}
	return out
}

func (c *Card) view() CardView {
	v := CardView{
		Index:     c.Index,
		Key:       c.Key(),
		Name:      c.Name,
		Type:      string(c.Type),
		Trait:     c.Trait,
		Cost:      c.Cost,
		State:     c.State.String(),
		Countdown: c.countdown(),
		Abilities: c.Abilities(),
		Effects:   effectSpecs(c.active.specs),
	}
	if c.IsMonster() {
		v.Attack = c.Attack
		v.Defense = c.Defense
		v.AttackState = c.AttackState.String()
		v.Evolved = c.Evolved
	}
	return v
}
