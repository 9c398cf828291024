package game

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ChecksumVersion changes whenever the hashed representation does.
const ChecksumVersion = 1

// Checksum is a deterministic hash of the game state. Two games built from
// the same decks, seed and decisions produce the same hash turn by turn.
type Checksum struct {
	Hash    string `json:"hash"`
	Turn    int    `json:"turn"`
	Version int    `json:"version"`
}

// Checksum hashes the current state of the game.
func (g *Game) Checksum() Checksum {
	g.mu.Lock()
	defer g.mu.Unlock()
	sum := sha256.Sum256([]byte(g.deterministicRepresentation()))
	return Checksum{
		Hash:    hex.EncodeToString(sum[:]),
		Turn:    g.turns.TurnNumber(),
		Version: ChecksumVersion,
	}
}

// deterministicRepresentation leaves out card indices, ids and timestamps;
// those differ between otherwise identical runs.
func (g *Game) deterministicRepresentation() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "STATE:%s\n", g.lifecycle.State())
	fmt.Fprintf(&buf, "TURN:%d\n", g.turns.TurnNumber())
	fmt.Fprintf(&buf, "PHASE:%s\n", g.turns.CurrentPhase())
	fmt.Fprintf(&buf, "ACTIVE:%s\n", g.ActivePlayer().Name)
	fmt.Fprintf(&buf, "WINNER:%s\n", g.winner)

	for _, p := range g.players {
		fmt.Fprintf(&buf, "PLAYER:%s|seat=%d|hp=%d/%d|energy=%d/%d|shadows=%d|evo=%d|evolved=%t|turns=%d|lost=%t\n",
			p.Name, p.Seat, p.Health, p.MaxHealth, p.Energy, p.TotalEnergy,
			p.Shadows, p.EvolutionPoints, p.HasEvolvedThisTurn, p.TurnsPlayed, p.Lost)

		invoked := append([]string(nil), p.Invoked...)
		sort.Strings(invoked)
		fmt.Fprintf(&buf, "  INVOKED:%s\n", strings.Join(invoked, ","))

		// deck order is part of the state
		buf.WriteString("  DECK:")
		buf.WriteString(strings.Join(cardLines(p.Deck.cards), ","))
		buf.WriteString("\n")
		buf.WriteString("  HAND:")
		buf.WriteString(strings.Join(cardLines(p.Hand.cards), ","))
		buf.WriteString("\n")
		buf.WriteString("  BOARD:")
		buf.WriteString(strings.Join(cardLines(p.Board.cards), ","))
		buf.WriteString("\n")

		var graveyard []string
		for _, c := range p.known {
			if !c.InZone() {
				graveyard = append(graveyard, c.Name+"/"+c.State.String())
			}
		}
		sort.Strings(graveyard)
		buf.WriteString("  GONE:")
		buf.WriteString(strings.Join(graveyard, ","))
		buf.WriteString("\n")
	}
	return buf.String()
}

func cardLines(cards []*Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		line := fmt.Sprintf("%s/%s", c.Name, c.State)
		if c.IsMonster() {
			line += fmt.Sprintf("/%d:%d/%s", c.Attack, c.Defense, c.AttackState)
		}
		if c.Countdown != nil {
			line += fmt.Sprintf("/cd=%d", c.Countdown.Count)
		}
		out[i] = line
	}
	return out
}
