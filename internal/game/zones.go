package game

import "math/rand/v2"

// pile is an ordered set of cards shared by the zone types.
type pile struct {
	cards []*Card
}

func (p *pile) Len() int { return len(p.cards) }

// Cards returns a snapshot of the zone.
func (p *pile) Cards() []*Card {
	out := make([]*Card, len(p.cards))
	copy(out, p.cards)
	return out
}

func (p *pile) Contains(c *Card) bool {
	return p.indexOf(c) >= 0
}

func (p *pile) indexOf(c *Card) int {
	for i, card := range p.cards {
		if card == c {
			return i
		}
	}
	return -1
}

// Remove takes c out of the zone, keeping the order of the rest.
func (p *pile) Remove(c *Card) bool {
	i := p.indexOf(c)
	if i < 0 {
		return false
	}
	p.cards = append(p.cards[:i], p.cards[i+1:]...)
	return true
}

// Deck is a player's library. The top card is the last element.
type Deck struct {
	pile
}

// Add puts c on top of the deck.
func (d *Deck) Add(c *Card) {
	d.cards = append(d.cards, c)
}

// DrawTop removes and returns the top card.
func (d *Deck) DrawTop() (*Card, bool) {
	if len(d.cards) == 0 {
		return nil, false
	}
	top := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return top, true
}

// Shuffle reorders the deck with rng.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Hand is a capped zone. Overflow is handled by the game, not the zone.
type Hand struct {
	pile
	capacity int
}

func (h *Hand) HasSpace() bool { return len(h.cards) < h.capacity }

// Add appends c when there is room.
func (h *Hand) Add(c *Card) bool {
	if !h.HasSpace() {
		return false
	}
	h.cards = append(h.cards, c)
	return true
}

// Board is a capped zone of monsters and amulets in play order.
type Board struct {
	pile
	capacity int
}

func (b *Board) HasSpace() bool { return len(b.cards) < b.capacity }

// Add appends c when there is room.
func (b *Board) Add(c *Card) bool {
	if !b.HasSpace() {
		return false
	}
	b.cards = append(b.cards, c)
	return true
}

// Monsters returns the monsters on the board in order.
func (b *Board) Monsters() []*Card {
	var out []*Card
	for _, c := range b.cards {
		if c.IsMonster() {
			out = append(out, c)
		}
	}
	return out
}

// Amulets returns the amulets on the board in order.
func (b *Board) Amulets() []*Card {
	var out []*Card
	for _, c := range b.cards {
		if c.IsAmulet() {
			out = append(out, c)
		}
	}
	return out
}
