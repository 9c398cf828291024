package counters

// Counter is a named non-negative count carried by a card, such as an
// amulet's countdown.
type Counter struct {
	Name  string
	Count int
}

// CounterCountdown names the amulet countdown counter.
const CounterCountdown = "countdown"

// NewCounter creates a counter. Negative counts are clamped to zero.
func NewCounter(name string, count int) *Counter {
	if count < 0 {
		count = 0
	}
	return &Counter{
		Name:  name,
		Count: count,
	}
}

// Add raises the count.
func (c *Counter) Add(amount int) {
	if amount > 0 {
		c.Count += amount
	}
}

// Remove lowers the count, stopping at zero.
func (c *Counter) Remove(amount int) {
	if amount > 0 {
		if c.Count >= amount {
			c.Count -= amount
		} else {
			c.Count = 0
		}
	}
}

// Expired reports whether the counter has reached zero.
func (c *Counter) Expired() bool {
	return c.Count == 0
}

// Copy returns an independent counter with the same name and count.
func (c *Counter) Copy() *Counter {
	return &Counter{
		Name:  c.Name,
		Count: c.Count,
	}
}
