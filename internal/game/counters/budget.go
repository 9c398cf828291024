package counters

// Unlimited marks a budget that is never consumed.
const Unlimited = -1

// Budget is an effect's activation allowance: Current uses left out of Max.
// Invariant: 0 <= Current <= Max, or Max == Unlimited.
type Budget struct {
	Current int
	Max     int
}

// NewBudget returns a full budget of max uses. Zero or negative values
// other than Unlimited are treated as a single use.
func NewBudget(max int) Budget {
	if max == Unlimited {
		return Budget{Current: Unlimited, Max: Unlimited}
	}
	if max <= 0 {
		max = 1
	}
	return Budget{Current: max, Max: max}
}

// IsUnlimited reports whether the budget never depletes.
func (b *Budget) IsUnlimited() bool {
	return b.Max == Unlimited
}

// Available reports whether at least one use remains.
func (b *Budget) Available() bool {
	return b.IsUnlimited() || b.Current > 0
}

// Consume spends one use. Unlimited budgets are untouched.
func (b *Budget) Consume() {
	if b.IsUnlimited() || b.Current == 0 {
		return
	}
	b.Current--
}

// Refill restores one use, clamped to Max.
func (b *Budget) Refill() {
	if b.IsUnlimited() || b.Current >= b.Max {
		return
	}
	b.Current++
}
