package counters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterRemoveFloorsAtZero(t *testing.T) {
	c := NewCounter(CounterCountdown, 2)
	c.Remove(1)
	assert.Equal(t, 1, c.Count)
	assert.False(t, c.Expired())

	c.Remove(5)
	assert.Equal(t, 0, c.Count)
	assert.True(t, c.Expired())

	c.Add(3)
	assert.Equal(t, 3, c.Count)
	cp := c.Copy()
	cp.Remove(1)
	assert.Equal(t, 3, c.Count)
}

func TestBudgetBounds(t *testing.T) {
	b := NewBudget(2)
	assert.True(t, b.Available())

	b.Consume()
	b.Consume()
	b.Consume()
	assert.Equal(t, 0, b.Current)
	assert.False(t, b.Available())

	b.Refill()
	b.Refill()
	b.Refill()
	assert.Equal(t, 2, b.Current, "refill clamps to max")
}

func TestBudgetUnlimited(t *testing.T) {
	b := NewBudget(Unlimited)
	for i := 0; i < 10; i++ {
		b.Consume()
	}
	assert.True(t, b.Available())
	assert.Equal(t, Unlimited, b.Current)

	b.Refill()
	assert.Equal(t, Unlimited, b.Current)
}

func TestNewBudgetDefaultsToSingleUse(t *testing.T) {
	b := NewBudget(0)
	assert.Equal(t, 1, b.Max)
	b.Consume()
	assert.False(t, b.Available())
}
