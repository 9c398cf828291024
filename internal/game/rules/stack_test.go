package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackManagerPushPop(t *testing.T) {
	sm := NewStackManager()

	sm.Push(StackItem{ID: "first", Kind: StackItemKindStep})
	sm.Push(StackItem{ID: "second", Kind: StackItemKindEffect})

	item, err := sm.Pop()
	if err != nil {
		t.Fatalf("unexpected error popping top: %v", err)
	}
	if item.ID != "second" {
		t.Fatalf("expected LIFO order (second), got %s", item.ID)
	}

	item, err = sm.Pop()
	require.NoError(t, err)
	assert.Equal(t, "first", item.ID)

	_, err = sm.Pop()
	assert.ErrorIs(t, err, ErrStackEmpty)
}

func TestStackManagerPushAllKeepsOrder(t *testing.T) {
	sm := NewStackManager()
	sm.PushAll(StackItem{ID: "a"}, StackItem{ID: "b"}, StackItem{ID: "c"})

	top, ok := sm.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", top.ID)
	assert.Equal(t, 3, sm.Len())
}

// Nested work scheduled by an item must finish before the items below it.
func TestStackManagerDrainDepthFirst(t *testing.T) {
	sm := NewStackManager()
	var order []string

	step := func(name string, children ...StackItem) StackItem {
		return StackItem{ID: name, Resolve: func() error {
			order = append(order, name)
			sm.PushAll(children...)
			return nil
		}}
	}

	sm.PushAll(
		step("outer-1", step("inner-1a", step("deep")), step("inner-1b")),
		step("outer-2"),
	)

	require.NoError(t, sm.Drain(nil))
	assert.Equal(t, []string{"outer-1", "inner-1a", "deep", "inner-1b", "outer-2"}, order)
	assert.True(t, sm.IsEmpty())
}

func TestStackManagerDrainHalts(t *testing.T) {
	sm := NewStackManager()
	over := false
	ran := 0

	sm.PushAll(
		StackItem{ID: "lethal", Resolve: func() error { ran++; over = true; return nil }},
		StackItem{ID: "after", Resolve: func() error { ran++; return nil }},
	)

	require.NoError(t, sm.Drain(func() bool { return over }))
	assert.Equal(t, 1, ran)
	assert.True(t, sm.IsEmpty())
}

func TestStackManagerDrainError(t *testing.T) {
	sm := NewStackManager()
	boom := errors.New("boom")
	sm.PushAll(
		StackItem{ID: "bad", Description: "bad step", Resolve: func() error { return boom }},
		StackItem{ID: "never"},
	)

	err := sm.Drain(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, sm.IsEmpty())
}
